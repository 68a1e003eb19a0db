// Package cli implements the Verseline command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/verseline/verseline/internal/core/ports/driving"
	"github.com/verseline/verseline/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services are injected once at startup via SetServices. Commands check
// for nil so partial wiring fails with a clear message instead of a panic.
var (
	ingestOrchestrator driving.IngestOrchestrator
	lyricPicker        driving.LyricPicker
	captioner          driving.Captioner
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "verseline",
	Short: "Match photo captions to lyrics from your music library",
	Long: `Verseline indexes the lyrics of your saved tracks and finds the
lyric line that best matches a photo caption.

Typical flow:
  verseline sync <user-id>           index your library's lyrics
  verseline caption photo.jpg        describe a photo
  verseline pick <user-id> "..."     pick matching lyric lines
  verseline post <user-id> photo.jpg caption a photo end to end`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// SetServices injects the driving services used by the commands.
func SetServices(
	ingest driving.IngestOrchestrator,
	picker driving.LyricPicker,
	caption driving.Captioner,
) {
	ingestOrchestrator = ingest
	lyricPicker = picker
	captioner = caption
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
