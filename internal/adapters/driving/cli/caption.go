package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/verseline/verseline/internal/core/domain"
)

var captionCmd = &cobra.Command{
	Use:   "caption <image-path>",
	Short: "Describe a photo with the vision model",
	Args:  cobra.ExactArgs(1),
	RunE:  runCaption,
}

func init() {
	rootCmd.AddCommand(captionCmd)
}

func runCaption(cmd *cobra.Command, args []string) error {
	if captioner == nil {
		return errors.New("caption service not configured")
	}

	image, mimeType, err := readImage(args[0])
	if err != nil {
		return err
	}

	caption, err := captioner.Caption(context.Background(), image, mimeType)
	if err != nil {
		if errors.Is(err, domain.ErrNoCaption) {
			return errors.New("the vision model returned no description for this image")
		}
		return fmt.Errorf("caption failed: %w", err)
	}

	cmd.Println(caption)
	return nil
}

// readImage loads an image file and infers its MIME type from the
// extension. An unknown extension falls through to the service default.
func readImage(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	return data, mimeType, nil
}
