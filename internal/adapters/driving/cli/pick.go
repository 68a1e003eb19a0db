package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verseline/verseline/internal/core/domain"
)

var (
	pickCount int
	pickJSON  bool
)

var pickCmd = &cobra.Command{
	Use:   "pick <user-id> <caption>",
	Short: "Pick lyric lines matching a caption",
	Long: `Searches the user's indexed lyrics for the lines that best match
the given caption and lets the language model choose among them.`,
	Args: cobra.ExactArgs(2),
	RunE: runPick,
}

func init() {
	pickCmd.Flags().IntVarP(&pickCount, "count", "n", 1, "number of lines to pick")
	pickCmd.Flags().BoolVar(&pickJSON, "json", false, "output selections as JSON")
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	if lyricPicker == nil {
		return errors.New("picker service not configured")
	}

	userID, caption := args[0], args[1]

	selections, err := lyricPicker.Pick(context.Background(), userID, caption, pickCount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("no indexed lyrics for %s, run sync first", userID)
		case errors.Is(err, domain.ErrSelectionUnmatched):
			return errors.New("the model's answer matched none of the candidates, try again")
		default:
			return fmt.Errorf("pick failed: %w", err)
		}
	}

	if pickJSON {
		return outputSelectionsJSON(cmd, selections)
	}
	outputSelections(cmd, selections)
	return nil
}

func outputSelectionsJSON(cmd *cobra.Command, selections []domain.Selection) error {
	data, err := json.MarshalIndent(selections, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal selections: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSelections(cmd *cobra.Command, selections []domain.Selection) {
	for _, sel := range selections {
		cmd.Printf("%q\n", sel.Text)
		cmd.Printf("    %s by %s\n", sel.Track, sel.Artist)
	}
}
