package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verseline/verseline/internal/core/domain"
	"github.com/verseline/verseline/internal/logger"
)

var postCount int

var postCmd = &cobra.Command{
	Use:   "post <user-id> <image-path>",
	Short: "Caption a photo and pick matching lyric lines",
	Long: `Runs the full flow: describes the photo, then picks the lyric lines
from the user's indexed library that best match the description.
If no lyric matches, the plain caption is printed instead.`,
	Args: cobra.ExactArgs(2),
	RunE: runPost,
}

func init() {
	postCmd.Flags().IntVarP(&postCount, "count", "n", 1, "number of lines to pick")
	rootCmd.AddCommand(postCmd)
}

func runPost(cmd *cobra.Command, args []string) error {
	if captioner == nil || lyricPicker == nil {
		return errors.New("caption and picker services not configured")
	}

	userID, imagePath := args[0], args[1]
	ctx := context.Background()

	image, mimeType, err := readImage(imagePath)
	if err != nil {
		return err
	}

	caption, err := captioner.Caption(ctx, image, mimeType)
	if err != nil {
		// No usable description means nothing downstream can work.
		if errors.Is(err, domain.ErrNoCaption) {
			return errors.New("the vision model returned no description for this image")
		}
		return fmt.Errorf("caption failed: %w", err)
	}
	logger.Info("Caption: %s", caption)

	selections, err := lyricPicker.Pick(ctx, userID, caption, postCount)
	if err != nil {
		// An empty library or an unmatched model answer degrades to the
		// bare caption rather than failing the post.
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrSelectionUnmatched) {
			logger.Warn("No lyric match (%v), falling back to the caption", err)
			cmd.Printf("%q\n", caption)
			return nil
		}
		return fmt.Errorf("pick failed: %w", err)
	}

	outputSelections(cmd, selections)
	return nil
}
