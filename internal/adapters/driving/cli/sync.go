package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/verseline/verseline/internal/core/domain"
	"github.com/verseline/verseline/internal/core/ports/driving"
)

var syncCmd = &cobra.Command{
	Use:   "sync <user-id>",
	Short: "Index lyrics for the user's music library",
	Long: `Fetches the user's saved tracks, retrieves and cleans their lyrics,
and indexes each track's lines for caption matching.
Tracks already indexed are skipped, so re-running is cheap.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if ingestOrchestrator == nil {
		return errors.New("ingest service not configured")
	}

	userID := args[0]
	ctx := context.Background()

	cmd.Printf("Syncing library for %s...\n", userID)

	state, err := syncWithProgress(ctx, cmd, ingestOrchestrator, userID)
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			return fmt.Errorf("a sync for %s is already running", userID)
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Printf("Done: %d indexed, %d skipped, %d failed.\n",
		state.Processed, state.Skipped, state.Failed)
	return nil
}

// syncWithProgress runs the sync while displaying progress updates.
func syncWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	orch driving.IngestOrchestrator,
	userID string,
) (*domain.SyncState, error) {
	type result struct {
		state *domain.SyncState
		err   error
	}
	resCh := make(chan result, 1)
	go func() {
		state, err := orch.Sync(ctx, userID)
		resCh <- result{state, err}
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case res := <-resCh:
			return res.state, res.err
		case <-ticker.C:
			// Best effort; a status error just skips this tick.
			status, err := orch.Status(ctx, userID)
			if err == nil && status != nil && status.TracksProcessed > lastCount {
				cmd.Printf("\rIndexing... %d tracks", status.TracksProcessed)
				lastCount = status.TracksProcessed
			}
		}
	}
}

var statusCmd = &cobra.Command{
	Use:   "status <user-id>",
	Short: "Show the user's sync status",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if ingestOrchestrator == nil {
		return errors.New("ingest service not configured")
	}

	status, err := ingestOrchestrator.Status(context.Background(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			cmd.Println("No sync recorded for this user.")
			return nil
		}
		return fmt.Errorf("status failed: %w", err)
	}

	if status.Running {
		cmd.Println("Sync in progress:")
	} else {
		cmd.Println("Last sync:")
	}
	cmd.Printf("  Indexed: %d\n", status.TracksProcessed)
	cmd.Printf("  Skipped: %d\n", status.TracksSkipped)
	cmd.Printf("  Errors:  %d\n", status.ErrorCount)
	return nil
}
