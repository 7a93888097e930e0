package tasks

import (
	"context"
	"fmt"
)

// newJournalPruneTask deletes journal entries older than the configured retention.
func newJournalPruneTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "journal_prune")

	return func(ctx context.Context) error {
		cutoff := deps.now().Add(-deps.Config.Database.JournalRetention)

		deleted, err := deps.Store.PruneJournal(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Journal prune failed", "cutoff", cutoff, "error", err)
			return fmt.Errorf("journal prune failed: %w", err)
		}

		log.InfoContext(ctx, "Journal pruned", "cutoff", cutoff, "deleted", deleted)
		return nil
	}
}
