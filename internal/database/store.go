package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the journal operations. Methods accept context.Context for
// cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveJournalEntry appends one dispatch outcome.
	SaveJournalEntry(ctx context.Context, entry *JournalEntry) error

	// CountJournalOutcomes groups entries created at or after since by outcome.
	CountJournalOutcomes(ctx context.Context, since time.Time) (map[Outcome]int, error)

	// PruneJournal deletes entries created before cutoff and reports how many.
	PruneJournal(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore implements Store using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by a connected sqlx.DB.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveJournalEntry inserts entry and sets its ID and CreatedAt.
func (s *sqlxStore) SaveJournalEntry(ctx context.Context, entry *JournalEntry) error {
	if entry == nil {
		return fmt.Errorf("cannot save nil journal entry")
	}
	if entry.Outcome == "" {
		return fmt.Errorf("journal entry must have an outcome")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO relay_journal (created_at, trace_id, event_type, source_message_id, source_peer_id,
                                   destination_chat, destination_message_id, outcome, detail)
        VALUES (:created_at, :trace_id, :event_type, :source_message_id, :source_peer_id,
                :destination_chat, :destination_message_id, :outcome, :detail);
    `

	result, err := s.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving journal entry",
			"trace_id", entry.TraceID, "outcome", entry.Outcome, "error", err)
		return fmt.Errorf("failed to save journal entry (message %d): %w", entry.SourceMessageID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // ids are positive rowids
		entry.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID for journal entry", "error", err)
	}

	return nil
}

// CountJournalOutcomes groups entries created at or after since by outcome.
func (s *sqlxStore) CountJournalOutcomes(ctx context.Context, since time.Time) (map[Outcome]int, error) {
	var rows []struct {
		Outcome Outcome `db:"outcome"`
		Count   int     `db:"count"`
	}

	query := `
        SELECT outcome, COUNT(*) AS count
        FROM relay_journal
        WHERE created_at >= ?
        GROUP BY outcome;
    `
	if err := s.db.SelectContext(ctx, &rows, query, since.UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error counting journal outcomes", "error", err)
		return nil, fmt.Errorf("failed to count journal outcomes: %w", err)
	}

	counts := make(map[Outcome]int, len(rows))
	for _, r := range rows {
		counts[r.Outcome] = r.Count
	}
	return counts, nil
}

// PruneJournal deletes entries created before cutoff inside a transaction.
func (s *sqlxStore) PruneJournal(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for journal prune", "error", err)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	result, err := tx.ExecContext(ctx, `DELETE FROM relay_journal WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error pruning journal", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}
	deleted, _ := result.RowsAffected()

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit journal prune", "error", err)
		return 0, fmt.Errorf("failed to commit journal prune: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Journal pruned", "cutoff", cutoff, "deleted", deleted)
	return deleted, nil
}

// RunSQLMaintenance executes VACUUM on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context done before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")

	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		s.logger.WarnContext(ctx, "Failed to set busy timeout", "error", err)
	}

	// VACUUM cannot run inside a transaction.
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed")
	return nil
}
