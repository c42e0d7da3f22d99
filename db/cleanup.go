package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DefaultRetention is how long journal rows are kept.
const DefaultRetention = 90 * 24 * time.Hour

// PruneResult counts rows removed by Prune.
type PruneResult struct {
	AttemptsDeleted int64
	AlertsDeleted   int64
	Duration        time.Duration
}

// Total returns the number of rows removed.
func (r PruneResult) Total() int64 {
	return r.AttemptsDeleted + r.AlertsDeleted
}

// Prune deletes rows older than before in a single transaction.
func (j *Journal) Prune(ctx context.Context, before time.Time) (PruneResult, error) {
	start := time.Now()
	var result PruneResult
	cutoff := before.UnixMilli()

	err := j.db.with(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin prune: %w", err)
		}
		defer tx.Rollback()

		deletes := []struct {
			query string
			count *int64
		}{
			{"DELETE FROM recovery_attempts WHERE started_at_ms < ?", &result.AttemptsDeleted},
			{"DELETE FROM fan_alerts WHERE raised_at_ms < ?", &result.AlertsDeleted},
		}
		for _, d := range deletes {
			res, err := tx.ExecContext(ctx, d.query, cutoff)
			if err != nil {
				return fmt.Errorf("prune: %w", err)
			}
			if *d.count, err = res.RowsAffected(); err != nil {
				return fmt.Errorf("prune: %w", err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return PruneResult{}, err
	}

	result.Duration = time.Since(start)
	return result, nil
}

// PruneOlderThan deletes rows older than retention. A non-positive
// retention keeps everything.
func (j *Journal) PruneOlderThan(ctx context.Context, retention time.Duration) (PruneResult, error) {
	if retention <= 0 {
		return PruneResult{}, nil
	}
	return j.Prune(ctx, time.Now().Add(-retention))
}
