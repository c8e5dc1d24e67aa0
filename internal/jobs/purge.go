package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	PurgeDraftsJob  = "purge-onboarding-drafts"
	PurgeDraftsCron = "15 3 * * *"
)

// DraftPurger is the slice of the onboarding repository the purge needs.
type DraftPurger interface {
	PurgeDrafts(ctx context.Context, cutoff time.Time) (int64, error)
}

// PurgeDrafts returns a task that deletes onboarding drafts not touched
// for retention.
func PurgeDrafts(repo DraftPurger, retention time.Duration, now func() time.Time, logger *zap.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		cutoff := now().Add(-retention)
		n, err := repo.PurgeDrafts(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("purge drafts: %w", err)
		}
		if n > 0 {
			logger.Info("purged stale onboarding drafts", zap.Int64("count", n), zap.Time("cutoff", cutoff))
		}
		return nil
	}
}
