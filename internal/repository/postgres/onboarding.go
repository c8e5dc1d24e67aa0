package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository"
)

type OnboardingStore struct {
	pool *pgxpool.Pool
}

func NewOnboardingStore(pool *pgxpool.Pool) *OnboardingStore {
	return &OnboardingStore{pool: pool}
}

// SaveDraft upserts: a user has at most one draft.
func (s *OnboardingStore) SaveDraft(ctx context.Context, d *models.OnboardingDraft) error {
	query := `
		INSERT INTO onboarding_drafts (user_id, step, draft_values, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET step = EXCLUDED.step,
		    draft_values = EXCLUDED.draft_values,
		    updated_at = EXCLUDED.updated_at
		WHERE onboarding_drafts.updated_at <= EXCLUDED.updated_at`

	if _, err := s.pool.Exec(ctx, query, d.UserID, d.Step, []byte(d.Values), d.UpdatedAt); err != nil {
		return fmt.Errorf("save onboarding draft: %w", err)
	}
	return nil
}

func (s *OnboardingStore) GetDraft(ctx context.Context, userID uuid.UUID) (*models.OnboardingDraft, error) {
	query := `
		SELECT user_id, step, draft_values, updated_at
		FROM onboarding_drafts
		WHERE user_id = $1`

	var (
		d      models.OnboardingDraft
		values []byte
	)
	err := s.pool.QueryRow(ctx, query, userID).Scan(&d.UserID, &d.Step, &values, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get onboarding draft: %w", err)
	}
	d.Values = values
	return &d, nil
}

func (s *OnboardingStore) DeleteDraft(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM onboarding_drafts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete onboarding draft: %w", err)
	}
	return nil
}

func (s *OnboardingStore) PurgeDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM onboarding_drafts WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge onboarding drafts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *OnboardingStore) Complete(ctx context.Context, c repository.OnboardingCompletion) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE users
			SET display_name = $1, settings = $2, onboarded_at = $3
			WHERE id = $4 AND organization_id = $5 AND onboarded_at IS NULL`,
			c.DisplayName, []byte(c.Settings), c.CompletedAt, c.UserID, c.OrganizationID)
		if err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("update profile: %w", repository.ErrStale)
		}

		if c.OrganizationName != "" {
			if _, err := tx.Exec(ctx, `UPDATE organizations SET name = $1 WHERE id = $2`,
				c.OrganizationName, c.OrganizationID); err != nil {
				return fmt.Errorf("update organization: %w", err)
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM onboarding_drafts WHERE user_id = $1`, c.UserID); err != nil {
			return fmt.Errorf("drop onboarding draft: %w", err)
		}
		return nil
	})
}
