package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository"
)

type PreviewStore struct {
	pool *pgxpool.Pool
}

func NewPreviewStore(pool *pgxpool.Pool) *PreviewStore {
	return &PreviewStore{pool: pool}
}

const previewColumns = `
	id, organization_id, idea_id, client_id, channel, template, payload,
	scheduled_at, status, admin_notes, client_feedback, revision_of,
	version, created_by, created_at, reviewed_at, reviewed_by`

func scanPreview(row pgx.Row) (*models.Preview, error) {
	var (
		p       models.Preview
		payload []byte
	)
	err := row.Scan(
		&p.ID,
		&p.OrganizationID,
		&p.IdeaID,
		&p.ClientID,
		&p.Channel,
		&p.Template,
		&payload,
		&p.ScheduledAt,
		&p.Status,
		&p.AdminNotes,
		&p.ClientFeedback,
		&p.RevisionOf,
		&p.Version,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.ReviewedAt,
		&p.ReviewedBy,
	)
	if err != nil {
		return nil, err
	}
	if p.Payload, err = models.DecodePayload(payload); err != nil {
		return nil, fmt.Errorf("preview %s: %w", p.ID, err)
	}
	return &p, nil
}

func (s *PreviewStore) Create(ctx context.Context, p *models.Preview) (*models.Preview, error) {
	payload, err := json.Marshal(p.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	// Status is always pending on insert; the row's only transition is
	// Decide.
	query := `
		INSERT INTO previews (
			organization_id, idea_id, client_id, channel, template, payload,
			scheduled_at, status, admin_notes, revision_of, version,
			created_by, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8, $9, 1, $10, now())
		RETURNING ` + previewColumns

	created, err := scanPreview(s.pool.QueryRow(ctx, query,
		p.OrganizationID,
		p.IdeaID,
		p.ClientID,
		p.Channel,
		p.Template,
		payload,
		p.ScheduledAt,
		p.AdminNotes,
		p.RevisionOf,
		p.CreatedBy,
	))
	if err != nil {
		return nil, wrapWrite("insert preview", err)
	}
	return created, nil
}

func (s *PreviewStore) GetByID(ctx context.Context, organizationID uuid.UUID, previewID uuid.UUID) (*models.Preview, error) {
	query := `SELECT ` + previewColumns + `
		FROM previews
		WHERE id = $1 AND organization_id = $2`

	return s.get(ctx, "get preview", query, previewID, organizationID)
}

func (s *PreviewStore) GetForClients(ctx context.Context, clientIDs []uuid.UUID, previewID uuid.UUID) (*models.Preview, error) {
	if len(clientIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + previewColumns + `
		FROM previews
		WHERE id = $1 AND client_id = ANY($2)`

	return s.get(ctx, "get client preview", query, previewID, clientIDs)
}

func (s *PreviewStore) get(ctx context.Context, op, query string, args ...any) (*models.Preview, error) {
	p, err := scanPreview(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *PreviewStore) ListByClients(ctx context.Context, clientIDs []uuid.UUID) ([]models.Preview, error) {
	if len(clientIDs) == 0 {
		return make([]models.Preview, 0), nil
	}
	query := `SELECT ` + previewColumns + `
		FROM previews
		WHERE client_id = ANY($1)
		ORDER BY created_at DESC, id`

	return s.list(ctx, query, clientIDs)
}

func (s *PreviewStore) ListByOrg(ctx context.Context, organizationID uuid.UUID) ([]models.Preview, error) {
	query := `SELECT ` + previewColumns + `
		FROM previews
		WHERE organization_id = $1
		ORDER BY created_at DESC, id`

	return s.list(ctx, query, organizationID)
}

func (s *PreviewStore) list(ctx context.Context, query string, args ...any) ([]models.Preview, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list previews: %w", err)
	}
	defer rows.Close()

	previews := make([]models.Preview, 0)
	for rows.Next() {
		p, err := scanPreview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan preview: %w", err)
		}
		previews = append(previews, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate previews: %w", err)
	}
	return previews, nil
}

// Decide is a compare-and-set on (status, version). Two reviewers
// racing on the same preview cannot both win: the loser matches no
// row and gets ErrStale.
func (s *PreviewStore) Decide(ctx context.Context, u repository.DecisionUpdate) (*models.Preview, error) {
	query := `
		UPDATE previews
		SET status = $1,
		    client_feedback = $2,
		    reviewed_by = $3,
		    reviewed_at = $4,
		    version = version + 1
		WHERE id = $5
		  AND client_id = ANY($6)
		  AND status = 'pending'
		  AND version = $7
		RETURNING ` + previewColumns

	p, err := scanPreview(s.pool.QueryRow(ctx, query,
		u.Status,
		u.Feedback,
		u.ReviewedBy,
		u.ReviewedAt,
		u.PreviewID,
		u.ClientIDs,
		u.ExpectedVersion,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrStale
		}
		return nil, fmt.Errorf("decide preview: %w", err)
	}
	return p, nil
}

func (s *PreviewStore) UpdateDraft(ctx context.Context, u repository.DraftUpdate) (*models.Preview, error) {
	payload, err := json.Marshal(u.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	query := `
		UPDATE previews
		SET payload = $1,
		    scheduled_at = $2,
		    admin_notes = $3,
		    version = version + 1
		WHERE id = $4
		  AND organization_id = $5
		  AND status = 'pending'
		  AND version = $6
		RETURNING ` + previewColumns

	p, err := scanPreview(s.pool.QueryRow(ctx, query,
		payload,
		u.ScheduledAt,
		u.AdminNotes,
		u.PreviewID,
		u.OrganizationID,
		u.ExpectedVersion,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrStale
		}
		return nil, fmt.Errorf("update preview draft: %w", err)
	}
	return p, nil
}

func (s *PreviewStore) Delete(ctx context.Context, organizationID uuid.UUID, previewID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM previews WHERE id = $1 AND organization_id = $2`, previewID, organizationID)
	if err != nil {
		return false, fmt.Errorf("delete preview: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
