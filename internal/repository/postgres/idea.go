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
)

type IdeaStore struct {
	pool *pgxpool.Pool
}

func NewIdeaStore(pool *pgxpool.Pool) *IdeaStore {
	return &IdeaStore{pool: pool}
}

const ideaColumns = `id, organization_id, title, body, platform_content, image_urls, tags, created_at`

func scanIdea(row pgx.Row) (*models.Idea, error) {
	var (
		idea     models.Idea
		platform []byte
	)
	err := row.Scan(
		&idea.ID,
		&idea.OrganizationID,
		&idea.Title,
		&idea.Body,
		&platform,
		&idea.ImageURLs,
		&idea.Tags,
		&idea.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(platform) > 0 {
		if err := json.Unmarshal(platform, &idea.PlatformContent); err != nil {
			// Bad per-platform copy should not hide the idea itself.
			idea.PlatformContent = nil
		}
	}
	return &idea, nil
}

func (s *IdeaStore) Create(ctx context.Context, idea *models.Idea) (*models.Idea, error) {
	platform, err := json.Marshal(idea.PlatformContent)
	if err != nil {
		return nil, fmt.Errorf("encode platform content: %w", err)
	}

	query := `
		INSERT INTO ideas (organization_id, title, body, platform_content, image_urls, tags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING ` + ideaColumns

	created, err := scanIdea(s.pool.QueryRow(ctx, query,
		idea.OrganizationID,
		idea.Title,
		idea.Body,
		platform,
		nonNil(idea.ImageURLs),
		nonNil(idea.Tags),
	))
	if err != nil {
		return nil, wrapWrite("insert idea", err)
	}
	return created, nil
}

func (s *IdeaStore) GetByID(ctx context.Context, organizationID uuid.UUID, ideaID uuid.UUID) (*models.Idea, error) {
	query := `
		SELECT ` + ideaColumns + `
		FROM ideas
		WHERE id = $1 AND organization_id = $2`

	idea, err := scanIdea(s.pool.QueryRow(ctx, query, ideaID, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idea: %w", err)
	}
	return idea, nil
}

func (s *IdeaStore) GetMany(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) ([]models.Idea, error) {
	if len(ids) == 0 {
		return make([]models.Idea, 0), nil
	}
	query := `
		SELECT ` + ideaColumns + `
		FROM ideas
		WHERE organization_id = $1 AND id = ANY($2)`

	return s.list(ctx, query, organizationID, ids)
}

func (s *IdeaStore) ListByOrg(ctx context.Context, organizationID uuid.UUID) ([]models.Idea, error) {
	query := `
		SELECT ` + ideaColumns + `
		FROM ideas
		WHERE organization_id = $1
		ORDER BY created_at DESC`

	return s.list(ctx, query, organizationID)
}

func (s *IdeaStore) list(ctx context.Context, query string, args ...any) ([]models.Idea, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	defer rows.Close()

	ideas := make([]models.Idea, 0)
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		ideas = append(ideas, *idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ideas: %w", err)
	}
	return ideas, nil
}

// nonNil keeps text[] columns NOT NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
