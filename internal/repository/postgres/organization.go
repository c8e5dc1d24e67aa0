package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/timelinealchemy/internal/models"
)

type OrganizationStore struct {
	pool *pgxpool.Pool
}

func NewOrganizationStore(pool *pgxpool.Pool) *OrganizationStore {
	return &OrganizationStore{pool: pool}
}

func (s *OrganizationStore) Create(ctx context.Context, name string) (*models.Organization, error) {
	query := `
		INSERT INTO organizations (name, created_at)
		VALUES ($1, now())
		RETURNING id, name, created_at`

	var o models.Organization
	err := s.pool.QueryRow(ctx, query, name).Scan(
		&o.ID,
		&o.Name,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert organization: %w", err)
	}
	return &o, nil
}

func (s *OrganizationStore) GetByID(ctx context.Context, organizationID uuid.UUID) (*models.Organization, error) {
	query := `
		SELECT id, name, created_at
		FROM organizations
		WHERE id = $1`

	var o models.Organization
	err := s.pool.QueryRow(ctx, query, organizationID).Scan(&o.ID, &o.Name, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &o, nil
}
