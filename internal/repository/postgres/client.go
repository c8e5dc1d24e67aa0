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

type ClientStore struct {
	pool *pgxpool.Pool
}

func NewClientStore(pool *pgxpool.Pool) *ClientStore {
	return &ClientStore{pool: pool}
}

func (s *ClientStore) Create(ctx context.Context, organizationID uuid.UUID, name string) (*models.Client, error) {
	query := `
		INSERT INTO clients (organization_id, name, created_at)
		VALUES ($1, $2, now())
		RETURNING id, organization_id, name, created_at`

	var c models.Client
	err := s.pool.QueryRow(ctx, query, organizationID, name).Scan(
		&c.ID,
		&c.OrganizationID,
		&c.Name,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, wrapWrite("insert client", err)
	}
	return &c, nil
}

func (s *ClientStore) GetByID(ctx context.Context, organizationID uuid.UUID, clientID uuid.UUID) (*models.Client, error) {
	query := `
		SELECT id, organization_id, name, created_at
		FROM clients
		WHERE id = $1 AND organization_id = $2`

	var c models.Client
	err := s.pool.QueryRow(ctx, query, clientID, organizationID).Scan(
		&c.ID,
		&c.OrganizationID,
		&c.Name,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

func (s *ClientStore) ListByOrg(ctx context.Context, organizationID uuid.UUID) ([]models.Client, error) {
	query := `
		SELECT id, organization_id, name, created_at
		FROM clients
		WHERE organization_id = $1
		ORDER BY name`

	rows, err := s.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]models.Client, 0)
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, nil
}

func (s *ClientStore) LinkUser(ctx context.Context, clientID uuid.UUID, userID uuid.UUID) error {
	query := `
		INSERT INTO client_users (client_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (client_id, user_id) DO NOTHING`

	if _, err := s.pool.Exec(ctx, query, clientID, userID); err != nil {
		return fmt.Errorf("link client user: %w", err)
	}
	return nil
}

// ClientIDsForUser calls the client_ids_for_user SQL function, which
// owns the membership rules (direct links today, organization-wide
// grants later) so every caller resolves visibility the same way.
func (s *ClientStore) ClientIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `SELECT client_id FROM client_ids_for_user($1) AS client_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("client ids for user: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan client id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client ids: %w", err)
	}
	return ids, nil
}
