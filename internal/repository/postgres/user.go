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

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `id, organization_id, email, display_name, password_hash, role, onboarded_at, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.OrganizationID,
		&u.Email,
		&u.DisplayName,
		&u.PasswordHash,
		&u.Role,
		&u.OnboardedAt,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row. Postgres generates the UUID and timestamp.
func (s *UserStore) Create(ctx context.Context, organizationID uuid.UUID, email, displayName, passwordHash string, role models.Role) (*models.User, error) {
	query := `
		INSERT INTO users (organization_id, email, display_name, password_hash, role, created_at)
		VALUES ($1, lower($2), $3, $4, $5, now())
		RETURNING ` + userColumns

	u, err := scanUser(s.pool.QueryRow(ctx, query, organizationID, email, displayName, passwordHash, role))
	if err != nil {
		return nil, wrapWrite("insert user", err)
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, organizationID uuid.UUID, userID uuid.UUID) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND organization_id = $2`

	u, err := scanUser(s.pool.QueryRow(ctx, query, userID, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByEmail looks up a user by email across organizations. Emails are
// stored lower-cased.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = lower($1)`

	u, err := scanUser(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) ListByRole(ctx context.Context, organizationID uuid.UUID, role models.Role) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE organization_id = $1 AND role = $2
		ORDER BY display_name`

	rows, err := s.pool.Query(ctx, query, organizationID, role)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}
