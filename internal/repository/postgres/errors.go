package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lalith-99/timelinealchemy/internal/repository"
)

const uniqueViolation = "23505"

// wrapWrite tags unique violations with repository.ErrDuplicate so
// services can tell them apart from outages.
func wrapWrite(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w: %s", op, repository.ErrDuplicate, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var (
	_ repository.OrganizationRepository = (*OrganizationStore)(nil)
	_ repository.UserRepository         = (*UserStore)(nil)
	_ repository.ClientRepository       = (*ClientStore)(nil)
	_ repository.IdeaRepository         = (*IdeaStore)(nil)
	_ repository.PreviewRepository      = (*PreviewStore)(nil)
	_ repository.OnboardingRepository   = (*OnboardingStore)(nil)
)
