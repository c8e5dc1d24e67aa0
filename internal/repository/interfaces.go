package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/models"
)

// Conventions shared by every implementation:
//
//   - ctx first on every method; all of them do I/O.
//   - organizationID scopes every admin-side read and write. The
//     repository never trusts the caller to have filtered already.
//   - GetByID-style lookups return nil, nil when the row does not exist.
//   - List methods return an empty slice, never nil, so JSON renders [].

var (
	// ErrStale means a conditional write matched no row: the preview
	// was reviewed, edited or deleted since the caller read it.
	ErrStale = errors.New("row changed since it was read")

	// ErrDuplicate is a unique-constraint violation.
	ErrDuplicate = errors.New("duplicate row")
)

type OrganizationRepository interface {
	Create(ctx context.Context, name string) (*models.Organization, error)
	GetByID(ctx context.Context, organizationID uuid.UUID) (*models.Organization, error)
}

type UserRepository interface {
	Create(ctx context.Context, organizationID uuid.UUID, email, displayName, passwordHash string, role models.Role) (*models.User, error)
	GetByID(ctx context.Context, organizationID uuid.UUID, userID uuid.UUID) (*models.User, error)

	// GetByEmail is global, not organization-scoped: login starts from
	// an email alone.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	ListByRole(ctx context.Context, organizationID uuid.UUID, role models.Role) ([]models.User, error)
}

type ClientRepository interface {
	Create(ctx context.Context, organizationID uuid.UUID, name string) (*models.Client, error)
	GetByID(ctx context.Context, organizationID uuid.UUID, clientID uuid.UUID) (*models.Client, error)
	ListByOrg(ctx context.Context, organizationID uuid.UUID) ([]models.Client, error)

	// LinkUser is idempotent: linking twice is not an error.
	LinkUser(ctx context.Context, clientID uuid.UUID, userID uuid.UUID) error

	// ClientIDsForUser is the client-ID lookup: every client the user
	// may review previews for. Empty when the user is linked to none.
	ClientIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type IdeaRepository interface {
	Create(ctx context.Context, idea *models.Idea) (*models.Idea, error)
	GetByID(ctx context.Context, organizationID uuid.UUID, ideaID uuid.UUID) (*models.Idea, error)

	// GetMany returns the ideas that exist among ids, in no particular
	// order. Missing IDs are simply absent from the result.
	GetMany(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) ([]models.Idea, error)

	ListByOrg(ctx context.Context, organizationID uuid.UUID) ([]models.Idea, error)
}

// DecisionUpdate records a reviewer's decision. It only applies while
// the preview is pending, still at ExpectedVersion, and addressed to
// one of ClientIDs.
type DecisionUpdate struct {
	PreviewID       uuid.UUID
	ClientIDs       []uuid.UUID
	ExpectedVersion int
	Status          models.Status
	Feedback        string
	ReviewedBy      uuid.UUID
	ReviewedAt      time.Time
}

// DraftUpdate is an admin edit of a still-pending preview.
type DraftUpdate struct {
	OrganizationID  uuid.UUID
	PreviewID       uuid.UUID
	ExpectedVersion int
	Payload         models.Payload
	ScheduledAt     *time.Time
	AdminNotes      string
}

type PreviewRepository interface {
	// Create inserts one preview and returns it with ID, Version and
	// CreatedAt populated.
	Create(ctx context.Context, p *models.Preview) (*models.Preview, error)

	GetByID(ctx context.Context, organizationID uuid.UUID, previewID uuid.UUID) (*models.Preview, error)

	// GetForClients fetches a preview only if it is addressed to one
	// of clientIDs.
	GetForClients(ctx context.Context, clientIDs []uuid.UUID, previewID uuid.UUID) (*models.Preview, error)

	// ListByClients returns previews addressed to any of clientIDs,
	// newest first.
	ListByClients(ctx context.Context, clientIDs []uuid.UUID) ([]models.Preview, error)

	ListByOrg(ctx context.Context, organizationID uuid.UUID) ([]models.Preview, error)

	// Decide returns ErrStale when the conditions in DecisionUpdate do
	// not hold at write time.
	Decide(ctx context.Context, u DecisionUpdate) (*models.Preview, error)

	// UpdateDraft returns ErrStale unless the preview is pending and at
	// ExpectedVersion.
	UpdateDraft(ctx context.Context, u DraftUpdate) (*models.Preview, error)

	// Delete reports whether a row was removed.
	Delete(ctx context.Context, organizationID uuid.UUID, previewID uuid.UUID) (bool, error)
}

// OnboardingCompletion is the single terminal write of the onboarding
// wizard. An empty OrganizationName leaves the organization untouched.
type OnboardingCompletion struct {
	UserID           uuid.UUID
	OrganizationID   uuid.UUID
	DisplayName      string
	OrganizationName string
	Settings         json.RawMessage
	CompletedAt      time.Time
}

type OnboardingRepository interface {
	SaveDraft(ctx context.Context, d *models.OnboardingDraft) error
	GetDraft(ctx context.Context, userID uuid.UUID) (*models.OnboardingDraft, error)
	DeleteDraft(ctx context.Context, userID uuid.UUID) error

	// PurgeDrafts deletes drafts last updated before cutoff and returns
	// how many were removed.
	PurgeDrafts(ctx context.Context, cutoff time.Time) (int64, error)

	// Complete updates the profile and organization, marks the user
	// onboarded and drops the draft, all or nothing. It returns ErrStale
	// when the user is missing or already onboarded.
	Complete(ctx context.Context, c OnboardingCompletion) error
}
