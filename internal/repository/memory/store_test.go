package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIDsForUserStaysInsideOrganization(t *testing.T) {
	ctx := context.Background()
	s := New()

	orgA, _ := s.Organizations().Create(ctx, "A")
	orgB, _ := s.Organizations().Create(ctx, "B")
	user, err := s.Users().Create(ctx, orgA.ID, "Reviewer@Example.com", "Rev", "hash", models.RoleClient)
	require.NoError(t, err)

	own, _ := s.Clients().Create(ctx, orgA.ID, "Own")
	foreign, _ := s.Clients().Create(ctx, orgB.ID, "Foreign")
	require.NoError(t, s.Clients().LinkUser(ctx, own.ID, user.ID))
	require.NoError(t, s.Clients().LinkUser(ctx, own.ID, user.ID), "linking twice is a no-op")
	require.NoError(t, s.Clients().LinkUser(ctx, foreign.ID, user.ID))

	ids, err := s.Clients().ClientIDsForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{own.ID}, ids)

	found, err := s.Users().GetByEmail(ctx, "reviewer@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
}

func TestUserEmailIsUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	org, _ := s.Organizations().Create(ctx, "A")

	_, err := s.Users().Create(ctx, org.ID, "a@example.com", "A", "h", models.RoleAdmin)
	require.NoError(t, err)
	_, err = s.Users().Create(ctx, org.ID, "A@example.com", "A2", "h", models.RoleAdmin)
	assert.True(t, errors.Is(err, repository.ErrDuplicate))
}

func TestPreviewDecideIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := New()
	clientID := uuid.New()

	p, err := s.Previews().Create(ctx, &models.Preview{
		OrganizationID: uuid.New(),
		ClientID:       clientID,
		Channel:        models.ChannelX,
		Status:         models.StatusApproved, // ignored: rows start pending
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, p.Status)
	assert.Equal(t, 1, p.Version)

	update := repository.DecisionUpdate{
		PreviewID:       p.ID,
		ClientIDs:       []uuid.UUID{clientID},
		ExpectedVersion: 1,
		Status:          models.StatusApproved,
		ReviewedBy:      uuid.New(),
		ReviewedAt:      time.Now(),
	}

	wrongClient := update
	wrongClient.ClientIDs = []uuid.UUID{uuid.New()}
	_, err = s.Previews().Decide(ctx, wrongClient)
	assert.ErrorIs(t, err, repository.ErrStale)

	decided, err := s.Previews().Decide(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, decided.Status)
	assert.Equal(t, 2, decided.Version)
	require.NotNil(t, decided.ReviewedAt)

	_, err = s.Previews().Decide(ctx, update)
	assert.ErrorIs(t, err, repository.ErrStale, "second decision loses")
}

func TestPreviewReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	org := uuid.New()

	p, err := s.Previews().Create(ctx, &models.Preview{
		OrganizationID: org,
		Payload:        models.Payload{SocialContent: map[models.Platform]string{models.PlatformX: "orig"}},
	})
	require.NoError(t, err)

	p.Payload.SocialContent[models.PlatformX] = "mutated"

	again, err := s.Previews().GetByID(ctx, org, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "orig", again.Payload.SocialContent[models.PlatformX])
}

func TestOnboardingDraftKeepsNewest(t *testing.T) {
	ctx := context.Background()
	s := New()
	user := uuid.New()
	t0 := time.Now()

	require.NoError(t, s.Onboarding().SaveDraft(ctx, &models.OnboardingDraft{UserID: user, Step: 3, UpdatedAt: t0}))
	require.NoError(t, s.Onboarding().SaveDraft(ctx, &models.OnboardingDraft{UserID: user, Step: 2, UpdatedAt: t0.Add(-time.Second)}))

	d, err := s.Onboarding().GetDraft(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Step)

	n, err := s.Onboarding().PurgeDrafts(ctx, t0.Add(time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	d, err = s.Onboarding().GetDraft(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestCompleteOnboardingOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := New()

	org, _ := s.Organizations().Create(ctx, "Studio")
	user, err := s.Users().Create(ctx, org.ID, "alice@a.test", "Alice", "hash", models.RoleClient)
	require.NoError(t, err)

	done := repository.OnboardingCompletion{
		UserID:         user.ID,
		OrganizationID: org.ID,
		DisplayName:    "Alice",
		Settings:       []byte(`{"platforms":[]}`),
		CompletedAt:    time.Now(),
	}
	require.NoError(t, s.Onboarding().Complete(ctx, done))

	got, err := s.Organizations().GetByID(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Studio", got.Name, "no organization name leaves it alone")

	again := done
	again.OrganizationName = "Renamed"
	err = s.Onboarding().Complete(ctx, again)
	assert.ErrorIs(t, err, repository.ErrStale)

	got, err = s.Organizations().GetByID(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Studio", got.Name)
}

func TestDuplicateClientName(t *testing.T) {
	ctx := context.Background()
	s := New()
	org, _ := s.Organizations().Create(ctx, "Studio")

	_, err := s.Clients().Create(ctx, org.ID, "Client A")
	require.NoError(t, err)
	_, err = s.Clients().Create(ctx, org.ID, "Client A")
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}
