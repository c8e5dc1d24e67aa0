package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository"
	"github.com/lalith-99/timelinealchemy/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 6, 10, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// world is a small organization: one admin, two clients each with one
// reviewer, and three ideas.
type world struct {
	store *memory.Store

	org      uuid.UUID
	admin    Actor
	alice    Actor // reviews for clientA
	bob      Actor // reviews for clientB
	clientA  uuid.UUID
	clientB  uuid.UUID
	ideas    []models.Idea
	previews *PreviewService
	reviews  *ReviewService
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	store := memory.New().WithClock(clock)

	org, err := store.Organizations().Create(ctx, "Studio")
	require.NoError(t, err)

	mkUser := func(email string, role models.Role) Actor {
		u, err := store.Users().Create(ctx, org.ID, email, email, "hash", role)
		require.NoError(t, err)
		return Actor{UserID: u.ID, OrganizationID: org.ID, Role: role}
	}
	w := &world{store: store, org: org.ID}
	w.admin = mkUser("admin@studio.test", models.RoleAdmin)
	w.alice = mkUser("alice@a.test", models.RoleClient)
	w.bob = mkUser("bob@b.test", models.RoleClient)

	a, err := store.Clients().Create(ctx, org.ID, "Client A")
	require.NoError(t, err)
	b, err := store.Clients().Create(ctx, org.ID, "Client B")
	require.NoError(t, err)
	require.NoError(t, store.Clients().LinkUser(ctx, a.ID, w.alice.UserID))
	require.NoError(t, store.Clients().LinkUser(ctx, b.ID, w.bob.UserID))
	w.clientA, w.clientB = a.ID, b.ID

	for _, title := range []string{"Cosmic Calendar", "Mindful Monday", "Behind the Oven"} {
		idea, err := store.Ideas().Create(ctx, &models.Idea{
			OrganizationID:  org.ID,
			Title:           title,
			Body:            title + " body",
			PlatformContent: map[models.Platform]string{models.PlatformInstagram: title + " on IG"},
		})
		require.NoError(t, err)
		w.ideas = append(w.ideas, *idea)
	}

	w.previews = NewPreviewService(store.Previews(), store.Ideas(), store.Clients(), time.UTC, zap.NewNop()).WithClock(clock)
	w.reviews = NewReviewService(store.Previews(), store.Clients(), zap.NewNop()).WithClock(clock)
	return w
}

// seedPreview inserts a pending preview for client directly.
func (w *world) seedPreview(t *testing.T, client uuid.UUID, idea models.Idea) *models.Preview {
	t.Helper()
	p, err := w.store.Previews().Create(context.Background(), &models.Preview{
		OrganizationID: w.org,
		IdeaID:         idea.ID,
		ClientID:       client,
		Channel:        models.ChannelInstagram,
		Template:       models.TemplateStory,
		Payload:        models.SnapshotIdea(&idea, "draft for "+idea.Title),
		CreatedBy:      w.admin.UserID,
	})
	require.NoError(t, err)
	return p
}

// flakyPreviews fails Create for chosen ideas.
type flakyPreviews struct {
	repository.PreviewRepository

	mu      sync.Mutex
	failFor map[uuid.UUID]bool
	inserts int
}

func (f *flakyPreviews) Create(ctx context.Context, p *models.Preview) (*models.Preview, error) {
	f.mu.Lock()
	f.inserts++
	fail := f.failFor[p.IdeaID]
	f.mu.Unlock()
	if fail {
		return nil, errors.New("insert preview: connection reset")
	}
	return f.PreviewRepository.Create(ctx, p)
}

// brokenClients fails every client-ID lookup.
type brokenClients struct {
	repository.ClientRepository
}

func (brokenClients) ClientIDsForUser(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return nil, errors.New("function client_ids_for_user: timeout")
}
