package fixtures

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func demoPath(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "fixtures", "demo.yaml")
}

func TestDemoDatasetSeeds(t *testing.T) {
	ctx := context.Background()
	ds, err := Load(demoPath(t))
	require.NoError(t, err)

	store := memory.New()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, Seed(store, ds, now))

	admin, err := store.Users().GetByEmail(ctx, "ADMIN@alchemy.test")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("alchemy-admin")))

	luna, err := store.Users().GetByEmail(ctx, "luna@moonbakery.test")
	require.NoError(t, err)
	clientIDs, err := store.Clients().ClientIDsForUser(ctx, luna.ID)
	require.NoError(t, err)
	require.Len(t, clientIDs, 1)

	previews, err := store.Previews().ListByClients(ctx, clientIDs)
	require.NoError(t, err)
	require.Len(t, previews, 2, "Luna sees Moon Bakery previews only")
	assert.Equal(t, "Cosmic Calendar", previews[0].Title(), "newest first")
	assert.Equal(t, models.StatusRejected, previews[1].Status)

	all, err := store.Previews().ListByOrg(ctx, admin.OrganizationID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSeedRejectsDanglingReferences(t *testing.T) {
	org := uuid.NewString()
	ds := &Dataset{
		Organizations: []Organization{{ID: org, Name: "O"}},
		Clients:       []Client{{ID: uuid.NewString(), Organization: org, Name: "C", Users: []string{uuid.NewString()}}},
	}
	store := memory.New()
	err := Seed(store, ds, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown user")

	clients, _ := store.Clients().ListByOrg(context.Background(), uuid.MustParse(org))
	assert.Empty(t, clients, "nothing is written when validation fails")
}

func TestSeedRequiresFeedbackOnRejected(t *testing.T) {
	org, idea, client := uuid.NewString(), uuid.NewString(), uuid.NewString()
	ds := &Dataset{
		Organizations: []Organization{{ID: org}},
		Clients:       []Client{{ID: client, Organization: org, Name: "C"}},
		Ideas:         []Idea{{ID: idea, Organization: org, Title: "I"}},
		Previews: []Preview{{
			ID: uuid.NewString(), Idea: idea, Client: client,
			Channel: "x", Template: "quote", Status: "rejected", ClientFeedback: "   ",
		}},
	}
	err := Seed(memory.New(), ds, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client_feedback")
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("organizations: [oops"))
	assert.Error(t, err)
}
