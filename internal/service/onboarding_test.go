package service

import (
	"context"
	"testing"
	"time"

	"github.com/lalith-99/timelinealchemy/internal/apperr"
	"github.com/lalith-99/timelinealchemy/internal/cache"
	"github.com/lalith-99/timelinealchemy/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func completeOnboardingForm() wizard.OnboardingForm {
	return wizard.OnboardingForm{
		Profile:      wizard.ProfileStep{DisplayName: "Luna Park", Timezone: "UTC"},
		Organization: wizard.OrganizationStep{Name: "Moon Bakery", Website: "https://moon.test"},
		Platforms:    wizard.PlatformsStep{Platforms: []string{"instagram", "x"}},
		Accounts:     wizard.AccountsStep{Handles: map[string]string{"instagram": "@moonbakery"}},
		Preferences:  wizard.PreferencesStep{PostingFrequency: "weekly", Tone: "warm"},
	}
}

func newOnboarding(t *testing.T, w *world, delay time.Duration) (*OnboardingService, *cache.Memory) {
	t.Helper()
	c := cache.NewMemory()
	svc := NewOnboardingService(w.store.Onboarding(), w.store.Users(), c, delay, zap.NewNop()).WithClock(clock)
	t.Cleanup(func() { _ = svc.Close(context.Background()) })
	return svc, c
}

func TestSaveDraftIsCachedThenPersisted(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	svc, _ := newOnboarding(t, w, 20*time.Millisecond)

	form := wizard.OnboardingForm{Profile: wizard.ProfileStep{DisplayName: "Al"}}
	state, err := svc.SaveDraft(ctx, w.alice, 2, form)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Step)
	assert.Equal(t, "organization", state.StepName)

	got, err := svc.GetDraft(ctx, w.alice)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Step)
	assert.Equal(t, "Al", got.Form.Profile.DisplayName, "served from the cache right away")

	assert.Eventually(t, func() bool {
		d, err := w.store.Onboarding().GetDraft(ctx, w.alice.UserID)
		return err == nil && d != nil && d.Step == 2
	}, time.Second, 5*time.Millisecond, "debounced write reaches the store")
}

func TestGetDraftFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	svc, c := newOnboarding(t, w, time.Hour)

	_, err := svc.SaveDraft(ctx, w.alice, 3, completeOnboardingForm())
	require.NoError(t, err)
	require.NoError(t, svc.autosave.Flush(ctx))
	require.NoError(t, c.Del(ctx, draftKey(w.alice.UserID)))

	got, err := svc.GetDraft(ctx, w.alice)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Step)
	assert.Equal(t, "Moon Bakery", got.Form.Organization.Name)

	fresh, err := svc.GetDraft(ctx, w.bob)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Step)
	assert.Nil(t, fresh.UpdatedAt)
}

func TestMoveValidatesUnlessSkipping(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	svc, _ := newOnboarding(t, w, time.Hour)

	state, err := svc.Move(ctx, w.alice, OnboardingStepRequest{Step: 1, Action: OnboardingNext})
	require.NoError(t, err)
	assert.Equal(t, 1, state.Step)
	assert.Contains(t, state.Blocked, "display_name")

	state, err = svc.Move(ctx, w.alice, OnboardingStepRequest{Step: 1, Action: OnboardingSkip})
	require.NoError(t, err)
	assert.Equal(t, 2, state.Step)
	assert.Empty(t, state.Blocked)

	_, err = svc.Move(ctx, w.alice, OnboardingStepRequest{Step: 1, Action: "jump"})
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestCompleteWritesProfileOnce(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	svc, c := newOnboarding(t, w, time.Hour)

	_, err := svc.SaveDraft(ctx, w.alice, 5, completeOnboardingForm())
	require.NoError(t, err)

	incomplete := completeOnboardingForm()
	incomplete.Preferences.PostingFrequency = ""
	_, err = svc.Complete(ctx, w.alice, incomplete)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err), "skipped steps are checked at the end")

	user, err := svc.Complete(ctx, w.alice, completeOnboardingForm())
	require.NoError(t, err)
	assert.Equal(t, "Luna Park", user.DisplayName)
	require.NotNil(t, user.OnboardedAt)

	_, ok, _ := c.Get(ctx, draftKey(w.alice.UserID))
	assert.False(t, ok, "cached draft is dropped")
	assert.Zero(t, svc.autosave.Pending())

	d, err := w.store.Onboarding().GetDraft(ctx, w.alice.UserID)
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.Contains(t, string(w.store.Onboarding().Settings(w.alice.UserID)), "@moonbakery")

	_, err = svc.Complete(ctx, w.alice, completeOnboardingForm())
	assert.ErrorIs(t, err, ErrAlreadyOnboarded)
}

func TestClientCompleteKeepsOrganizationName(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	svc, _ := newOnboarding(t, w, time.Hour)

	_, err := svc.Complete(ctx, w.alice, completeOnboardingForm())
	require.NoError(t, err)

	org, err := w.store.Organizations().GetByID(ctx, w.org)
	require.NoError(t, err)
	assert.Equal(t, "Studio", org.Name)
	assert.Contains(t, string(w.store.Onboarding().Settings(w.alice.UserID)), `"business":"Moon Bakery"`)
}

func TestAdminCompleteRenamesOrganization(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	svc, _ := newOnboarding(t, w, time.Hour)

	_, err := svc.Complete(ctx, w.admin, completeOnboardingForm())
	require.NoError(t, err)

	org, err := w.store.Organizations().GetByID(ctx, w.org)
	require.NoError(t, err)
	assert.Equal(t, "Moon Bakery", org.Name)
	assert.NotContains(t, string(w.store.Onboarding().Settings(w.admin.UserID)), `"business"`)
}

func TestCompleteWaitsForRunningAutosave(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	svc, _ := newOnboarding(t, w, time.Millisecond)

	_, err := svc.SaveDraft(ctx, w.alice, 5, completeOnboardingForm())
	require.NoError(t, err)

	_, err = svc.Complete(ctx, w.alice, completeOnboardingForm())
	require.NoError(t, err)

	// Give any stray timer a chance to fire.
	time.Sleep(20 * time.Millisecond)
	d, err := w.store.Onboarding().GetDraft(ctx, w.alice.UserID)
	require.NoError(t, err)
	assert.Nil(t, d, "no autosave lands after completion")
}

func TestDiscardStartsOver(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	svc, _ := newOnboarding(t, w, time.Hour)

	_, err := svc.SaveDraft(ctx, w.alice, 4, completeOnboardingForm())
	require.NoError(t, err)
	require.NoError(t, svc.autosave.Flush(ctx))

	require.NoError(t, svc.Discard(ctx, w.alice))

	got, err := svc.GetDraft(ctx, w.alice)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Step)
	assert.Empty(t, got.Form.Organization.Name)
}
