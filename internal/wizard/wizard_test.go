package wizard

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/apperr"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func previewFlow() *Flow[PreviewForm] {
	return NewPreviewFlow(func() time.Time { return fixedNow }, time.UTC)
}

// fillPreviewStep sets only the field the given 1-based step requires.
func fillPreviewStep(f *PreviewForm, step int) {
	switch step {
	case 1:
		f.ClientID = uuid.New()
	case 2:
		f.Channel = models.ChannelLinkedIn
	case 3:
		f.Template = models.TemplateStory
	case 4:
		f.Content = "Mercury goes direct on Friday."
	case 5:
		f.ScheduledDate = "2026-03-14"
		f.ScheduledTime = "09:30"
	}
}

func TestPreviewWizardGatesEveryStep(t *testing.T) {
	s := previewFlow().Start(PreviewForm{})

	for step := 1; step <= 5; step++ {
		require.Equal(t, step, s.Step())

		err := s.Next()
		require.Error(t, err, "step %d should block while empty", step)
		assert.Equal(t, step, s.Step(), "blocked Next must not move")

		var se *StepError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, step-1, se.Index)
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))

		fillPreviewStep(&s.Form, step)
		require.NoError(t, s.Next())
		assert.Equal(t, step+1, s.Step(), "Next advances exactly one step")
	}

	assert.True(t, s.AtLast())
	assert.Equal(t, "confirm", s.StepName())
	assert.ErrorIs(t, s.Next(), ErrLastStep)
}

func TestPreviewWizardBackKeepsSelections(t *testing.T) {
	s := previewFlow().Start(PreviewForm{})
	assert.ErrorIs(t, s.Back(), ErrFirstStep)

	fillPreviewStep(&s.Form, 1)
	require.NoError(t, s.Next())
	fillPreviewStep(&s.Form, 2)
	require.NoError(t, s.Next())

	require.NoError(t, s.Back())
	require.NoError(t, s.Back())
	assert.Equal(t, 1, s.Step())
	assert.Equal(t, models.ChannelLinkedIn, s.Form.Channel)

	require.NoError(t, s.Next())
	require.NoError(t, s.Next())
	assert.Equal(t, 3, s.Step())
}

func TestPreviewWizardCompleteNeedsIdea(t *testing.T) {
	s := previewFlow().Resume(6, PreviewForm{})
	for step := 1; step <= 5; step++ {
		fillPreviewStep(&s.Form, step)
	}

	err := s.Complete()
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "confirm", se.Name)

	s.Form.IdeaID = uuid.New()
	assert.NoError(t, s.Complete())
}

func TestPreviewWizardRejectsUnofferedChannel(t *testing.T) {
	form := PreviewForm{ClientID: uuid.New(), Channel: models.ChannelCustomPost}
	s := previewFlow().Resume(2, form)
	assert.Error(t, s.Next())
}

func TestPreviewWizardSchedule(t *testing.T) {
	flow := previewFlow()
	base := PreviewForm{
		IdeaID:   uuid.New(),
		ClientID: uuid.New(),
		Channel:  models.ChannelX,
		Template: models.TemplateQuote,
		Content:  "As above, so below.",
	}

	cases := []struct {
		date, clock string
		ok          bool
	}{
		{"2026-03-14", "08:00", true},
		{"2026-03-20", "23:59", true},
		{"2026-03-13", "12:00", false},
		{"14/03/2026", "12:00", false},
		{"2026-03-14", "25:00", false},
		{"", "12:00", false},
	}
	for _, tc := range cases {
		f := base
		f.ScheduledDate, f.ScheduledTime = tc.date, tc.clock
		err := flow.Validate(f)
		if tc.ok {
			assert.NoError(t, err, "%s %s", tc.date, tc.clock)
		} else {
			assert.Error(t, err, "%s %s", tc.date, tc.clock)
		}
	}

	at, err := PreviewForm{ScheduledDate: "2026-03-20", ScheduledTime: "09:15"}.ScheduledAt(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 20, 9, 15, 0, 0, time.UTC), at)
}

func TestPreviewContentGuidanceIsSoft(t *testing.T) {
	f := PreviewForm{Content: strings.Repeat("✨", ContentGuidance+1)}
	assert.Len(t, f.Warnings(), 1)

	f.Content = strings.Repeat("✨", ContentGuidance)
	assert.Empty(t, f.Warnings())

	s := previewFlow().Resume(4, PreviewForm{Content: strings.Repeat("a", 1000)})
	assert.NoError(t, s.Next(), "long content still advances")
}

func TestBatchWizard(t *testing.T) {
	s := NewBatchFlow().Start(BatchForm{})
	assert.Error(t, s.Next())

	s.Form.ClientID = uuid.New()
	require.NoError(t, s.Next())

	s.Form.IdeaIDs = []uuid.UUID{uuid.Nil}
	assert.Error(t, s.Next(), "nil ids do not count as a selection")

	a, b := uuid.New(), uuid.New()
	s.Form.IdeaIDs = []uuid.UUID{a, b, a}
	require.NoError(t, s.Next())
	assert.Equal(t, []uuid.UUID{a, b}, s.Form.UniqueIdeas())

	assert.True(t, s.AtLast())
	assert.NoError(t, s.Complete(), "notes are optional")
	assert.ErrorIs(t, s.Skip(), ErrSkipForbidden)
}

func validOnboarding() OnboardingForm {
	return OnboardingForm{
		Profile:      ProfileStep{DisplayName: "Luna", Timezone: "UTC"},
		Organization: OrganizationStep{Name: "Moon Rituals", Website: "https://moon.example"},
		Platforms:    PlatformsStep{Platforms: []string{"instagram", "tiktok"}},
		Accounts:     AccountsStep{Handles: map[string]string{"instagram": "@moonrituals"}},
		Preferences:  PreferencesStep{PostingFrequency: "weekly", Tone: "mystical"},
	}
}

func TestOnboardingWizardValidates(t *testing.T) {
	flow := NewOnboardingFlow()
	require.NoError(t, flow.Validate(validOnboarding()))

	bad := validOnboarding()
	bad.Profile.DisplayName = ""
	err := flow.Validate(bad)
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "profile", se.Name)
	assert.Contains(t, err.Error(), "display_name is required")

	bad = validOnboarding()
	bad.Platforms.Platforms = []string{"myspace"}
	bad.Accounts.Handles = nil
	require.ErrorAs(t, flow.Validate(bad), &se)
	assert.Equal(t, "platforms", se.Name)

	bad = validOnboarding()
	bad.Accounts.Handles = map[string]string{"youtube": "@moon"}
	require.ErrorAs(t, flow.Validate(bad), &se)
	assert.Equal(t, "accounts", se.Name)
}

func TestOnboardingSkipBypassesValidation(t *testing.T) {
	s := NewOnboardingFlow().Start(OnboardingForm{})

	assert.Error(t, s.Next())
	require.NoError(t, s.Skip())
	assert.Equal(t, 2, s.Step())

	for !s.AtLast() {
		require.NoError(t, s.Skip())
	}
	assert.ErrorIs(t, s.Skip(), ErrLastStep)

	err := s.Complete()
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "profile", se.Name, "complete revalidates skipped steps")

	s.Form = validOnboarding()
	assert.NoError(t, s.Complete())
}

func TestResumeClamps(t *testing.T) {
	flow := NewOnboardingFlow()
	assert.Equal(t, 1, flow.Resume(0, OnboardingForm{}).Step())
	assert.Equal(t, 5, flow.Resume(42, OnboardingForm{}).Step())
	assert.ErrorIs(t, flow.Resume(2, OnboardingForm{}).Complete(), ErrNotLastStep)
}
