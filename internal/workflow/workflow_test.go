package workflow

import (
	"testing"

	"github.com/lalith-99/timelinealchemy/internal/apperr"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideApprove(t *testing.T) {
	out, err := Decide(models.StatusPending, Approve, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, out.Status)
	assert.Empty(t, out.Feedback)

	out, err = Decide(models.StatusPending, Approve, "  love it \n")
	require.NoError(t, err)
	assert.Equal(t, "love it", out.Feedback)
}

func TestDecideRejectRequiresFeedback(t *testing.T) {
	for _, fb := range []string{"", "   ", "\t\n"} {
		_, err := Decide(models.StatusPending, Reject, fb)
		assert.ErrorIs(t, err, ErrFeedbackRequired, "feedback %q", fb)
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	}

	out, err := Decide(models.StatusPending, Reject, "  tone it down  ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, out.Status)
	assert.Equal(t, "tone it down", out.Feedback, "stored feedback is trimmed")
}

func TestDecideIsTerminal(t *testing.T) {
	for _, status := range []models.Status{models.StatusApproved, models.StatusRejected} {
		for _, d := range []Decision{Approve, Reject} {
			_, err := Decide(status, d, "feedback")
			assert.ErrorIs(t, err, ErrAlreadyReviewed, "%s on %s", d, status)
			assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		}
	}
}

func TestDecideUnknown(t *testing.T) {
	_, err := Decide(models.StatusPending, Decision("maybe"), "x")
	assert.ErrorIs(t, err, ErrUnknownDecision)
}

func TestOffered(t *testing.T) {
	assert.Equal(t, Actions{Approve: true, Reject: true}, Offered(models.StatusPending))
	assert.Equal(t, Actions{}, Offered(models.StatusApproved))
	assert.Equal(t, Actions{}, Offered(models.StatusRejected))
}

func TestCanRevise(t *testing.T) {
	assert.NoError(t, CanRevise(models.StatusRejected))
	assert.ErrorIs(t, CanRevise(models.StatusPending), ErrNotRevisable)
	assert.ErrorIs(t, CanRevise(models.StatusApproved), ErrNotRevisable)
}
