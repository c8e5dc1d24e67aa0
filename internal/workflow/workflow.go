// Package workflow is the preview status state machine.
//
// A preview starts pending and receives exactly one decision. Approved
// and rejected are terminal: nothing re-opens a row. Revising a
// rejected preview produces a new pending preview instead.
package workflow

import (
	"strings"

	"github.com/lalith-99/timelinealchemy/internal/apperr"
	"github.com/lalith-99/timelinealchemy/internal/models"
)

type Decision string

const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

var (
	ErrAlreadyReviewed  = apperr.New(apperr.KindConflict, "preview has already been reviewed")
	ErrFeedbackRequired = apperr.New(apperr.KindInvalid, "feedback is required to request changes")
	ErrUnknownDecision  = apperr.New(apperr.KindInvalid, "unknown decision")
	ErrNotRevisable     = apperr.New(apperr.KindConflict, "only rejected previews can be revised")
)

// Outcome is the state a decision moves a preview into.
type Outcome struct {
	Status   models.Status
	Feedback string
}

// NormalizeFeedback trims surrounding whitespace. The trimmed string is
// both what gets validated and what gets stored.
func NormalizeFeedback(feedback string) string {
	return strings.TrimSpace(feedback)
}

func Decide(current models.Status, d Decision, feedback string) (Outcome, error) {
	if current != models.StatusPending {
		return Outcome{}, ErrAlreadyReviewed
	}

	feedback = NormalizeFeedback(feedback)

	switch d {
	case Approve:
		return Outcome{Status: models.StatusApproved, Feedback: feedback}, nil
	case Reject:
		if feedback == "" {
			return Outcome{}, ErrFeedbackRequired
		}
		return Outcome{Status: models.StatusRejected, Feedback: feedback}, nil
	default:
		return Outcome{}, ErrUnknownDecision
	}
}

// Actions describes which decision controls a reviewer is offered.
type Actions struct {
	Approve bool `json:"approve"`
	Reject  bool `json:"reject"`
}

// Offered lists the controls rendered for a preview before the
// reviewer has typed anything. Reviewed previews get none.
func Offered(status models.Status) Actions {
	if status != models.StatusPending {
		return Actions{}
	}
	return Actions{Approve: true, Reject: true}
}

// CanRevise reports whether an admin may issue a revision of a preview.
func CanRevise(status models.Status) error {
	if status != models.StatusRejected {
		return ErrNotRevisable
	}
	return nil
}
