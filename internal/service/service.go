// Package service holds the use cases behind the HTTP handlers. Every
// method takes the authenticated Actor and returns *apperr.Error values
// for anything the caller should see.
package service

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/apperr"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/wizard"
)

// Actor is the caller as established by the auth middleware.
type Actor struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Role           models.Role
}

// stepInvalid turns a wizard step failure into an invalid-input error
// whose message names the step.
func stepInvalid(err error) error {
	var stepErr *wizard.StepError
	if errors.As(err, &stepErr) {
		return apperr.Wrap(apperr.KindInvalid, stepErr.Error(), err)
	}
	return err
}

func storeErr(msg string, err error) error {
	return apperr.Wrap(apperr.KindUnavailable, msg, err)
}
