package wizard

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lalith-99/timelinealchemy/internal/apperr"
)

type ProfileStep struct {
	DisplayName string `json:"display_name" validate:"required,min=2,max=80"`
	Timezone    string `json:"timezone" validate:"omitempty,timezone"`
	Bio         string `json:"bio" validate:"max=500"`
}

type OrganizationStep struct {
	Name     string `json:"name" validate:"required,max=120"`
	Website  string `json:"website" validate:"omitempty,url"`
	Industry string `json:"industry" validate:"max=60"`
}

type PlatformsStep struct {
	Platforms []string `json:"platforms" validate:"required,min=1,unique,dive,oneof=facebook instagram x linkedin tiktok youtube"`
}

type AccountsStep struct {
	Handles map[string]string `json:"handles" validate:"omitempty,dive,keys,oneof=facebook instagram x linkedin tiktok youtube,endkeys,max=100"`
}

type PreferencesStep struct {
	PostingFrequency string `json:"posting_frequency" validate:"required,oneof=daily weekly biweekly monthly"`
	Tone             string `json:"tone" validate:"omitempty,oneof=mystical playful professional warm"`
	EmailUpdates     bool   `json:"email_updates"`
}

// OnboardingForm is the whole onboarding wizard's state. It is stored
// as one JSON document in the autosaved draft.
type OnboardingForm struct {
	Profile      ProfileStep      `json:"profile"`
	Organization OrganizationStep `json:"organization"`
	Platforms    PlatformsStep    `json:"platforms"`
	Accounts     AccountsStep     `json:"accounts"`
	Preferences  PreferencesStep  `json:"preferences"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewOnboardingFlow builds the five-step onboarding wizard. Steps may
// be skipped; Complete still validates all of them.
func NewOnboardingFlow() *Flow[OnboardingForm] {
	return &Flow[OnboardingForm]{
		Name:      "onboarding",
		AllowSkip: true,
		Steps: []Step[OnboardingForm]{
			{Name: "profile", Check: func(f OnboardingForm) error { return validateStep(f.Profile) }},
			{Name: "organization", Check: func(f OnboardingForm) error { return validateStep(f.Organization) }},
			{Name: "platforms", Check: func(f OnboardingForm) error { return validateStep(f.Platforms) }},
			{Name: "accounts", Check: func(f OnboardingForm) error { return checkAccounts(f) }},
			{Name: "preferences", Check: func(f OnboardingForm) error { return validateStep(f.Preferences) }},
		},
	}
}

// checkAccounts only accepts handles for platforms picked in step 3.
func checkAccounts(f OnboardingForm) error {
	if err := validateStep(f.Accounts); err != nil {
		return err
	}
	picked := make(map[string]bool, len(f.Platforms.Platforms))
	for _, p := range f.Platforms.Platforms {
		picked[p] = true
	}
	for platform := range f.Accounts.Handles {
		if !picked[platform] {
			return apperr.Invalid("handle given for unselected platform %q", platform)
		}
	}
	return nil
}

func validateStep(step any) error {
	err := validate.Struct(step)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal("validate step", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperr.Invalid("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must have at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must have at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "url":
		return field + " must be a URL"
	case "timezone":
		return field + " must be an IANA timezone"
	case "unique":
		return field + " must not repeat values"
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
