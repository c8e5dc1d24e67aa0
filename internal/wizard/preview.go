package wizard

import (
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/apperr"
	"github.com/lalith-99/timelinealchemy/internal/models"
)

// ContentGuidance is the suggested upper bound for channel copy. Longer
// content is accepted with a warning.
const ContentGuidance = 280

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// PreviewForm holds the single-preview wizard's selections. IdeaID is
// fixed when the wizard is opened from an idea.
type PreviewForm struct {
	IdeaID        uuid.UUID       `json:"idea_id"`
	ClientID      uuid.UUID       `json:"client_id"`
	Channel       models.Channel  `json:"channel"`
	Template      models.Template `json:"template"`
	Content       string          `json:"content"`
	ScheduledDate string          `json:"scheduled_date"`
	ScheduledTime string          `json:"scheduled_time"`
}

// ScheduledAt combines the date and time fields in loc.
func (f PreviewForm) ScheduledAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout+" "+timeLayout, f.ScheduledDate+" "+f.ScheduledTime, loc)
}

// Warnings lists soft guidance that does not block the wizard.
func (f PreviewForm) Warnings() []string {
	var out []string
	if n := utf8.RuneCountInString(f.Content); n > ContentGuidance {
		out = append(out, fmt.Sprintf("content is %d characters, %d or fewer is recommended", n, ContentGuidance))
	}
	return out
}

// NewPreviewFlow builds the six-step wizard: client, channel, template,
// content, schedule, confirm. now and loc decide what "today" is.
func NewPreviewFlow(now func() time.Time, loc *time.Location) *Flow[PreviewForm] {
	if loc == nil {
		loc = time.UTC
	}
	return &Flow[PreviewForm]{
		Name: "preview",
		Steps: []Step[PreviewForm]{
			{Name: "client", Check: func(f PreviewForm) error {
				if f.ClientID == uuid.Nil {
					return apperr.Invalid("select a client")
				}
				return nil
			}},
			{Name: "channel", Check: func(f PreviewForm) error {
				if !slices.Contains(models.WizardChannels, f.Channel) {
					return apperr.Invalid("select a channel")
				}
				return nil
			}},
			{Name: "template", Check: func(f PreviewForm) error {
				if !f.Template.Valid() {
					return apperr.Invalid("select a template")
				}
				return nil
			}},
			{Name: "content", Check: func(f PreviewForm) error {
				if isBlank(f.Content) {
					return apperr.Invalid("write the post content")
				}
				return nil
			}},
			{Name: "schedule", Check: func(f PreviewForm) error {
				return checkSchedule(f, now().In(loc), loc)
			}},
			{Name: "confirm", Check: func(f PreviewForm) error {
				if f.IdeaID == uuid.Nil {
					return apperr.Invalid("no idea selected for this preview")
				}
				return nil
			}},
		},
	}
}

func checkSchedule(f PreviewForm, now time.Time, loc *time.Location) error {
	if f.ScheduledDate == "" || f.ScheduledTime == "" {
		return apperr.Invalid("pick a date and time")
	}
	date, err := time.ParseInLocation(dateLayout, f.ScheduledDate, loc)
	if err != nil {
		return apperr.Invalid("scheduled_date must be YYYY-MM-DD")
	}
	if _, err := time.Parse(timeLayout, f.ScheduledTime); err != nil {
		return apperr.Invalid("scheduled_time must be HH:MM")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if date.Before(today) {
		return apperr.Invalid("scheduled date cannot be in the past")
	}
	return nil
}
