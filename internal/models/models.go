package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role separates curators from reviewers. Admins curate ideas and
// build previews; clients review the previews addressed to them.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClient
}

// Organization is the tenant boundary. Every user, client, idea and
// preview belongs to exactly one organization.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a profile: one login, one role, one organization.
type User struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Email          string     `json:"email"`
	DisplayName    string     `json:"display_name"`
	PasswordHash   string     `json:"-"`
	Role           Role       `json:"role"`
	OnboardedAt    *time.Time `json:"onboarded_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Client is a customer account that previews are addressed to. Zero
// or more users act on its behalf through client_users.
type Client struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

// ClientUser links a user account to a client.
type ClientUser struct {
	ClientID uuid.UUID `json:"client_id"`
	UserID   uuid.UUID `json:"user_id"`
}

// Idea is a unit of proposed content. The approval workflow only
// reads ideas; they are snapshotted into previews at creation time.
type Idea struct {
	ID              uuid.UUID           `json:"id"`
	OrganizationID  uuid.UUID           `json:"organization_id"`
	Title           string              `json:"title"`
	Body            string              `json:"body"`
	PlatformContent map[Platform]string `json:"platform_content,omitempty"`
	ImageURLs       []string            `json:"image_urls,omitempty"`
	Tags            []string            `json:"tags,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// Preview is one idea proposed to one client on one channel, awaiting
// an approve/reject decision.
//
// Version increments on every write and guards decisions against lost
// updates. RevisionOf points at the rejected preview this one revises.
type Preview struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	IdeaID         uuid.UUID  `json:"idea_id"`
	ClientID       uuid.UUID  `json:"client_id"`
	Channel        Channel    `json:"channel"`
	Template       Template   `json:"template"`
	Payload        Payload    `json:"payload"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
	Status         Status     `json:"status"`
	AdminNotes     string     `json:"admin_notes,omitempty"`
	ClientFeedback string     `json:"client_feedback,omitempty"`
	RevisionOf     *uuid.UUID `json:"revision_of,omitempty"`
	Version        int        `json:"version"`
	CreatedBy      uuid.UUID  `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy     *uuid.UUID `json:"reviewed_by,omitempty"`
}

// Title is what list views show for a preview.
func (p *Preview) Title() string {
	return p.Payload.IdeaTitle
}

// Body prefers the channel draft over the idea body.
func (p *Preview) Body() string {
	if p.Payload.Content != "" {
		return p.Payload.Content
	}
	return p.Payload.IdeaContent
}

// OnboardingDraft is the last autosaved state of a user's onboarding
// wizard.
type OnboardingDraft struct {
	UserID    uuid.UUID       `json:"user_id"`
	Step      int             `json:"step"`
	Values    json.RawMessage `json:"values"`
	UpdatedAt time.Time       `json:"updated_at"`
}
