// Package review builds the reviewer's list view: search and status
// filtering over an already-scoped set of previews, tab counts, and the
// per-entry summary the screen renders.
package review

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/content"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/workflow"
)

// StatusAll disables status filtering.
const StatusAll = "all"

type Filter struct {
	Search string
	Status string
}

// ParseStatus accepts "", "all" or a known status.
func ParseStatus(raw string) (string, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == StatusAll {
		return StatusAll, true
	}
	if models.Status(raw).Valid() {
		return raw, true
	}
	return "", false
}

func (f Filter) matches(p *models.Preview) bool {
	if f.Status != "" && f.Status != StatusAll && string(p.Status) != f.Status {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title()), term) ||
		strings.Contains(strings.ToLower(p.Payload.IdeaContent), term) ||
		strings.Contains(strings.ToLower(p.Payload.Content), term)
}

// Apply returns the previews that pass the filter, in input order. The
// input slice is not modified.
func Apply(previews []models.Preview, f Filter) []models.Preview {
	out := make([]models.Preview, 0, len(previews))
	for i := range previews {
		if f.matches(&previews[i]) {
			out = append(out, previews[i])
		}
	}
	return out
}

// Counts are the numbers shown on the status tabs. They ignore the
// status filter but honour the search term.
type Counts struct {
	All      int `json:"all"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

func Count(previews []models.Preview, search string) Counts {
	var c Counts
	f := Filter{Search: search}
	for i := range previews {
		p := &previews[i]
		if !f.matches(p) {
			continue
		}
		c.All++
		switch p.Status {
		case models.StatusPending:
			c.Pending++
		case models.StatusApproved:
			c.Approved++
		case models.StatusRejected:
			c.Rejected++
		}
	}
	return c
}

// Entry is one row of the review list.
type Entry struct {
	ID             uuid.UUID        `json:"id"`
	IdeaID         uuid.UUID        `json:"idea_id"`
	ClientID       uuid.UUID        `json:"client_id"`
	Title          string           `json:"title"`
	Excerpt        string           `json:"excerpt"`
	Truncated      bool             `json:"truncated"`
	Channel        models.Channel   `json:"channel"`
	Platforms      []string         `json:"platforms,omitempty"`
	Template       models.Template  `json:"template"`
	Status         models.Status    `json:"status"`
	AdminNotes     string           `json:"admin_notes,omitempty"`
	ClientFeedback string           `json:"client_feedback,omitempty"`
	ScheduledAt    *time.Time       `json:"scheduled_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	ReviewedAt     *time.Time       `json:"reviewed_at,omitempty"`
	Version        int              `json:"version"`
	Actions        workflow.Actions `json:"actions"`
}

func NewEntry(p *models.Preview) Entry {
	excerpt, truncated := content.Excerpt(content.PlainText(p.Body()), content.ExcerptLength)
	return Entry{
		ID:             p.ID,
		IdeaID:         p.IdeaID,
		ClientID:       p.ClientID,
		Title:          p.Title(),
		Excerpt:        excerpt,
		Truncated:      truncated,
		Channel:        p.Channel,
		Platforms:      platforms(p.Payload),
		Template:       p.Template,
		Status:         p.Status,
		AdminNotes:     p.AdminNotes,
		ClientFeedback: p.ClientFeedback,
		ScheduledAt:    p.ScheduledAt,
		CreatedAt:      p.CreatedAt,
		ReviewedAt:     p.ReviewedAt,
		Version:        p.Version,
		Actions:        workflow.Offered(p.Status),
	}
}

// platforms lists the badges for a bundle in the canonical order.
func platforms(p models.Payload) []string {
	var out []string
	for _, platform := range models.Platforms {
		if strings.TrimSpace(p.SocialContent[platform]) != "" {
			out = append(out, string(platform))
		}
	}
	return out
}

// List is the full response for one list request.
type List struct {
	Entries []Entry `json:"entries"`
	Counts  Counts  `json:"counts"`
}

func Build(previews []models.Preview, f Filter) List {
	visible := Apply(previews, f)
	entries := make([]Entry, 0, len(visible))
	for i := range visible {
		entries = append(entries, NewEntry(&visible[i]))
	}
	return List{Entries: entries, Counts: Count(previews, f.Search)}
}

// Detail is the expanded view of one preview.
type Detail struct {
	Entry
	Body          string                     `json:"body"`
	BodyHTML      string                     `json:"body_html"`
	IdeaContent   string                     `json:"idea_content"`
	SocialContent map[models.Platform]string `json:"social_content,omitempty"`
	Images        []string                   `json:"images,omitempty"`
	RevisionOf    *uuid.UUID                 `json:"revision_of,omitempty"`
}

func NewDetail(p *models.Preview) Detail {
	return Detail{
		Entry:         NewEntry(p),
		Body:          p.Body(),
		BodyHTML:      content.RenderHTML(p.Body()),
		IdeaContent:   p.Payload.IdeaContent,
		SocialContent: p.Payload.SocialContent,
		Images:        p.Payload.Images,
		RevisionOf:    p.RevisionOf,
	}
}
