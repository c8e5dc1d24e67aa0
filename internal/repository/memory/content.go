package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository"
)

type IdeaStore struct{ s *Store }

func (i *IdeaStore) Create(_ context.Context, idea *models.Idea) (*models.Idea, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()

	created := cloneIdea(*idea)
	created.ID = uuid.New()
	created.CreatedAt = i.s.now()
	i.s.ideas[created.ID] = created

	out := cloneIdea(created)
	return &out, nil
}

func (i *IdeaStore) GetByID(_ context.Context, organizationID uuid.UUID, ideaID uuid.UUID) (*models.Idea, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()

	idea, ok := i.s.ideas[ideaID]
	if !ok || idea.OrganizationID != organizationID {
		return nil, nil
	}
	out := cloneIdea(idea)
	return &out, nil
}

func (i *IdeaStore) GetMany(_ context.Context, organizationID uuid.UUID, ids []uuid.UUID) ([]models.Idea, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()

	ideas := make([]models.Idea, 0, len(ids))
	for _, id := range ids {
		if idea, ok := i.s.ideas[id]; ok && idea.OrganizationID == organizationID {
			ideas = append(ideas, cloneIdea(idea))
		}
	}
	return ideas, nil
}

func (i *IdeaStore) ListByOrg(_ context.Context, organizationID uuid.UUID) ([]models.Idea, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()

	ideas := make([]models.Idea, 0)
	for _, idea := range i.s.ideas {
		if idea.OrganizationID == organizationID {
			ideas = append(ideas, cloneIdea(idea))
		}
	}
	sort.Slice(ideas, func(a, b int) bool { return ideas[a].CreatedAt.After(ideas[b].CreatedAt) })
	return ideas, nil
}

type PreviewStore struct{ s *Store }

func (p *PreviewStore) Create(_ context.Context, preview *models.Preview) (*models.Preview, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if preview.RevisionOf != nil {
		for _, existing := range p.s.previews {
			if existing.RevisionOf != nil && *existing.RevisionOf == *preview.RevisionOf {
				return nil, fmt.Errorf("insert preview: %w: idx_previews_revision_of", repository.ErrDuplicate)
			}
		}
	}

	created := clonePreview(*preview)
	created.ID = uuid.New()
	created.Status = models.StatusPending
	created.Version = 1
	created.ClientFeedback = ""
	created.ReviewedAt = nil
	created.ReviewedBy = nil
	created.CreatedAt = p.s.now()
	created.Payload.Version = models.PayloadVersion
	p.s.previews[created.ID] = created

	out := clonePreview(created)
	return &out, nil
}

func (p *PreviewStore) GetByID(_ context.Context, organizationID uuid.UUID, previewID uuid.UUID) (*models.Preview, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	preview, ok := p.s.previews[previewID]
	if !ok || preview.OrganizationID != organizationID {
		return nil, nil
	}
	out := clonePreview(preview)
	return &out, nil
}

func (p *PreviewStore) GetForClients(_ context.Context, clientIDs []uuid.UUID, previewID uuid.UUID) (*models.Preview, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	preview, ok := p.s.previews[previewID]
	if !ok || !slices.Contains(clientIDs, preview.ClientID) {
		return nil, nil
	}
	out := clonePreview(preview)
	return &out, nil
}

func (p *PreviewStore) ListByClients(_ context.Context, clientIDs []uuid.UUID) ([]models.Preview, error) {
	return p.list(func(v models.Preview) bool { return slices.Contains(clientIDs, v.ClientID) }), nil
}

func (p *PreviewStore) ListByOrg(_ context.Context, organizationID uuid.UUID) ([]models.Preview, error) {
	return p.list(func(v models.Preview) bool { return v.OrganizationID == organizationID }), nil
}

func (p *PreviewStore) list(keep func(models.Preview) bool) []models.Preview {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	previews := make([]models.Preview, 0)
	for _, v := range p.s.previews {
		if keep(v) {
			previews = append(previews, clonePreview(v))
		}
	}
	sort.Slice(previews, func(i, j int) bool {
		if previews[i].CreatedAt.Equal(previews[j].CreatedAt) {
			return previews[i].ID.String() < previews[j].ID.String()
		}
		return previews[i].CreatedAt.After(previews[j].CreatedAt)
	})
	return previews
}

func (p *PreviewStore) Decide(_ context.Context, u repository.DecisionUpdate) (*models.Preview, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	preview, ok := p.s.previews[u.PreviewID]
	if !ok ||
		!slices.Contains(u.ClientIDs, preview.ClientID) ||
		preview.Status != models.StatusPending ||
		preview.Version != u.ExpectedVersion {
		return nil, repository.ErrStale
	}

	reviewedAt := u.ReviewedAt
	reviewedBy := u.ReviewedBy
	preview.Status = u.Status
	preview.ClientFeedback = u.Feedback
	preview.ReviewedAt = &reviewedAt
	preview.ReviewedBy = &reviewedBy
	preview.Version++
	p.s.previews[preview.ID] = preview

	out := clonePreview(preview)
	return &out, nil
}

func (p *PreviewStore) UpdateDraft(_ context.Context, u repository.DraftUpdate) (*models.Preview, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	preview, ok := p.s.previews[u.PreviewID]
	if !ok ||
		preview.OrganizationID != u.OrganizationID ||
		preview.Status != models.StatusPending ||
		preview.Version != u.ExpectedVersion {
		return nil, repository.ErrStale
	}

	preview.Payload = clonePayload(u.Payload)
	preview.Payload.Version = models.PayloadVersion
	if u.ScheduledAt != nil {
		at := *u.ScheduledAt
		preview.ScheduledAt = &at
	} else {
		preview.ScheduledAt = nil
	}
	preview.AdminNotes = u.AdminNotes
	preview.Version++
	p.s.previews[preview.ID] = preview

	out := clonePreview(preview)
	return &out, nil
}

func (p *PreviewStore) Delete(_ context.Context, organizationID uuid.UUID, previewID uuid.UUID) (bool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	preview, ok := p.s.previews[previewID]
	if !ok || preview.OrganizationID != organizationID {
		return false, nil
	}
	delete(p.s.previews, previewID)
	// Matches ON DELETE SET NULL on revision_of.
	for id, other := range p.s.previews {
		if other.RevisionOf != nil && *other.RevisionOf == previewID {
			other.RevisionOf = nil
			p.s.previews[id] = other
		}
	}
	return true, nil
}

type OnboardingStore struct{ s *Store }

func (o *OnboardingStore) SaveDraft(_ context.Context, d *models.OnboardingDraft) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	if existing, ok := o.s.drafts[d.UserID]; ok && existing.UpdatedAt.After(d.UpdatedAt) {
		return nil
	}
	draft := *d
	draft.Values = slices.Clone(d.Values)
	o.s.drafts[d.UserID] = draft
	return nil
}

func (o *OnboardingStore) GetDraft(_ context.Context, userID uuid.UUID) (*models.OnboardingDraft, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	draft, ok := o.s.drafts[userID]
	if !ok {
		return nil, nil
	}
	draft.Values = slices.Clone(draft.Values)
	return &draft, nil
}

func (o *OnboardingStore) DeleteDraft(_ context.Context, userID uuid.UUID) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	delete(o.s.drafts, userID)
	return nil
}

func (o *OnboardingStore) PurgeDrafts(_ context.Context, cutoff time.Time) (int64, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	var n int64
	for id, d := range o.s.drafts {
		if d.UpdatedAt.Before(cutoff) {
			delete(o.s.drafts, id)
			n++
		}
	}
	return n, nil
}

func (o *OnboardingStore) Complete(_ context.Context, c repository.OnboardingCompletion) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	user, ok := o.s.users[c.UserID]
	if !ok || user.OrganizationID != c.OrganizationID || user.OnboardedAt != nil {
		return fmt.Errorf("update profile: %w", repository.ErrStale)
	}
	completedAt := c.CompletedAt
	user.DisplayName = c.DisplayName
	user.OnboardedAt = &completedAt
	o.s.users[user.ID] = user
	o.s.settings[user.ID] = slices.Clone(c.Settings)

	if org, ok := o.s.orgs[c.OrganizationID]; ok && c.OrganizationName != "" {
		org.Name = c.OrganizationName
		o.s.orgs[org.ID] = org
	}
	delete(o.s.drafts, c.UserID)
	return nil
}

// Settings returns the onboarding preferences stored for a user.
func (o *OnboardingStore) Settings(userID uuid.UUID) []byte {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	return slices.Clone(o.s.settings[userID])
}
