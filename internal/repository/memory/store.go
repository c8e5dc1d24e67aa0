// Package memory is an in-process implementation of every repository
// interface. It backs fixture mode and the test suites; it enforces the
// same scoping and conditional-write rules as the Postgres stores.
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/models"
)

type Store struct {
	mu sync.RWMutex

	orgs        map[uuid.UUID]models.Organization
	users       map[uuid.UUID]models.User
	clients     map[uuid.UUID]models.Client
	clientUsers map[uuid.UUID][]uuid.UUID // user → clients
	ideas       map[uuid.UUID]models.Idea
	previews    map[uuid.UUID]models.Preview
	drafts      map[uuid.UUID]models.OnboardingDraft
	settings    map[uuid.UUID][]byte

	now func() time.Time
}

func New() *Store {
	return &Store{
		orgs:        make(map[uuid.UUID]models.Organization),
		users:       make(map[uuid.UUID]models.User),
		clients:     make(map[uuid.UUID]models.Client),
		clientUsers: make(map[uuid.UUID][]uuid.UUID),
		ideas:       make(map[uuid.UUID]models.Idea),
		previews:    make(map[uuid.UUID]models.Preview),
		drafts:      make(map[uuid.UUID]models.OnboardingDraft),
		settings:    make(map[uuid.UUID][]byte),
		now:         time.Now,
	}
}

// WithClock replaces the clock used for created_at stamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Organizations() *OrganizationStore { return &OrganizationStore{s} }
func (s *Store) Users() *UserStore                 { return &UserStore{s} }
func (s *Store) Clients() *ClientStore             { return &ClientStore{s} }
func (s *Store) Ideas() *IdeaStore                 { return &IdeaStore{s} }
func (s *Store) Previews() *PreviewStore           { return &PreviewStore{s} }
func (s *Store) Onboarding() *OnboardingStore      { return &OnboardingStore{s} }

func clonePreview(p models.Preview) models.Preview {
	p.Payload = clonePayload(p.Payload)
	return p
}

func clonePayload(p models.Payload) models.Payload {
	if p.SocialContent != nil {
		m := make(map[models.Platform]string, len(p.SocialContent))
		for k, v := range p.SocialContent {
			m[k] = v
		}
		p.SocialContent = m
	}
	p.Images = slices.Clone(p.Images)
	return p
}

func cloneIdea(i models.Idea) models.Idea {
	if i.PlatformContent != nil {
		m := make(map[models.Platform]string, len(i.PlatformContent))
		for k, v := range i.PlatformContent {
			m[k] = v
		}
		i.PlatformContent = m
	}
	i.ImageURLs = slices.Clone(i.ImageURLs)
	i.Tags = slices.Clone(i.Tags)
	return i
}
