package memory

import (
	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository"
)

var (
	_ repository.OrganizationRepository = (*OrganizationStore)(nil)
	_ repository.UserRepository         = (*UserStore)(nil)
	_ repository.ClientRepository       = (*ClientStore)(nil)
	_ repository.IdeaRepository         = (*IdeaStore)(nil)
	_ repository.PreviewRepository      = (*PreviewStore)(nil)
	_ repository.OnboardingRepository   = (*OnboardingStore)(nil)
)

// Seeding keeps the caller's IDs and timestamps, unlike Create. It is
// used to load fixture datasets.

func (s *Store) PutOrganization(o models.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[o.ID] = o
}

func (s *Store) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) PutClient(c models.Client, userIDs ...uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
	for _, uid := range userIDs {
		s.clientUsers[uid] = append(s.clientUsers[uid], c.ID)
	}
}

func (s *Store) PutIdea(i models.Idea) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ideas[i.ID] = cloneIdea(i)
}

func (s *Store) PutPreview(p models.Preview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Version == 0 {
		p.Version = 1
	}
	s.previews[p.ID] = clonePreview(p)
}
