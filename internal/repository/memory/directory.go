package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository"
)

type OrganizationStore struct{ s *Store }

func (o *OrganizationStore) Create(_ context.Context, name string) (*models.Organization, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	org := models.Organization{ID: uuid.New(), Name: name, CreatedAt: o.s.now()}
	o.s.orgs[org.ID] = org
	return &org, nil
}

func (o *OrganizationStore) GetByID(_ context.Context, organizationID uuid.UUID) (*models.Organization, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	org, ok := o.s.orgs[organizationID]
	if !ok {
		return nil, nil
	}
	return &org, nil
}

type UserStore struct{ s *Store }

func (u *UserStore) Create(_ context.Context, organizationID uuid.UUID, email, displayName, passwordHash string, role models.Role) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	email = strings.ToLower(email)
	for _, existing := range u.s.users {
		if existing.Email == email {
			return nil, fmt.Errorf("insert user: %w: users_email_key", repository.ErrDuplicate)
		}
	}

	user := models.User{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Email:          email,
		DisplayName:    displayName,
		PasswordHash:   passwordHash,
		Role:           role,
		CreatedAt:      u.s.now(),
	}
	u.s.users[user.ID] = user
	return &user, nil
}

func (u *UserStore) GetByID(_ context.Context, organizationID uuid.UUID, userID uuid.UUID) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	user, ok := u.s.users[userID]
	if !ok || user.OrganizationID != organizationID {
		return nil, nil
	}
	return &user, nil
}

func (u *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, user := range u.s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, nil
}

func (u *UserStore) ListByRole(_ context.Context, organizationID uuid.UUID, role models.Role) ([]models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	users := make([]models.User, 0)
	for _, user := range u.s.users {
		if user.OrganizationID == organizationID && user.Role == role {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].DisplayName < users[j].DisplayName })
	return users, nil
}

type ClientStore struct{ s *Store }

func (c *ClientStore) Create(_ context.Context, organizationID uuid.UUID, name string) (*models.Client, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	for _, existing := range c.s.clients {
		if existing.OrganizationID == organizationID && existing.Name == name {
			return nil, fmt.Errorf("insert client: %w: clients_organization_id_name_key", repository.ErrDuplicate)
		}
	}

	client := models.Client{ID: uuid.New(), OrganizationID: organizationID, Name: name, CreatedAt: c.s.now()}
	c.s.clients[client.ID] = client
	return &client, nil
}

func (c *ClientStore) GetByID(_ context.Context, organizationID uuid.UUID, clientID uuid.UUID) (*models.Client, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	client, ok := c.s.clients[clientID]
	if !ok || client.OrganizationID != organizationID {
		return nil, nil
	}
	return &client, nil
}

func (c *ClientStore) ListByOrg(_ context.Context, organizationID uuid.UUID) ([]models.Client, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	clients := make([]models.Client, 0)
	for _, client := range c.s.clients {
		if client.OrganizationID == organizationID {
			clients = append(clients, client)
		}
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })
	return clients, nil
}

func (c *ClientStore) LinkUser(_ context.Context, clientID uuid.UUID, userID uuid.UUID) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if _, ok := c.s.clients[clientID]; !ok {
		return fmt.Errorf("link client user: unknown client %s", clientID)
	}
	if _, ok := c.s.users[userID]; !ok {
		return fmt.Errorf("link client user: unknown user %s", userID)
	}
	if slices.Contains(c.s.clientUsers[userID], clientID) {
		return nil
	}
	c.s.clientUsers[userID] = append(c.s.clientUsers[userID], clientID)
	return nil
}

// ClientIDsForUser mirrors the SQL function: links only count inside
// the user's own organization.
func (c *ClientStore) ClientIDsForUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	ids := make([]uuid.UUID, 0)
	user, ok := c.s.users[userID]
	if !ok {
		return ids, nil
	}
	for _, clientID := range c.s.clientUsers[userID] {
		if client, ok := c.s.clients[clientID]; ok && client.OrganizationID == user.OrganizationID {
			ids = append(ids, clientID)
		}
	}
	return ids, nil
}
