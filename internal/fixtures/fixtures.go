// Package fixtures loads a YAML demo dataset into the in-memory store.
// It is only used when fixture mode is switched on explicitly; nothing
// falls back to it when a real store errors.
package fixtures

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository/memory"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

type Dataset struct {
	Organizations []Organization `yaml:"organizations"`
	Users         []User         `yaml:"users"`
	Clients       []Client       `yaml:"clients"`
	Ideas         []Idea         `yaml:"ideas"`
	Previews      []Preview      `yaml:"previews"`
}

type Organization struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// User carries a plaintext password; it is hashed while seeding.
type User struct {
	ID           string `yaml:"id"`
	Organization string `yaml:"organization"`
	Email        string `yaml:"email"`
	DisplayName  string `yaml:"display_name"`
	Password     string `yaml:"password"`
	Role         string `yaml:"role"`
	Onboarded    bool   `yaml:"onboarded"`
}

type Client struct {
	ID           string   `yaml:"id"`
	Organization string   `yaml:"organization"`
	Name         string   `yaml:"name"`
	Users        []string `yaml:"users"`
}

type Idea struct {
	ID              string            `yaml:"id"`
	Organization    string            `yaml:"organization"`
	Title           string            `yaml:"title"`
	Body            string            `yaml:"body"`
	PlatformContent map[string]string `yaml:"platform_content"`
	ImageURLs       []string          `yaml:"image_urls"`
	Tags            []string          `yaml:"tags"`
}

type Preview struct {
	ID             string `yaml:"id"`
	Idea           string `yaml:"idea"`
	Client         string `yaml:"client"`
	Channel        string `yaml:"channel"`
	Template       string `yaml:"template"`
	Content        string `yaml:"content"`
	Status         string `yaml:"status"`
	AdminNotes     string `yaml:"admin_notes"`
	ClientFeedback string `yaml:"client_feedback"`
	ScheduledAt    string `yaml:"scheduled_at"`
	CreatedBy      string `yaml:"created_by"`
	// Age is how long before load time the preview was created, e.g. "48h".
	Age string `yaml:"age"`
}

func Load(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &ds, nil
}

// Seed validates ds and writes it into store. Nothing is written when
// validation fails.
func Seed(store *memory.Store, ds *Dataset, now time.Time) error {
	b := builder{
		now:     now,
		orgs:    make(map[uuid.UUID]bool),
		users:   make(map[uuid.UUID]models.User),
		clients: make(map[uuid.UUID]models.Client),
		ideas:   make(map[uuid.UUID]models.Idea),
	}
	if err := b.build(ds); err != nil {
		return err
	}

	for _, o := range b.outOrgs {
		store.PutOrganization(o)
	}
	for _, u := range b.outUsers {
		store.PutUser(u)
	}
	for _, c := range b.outClients {
		store.PutClient(c.client, c.users...)
	}
	for _, i := range b.outIdeas {
		store.PutIdea(i)
	}
	for _, p := range b.outPreviews {
		store.PutPreview(p)
	}
	return nil
}

type seededClient struct {
	client models.Client
	users  []uuid.UUID
}

type builder struct {
	now time.Time

	orgs    map[uuid.UUID]bool
	users   map[uuid.UUID]models.User
	clients map[uuid.UUID]models.Client
	ideas   map[uuid.UUID]models.Idea

	outOrgs     []models.Organization
	outUsers    []models.User
	outClients  []seededClient
	outIdeas    []models.Idea
	outPreviews []models.Preview
}

func (b *builder) build(ds *Dataset) error {
	for i, o := range ds.Organizations {
		id, err := parseID("organizations", i, "id", o.ID)
		if err != nil {
			return err
		}
		b.orgs[id] = true
		b.outOrgs = append(b.outOrgs, models.Organization{ID: id, Name: o.Name, CreatedAt: b.now})
	}

	for i, u := range ds.Users {
		if err := b.addUser(i, u); err != nil {
			return err
		}
	}
	for i, c := range ds.Clients {
		if err := b.addClient(i, c); err != nil {
			return err
		}
	}
	for i, idea := range ds.Ideas {
		if err := b.addIdea(i, idea); err != nil {
			return err
		}
	}
	for i, p := range ds.Previews {
		if err := b.addPreview(i, p); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) org(section string, i int, raw string) (uuid.UUID, error) {
	id, err := parseID(section, i, "organization", raw)
	if err != nil {
		return uuid.Nil, err
	}
	if !b.orgs[id] {
		return uuid.Nil, fmt.Errorf("%s[%d]: unknown organization %s", section, i, id)
	}
	return id, nil
}

func (b *builder) addUser(i int, u User) error {
	id, err := parseID("users", i, "id", u.ID)
	if err != nil {
		return err
	}
	orgID, err := b.org("users", i, u.Organization)
	if err != nil {
		return err
	}
	role := models.Role(u.Role)
	if !role.Valid() {
		return fmt.Errorf("users[%d]: invalid role %q", i, u.Role)
	}
	if u.Password == "" {
		return fmt.Errorf("users[%d]: password is required", i)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("users[%d]: hash password: %w", i, err)
	}

	user := models.User{
		ID:             id,
		OrganizationID: orgID,
		Email:          strings.ToLower(strings.TrimSpace(u.Email)),
		DisplayName:    u.DisplayName,
		PasswordHash:   string(hash),
		Role:           role,
		CreatedAt:      b.now,
	}
	if u.Onboarded {
		at := b.now
		user.OnboardedAt = &at
	}
	b.users[id] = user
	b.outUsers = append(b.outUsers, user)
	return nil
}

func (b *builder) addClient(i int, c Client) error {
	id, err := parseID("clients", i, "id", c.ID)
	if err != nil {
		return err
	}
	orgID, err := b.org("clients", i, c.Organization)
	if err != nil {
		return err
	}

	linked := make([]uuid.UUID, 0, len(c.Users))
	for _, raw := range c.Users {
		uid, err := parseID("clients", i, "users", raw)
		if err != nil {
			return err
		}
		if _, ok := b.users[uid]; !ok {
			return fmt.Errorf("clients[%d]: unknown user %s", i, uid)
		}
		linked = append(linked, uid)
	}

	client := models.Client{ID: id, OrganizationID: orgID, Name: c.Name, CreatedAt: b.now}
	b.clients[id] = client
	b.outClients = append(b.outClients, seededClient{client: client, users: linked})
	return nil
}

func (b *builder) addIdea(i int, in Idea) error {
	id, err := parseID("ideas", i, "id", in.ID)
	if err != nil {
		return err
	}
	orgID, err := b.org("ideas", i, in.Organization)
	if err != nil {
		return err
	}

	idea := models.Idea{
		ID:             id,
		OrganizationID: orgID,
		Title:          in.Title,
		Body:           in.Body,
		ImageURLs:      in.ImageURLs,
		Tags:           in.Tags,
		CreatedAt:      b.now,
	}
	if len(in.PlatformContent) > 0 {
		idea.PlatformContent = make(map[models.Platform]string, len(in.PlatformContent))
		for k, v := range in.PlatformContent {
			platform := models.Platform(k)
			if !platform.Valid() {
				return fmt.Errorf("ideas[%d]: unknown platform %q", i, k)
			}
			idea.PlatformContent[platform] = v
		}
	}
	b.ideas[id] = idea
	b.outIdeas = append(b.outIdeas, idea)
	return nil
}

func (b *builder) addPreview(i int, in Preview) error {
	id, err := parseID("previews", i, "id", in.ID)
	if err != nil {
		return err
	}
	ideaID, err := parseID("previews", i, "idea", in.Idea)
	if err != nil {
		return err
	}
	idea, ok := b.ideas[ideaID]
	if !ok {
		return fmt.Errorf("previews[%d]: unknown idea %s", i, ideaID)
	}
	clientID, err := parseID("previews", i, "client", in.Client)
	if err != nil {
		return err
	}
	client, ok := b.clients[clientID]
	if !ok {
		return fmt.Errorf("previews[%d]: unknown client %s", i, clientID)
	}
	if client.OrganizationID != idea.OrganizationID {
		return fmt.Errorf("previews[%d]: idea and client belong to different organizations", i)
	}

	p := models.Preview{
		ID:             id,
		OrganizationID: idea.OrganizationID,
		IdeaID:         idea.ID,
		ClientID:       client.ID,
		Channel:        models.Channel(in.Channel),
		Template:       models.Template(in.Template),
		Payload:        models.SnapshotIdea(&idea, in.Content),
		Status:         models.Status(in.Status),
		AdminNotes:     in.AdminNotes,
		ClientFeedback: strings.TrimSpace(in.ClientFeedback),
		Version:        1,
		CreatedAt:      b.now,
	}
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	if !p.Channel.Valid() || !p.Template.Valid() || !p.Status.Valid() {
		return fmt.Errorf("previews[%d]: invalid channel, template or status", i)
	}
	if p.Status == models.StatusRejected && p.ClientFeedback == "" {
		return fmt.Errorf("previews[%d]: rejected previews need client_feedback", i)
	}
	if p.Status.Reviewed() {
		at := b.now
		p.ReviewedAt = &at
	}

	if in.Age != "" {
		age, err := time.ParseDuration(in.Age)
		if err != nil {
			return fmt.Errorf("previews[%d]: invalid age: %w", i, err)
		}
		p.CreatedAt = b.now.Add(-age)
	}
	if in.ScheduledAt != "" {
		at, err := time.Parse(time.RFC3339, in.ScheduledAt)
		if err != nil {
			return fmt.Errorf("previews[%d]: scheduled_at must be RFC 3339: %w", i, err)
		}
		p.ScheduledAt = &at
	}
	if in.CreatedBy != "" {
		if p.CreatedBy, err = parseID("previews", i, "created_by", in.CreatedBy); err != nil {
			return err
		}
	}

	b.outPreviews = append(b.outPreviews, p)
	return nil
}

func parseID(section string, i int, field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s[%d].%s: invalid uuid %q", section, i, field, raw)
	}
	return id, nil
}
