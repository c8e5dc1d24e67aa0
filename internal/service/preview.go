package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/apperr"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository"
	"github.com/lalith-99/timelinealchemy/internal/review"
	"github.com/lalith-99/timelinealchemy/internal/wizard"
	"github.com/lalith-99/timelinealchemy/internal/workflow"
	"go.uber.org/zap"
)

// PreviewService is the admin side: building, editing and removing
// previews.
type PreviewService struct {
	previews repository.PreviewRepository
	ideas    repository.IdeaRepository
	clients  repository.ClientRepository
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

func NewPreviewService(
	previews repository.PreviewRepository,
	ideas repository.IdeaRepository,
	clients repository.ClientRepository,
	loc *time.Location,
	logger *zap.Logger,
) *PreviewService {
	if loc == nil {
		loc = time.UTC
	}
	return &PreviewService{
		previews: previews,
		ideas:    ideas,
		clients:  clients,
		logger:   logger,
		loc:      loc,
		now:      time.Now,
	}
}

func (s *PreviewService) WithClock(now func() time.Time) *PreviewService {
	s.now = now
	return s
}

func (s *PreviewService) flow() *wizard.Flow[wizard.PreviewForm] {
	return wizard.NewPreviewFlow(s.now, s.loc)
}

// ---------------------------------------------------------------
// Single-preview wizard
// ---------------------------------------------------------------

type WizardResult struct {
	Preview  *models.Preview `json:"preview"`
	Warnings []string        `json:"warnings,omitempty"`
}

// CreateFromWizard validates every step and inserts one pending
// preview with the idea snapshotted into its payload.
func (s *PreviewService) CreateFromWizard(ctx context.Context, actor Actor, form wizard.PreviewForm) (*WizardResult, error) {
	if err := s.flow().Validate(form); err != nil {
		return nil, stepInvalid(err)
	}

	client, err := s.clients.GetByID(ctx, actor.OrganizationID, form.ClientID)
	if err != nil {
		return nil, storeErr("could not load client", err)
	}
	if client == nil {
		return nil, apperr.NotFound("client")
	}

	idea, err := s.ideas.GetByID(ctx, actor.OrganizationID, form.IdeaID)
	if err != nil {
		return nil, storeErr("could not load idea", err)
	}
	if idea == nil {
		return nil, apperr.NotFound("idea")
	}

	at, err := form.ScheduledAt(s.loc)
	if err != nil {
		return nil, apperr.Invalid("scheduled date and time could not be read")
	}

	created, err := s.previews.Create(ctx, &models.Preview{
		OrganizationID: actor.OrganizationID,
		IdeaID:         idea.ID,
		ClientID:       client.ID,
		Channel:        form.Channel,
		Template:       form.Template,
		Payload:        models.SnapshotIdea(idea, strings.TrimSpace(form.Content)),
		ScheduledAt:    &at,
		CreatedBy:      actor.UserID,
	})
	if err != nil {
		return nil, storeErr("could not create preview", err)
	}

	s.logger.Info("preview created",
		zap.String("preview_id", created.ID.String()),
		zap.String("client_id", client.ID.String()),
		zap.String("channel", string(created.Channel)),
	)
	return &WizardResult{Preview: created, Warnings: form.Warnings()}, nil
}

type WizardAction string

const (
	WizardStay     WizardAction = ""
	WizardNext     WizardAction = "next"
	WizardBack     WizardAction = "back"
	WizardComplete WizardAction = "complete"
)

type WizardStepRequest struct {
	Step   int                `json:"step"`
	Action WizardAction       `json:"action"`
	Form   wizard.PreviewForm `json:"form"`
}

// WizardOptions are the choices offered on the current step.
type WizardOptions struct {
	Clients   []models.Client   `json:"clients,omitempty"`
	Ideas     []models.Idea     `json:"ideas,omitempty"`
	Channels  []models.Channel  `json:"channels,omitempty"`
	Templates []models.Template `json:"templates,omitempty"`
	Idea      *models.Idea      `json:"idea,omitempty"`
}

// WizardState is the wizard as the client should render it next.
// Blocked explains why the requested move did not happen.
type WizardState struct {
	Step     int                `json:"step"`
	StepName string             `json:"step_name"`
	Total    int                `json:"total"`
	AtLast   bool               `json:"at_last"`
	Form     wizard.PreviewForm `json:"form"`
	Options  WizardOptions      `json:"options"`
	Warnings []string           `json:"warnings,omitempty"`
	Blocked  string             `json:"blocked,omitempty"`
	Created  *models.Preview    `json:"created,omitempty"`
}

// WizardStep applies one navigation action to a wizard session that
// the client carries between requests.
func (s *PreviewService) WizardStep(ctx context.Context, actor Actor, req WizardStepRequest) (*WizardState, error) {
	session := s.flow().Resume(req.Step, req.Form)

	var moveErr error
	var created *models.Preview
	switch req.Action {
	case WizardStay:
	case WizardNext:
		moveErr = session.Next()
	case WizardBack:
		moveErr = session.Back()
	case WizardComplete:
		if moveErr = session.Complete(); moveErr == nil {
			result, err := s.CreateFromWizard(ctx, actor, session.Form)
			if err != nil {
				return nil, err
			}
			created = result.Preview
		}
	default:
		return nil, apperr.Invalid("unknown wizard action %q", req.Action)
	}

	if moveErr != nil && apperr.KindOf(moveErr) != apperr.KindInvalid {
		return nil, moveErr
	}

	state := &WizardState{
		Step:     session.Step(),
		StepName: session.StepName(),
		Total:    session.Total(),
		AtLast:   session.AtLast(),
		Form:     session.Form,
		Warnings: session.Form.Warnings(),
		Created:  created,
	}
	if moveErr != nil {
		state.Blocked = moveErr.Error()
	}
	if err := s.fillOptions(ctx, actor, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *PreviewService) fillOptions(ctx context.Context, actor Actor, state *WizardState) error {
	switch state.StepName {
	case "client":
		clients, err := s.CandidateClients(ctx, actor)
		if err != nil {
			return err
		}
		state.Options.Clients = clients
		if state.Form.IdeaID == uuid.Nil {
			ideas, err := s.CandidateIdeas(ctx, actor)
			if err != nil {
				return err
			}
			state.Options.Ideas = ideas
		}
	case "channel":
		state.Options.Channels = models.WizardChannels
	case "template":
		state.Options.Templates = models.Templates
	case "confirm":
		if state.Form.IdeaID == uuid.Nil {
			return nil
		}
		idea, err := s.ideas.GetByID(ctx, actor.OrganizationID, state.Form.IdeaID)
		if err != nil {
			return storeErr("could not load idea", err)
		}
		state.Options.Idea = idea
	}
	return nil
}

// CandidateClients lists the clients a preview can be addressed to.
func (s *PreviewService) CandidateClients(ctx context.Context, actor Actor) ([]models.Client, error) {
	clients, err := s.clients.ListByOrg(ctx, actor.OrganizationID)
	if err != nil {
		return nil, storeErr("could not load clients", err)
	}
	return clients, nil
}

// CandidateIdeas lists the ideas a preview can be built from.
func (s *PreviewService) CandidateIdeas(ctx context.Context, actor Actor) ([]models.Idea, error) {
	ideas, err := s.ideas.ListByOrg(ctx, actor.OrganizationID)
	if err != nil {
		return nil, storeErr("could not load ideas", err)
	}
	return ideas, nil
}

// ---------------------------------------------------------------
// Batch wizard
// ---------------------------------------------------------------

type BatchFailure struct {
	IdeaID uuid.UUID `json:"idea_id"`
	Error  string    `json:"error"`
}

// BatchResult reports each idea separately. Rows that were inserted
// stay inserted when a later idea fails.
type BatchResult struct {
	Created      []models.Preview `json:"created"`
	Failed       []BatchFailure   `json:"failed"`
	FailureCount int              `json:"failure_count"`
}

// CreateBatch inserts one custom_post bundle per selected idea, one
// insert at a time.
func (s *PreviewService) CreateBatch(ctx context.Context, actor Actor, form wizard.BatchForm) (*BatchResult, error) {
	if err := wizard.NewBatchFlow().Validate(form); err != nil {
		return nil, stepInvalid(err)
	}

	client, err := s.clients.GetByID(ctx, actor.OrganizationID, form.ClientID)
	if err != nil {
		return nil, storeErr("could not load client", err)
	}
	if client == nil {
		return nil, apperr.NotFound("client")
	}

	ids := form.UniqueIdeas()
	found, err := s.ideas.GetMany(ctx, actor.OrganizationID, ids)
	if err != nil {
		return nil, storeErr("could not load ideas", err)
	}
	byID := make(map[uuid.UUID]*models.Idea, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	notes := strings.TrimSpace(form.AdminNotes)
	result := &BatchResult{
		Created: make([]models.Preview, 0, len(ids)),
		Failed:  make([]BatchFailure, 0),
	}
	for _, id := range ids {
		idea, ok := byID[id]
		if !ok {
			result.Failed = append(result.Failed, BatchFailure{IdeaID: id, Error: "idea not found"})
			continue
		}

		created, err := s.previews.Create(ctx, &models.Preview{
			OrganizationID: actor.OrganizationID,
			IdeaID:         idea.ID,
			ClientID:       client.ID,
			Channel:        models.ChannelCustomPost,
			Template:       models.TemplateCustom,
			Payload:        models.SnapshotIdea(idea, ""),
			AdminNotes:     notes,
			CreatedBy:      actor.UserID,
		})
		if err != nil {
			s.logger.Warn("batch preview insert failed",
				zap.String("idea_id", id.String()),
				zap.String("client_id", client.ID.String()),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, BatchFailure{IdeaID: id, Error: "could not create preview"})
			continue
		}
		result.Created = append(result.Created, *created)
	}
	result.FailureCount = len(result.Failed)

	s.logger.Info("batch previews created",
		zap.String("client_id", client.ID.String()),
		zap.Int("created", len(result.Created)),
		zap.Int("failed", result.FailureCount),
	)
	return result, nil
}

// ---------------------------------------------------------------
// Listing and maintenance
// ---------------------------------------------------------------

// ListForOrg is the admin's view of every preview in the organization.
func (s *PreviewService) ListForOrg(ctx context.Context, actor Actor, f review.Filter) (review.List, error) {
	previews, err := s.previews.ListByOrg(ctx, actor.OrganizationID)
	if err != nil {
		return review.List{}, storeErr("could not load previews", err)
	}
	return review.Build(previews, f), nil
}

func (s *PreviewService) Get(ctx context.Context, actor Actor, previewID uuid.UUID) (*models.Preview, error) {
	p, err := s.previews.GetByID(ctx, actor.OrganizationID, previewID)
	if err != nil {
		return nil, storeErr("could not load preview", err)
	}
	if p == nil {
		return nil, apperr.NotFound("preview")
	}
	return p, nil
}

// DraftEdit changes a pending preview. Nil fields are left as they
// are. Version, when set, must match the stored version.
type DraftEdit struct {
	Version     int        `json:"version"`
	Content     *string    `json:"content"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	AdminNotes  *string    `json:"admin_notes"`
}

var errPreviewChanged = apperr.New(apperr.KindConflict, "preview changed since it was loaded, reload and try again")

func (s *PreviewService) UpdateDraft(ctx context.Context, actor Actor, previewID uuid.UUID, edit DraftEdit) (*models.Preview, error) {
	p, err := s.Get(ctx, actor, previewID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.StatusPending {
		return nil, workflow.ErrAlreadyReviewed
	}
	if edit.Version != 0 && edit.Version != p.Version {
		return nil, errPreviewChanged
	}

	payload := p.Payload
	if edit.Content != nil {
		payload.Content = strings.TrimSpace(*edit.Content)
	}
	scheduledAt := p.ScheduledAt
	if edit.ScheduledAt != nil {
		if s.beforeToday(*edit.ScheduledAt) {
			return nil, apperr.Invalid("scheduled date cannot be in the past")
		}
		scheduledAt = edit.ScheduledAt
	}
	notes := p.AdminNotes
	if edit.AdminNotes != nil {
		notes = strings.TrimSpace(*edit.AdminNotes)
	}

	updated, err := s.previews.UpdateDraft(ctx, repository.DraftUpdate{
		OrganizationID:  actor.OrganizationID,
		PreviewID:       p.ID,
		ExpectedVersion: p.Version,
		Payload:         payload,
		ScheduledAt:     scheduledAt,
		AdminNotes:      notes,
	})
	if errors.Is(err, repository.ErrStale) {
		return nil, errPreviewChanged
	}
	if err != nil {
		return nil, storeErr("could not update preview", err)
	}
	return updated, nil
}

func (s *PreviewService) beforeToday(t time.Time) bool {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	return t.In(s.loc).Before(today)
}

type ReviseInput struct {
	Content    string `json:"content"`
	AdminNotes string `json:"admin_notes"`
}

// Revise answers a rejection with a new pending preview for the same
// client and channel. The rejected row stays as it is.
func (s *PreviewService) Revise(ctx context.Context, actor Actor, previewID uuid.UUID, in ReviseInput) (*models.Preview, error) {
	original, err := s.Get(ctx, actor, previewID)
	if err != nil {
		return nil, err
	}
	if err := workflow.CanRevise(original.Status); err != nil {
		return nil, err
	}

	// Prefer a fresh snapshot so edits made to the idea since the
	// rejection are picked up.
	payload := original.Payload
	idea, err := s.ideas.GetByID(ctx, actor.OrganizationID, original.IdeaID)
	if err != nil {
		return nil, storeErr("could not load idea", err)
	}
	if idea != nil {
		payload = models.SnapshotIdea(idea, original.Payload.Content)
	}
	if content := strings.TrimSpace(in.Content); content != "" {
		payload.Content = content
	}

	revisionOf := original.ID
	created, err := s.previews.Create(ctx, &models.Preview{
		OrganizationID: actor.OrganizationID,
		IdeaID:         original.IdeaID,
		ClientID:       original.ClientID,
		Channel:        original.Channel,
		Template:       original.Template,
		Payload:        payload,
		ScheduledAt:    original.ScheduledAt,
		AdminNotes:     strings.TrimSpace(in.AdminNotes),
		RevisionOf:     &revisionOf,
		CreatedBy:      actor.UserID,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperr.Conflict("this preview has already been revised", err)
	}
	if err != nil {
		return nil, storeErr("could not create revision", err)
	}

	s.logger.Info("preview revised",
		zap.String("preview_id", created.ID.String()),
		zap.String("revision_of", original.ID.String()),
	)
	return created, nil
}

// Delete removes a preview. confirmed must be true; the endpoint asks
// for it explicitly.
func (s *PreviewService) Delete(ctx context.Context, actor Actor, previewID uuid.UUID, confirmed bool) error {
	if actor.Role != models.RoleAdmin {
		return apperr.Forbidden("only admins can delete previews")
	}
	if !confirmed {
		return apperr.Invalid("deletion must be confirmed with confirm=true")
	}

	deleted, err := s.previews.Delete(ctx, actor.OrganizationID, previewID)
	if err != nil {
		return storeErr("could not delete preview", err)
	}
	if !deleted {
		return apperr.NotFound("preview")
	}

	s.logger.Info("preview deleted",
		zap.String("preview_id", previewID.String()),
		zap.String("deleted_by", actor.UserID.String()),
	)
	return nil
}
