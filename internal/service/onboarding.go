package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/apperr"
	"github.com/lalith-99/timelinealchemy/internal/autosave"
	"github.com/lalith-99/timelinealchemy/internal/cache"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository"
	"github.com/lalith-99/timelinealchemy/internal/wizard"
	"go.uber.org/zap"
)

const (
	draftKeyPrefix = "ta:onboarding:draft:"
	draftCacheTTL  = 7 * 24 * time.Hour
)

// OnboardingService runs the onboarding wizard. Drafts are written to
// the cache on every change and to the database once the user pauses.
type OnboardingService struct {
	repo     repository.OnboardingRepository
	users    repository.UserRepository
	cache    cache.Cache
	autosave *autosave.Debouncer[uuid.UUID, models.OnboardingDraft]
	flow     *wizard.Flow[wizard.OnboardingForm]
	logger   *zap.Logger
	now      func() time.Time
}

func NewOnboardingService(
	repo repository.OnboardingRepository,
	users repository.UserRepository,
	c cache.Cache,
	autosaveDelay time.Duration,
	logger *zap.Logger,
) *OnboardingService {
	s := &OnboardingService{
		repo:   repo,
		users:  users,
		cache:  c,
		flow:   wizard.NewOnboardingFlow(),
		logger: logger,
		now:    time.Now,
	}
	s.autosave = autosave.New(autosaveDelay, s.persist, logger)
	return s
}

func (s *OnboardingService) WithClock(now func() time.Time) *OnboardingService {
	s.now = now
	return s
}

// Close writes out pending drafts. Call it during shutdown.
func (s *OnboardingService) Close(ctx context.Context) error {
	return s.autosave.Stop(ctx)
}

func (s *OnboardingService) persist(ctx context.Context, userID uuid.UUID, d models.OnboardingDraft) error {
	return s.repo.SaveDraft(ctx, &d)
}

func draftKey(userID uuid.UUID) string {
	return draftKeyPrefix + userID.String()
}

// DraftState is what the wizard screen renders.
type DraftState struct {
	Step      int                   `json:"step"`
	StepName  string                `json:"step_name"`
	Total     int                   `json:"total"`
	AtLast    bool                  `json:"at_last"`
	Form      wizard.OnboardingForm `json:"form"`
	UpdatedAt *time.Time            `json:"updated_at,omitempty"`
	Blocked   string                `json:"blocked,omitempty"`
}

func (s *OnboardingService) state(session *wizard.Session[wizard.OnboardingForm], updatedAt *time.Time) *DraftState {
	return &DraftState{
		Step:      session.Step(),
		StepName:  session.StepName(),
		Total:     session.Total(),
		AtLast:    session.AtLast(),
		Form:      session.Form,
		UpdatedAt: updatedAt,
	}
}

// SaveDraft records the wizard's position and values.
func (s *OnboardingService) SaveDraft(ctx context.Context, actor Actor, step int, form wizard.OnboardingForm) (*DraftState, error) {
	session := s.flow.Resume(step, form)
	at, err := s.save(ctx, actor.UserID, session)
	if err != nil {
		return nil, err
	}
	return s.state(session, &at), nil
}

func (s *OnboardingService) save(ctx context.Context, userID uuid.UUID, session *wizard.Session[wizard.OnboardingForm]) (time.Time, error) {
	values, err := json.Marshal(session.Form)
	if err != nil {
		return time.Time{}, apperr.Internal("encode draft", err)
	}
	draft := models.OnboardingDraft{
		UserID:    userID,
		Step:      session.Step(),
		Values:    values,
		UpdatedAt: s.now().UTC(),
	}

	raw, err := json.Marshal(draft)
	if err != nil {
		return time.Time{}, apperr.Internal("encode draft", err)
	}
	if err := s.cache.Set(ctx, draftKey(userID), string(raw), draftCacheTTL); err != nil {
		// Without the cache copy the debounce window could lose the
		// draft, so write it through now.
		s.logger.Warn("draft cache write failed, saving directly", zap.String("user_id", userID.String()), zap.Error(err))
		s.autosave.Cancel(userID)
		if err := s.repo.SaveDraft(ctx, &draft); err != nil {
			return time.Time{}, storeErr("could not save draft", err)
		}
		return draft.UpdatedAt, nil
	}

	if !s.autosave.Schedule(userID, draft) {
		return time.Time{}, apperr.New(apperr.KindUnavailable, "server is shutting down")
	}
	return draft.UpdatedAt, nil
}

// GetDraft returns the latest draft, from the cache when it has one,
// otherwise from the database. A user with no draft starts at step 1.
func (s *OnboardingService) GetDraft(ctx context.Context, actor Actor) (*DraftState, error) {
	draft, err := s.loadDraft(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return s.state(s.flow.Start(wizard.OnboardingForm{}), nil), nil
	}

	var form wizard.OnboardingForm
	if len(draft.Values) > 0 {
		if err := json.Unmarshal(draft.Values, &form); err != nil {
			s.logger.Warn("discarding unreadable draft", zap.String("user_id", actor.UserID.String()), zap.Error(err))
			return s.state(s.flow.Start(wizard.OnboardingForm{}), nil), nil
		}
	}
	at := draft.UpdatedAt
	return s.state(s.flow.Resume(draft.Step, form), &at), nil
}

func (s *OnboardingService) loadDraft(ctx context.Context, userID uuid.UUID) (*models.OnboardingDraft, error) {
	raw, ok, err := s.cache.Get(ctx, draftKey(userID))
	if err != nil {
		s.logger.Warn("draft cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	if ok {
		var d models.OnboardingDraft
		if err := json.Unmarshal([]byte(raw), &d); err == nil {
			return &d, nil
		}
	}

	d, err := s.repo.GetDraft(ctx, userID)
	if err != nil {
		return nil, storeErr("could not load draft", err)
	}
	return d, nil
}

// Discard throws away the draft so the wizard starts over at step 1.
func (s *OnboardingService) Discard(ctx context.Context, actor Actor) error {
	s.autosave.Cancel(actor.UserID)
	if err := s.cache.Del(ctx, draftKey(actor.UserID)); err != nil {
		s.logger.Warn("draft cache delete failed", zap.String("user_id", actor.UserID.String()), zap.Error(err))
	}
	if err := s.repo.DeleteDraft(ctx, actor.UserID); err != nil {
		return storeErr("could not discard draft", err)
	}
	return nil
}

type OnboardingAction string

const (
	OnboardingNext OnboardingAction = "next"
	OnboardingBack OnboardingAction = "back"
	OnboardingSkip OnboardingAction = "skip"
)

type OnboardingStepRequest struct {
	Step   int                   `json:"step"`
	Action OnboardingAction      `json:"action"`
	Form   wizard.OnboardingForm `json:"form"`
}

// Move applies one navigation action and saves the result. A blocked
// Next leaves the step unchanged and says why.
func (s *OnboardingService) Move(ctx context.Context, actor Actor, req OnboardingStepRequest) (*DraftState, error) {
	session := s.flow.Resume(req.Step, req.Form)

	var moveErr error
	switch req.Action {
	case OnboardingNext:
		moveErr = session.Next()
	case OnboardingBack:
		moveErr = session.Back()
	case OnboardingSkip:
		moveErr = session.Skip()
	default:
		return nil, apperr.Invalid("unknown onboarding action %q", req.Action)
	}
	if moveErr != nil && apperr.KindOf(moveErr) != apperr.KindInvalid {
		return nil, moveErr
	}

	at, err := s.save(ctx, actor.UserID, session)
	if err != nil {
		return nil, err
	}
	state := s.state(session, &at)
	if moveErr != nil {
		state.Blocked = moveErr.Error()
	}
	return state, nil
}

var ErrAlreadyOnboarded = apperr.New(apperr.KindConflict, "onboarding is already complete")

// onboardingSettings is what ends up in users.settings.
type onboardingSettings struct {
	Timezone    string                 `json:"timezone,omitempty"`
	Bio         string                 `json:"bio,omitempty"`
	Business    string                 `json:"business,omitempty"`
	Website     string                 `json:"website,omitempty"`
	Industry    string                 `json:"industry,omitempty"`
	Platforms   []string               `json:"platforms"`
	Handles     map[string]string      `json:"handles,omitempty"`
	Preferences wizard.PreferencesStep `json:"preferences"`
}

// Complete validates every step, skipped ones included, and writes the
// profile in one transaction. The draft is discarded. Only an admin's
// organization step renames the tenant; a client's is kept in their
// own settings.
func (s *OnboardingService) Complete(ctx context.Context, actor Actor, form wizard.OnboardingForm) (*models.User, error) {
	user, err := s.users.GetByID(ctx, actor.OrganizationID, actor.UserID)
	if err != nil {
		return nil, storeErr("could not load profile", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user")
	}
	if user.OnboardedAt != nil {
		return nil, ErrAlreadyOnboarded
	}

	session := s.flow.Resume(len(s.flow.Steps), form)
	if err := session.Complete(); err != nil {
		return nil, stepInvalid(err)
	}

	var orgName, business string
	if actor.Role == models.RoleAdmin {
		orgName = form.Organization.Name
	} else {
		business = form.Organization.Name
	}

	settings, err := json.Marshal(onboardingSettings{
		Timezone:    form.Profile.Timezone,
		Bio:         form.Profile.Bio,
		Business:    business,
		Website:     form.Organization.Website,
		Industry:    form.Organization.Industry,
		Platforms:   form.Platforms.Platforms,
		Handles:     form.Accounts.Handles,
		Preferences: form.Preferences,
	})
	if err != nil {
		return nil, apperr.Internal("encode settings", err)
	}

	// A debounced save must not resurrect the draft after completion.
	s.autosave.Cancel(actor.UserID)

	err = s.repo.Complete(ctx, repository.OnboardingCompletion{
		UserID:           actor.UserID,
		OrganizationID:   actor.OrganizationID,
		DisplayName:      form.Profile.DisplayName,
		OrganizationName: orgName,
		Settings:         settings,
		CompletedAt:      s.now().UTC(),
	})
	if errors.Is(err, repository.ErrStale) {
		return nil, ErrAlreadyOnboarded
	}
	if err != nil {
		return nil, storeErr("could not complete onboarding", err)
	}

	if err := s.cache.Del(ctx, draftKey(actor.UserID)); err != nil {
		s.logger.Warn("draft cache delete failed", zap.String("user_id", actor.UserID.String()), zap.Error(err))
	}

	updated, err := s.users.GetByID(ctx, actor.OrganizationID, actor.UserID)
	if err != nil {
		return nil, storeErr("could not load profile", err)
	}
	s.logger.Info("onboarding completed", zap.String("user_id", actor.UserID.String()))
	return updated, nil
}
