package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/apperr"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository"
	"github.com/lalith-99/timelinealchemy/internal/review"
	"github.com/lalith-99/timelinealchemy/internal/workflow"
	"go.uber.org/zap"
)

// ReviewService is the client side: listing the previews addressed to
// the caller's clients and deciding on them.
type ReviewService struct {
	previews repository.PreviewRepository
	clients  repository.ClientRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewReviewService(previews repository.PreviewRepository, clients repository.ClientRepository, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		previews: previews,
		clients:  clients,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *ReviewService) WithClock(now func() time.Time) *ReviewService {
	s.now = now
	return s
}

// scope resolves which clients the caller reviews for. A failed lookup
// is reported as such; it never widens or fakes the result.
func (s *ReviewService) scope(ctx context.Context, actor Actor) ([]uuid.UUID, error) {
	ids, err := s.clients.ClientIDsForUser(ctx, actor.UserID)
	if err != nil {
		return nil, storeErr("could not determine your clients", err)
	}
	return ids, nil
}

// List returns the previews addressed to any of the caller's clients,
// filtered by f, with tab counts.
func (s *ReviewService) List(ctx context.Context, actor Actor, f review.Filter) (review.List, error) {
	ids, err := s.scope(ctx, actor)
	if err != nil {
		return review.List{}, err
	}
	if len(ids) == 0 {
		return review.Build(nil, f), nil
	}

	previews, err := s.previews.ListByClients(ctx, ids)
	if err != nil {
		return review.List{}, storeErr("could not load previews", err)
	}
	return review.Build(previews, f), nil
}

func (s *ReviewService) Get(ctx context.Context, actor Actor, previewID uuid.UUID) (*review.Detail, error) {
	p, _, err := s.load(ctx, actor, previewID)
	if err != nil {
		return nil, err
	}
	d := review.NewDetail(p)
	return &d, nil
}

func (s *ReviewService) load(ctx context.Context, actor Actor, previewID uuid.UUID) (*models.Preview, []uuid.UUID, error) {
	ids, err := s.scope(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	if len(ids) == 0 {
		return nil, nil, apperr.NotFound("preview")
	}

	p, err := s.previews.GetForClients(ctx, ids, previewID)
	if err != nil {
		return nil, nil, storeErr("could not load preview", err)
	}
	if p == nil {
		return nil, nil, apperr.NotFound("preview")
	}
	return p, ids, nil
}

// DecisionInput is the reviewer's submission. Version, when set, must
// match the version the reviewer was looking at.
type DecisionInput struct {
	Version  int    `json:"version"`
	Feedback string `json:"feedback"`
}

func (s *ReviewService) Approve(ctx context.Context, actor Actor, previewID uuid.UUID, in DecisionInput) (*review.Detail, error) {
	return s.decide(ctx, actor, previewID, workflow.Approve, in)
}

func (s *ReviewService) Reject(ctx context.Context, actor Actor, previewID uuid.UUID, in DecisionInput) (*review.Detail, error) {
	return s.decide(ctx, actor, previewID, workflow.Reject, in)
}

func (s *ReviewService) decide(ctx context.Context, actor Actor, previewID uuid.UUID, d workflow.Decision, in DecisionInput) (*review.Detail, error) {
	p, ids, err := s.load(ctx, actor, previewID)
	if err != nil {
		return nil, err
	}

	outcome, err := workflow.Decide(p.Status, d, in.Feedback)
	if err != nil {
		return nil, err
	}
	if in.Version != 0 && in.Version != p.Version {
		return nil, errPreviewChanged
	}

	updated, err := s.previews.Decide(ctx, repository.DecisionUpdate{
		PreviewID:       p.ID,
		ClientIDs:       ids,
		ExpectedVersion: p.Version,
		Status:          outcome.Status,
		Feedback:        outcome.Feedback,
		ReviewedBy:      actor.UserID,
		ReviewedAt:      s.now().UTC(),
	})
	if errors.Is(err, repository.ErrStale) {
		return nil, s.explainStale(ctx, ids, previewID)
	}
	if err != nil {
		return nil, storeErr("could not save decision", err)
	}

	s.logger.Info("preview reviewed",
		zap.String("preview_id", updated.ID.String()),
		zap.String("status", string(updated.Status)),
		zap.String("reviewed_by", actor.UserID.String()),
	)
	detail := review.NewDetail(updated)
	return &detail, nil
}

// explainStale re-reads a preview whose conditional write lost and
// reports why.
func (s *ReviewService) explainStale(ctx context.Context, ids []uuid.UUID, previewID uuid.UUID) error {
	current, err := s.previews.GetForClients(ctx, ids, previewID)
	if err != nil {
		return storeErr("could not load preview", err)
	}
	switch {
	case current == nil:
		return apperr.NotFound("preview")
	case current.Status.Reviewed():
		return workflow.ErrAlreadyReviewed
	default:
		return errPreviewChanged
	}
}
