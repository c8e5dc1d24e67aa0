package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/timelinealchemy/internal/service"
	"github.com/lalith-99/timelinealchemy/internal/wizard"
	"go.uber.org/zap"
)

// OnboardingHandler serves the first-run wizard for the logged-in user.
type OnboardingHandler struct {
	svc    *service.OnboardingService
	logger *zap.Logger
}

func NewOnboardingHandler(svc *service.OnboardingService, logger *zap.Logger) *OnboardingHandler {
	return &OnboardingHandler{svc: svc, logger: logger}
}

type saveDraftRequest struct {
	Step int                   `json:"step" binding:"min=1"`
	Form wizard.OnboardingForm `json:"form"`
}

// GetDraft handles GET /v1/onboarding/draft
func (h *OnboardingHandler) GetDraft(c *gin.Context) {
	state, err := h.svc.GetDraft(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// SaveDraft handles PUT /v1/onboarding/draft. The client calls it on
// every change; the database write is debounced server side.
func (h *OnboardingHandler) SaveDraft(c *gin.Context) {
	var req saveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	state, err := h.svc.SaveDraft(c.Request.Context(), actor(c), req.Step, req.Form)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// DiscardDraft handles DELETE /v1/onboarding/draft
func (h *OnboardingHandler) DiscardDraft(c *gin.Context) {
	if err := h.svc.Discard(c.Request.Context(), actor(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Step handles POST /v1/onboarding/step with next, back or skip.
func (h *OnboardingHandler) Step(c *gin.Context) {
	var req service.OnboardingStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	state, err := h.svc.Move(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Complete handles POST /v1/onboarding/complete
func (h *OnboardingHandler) Complete(c *gin.Context) {
	var form wizard.OnboardingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err.Error())
		return
	}
	user, err := h.svc.Complete(c.Request.Context(), actor(c), form)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
