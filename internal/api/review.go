package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/timelinealchemy/internal/service"
	"go.uber.org/zap"
)

// ReviewHandler is the client side: the previews addressed to the
// caller's clients and the approve/reject decision.
type ReviewHandler struct {
	svc    *service.ReviewService
	logger *zap.Logger
}

func NewReviewHandler(svc *service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{svc: svc, logger: logger}
}

// List handles GET /v1/previews?status=&q=
func (h *ReviewHandler) List(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	list, err := h.svc.List(c.Request.Context(), actor(c), f)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get handles GET /v1/previews/:id
func (h *ReviewHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "preview")
	if !ok {
		return
	}
	d, err := h.svc.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Approve handles POST /v1/previews/:id/approve. Feedback is optional.
func (h *ReviewHandler) Approve(c *gin.Context) {
	id, ok := pathID(c, "preview")
	if !ok {
		return
	}
	var in service.DecisionInput
	if !bindOptionalJSON(c, &in) {
		return
	}
	d, err := h.svc.Approve(c.Request.Context(), actor(c), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Reject handles POST /v1/previews/:id/reject. Feedback is required.
func (h *ReviewHandler) Reject(c *gin.Context) {
	id, ok := pathID(c, "preview")
	if !ok {
		return
	}
	var in service.DecisionInput
	if !bindOptionalJSON(c, &in) {
		return
	}
	d, err := h.svc.Reject(c.Request.Context(), actor(c), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
