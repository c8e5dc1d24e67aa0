package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/timelinealchemy/internal/review"
	"github.com/lalith-99/timelinealchemy/internal/service"
	"github.com/lalith-99/timelinealchemy/internal/wizard"
	"go.uber.org/zap"
)

// PreviewHandler is the admin side of previews: building them through
// the wizard or in bulk, editing drafts, revising rejections.
type PreviewHandler struct {
	svc    *service.PreviewService
	logger *zap.Logger
}

func NewPreviewHandler(svc *service.PreviewService, logger *zap.Logger) *PreviewHandler {
	return &PreviewHandler{svc: svc, logger: logger}
}

// parseFilter reads ?status= and ?q=. On failure it has already written
// the 400.
func parseFilter(c *gin.Context) (review.Filter, bool) {
	status, ok := review.ParseStatus(c.Query("status"))
	if !ok {
		badRequest(c, "status must be one of all, pending, approved, rejected")
		return review.Filter{}, false
	}
	return review.Filter{Status: status, Search: c.Query("q")}, true
}

// bindOptionalJSON binds the body into v, treating an empty body as {}.
func bindOptionalJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err.Error())
		return false
	}
	return true
}

// List handles GET /v1/admin/previews?status=&q=
func (h *PreviewHandler) List(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	list, err := h.svc.ListForOrg(c.Request.Context(), actor(c), f)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get handles GET /v1/admin/previews/:id
func (h *PreviewHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "preview")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, review.NewDetail(p))
}

// Create handles POST /v1/admin/previews with a completed wizard form.
func (h *PreviewHandler) Create(c *gin.Context) {
	var form wizard.PreviewForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.svc.CreateFromWizard(c.Request.Context(), actor(c), form)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// WizardStep handles POST /v1/admin/wizards/preview/step. It moves the
// wizard one step and returns the options the new step needs.
func (h *PreviewHandler) WizardStep(c *gin.Context) {
	var req service.WizardStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	state, err := h.svc.WizardStep(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	status := http.StatusOK
	if state.Created != nil {
		status = http.StatusCreated
	}
	c.JSON(status, state)
}

// CreateBatch handles POST /v1/admin/previews/batch.
//
// Each idea is inserted on its own. 201 means every idea made it, 207
// means some failed and the body lists which.
func (h *PreviewHandler) CreateBatch(c *gin.Context) {
	var form wizard.BatchForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.svc.CreateBatch(c.Request.Context(), actor(c), form)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	status := http.StatusCreated
	if res.FailureCount > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, res)
}

// UpdateDraft handles PATCH /v1/admin/previews/:id
func (h *PreviewHandler) UpdateDraft(c *gin.Context) {
	id, ok := pathID(c, "preview")
	if !ok {
		return
	}
	var edit service.DraftEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := h.svc.UpdateDraft(c.Request.Context(), actor(c), id, edit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Revise handles POST /v1/admin/previews/:id/revise
func (h *PreviewHandler) Revise(c *gin.Context) {
	id, ok := pathID(c, "preview")
	if !ok {
		return
	}
	var in service.ReviseInput
	if !bindOptionalJSON(c, &in) {
		return
	}
	p, err := h.svc.Revise(c.Request.Context(), actor(c), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Delete handles DELETE /v1/admin/previews/:id?confirm=true
func (h *PreviewHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "preview")
	if !ok {
		return
	}
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	if err := h.svc.Delete(c.Request.Context(), actor(c), id, confirmed); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
