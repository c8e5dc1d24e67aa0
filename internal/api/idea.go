package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/timelinealchemy/internal/middleware"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository"
	"go.uber.org/zap"
)

// IdeaHandler curates the idea library previews are built from.
type IdeaHandler struct {
	repo   repository.IdeaRepository
	logger *zap.Logger
}

func NewIdeaHandler(repo repository.IdeaRepository, logger *zap.Logger) *IdeaHandler {
	return &IdeaHandler{repo: repo, logger: logger}
}

type createIdeaRequest struct {
	Title           string                     `json:"title" binding:"required,max=200"`
	Body            string                     `json:"body"`
	PlatformContent map[models.Platform]string `json:"platform_content"`
	ImageURLs       []string                   `json:"image_urls" binding:"omitempty,max=20,dive,url"`
	Tags            []string                   `json:"tags" binding:"omitempty,max=20,dive,max=40"`
}

// Create handles POST /v1/admin/ideas
func (h *IdeaHandler) Create(c *gin.Context) {
	var req createIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		badRequest(c, "title must not be blank")
		return
	}
	for platform := range req.PlatformContent {
		if !platform.Valid() {
			badRequest(c, "unknown platform "+string(platform))
			return
		}
	}

	idea, err := h.repo.Create(c.Request.Context(), &models.Idea{
		OrganizationID:  middleware.GetOrganizationID(c),
		Title:           title,
		Body:            req.Body,
		PlatformContent: req.PlatformContent,
		ImageURLs:       req.ImageURLs,
		Tags:            req.Tags,
	})
	if err != nil {
		respondError(c, h.logger, storeFailure("failed to create idea", err))
		return
	}

	c.JSON(http.StatusCreated, idea)
}

// List handles GET /v1/admin/ideas
func (h *IdeaHandler) List(c *gin.Context) {
	orgID := middleware.GetOrganizationID(c)

	ideas, err := h.repo.ListByOrg(c.Request.Context(), orgID)
	if err != nil {
		respondError(c, h.logger, storeFailure("failed to list ideas", err))
		return
	}

	c.JSON(http.StatusOK, ideas)
}
