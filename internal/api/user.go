package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/timelinealchemy/internal/apperr"
	"github.com/lalith-99/timelinealchemy/internal/middleware"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository"
	"go.uber.org/zap"
)

// UserHandler handles user-related operations.
type UserHandler struct {
	repo   repository.UserRepository
	orgs   repository.OrganizationRepository
	logger *zap.Logger
}

func NewUserHandler(repo repository.UserRepository, orgs repository.OrganizationRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{repo: repo, orgs: orgs, logger: logger}
}

type meResponse struct {
	User         *models.User         `json:"user"`
	Organization *models.Organization `json:"organization"`
}

// GetMe handles GET /v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	orgID := middleware.GetOrganizationID(c)

	user, err := h.repo.GetByID(c.Request.Context(), orgID, userID)
	if err != nil {
		respondError(c, h.logger, storeFailure("failed to get user", err))
		return
	}

	// The token outlived the account.
	if user == nil {
		respondError(c, h.logger, apperr.NotFound("user"))
		return
	}

	org, err := h.orgs.GetByID(c.Request.Context(), orgID)
	if err != nil {
		respondError(c, h.logger, storeFailure("failed to get organization", err))
		return
	}

	c.JSON(http.StatusOK, meResponse{User: user, Organization: org})
}

// List handles GET /v1/admin/users?role=client. It is how an admin
// finds the account to link to a client.
func (h *UserHandler) List(c *gin.Context) {
	role := models.Role(c.DefaultQuery("role", string(models.RoleClient)))
	if !role.Valid() {
		badRequest(c, "role must be admin or client")
		return
	}

	users, err := h.repo.ListByRole(c.Request.Context(), middleware.GetOrganizationID(c), role)
	if err != nil {
		respondError(c, h.logger, storeFailure("failed to list users", err))
		return
	}

	c.JSON(http.StatusOK, users)
}
