package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/timelinealchemy/internal/apperr"
	"github.com/lalith-99/timelinealchemy/internal/middleware"
	"github.com/lalith-99/timelinealchemy/internal/repository"
	"go.uber.org/zap"
)

// ClientHandler manages the organization's client accounts. Admin only.
type ClientHandler struct {
	repo   repository.ClientRepository
	logger *zap.Logger
}

func NewClientHandler(repo repository.ClientRepository, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{repo: repo, logger: logger}
}

// createClientRequest leaves out id, organization_id and created_at;
// the server owns those.
type createClientRequest struct {
	Name string `json:"name" binding:"required,max=120"`
}

// Create handles POST /v1/admin/clients
func (h *ClientHandler) Create(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		badRequest(c, "name must not be blank")
		return
	}

	orgID := middleware.GetOrganizationID(c)
	client, err := h.repo.Create(c.Request.Context(), orgID, name)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			respondError(c, h.logger, apperr.Conflict("a client named "+name+" already exists", err))
			return
		}
		respondError(c, h.logger, storeFailure("failed to create client", err))
		return
	}

	c.JSON(http.StatusCreated, client)
}

// List handles GET /v1/admin/clients
func (h *ClientHandler) List(c *gin.Context) {
	orgID := middleware.GetOrganizationID(c)

	clients, err := h.repo.ListByOrg(c.Request.Context(), orgID)
	if err != nil {
		respondError(c, h.logger, storeFailure("failed to list clients", err))
		return
	}

	c.JSON(http.StatusOK, clients)
}
