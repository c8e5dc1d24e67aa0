package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/timelinealchemy/internal/apperr"
	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/middleware"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository"
	"go.uber.org/zap"
)

// MembershipHandler links reviewer accounts to clients. A linked user
// sees and decides every preview addressed to that client.
type MembershipHandler struct {
	clients repository.ClientRepository
	users   repository.UserRepository
	logger  *zap.Logger
}

func NewMembershipHandler(clients repository.ClientRepository, users repository.UserRepository, logger *zap.Logger) *MembershipHandler {
	return &MembershipHandler{clients: clients, users: users, logger: logger}
}

type linkUserRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// Link handles POST /v1/admin/clients/:id/users
//
// Both the client and the user must belong to the caller's
// organization, and only client-role users can be linked. Linking twice
// is a no-op.
func (h *MembershipHandler) Link(c *gin.Context) {
	clientID, ok := pathID(c, "client")
	if !ok {
		return
	}

	var req linkUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	orgID := middleware.GetOrganizationID(c)

	client, err := h.clients.GetByID(ctx, orgID, clientID)
	if err != nil {
		respondError(c, h.logger, storeFailure("failed to link user", err))
		return
	}
	if client == nil {
		respondError(c, h.logger, apperr.NotFound("client"))
		return
	}

	user, err := h.users.GetByID(ctx, orgID, req.UserID)
	if err != nil {
		respondError(c, h.logger, storeFailure("failed to link user", err))
		return
	}
	if user == nil {
		respondError(c, h.logger, apperr.NotFound("user"))
		return
	}
	if user.Role != models.RoleClient {
		badRequest(c, "only client accounts can be linked to a client")
		return
	}

	if err := h.clients.LinkUser(ctx, client.ID, user.ID); err != nil {
		respondError(c, h.logger, storeFailure("failed to link user", err))
		return
	}

	c.Status(http.StatusNoContent)
}
