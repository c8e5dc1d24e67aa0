package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/apperr"
	"github.com/lalith-99/timelinealchemy/internal/middleware"
	"github.com/lalith-99/timelinealchemy/internal/repository"
	"github.com/lalith-99/timelinealchemy/internal/service"
	"go.uber.org/zap"
)

// statusFor is the only place an error kind becomes an HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalid:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...} for err. Server-side failures are
// logged here and nowhere else.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("kind", string(kind)),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

// storeFailure classifies an error from a repository call made directly
// by a handler. Unique violations are the caller's conflict; anything
// else means the store is unreachable.
func storeFailure(msg string, err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperr.Conflict(msg, err)
	}
	return apperr.Wrap(apperr.KindUnavailable, msg, err)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// actor builds the service caller from the claims AuthMiddleware put
// in the context.
func actor(c *gin.Context) service.Actor {
	return service.Actor{
		UserID:         middleware.GetUserID(c),
		OrganizationID: middleware.GetOrganizationID(c),
		Role:           middleware.GetRole(c),
	}
}

// pathID parses the :id route parameter. On failure it has already
// written the 400.
func pathID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}
