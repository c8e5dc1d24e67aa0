package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/timelinealchemy/internal/auth"
	"github.com/lalith-99/timelinealchemy/internal/models"
)

// Context keys for the authenticated principal. Handlers read them
// through the helpers below rather than calling c.Get directly.
const (
	ContextKeyUserID         = "user_id"
	ContextKeyOrganizationID = "organization_id"
	ContextKeyRole           = "role"
)

// AuthMiddleware validates the bearer token and stores its claims in
// the gin context. Requests without a valid token stop here with 401.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		// "Bearer eyJhbG..." → ["Bearer", "eyJhbG..."]
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format, expected: Bearer <token>",
			})
			return
		}

		claims, err := auth.ParseToken(parts[1], secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyOrganizationID, claims.OrganizationID)
		c.Set(ContextKeyRole, claims.Role)

		c.Next()
	}
}

// RequireRole lets the request through only when the authenticated
// role is one of roles. It must run after AuthMiddleware.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "this endpoint is not available for your role",
		})
	}
}

// ---------------------------------------------------------------
// Helpers for handlers. A missing or mistyped value yields the zero
// value, which fails every scoped query.
// ---------------------------------------------------------------

func GetUserID(c *gin.Context) uuid.UUID {
	return getUUID(c, ContextKeyUserID)
}

func GetOrganizationID(c *gin.Context) uuid.UUID {
	return getUUID(c, ContextKeyOrganizationID)
}

func GetRole(c *gin.Context) models.Role {
	val, exists := c.Get(ContextKeyRole)
	if !exists {
		return ""
	}
	role, ok := val.(models.Role)
	if !ok {
		return ""
	}
	return role
}

func getUUID(c *gin.Context, key string) uuid.UUID {
	val, exists := c.Get(key)
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
