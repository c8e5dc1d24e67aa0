package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/timelinealchemy/internal/apperr"
	"github.com/lalith-99/timelinealchemy/internal/auth"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles login, the only public endpoint besides health.
// Accounts are provisioned by admins or fixtures, so there is no signup.
type AuthHandler struct {
	userRepo  repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewAuthHandler(userRepo repository.UserRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// authResponse carries the bearer token plus enough of the profile for
// the client to pick its landing screen.
type authResponse struct {
	Token     string      `json:"token"`
	Role      models.Role `json:"role"`
	Onboarded bool        `json:"onboarded"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.userRepo.GetByEmail(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		respondError(c, h.logger, storeFailure("login failed", err))
		return
	}

	// Same answer for an unknown email and a wrong password.
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	token, err := auth.GenerateToken(user, h.jwtSecret, h.tokenTTL)
	if err != nil {
		respondError(c, h.logger, apperr.Internal("login failed", err))
		return
	}

	c.JSON(http.StatusOK, authResponse{
		Token:     token,
		Role:      user.Role,
		Onboarded: user.OnboardedAt != nil,
		ExpiresAt: time.Now().Add(h.tokenTTL).UTC(),
	})
}
