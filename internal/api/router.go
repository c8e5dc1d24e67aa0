package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lalith-99/timelinealchemy/internal/idempotency"
	"github.com/lalith-99/timelinealchemy/internal/middleware"
	"github.com/lalith-99/timelinealchemy/internal/models"
	"github.com/lalith-99/timelinealchemy/internal/repository"
	"github.com/lalith-99/timelinealchemy/internal/service"
	"go.uber.org/zap"
)

// Repositories is the storage the handlers read directly. Postgres in
// production, the memory store in fixture mode and tests.
type Repositories struct {
	Organizations repository.OrganizationRepository
	Users         repository.UserRepository
	Clients       repository.ClientRepository
	Ideas         repository.IdeaRepository
}

type Services struct {
	Previews   *service.PreviewService
	Reviews    *service.ReviewService
	Onboarding *service.OnboardingService
}

type RouterConfig struct {
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string

	// Idempotency is optional; without it Idempotency-Key is ignored.
	Idempotency *idempotency.Store

	// HealthChecks are probed by GET /v1/health.
	HealthChecks map[string]func(ctx context.Context) error
}

// NewRouter wires every route. Middleware order: recovery, request
// log, CORS, then auth and role per group, then idempotency on writes.
func NewRouter(cfg RouterConfig, repos Repositories, svcs Services, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	authH := NewAuthHandler(repos.Users, cfg.JWTSecret, cfg.TokenTTL, logger)
	userH := NewUserHandler(repos.Users, repos.Organizations, logger)
	clientH := NewClientHandler(repos.Clients, logger)
	memberH := NewMembershipHandler(repos.Clients, repos.Users, logger)
	ideaH := NewIdeaHandler(repos.Ideas, logger)
	previewH := NewPreviewHandler(svcs.Previews, logger)
	reviewH := NewReviewHandler(svcs.Reviews, logger)
	onboardH := NewOnboardingHandler(svcs.Onboarding, logger)

	// Public.
	r.GET("/v1/health", health(cfg.HealthChecks))
	r.POST("/v1/auth/login", authH.Login)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	if cfg.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Idempotency, logger))
	}

	v1.GET("/users/me", userH.GetMe)

	onboarding := v1.Group("/onboarding")
	onboarding.GET("/draft", onboardH.GetDraft)
	onboarding.PUT("/draft", onboardH.SaveDraft)
	onboarding.DELETE("/draft", onboardH.DiscardDraft)
	onboarding.POST("/step", onboardH.Step)
	onboarding.POST("/complete", onboardH.Complete)

	previews := v1.Group("/previews")
	previews.Use(middleware.RequireRole(models.RoleClient))
	previews.GET("", reviewH.List)
	previews.GET("/:id", reviewH.Get)
	previews.POST("/:id/approve", reviewH.Approve)
	previews.POST("/:id/reject", reviewH.Reject)

	admin := v1.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.GET("/users", userH.List)
	admin.GET("/clients", clientH.List)
	admin.POST("/clients", clientH.Create)
	admin.POST("/clients/:id/users", memberH.Link)
	admin.GET("/ideas", ideaH.List)
	admin.POST("/ideas", ideaH.Create)
	admin.GET("/previews", previewH.List)
	admin.POST("/previews", previewH.Create)
	admin.POST("/previews/batch", previewH.CreateBatch)
	admin.GET("/previews/:id", previewH.Get)
	admin.PATCH("/previews/:id", previewH.UpdateDraft)
	admin.POST("/previews/:id/revise", previewH.Revise)
	admin.DELETE("/previews/:id", previewH.Delete)
	admin.POST("/wizards/preview/step", previewH.WizardStep)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID, idempotency.Header},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID, "Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) > 0 {
		cfg.AllowOrigins = origins
	} else {
		cfg.AllowOriginFunc = func(string) bool { return true }
	}
	return cfg
}

// health reports ok only when every dependency answers within two
// seconds. Load balancers call it without a token.
func health(checks map[string]func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
