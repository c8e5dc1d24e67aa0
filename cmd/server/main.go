package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/timelinealchemy/internal/api"
	"github.com/lalith-99/timelinealchemy/internal/cache"
	"github.com/lalith-99/timelinealchemy/internal/config"
	"github.com/lalith-99/timelinealchemy/internal/db"
	"github.com/lalith-99/timelinealchemy/internal/fixtures"
	"github.com/lalith-99/timelinealchemy/internal/idempotency"
	"github.com/lalith-99/timelinealchemy/internal/jobs"
	"github.com/lalith-99/timelinealchemy/internal/observ"
	"github.com/lalith-99/timelinealchemy/internal/repository"
	"github.com/lalith-99/timelinealchemy/internal/repository/memory"
	"github.com/lalith-99/timelinealchemy/internal/repository/postgres"
	"github.com/lalith-99/timelinealchemy/internal/service"
	"github.com/lalith-99/timelinealchemy/migrations"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// backend is everything that differs between fixture mode and a real
// deployment.
type backend struct {
	repos      api.Repositories
	previews   repository.PreviewRepository
	onboarding repository.OnboardingRepository
	cache      cache.Cache
	checks     map[string]func(ctx context.Context) error
	close      func()
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Load config
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ---------------------------------------------------------------
	// 2. Create logger
	// ---------------------------------------------------------------
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// ---------------------------------------------------------------
	// 3. Storage: Postgres and Redis, or the seeded memory store when
	//    FIXTURE_MODE is set. Nothing falls back to fixtures on its own.
	// ---------------------------------------------------------------
	var be *backend
	if cfg.FixtureMode {
		be, err = fixtureBackend(cfg, logger)
	} else {
		be, err = liveBackend(cfg, logger)
	}
	if err != nil {
		return err
	}
	defer be.close()

	// ---------------------------------------------------------------
	// 4. Services
	// ---------------------------------------------------------------
	loc := cfg.Location()
	previewSvc := service.NewPreviewService(be.previews, be.repos.Ideas, be.repos.Clients, loc, observ.Component(logger, "previews"))
	reviewSvc := service.NewReviewService(be.previews, be.repos.Clients, observ.Component(logger, "reviews"))
	onboardingSvc := service.NewOnboardingService(be.onboarding, be.repos.Users, be.cache, cfg.AutosaveDelay, observ.Component(logger, "onboarding"))

	// ---------------------------------------------------------------
	// 5. Scheduled jobs
	// ---------------------------------------------------------------
	jobLogger := observ.Component(logger, "jobs")
	sched := jobs.NewScheduler(loc, jobLogger)
	purge := jobs.PurgeDrafts(be.onboarding, cfg.DraftRetention, time.Now, jobLogger)
	if err := sched.Add(jobs.PurgeDraftsJob, jobs.PurgeDraftsCron, time.Minute, purge); err != nil {
		return fmt.Errorf("schedule draft purge: %w", err)
	}
	sched.Start()

	// ---------------------------------------------------------------
	// 6. HTTP server
	// ---------------------------------------------------------------
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(
		api.RouterConfig{
			JWTSecret:      cfg.JWTSecret,
			TokenTTL:       cfg.TokenTTL,
			AllowedOrigins: cfg.AllowedOrigins,
			Idempotency:    idempotency.NewStore(be.cache, cfg.IdempotencyTTL),
			HealthChecks:   be.checks,
		},
		be.repos,
		api.Services{Previews: previewSvc, Reviews: reviewSvc, Onboarding: onboardingSvc},
		observ.Component(logger, "http"),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting Timeline Alchemy",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.Bool("fixture_mode", cfg.FixtureMode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ---------------------------------------------------------------
	// 7. Graceful shutdown: stop taking requests, then flush pending
	//    onboarding drafts before the stores close.
	// ---------------------------------------------------------------
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	sched.Stop()
	if err := onboardingSvc.Close(ctx); err != nil {
		logger.Error("flush onboarding drafts", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}

func liveBackend(cfg *config.Config, logger *zap.Logger) (*backend, error) {
	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(context.Background(), migrations.FS); err != nil {
			database.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	rdb, err := cache.Connect(cfg.RedisURL)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("redis connected")

	pool := database.Pool()
	return &backend{
		repos: api.Repositories{
			Organizations: postgres.NewOrganizationStore(pool),
			Users:         postgres.NewUserStore(pool),
			Clients:       postgres.NewClientStore(pool),
			Ideas:         postgres.NewIdeaStore(pool),
		},
		previews:   postgres.NewPreviewStore(pool),
		onboarding: postgres.NewOnboardingStore(pool),
		cache:      rdb,
		checks: map[string]func(ctx context.Context) error{
			"postgres": database.Health,
			"redis":    rdb.Ping,
		},
		close: func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("close redis", zap.Error(err))
			}
			database.Close()
		},
	}, nil
}

func fixtureBackend(cfg *config.Config, logger *zap.Logger) (*backend, error) {
	ds, err := fixtures.Load(cfg.FixturePath)
	if err != nil {
		return nil, err
	}
	store := memory.New()
	if err := fixtures.Seed(store, ds, time.Now()); err != nil {
		return nil, fmt.Errorf("seed fixtures: %w", err)
	}
	logger.Warn("FIXTURE_MODE is on: data lives in memory and is lost on exit",
		zap.String("fixture_path", cfg.FixturePath),
		zap.Int("users", len(ds.Users)),
		zap.Int("previews", len(ds.Previews)),
	)

	return &backend{
		repos: api.Repositories{
			Organizations: store.Organizations(),
			Users:         store.Users(),
			Clients:       store.Clients(),
			Ideas:         store.Ideas(),
		},
		previews:   store.Previews(),
		onboarding: store.Onboarding(),
		cache:      cache.NewMemory(),
		close:      func() {},
	}, nil
}
