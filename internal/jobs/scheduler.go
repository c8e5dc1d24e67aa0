// Package jobs runs periodic maintenance on a gocron scheduler.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *zap.Logger

	mu      sync.Mutex
	jobs    map[string]*gocron.Job
	running bool
}

func NewScheduler(loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		logger:    logger,
		jobs:      make(map[string]*gocron.Job),
	}
}

// Add registers task under id on a cron expression. Each run gets its
// own context bounded by timeout.
func (s *Scheduler) Add(id, cronExpr string, timeout time.Duration, task func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return fmt.Errorf("job %s already exists", id)
	}

	job, err := s.scheduler.Cron(cronExpr).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		if err := task(ctx); err != nil {
			s.logger.Error("job failed", zap.String("job_id", id), zap.Error(err))
			return
		}
		s.logger.Info("job finished", zap.String("job_id", id), zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", id, err)
	}

	s.jobs[id] = job
	s.logger.Info("job added", zap.String("job_id", id), zap.String("cron", cronExpr), zap.Time("next_run", job.NextRun()))
	return nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.scheduler.StartAsync()
	s.running = true
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.scheduler.Stop()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// NextRun reports when job id fires next.
func (s *Scheduler) NextRun(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return time.Time{}, false
	}
	return job.NextRun(), true
}
