package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/tillcore-backend/pkg/logger"
	"github.com/angelmondragon/tillcore-backend/pkg/metrics"
	robfig "github.com/robfig/cron/v3"
)

const defaultSchedule = "*/5 * * * *"

// ServiceParams configure the cron service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	// Schedule is a five-field cron expression or a descriptor such as
	// "@hourly" or "@every 10m".
	Schedule string
	Clock    func() time.Time
}

// Service runs every registered job once per scheduled tick, guarded by Lock.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	schedule robfig.Schedule
	clock    func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{}
	}
	schedule, err := ParseSchedule(params.Schedule)
	if err != nil {
		return nil, err
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		schedule: schedule,
		clock:    clock,
	}, nil
}

// ParseSchedule parses a standard cron expression, defaulting when blank.
func ParseSchedule(expr string) (robfig.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		expr = defaultSchedule
	}
	schedule, err := robfig.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron schedule %q: %w", expr, err)
	}
	return schedule, nil
}

// Next reports when the cycle after t is due.
func (s *Service) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run executes one cycle immediately and then one per scheduled tick until
// ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.RunOnce(ctx); err != nil {
		s.logg.Error(ctx, "scheduled run failed", err)
	}
	for {
		now := s.clock()
		next := s.schedule.Next(now)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-timer.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logg.Error(ctx, "scheduled run failed", err)
			}
		}
	}
}

// RunOnce runs every job under the lock. A held lock skips the cycle.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.withLock(ctx, func(ctx context.Context) {
		for _, job := range s.registry.Jobs() {
			s.runJob(ctx, job)
		}
	})
}

// RunJob runs a single named job under the lock and returns its error.
func (s *Service) RunJob(ctx context.Context, name string) error {
	job, ok := s.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("cron job %q not registered", name)
	}
	var jobErr error
	err := s.withLock(ctx, func(ctx context.Context) {
		jobErr = s.runJob(ctx, job)
	})
	if err != nil {
		return err
	}
	return jobErr
}

func (s *Service) withLock(ctx context.Context, fn func(context.Context)) error {
	release, locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another cron instance is running; skipping this cycle")
		return nil
	}
	defer func() {
		if relErr := release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	s.logg.Info(ctx, "scheduled run starting")
	fn(ctx)
	s.logg.Info(ctx, "scheduled run complete")
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithFields(ctx, map[string]any{
		"job":   job.Name(),
		"event": "cron.job",
	})
	s.logg.Info(jobCtx, "job start")
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(job.Name(), duration)
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(job.Name())
		return err
	}
	s.logg.Info(jobCtx, "job completed")
	s.metrics.IncSuccess(job.Name())
	return nil
}
