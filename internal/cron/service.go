package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/angelmondragon/vidrobox-backend/pkg/metrics"
)

const (
	defaultInterval   = time.Hour
	defaultJobTimeout = 10 * time.Minute
)

type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Metrics    *metrics.CronJobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service runs the registered housekeeping jobs every Interval while this
// replica holds the cycle lock.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

// JobResult is the outcome of one job within a cycle.
type JobResult struct {
	Job      string
	Duration time.Duration
	Err      error
}

// Cycle summarizes a RunOnce call. Skipped means another replica held the lock.
type Cycle struct {
	Skipped bool
	Results []JobResult
}

// Failed reports the jobs that returned an error or panicked.
func (c Cycle) Failed() []JobResult {
	var failed []JobResult
	for _, r := range c.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("cron: logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("cron: lock required")
	}
	s := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.jobTimeout <= 0 {
		s.jobTimeout = defaultJobTimeout
	}
	return s, nil
}

// Run starts a cycle right away and then once per interval until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logg.Error(ctx, "cron cycle failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce runs every job once if the lock is free. A failing job does not
// stop the ones after it; the returned error covers lock trouble only.
func (s *Service) RunOnce(ctx context.Context) (Cycle, error) {
	won, err := s.lock.Acquire(ctx)
	if err != nil {
		return Cycle{}, fmt.Errorf("acquire cron lock: %w", err)
	}
	if !won {
		s.logg.Info(ctx, "cron lock held elsewhere; skipping cycle")
		return Cycle{Skipped: true}, nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "failed to release cron lock", err)
		}
	}()

	jobs := s.registry.Jobs()
	cycle := Cycle{Results: make([]JobResult, 0, len(jobs))}
	s.logg.Info(s.logg.WithField(ctx, "jobs", len(jobs)), "cron cycle starting")
	for _, job := range jobs {
		cycle.Results = append(cycle.Results, s.runJob(ctx, job))
	}
	s.logg.Info(s.logg.WithField(ctx, "failed", len(cycle.Failed())), "cron cycle complete")
	return cycle, nil
}

func (s *Service) runJob(ctx context.Context, job Job) JobResult {
	name := job.Name()
	started := time.Now()
	err := s.guarded(ctx, job)
	result := JobResult{Job: name, Duration: time.Since(started), Err: err}

	s.metrics.ObserveRun(name, result.Duration, err)
	jobCtx := s.logg.WithFields(ctx, map[string]any{
		"event":       "cron.job",
		"job":         name,
		"duration_ms": result.Duration.Milliseconds(),
	})
	if err != nil {
		s.logg.Error(jobCtx, "job failed", err)
	} else {
		s.logg.Info(jobCtx, "job completed")
	}
	return result
}

// guarded bounds a job by the job timeout and turns a panic into an error.
func (s *Service) guarded(ctx context.Context, job Job) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name(), p)
		}
	}()
	return job.Run(ctx)
}
