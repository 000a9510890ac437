package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/angelmondragon/vidrobox-backend/pkg/metrics"
)

const (
	staleSendJobName     = "stale-send-jobs"
	defaultStaleAfter    = 30 * time.Minute
	abandonedSendJobNote = "abandoned"
)

// StaleJobReaper fails send jobs stuck in a live status.
type StaleJobReaper interface {
	FailStaleJobs(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}

// StaleSendJobParams configure the stale send-job reaper.
type StaleSendJobParams struct {
	Logger     *logger.Logger
	Jobs       StaleJobReaper
	StaleAfter time.Duration
	Metrics    *metrics.CronJobMetrics
}

type staleSendJob struct {
	logg       *logger.Logger
	jobs       StaleJobReaper
	staleAfter time.Duration
	metrics    *metrics.CronJobMetrics
	now        func() time.Time
}

// NewStaleSendJob builds the job that releases the per-budget send guard
// held by jobs whose worker died mid-run.
func NewStaleSendJob(params StaleSendJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Jobs == nil {
		return nil, fmt.Errorf("send job reaper required")
	}
	staleAfter := params.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	return &staleSendJob{
		logg:       params.Logger,
		jobs:       params.Jobs,
		staleAfter: staleAfter,
		metrics:    params.Metrics,
		now:        time.Now,
	}, nil
}

func (j *staleSendJob) Name() string { return staleSendJobName }

func (j *staleSendJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.staleAfter)
	rows, err := j.jobs.FailStaleJobs(ctx, cutoff, abandonedSendJobNote)
	if err != nil {
		return fmt.Errorf("fail stale send jobs: %w", err)
	}
	j.metrics.AddAffected(j.Name(), rows)
	if rows > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"cutoff":      cutoff,
			"jobs_failed": rows,
		})
		j.logg.Warn(logCtx, "stale send jobs failed")
	}
	return nil
}
