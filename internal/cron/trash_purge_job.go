package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/angelmondragon/vidrobox-backend/pkg/metrics"
	"go.uber.org/multierr"
)

const (
	trashPurgeJobName     = "trash-purge"
	defaultTrashRetention = 30 * 24 * time.Hour
)

// Purger hard-deletes rows trashed before cutoff.
type Purger interface {
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// TrashPurgeJobParams names the trash tables the job empties.
type TrashPurgeJobParams struct {
	Logger    *logger.Logger
	Orders    Purger
	Budgets   Purger
	Retention time.Duration
	Metrics   *metrics.CronJobMetrics
}

type trashPurgeJob struct {
	logg      *logger.Logger
	targets   []purgeTarget
	retention time.Duration
	metrics   *metrics.CronJobMetrics
	now       func() time.Time
}

type purgeTarget struct {
	table  string
	purger Purger
}

// NewTrashPurgeJob builds the job that empties the trash once the retention window passes.
func NewTrashPurgeJob(params TrashPurgeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders purger required")
	}
	if params.Budgets == nil {
		return nil, fmt.Errorf("budgets purger required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultTrashRetention
	}
	return &trashPurgeJob{
		logg: params.Logger,
		targets: []purgeTarget{
			{table: "orders", purger: params.Orders},
			{table: "budgets", purger: params.Budgets},
		},
		retention: retention,
		metrics:   params.Metrics,
		now:       time.Now,
	}, nil
}

func (j *trashPurgeJob) Name() string { return trashPurgeJobName }

func (j *trashPurgeJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var errs error
	for _, target := range j.targets {
		rows, err := target.purger.PurgeDeletedBefore(ctx, cutoff)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("purge %s: %w", target.table, err))
			continue
		}
		j.metrics.AddAffected(j.Name(), rows)
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"table":        target.table,
			"cutoff":       cutoff,
			"rows_deleted": rows,
		})
		j.logg.Info(logCtx, "trash purged")
	}
	return errs
}
