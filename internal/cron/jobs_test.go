package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/vidrobox-backend/internal/budgets"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/dbtest"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type fakePurger struct {
	rows   int64
	err    error
	cutoff time.Time
}

func (f *fakePurger) PurgeDeletedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.rows, f.err
}

func TestTrashPurgeJobUsesRetentionCutoff(t *testing.T) {
	now := time.Date(2025, 3, 31, 3, 0, 0, 0, time.UTC)
	orders := &fakePurger{rows: 3}
	budgetsPurger := &fakePurger{rows: 1}
	job, err := NewTrashPurgeJob(TrashPurgeJobParams{
		Logger:    logger.Nop(),
		Orders:    orders,
		Budgets:   budgetsPurger,
		Retention: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	job.(*trashPurgeJob).now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	want := time.Date(2025, 3, 24, 3, 0, 0, 0, time.UTC)
	require.True(t, orders.cutoff.Equal(want), "orders cutoff %s", orders.cutoff)
	require.True(t, budgetsPurger.cutoff.Equal(want), "budgets cutoff %s", budgetsPurger.cutoff)
}

func TestTrashPurgeJobCombinesFailures(t *testing.T) {
	orders := &fakePurger{err: errors.New("orders locked")}
	budgetsPurger := &fakePurger{err: errors.New("budgets locked")}
	job, err := NewTrashPurgeJob(TrashPurgeJobParams{
		Logger:  logger.Nop(),
		Orders:  orders,
		Budgets: budgetsPurger,
	})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 2)
	require.False(t, budgetsPurger.cutoff.IsZero(), "budgets purge must still run")
	require.True(t, job.(*trashPurgeJob).retention == defaultTrashRetention)
}

func TestStaleSendJobFailsAbandonedJobs(t *testing.T) {
	conn, _ := dbtest.New(t)
	ctx := context.Background()

	budget := &models.Budget{Name: "Carla Dias", Model: "Box de canto", Quantity: 1}
	require.NoError(t, conn.Create(budget).Error)

	now := time.Now().UTC()
	stale := &models.SendBudgetJob{BudgetID: budget.ID, Status: enums.SendBudgetJobRunning, CreatedAt: now.Add(-2 * time.Hour)}
	fresh := &models.SendBudgetJob{BudgetID: budget.ID, Status: enums.SendBudgetJobQueued, CreatedAt: now.Add(-time.Minute)}
	done := &models.SendBudgetJob{BudgetID: budget.ID, Status: enums.SendBudgetJobSucceeded, CreatedAt: now.Add(-3 * time.Hour)}
	for _, job := range []*models.SendBudgetJob{stale, fresh, done} {
		require.NoError(t, conn.Create(job).Error)
	}

	job, err := NewStaleSendJob(StaleSendJobParams{
		Logger:     logger.Nop(),
		Jobs:       budgets.NewRepository(conn),
		StaleAfter: 30 * time.Minute,
	})
	require.NoError(t, err)
	require.NoError(t, job.Run(ctx))

	statusOf := func(id any) models.SendBudgetJob {
		var row models.SendBudgetJob
		require.NoError(t, conn.First(&row, "id = ?", id).Error)
		return row
	}
	reaped := statusOf(stale.ID)
	require.Equal(t, enums.SendBudgetJobFailed, reaped.Status)
	require.NotNil(t, reaped.LastError)
	require.Equal(t, abandonedSendJobNote, *reaped.LastError)
	require.NotNil(t, reaped.FinishedAt)
	require.Equal(t, enums.SendBudgetJobQueued, statusOf(fresh.ID).Status)
	require.Equal(t, enums.SendBudgetJobSucceeded, statusOf(done.ID).Status)
}
