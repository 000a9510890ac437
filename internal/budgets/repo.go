package budgets

import (
	"context"
	"time"

	"github.com/angelmondragon/vidrobox-backend/internal/repo"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	"github.com/angelmondragon/vidrobox-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	table     = "budgets"
	jobsTable = "send_budget_jobs"
)

// Repository persists budgets and their send jobs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, budget *models.Budget) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Budget, error)
	FindByPublicToken(ctx context.Context, token string) (*models.Budget, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, cursor *pagination.Cursor, limit int, query string) ([]models.Budget, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	ListDeleted(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Budget, error)
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	CreateJob(ctx context.Context, job *models.SendBudgetJob) error
	FindJob(ctx context.Context, id uuid.UUID) (*models.SendBudgetJob, error)
	FindLiveJob(ctx context.Context, budgetID uuid.UUID, idempotencyKey string) (*models.SendBudgetJob, error)
	UpdateJob(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FailStaleJobs(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}

type repository struct {
	base repo.Base
}

// NewRepository builds a budgets repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, budget *models.Budget) error {
	return r.base.DB(ctx).Create(budget).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Budget, error) {
	var budget models.Budget
	if err := r.base.DB(ctx).Where("id = ?", id).First(&budget).Error; err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *repository) FindByPublicToken(ctx context.Context, token string) (*models.Budget, error) {
	var budget models.Budget
	if err := r.base.DB(ctx).Where("public_token = ?", token).First(&budget).Error; err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.base.DB(ctx).Model(&models.Budget{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, cursor *pagination.Cursor, limit int, query string) ([]models.Budget, error) {
	var rows []models.Budget
	err := r.base.DB(ctx).
		Scopes(
			repo.Search(query, "budgets.name", "budgets.email", "budgets.model"),
			repo.AfterCursor(table, cursor),
			repo.NewestFirst(table),
		).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.base.DB(ctx).Where("id = ?", id).Delete(&models.Budget{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Restore(ctx context.Context, id uuid.UUID) error {
	res := r.base.DB(ctx).
		Unscoped().
		Model(&models.Budget{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListDeleted(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Budget, error) {
	var rows []models.Budget
	err := r.base.DB(ctx).
		Unscoped().
		Scopes(repo.AfterCursor(table, cursor), repo.NewestFirst(table)).
		Where("budgets.deleted_at IS NOT NULL").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// PurgeDeletedBefore hard-deletes budgets trashed before cutoff. Their send
// jobs cascade; orders keep living with budget_id set to NULL.
func (r *repository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.base.DB(ctx).
		Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Delete(&models.Budget{})
	return res.RowsAffected, res.Error
}

func (r *repository) CreateJob(ctx context.Context, job *models.SendBudgetJob) error {
	return r.base.DB(ctx).Create(job).Error
}

func (r *repository) FindJob(ctx context.Context, id uuid.UUID) (*models.SendBudgetJob, error) {
	var job models.SendBudgetJob
	if err := r.base.DB(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// FindLiveJob returns the newest job of the budget that is still queued or
// running, or that was created with idempotencyKey.
func (r *repository) FindLiveJob(ctx context.Context, budgetID uuid.UUID, idempotencyKey string) (*models.SendBudgetJob, error) {
	q := r.base.DB(ctx).Where("budget_id = ?", budgetID)
	if idempotencyKey != "" {
		q = q.Where("(status IN ? OR idempotency_key = ?)", enums.ActiveSendBudgetJobStatuses(), idempotencyKey)
	} else {
		q = q.Where("status IN ?", enums.ActiveSendBudgetJobStatuses())
	}

	var job models.SendBudgetJob
	err := q.Scopes(repo.NewestFirst(jobsTable)).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repository) UpdateJob(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.base.DB(ctx).Model(&models.SendBudgetJob{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FailStaleJobs marks live jobs created before cutoff as failed.
func (r *repository) FailStaleJobs(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.SendBudgetJob{}).
		Where("status IN ? AND created_at < ?", enums.ActiveSendBudgetJobStatuses(), cutoff).
		Updates(map[string]any{
			"status":      enums.SendBudgetJobFailed,
			"last_error":  reason,
			"finished_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
