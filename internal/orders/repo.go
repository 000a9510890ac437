package orders

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

const table = "orders"

// Repository defines persistence operations for orders and their trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	CreateEvent(ctx context.Context, event *models.StatusEvent) error
	CreateMessage(ctx context.Context, msg *models.OrderMessage) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPublicToken(ctx context.Context, token string) (*models.Order, error)
	ApplyTransition(ctx context.Context, orderID uuid.UUID, updates map[string]any, event *models.StatusEvent) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, cursor *pagination.Cursor, limit int, filters ListFilters) ([]models.Order, error)
	CountByState(ctx context.Context) ([]StateCount, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	ListDeleted(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// StateCount is one group of the status summary.
type StateCount struct {
	Status        enums.OrderStatus
	VisitAwaiting bool
	Total         int64
}

type repository struct {
	base repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{base: r.base.WithTx(tx)}
}

// Create inserts the order with its items. The customer must already exist.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.base.DB(ctx).Omit("Customer").Create(order).Error
}

func (r *repository) CreateEvent(ctx context.Context, event *models.StatusEvent) error {
	return r.base.DB(ctx).Create(event).Error
}

func (r *repository) CreateMessage(ctx context.Context, msg *models.OrderMessage) error {
	return r.base.DB(ctx).Create(msg).Error
}

func withCustomerAndItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_items.created_at ASC, order_items.id ASC")
		})
}

// FindByID loads the order with its customer and product lines.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.base.DB(ctx).
		Scopes(withCustomerAndItems).
		Where("orders.id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDs loads every live order in ids with one query per relation.
func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var orders []models.Order
	err := r.base.DB(ctx).
		Scopes(withCustomerAndItems).
		Where("orders.id IN ?", ids).
		Find(&orders).Error
	return orders, err
}

func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.base.DB(ctx).
		Scopes(withCustomerAndItems).
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("status_events.at ASC, status_events.id ASC")
		}).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_messages.created_at ASC, order_messages.id ASC")
		}).
		Where("orders.id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPublicToken(ctx context.Context, token string) (*models.Order, error) {
	var order models.Order
	err := r.base.DB(ctx).Where("orders.public_token = ?", token).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ApplyTransition updates the order and appends its audit event.
func (r *repository) ApplyTransition(ctx context.Context, orderID uuid.UUID, updates map[string]any, event *models.StatusEvent) error {
	if err := r.Update(ctx, orderID, updates); err != nil {
		return err
	}
	return r.CreateEvent(ctx, event)
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.base.DB(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, cursor *pagination.Cursor, limit int, filters ListFilters) ([]models.Order, error) {
	q := r.base.DB(ctx).Model(&models.Order{}).Scopes(withCustomerAndItems)

	switch state := filters.DisplayStatus; {
	case state == enums.AwaitingVisit:
		q = q.Where("orders.status = ? AND orders.visit_awaiting = ?", enums.OrderStatusPreparacao, true)
	case state == string(enums.OrderStatusPreparacao):
		q = q.Where("orders.status = ? AND orders.visit_awaiting = ?", enums.OrderStatusPreparacao, false)
	case state != "":
		q = q.Where("orders.status = ?", state)
	}
	if filters.CustomerID != nil {
		q = q.Where("orders.customer_id = ?", *filters.CustomerID)
	}
	if filters.Query != "" {
		q = q.Select("orders.*").
			Joins("JOIN customers ON customers.id = orders.customer_id").
			Scopes(repo.Search(filters.Query, "orders.code", "customers.name", "customers.email"))
	}

	var rows []models.Order
	err := q.Scopes(repo.AfterCursor(table, cursor), repo.NewestFirst(table)).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// CountByState groups live orders by status and visit flag.
func (r *repository) CountByState(ctx context.Context) ([]StateCount, error) {
	var rows []StateCount
	err := r.base.DB(ctx).
		Model(&models.Order{}).
		Select("status, visit_awaiting, COUNT(*) AS total").
		Group("status, visit_awaiting").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.base.DB(ctx).Where("id = ?", id).Delete(&models.Order{})
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
		Model(&models.Order{}).
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

func (r *repository) ListDeleted(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.base.DB(ctx).
		Unscoped().
		Scopes(withCustomerAndItems, repo.AfterCursor(table, cursor), repo.NewestFirst(table)).
		Where("orders.deleted_at IS NOT NULL").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// PurgeDeletedBefore hard-deletes orders trashed before cutoff. Items,
// events and messages go with them through ON DELETE CASCADE.
func (r *repository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.base.DB(ctx).
		Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Delete(&models.Order{})
	return res.RowsAffected, res.Error
}
