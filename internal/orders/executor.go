package orders

import (
	"context"
	"fmt"

	"github.com/angelmondragon/vidrobox-backend/pkg/db"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Execute applies one transition atomically and notifies after commit.
func (s *service) Execute(ctx context.Context, orderID uuid.UUID, target enums.StatusTarget, opts TransitionOptions) (*TransitionResult, error) {
	var (
		order    *models.Order
		deferred deferredNotices
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		loaded, err := r.FindByID(ctx, orderID)
		if err != nil {
			if db.IsNotFound(err) {
				return notFound()
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}

		plan, err := PlanTransition(loaded, target, opts)
		if err != nil {
			return err
		}
		if err := r.ApplyTransition(ctx, loaded.ID, plan.Updates, plan.Event(loaded.ID, s.now(), opts.ActorID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply transition")
		}
		plan.Apply(loaded)
		deferred.queue(plan.Notice, loaded)
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.drain(ctx, &deferred)
	return resultOf(order), nil
}

// ExecuteBulk applies one target to every order. Invalid items are skipped
// with a reason; the rest commit together.
func (s *service) ExecuteBulk(ctx context.Context, orderIDs []uuid.UUID, target enums.StatusTarget, opts TransitionOptions) (*BulkResult, error) {
	return s.runBulk(ctx, orderIDs, opts, func(*models.Order) (enums.StatusTarget, error) {
		return target, nil
	})
}

// AdvanceBulk moves each order to its own next status. Terminal orders are
// skipped.
func (s *service) AdvanceBulk(ctx context.Context, orderIDs []uuid.UUID, opts TransitionOptions) (*BulkResult, error) {
	return s.runBulk(ctx, orderIDs, opts, func(order *models.Order) (enums.StatusTarget, error) {
		next, ok := order.Status.Next()
		if !ok {
			return enums.StatusTarget{}, pkgerrors.New(pkgerrors.CodeStateConflict, ReasonNoNextStatus)
		}
		return enums.TargetStatus(next), nil
	})
}

type targetResolver func(order *models.Order) (enums.StatusTarget, error)

func (s *service) runBulk(ctx context.Context, orderIDs []uuid.UUID, opts TransitionOptions, resolve targetResolver) (*BulkResult, error) {
	ids := uniqueIDs(orderIDs)
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one order id is required")
	}

	result := &BulkResult{Skipped: []SkippedOrder{}}
	var deferred deferredNotices

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		loaded, err := r.FindByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load orders")
		}
		byID := make(map[uuid.UUID]*models.Order, len(loaded))
		for i := range loaded {
			byID[loaded[i].ID] = &loaded[i]
		}

		at := s.now()
		for i, id := range ids {
			skip := func(reason string) {
				result.Skipped = append(result.Skipped, SkippedOrder{ID: id, Reason: reason})
			}

			order, ok := byID[id]
			if !ok {
				skip(ReasonOrderNotFound)
				continue
			}
			target, err := resolve(order)
			if err != nil {
				skip(pkgerrors.Reason(err))
				continue
			}
			plan, err := PlanTransition(order, target, opts)
			if err != nil {
				skip(pkgerrors.Reason(err))
				continue
			}

			savepoint := fmt.Sprintf("bulk_item_%d", i)
			if err := tx.SavePoint(savepoint).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create savepoint")
			}
			if err := r.ApplyTransition(ctx, order.ID, plan.Updates, plan.Event(order.ID, at, opts.ActorID)); err != nil {
				if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, rbErr, "rollback savepoint")
				}
				s.logg.WarnErr(s.logg.WithOrderID(ctx, id.String()), "bulk transition item failed", err)
				skip(err.Error())
				continue
			}

			plan.Apply(order)
			deferred.queue(plan.Notice, order)
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.drain(ctx, &deferred)
	return result, nil
}

// drain sends every queued notice. It runs only after commit.
func (s *service) drain(ctx context.Context, deferred *deferredNotices) {
	for _, n := range deferred.all() {
		s.notify(ctx, n)
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
