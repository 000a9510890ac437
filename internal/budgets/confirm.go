package budgets

import (
	"context"
	"fmt"

	"github.com/angelmondragon/vidrobox-backend/internal/notifications"
	"github.com/angelmondragon/vidrobox-backend/internal/orders"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const noteConfirmedFrom = "Confirmado a partir do orçamento %s"

// Confirm turns a budget into an order. Confirming twice returns the order
// created the first time.
func (s *service) Confirm(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.Order, error) {
	return s.confirm(ctx, func(r Repository) (*models.Budget, error) {
		return s.load(ctx, r, id)
	}, actorID)
}

// ConfirmByToken lets the customer accept a quote through its public link.
func (s *service) ConfirmByToken(ctx context.Context, token string) (*models.Order, error) {
	ref, err := s.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if ref.SentAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Orçamento ainda não enviado")
	}
	return s.confirm(ctx, func(r Repository) (*models.Budget, error) {
		return s.load(ctx, r, ref.ID)
	}, nil)
}

func (s *service) confirm(ctx context.Context, loadFn func(Repository) (*models.Budget, error), actorID *uuid.UUID) (*models.Order, error) {
	var (
		created    *models.Order
		existingID *uuid.UUID
		budgetID   uuid.UUID
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		budget, err := loadFn(r)
		if err != nil {
			return err
		}
		budgetID = budget.ID
		if budget.OrderID != nil {
			existingID = budget.OrderID
			return nil
		}
		if deref(budget.Email) == "" && budget.CustomerID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, reasonMissingEmail)
		}

		input := orders.CreateInput{
			BudgetID: &budget.ID,
			Items:    []orders.ItemInput{itemOf(budget)},
			Notes:    confirmationNote(budget),
			ActorID:  actorID,
		}
		if budget.CustomerID != nil {
			input.CustomerID = budget.CustomerID
		} else {
			contact := contactOf(budget)
			input.Customer = &contact
		}

		order, err := s.orders.CreateWithTx(ctx, tx, input)
		if err != nil {
			return err
		}
		if err := r.Update(ctx, budget.ID, map[string]any{
			"order_id":     order.ID,
			"customer_id":  order.CustomerID,
			"confirmed_at": s.now(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link budget to order")
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithBudgetID(ctx, budgetID.String())
	if existingID != nil {
		s.logg.Info(s.logg.WithOrderID(logCtx, existingID.String()), "budget already confirmed")
		return s.orders.Get(ctx, *existingID)
	}
	s.logg.Info(s.logg.WithOrderID(logCtx, created.ID.String()), "budget confirmed")
	s.orders.NotifyCreated(ctx, created)
	return created, nil
}

// itemOf maps the budget's configuration to one order line. The unit price
// is the total split across the quantity, rounded down to the cent.
func itemOf(b *models.Budget) orders.ItemInput {
	qty := b.Quantity
	if qty <= 0 {
		qty = 1
	}
	return orders.ItemInput{
		Description:    b.Model,
		Model:          &b.Model,
		GlassType:      b.GlassType,
		GlassColor:     b.GlassColor,
		Finish:         b.Finish,
		WidthMM:        b.WidthMM,
		HeightMM:       b.HeightMM,
		Quantity:       qty,
		UnitPriceCents: b.TotalCents / int64(qty),
	}
}

func confirmationNote(b *models.Budget) *string {
	note := fmt.Sprintf(noteConfirmedFrom, notifications.BudgetReference(b.ID.String()))
	if b.Notes != nil && *b.Notes != "" {
		note += "\n" + *b.Notes
	}
	return &note
}
