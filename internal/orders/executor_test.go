package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type refusingCommit struct {
	inner txRunner
}

func (r refusingCommit) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.inner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errors.New("commit refused")
	})
}

func TestExecuteForwardTransition(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order := h.seedOrder(t, enums.OrderStatusProducao)
	eta := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	actor := uuid.New()

	res, err := h.svc.Execute(ctx, order.ID, enums.TargetStatus(enums.OrderStatusExpedicao), TransitionOptions{ETA: &eta, ActorID: &actor})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, enums.OrderStatusExpedicao, res.Status)
	require.True(t, res.ETA.Equal(eta))

	stored := h.reload(t, order.ID)
	require.Equal(t, enums.OrderStatusExpedicao, stored.Status)
	require.True(t, stored.ETA.Equal(eta))

	events := h.events(t, order.ID)
	require.Len(t, events, 1)
	require.Equal(t, enums.OrderStatusProducao, events[0].From)
	require.Equal(t, enums.OrderStatusExpedicao, events[0].To)
	require.Equal(t, actor, *events[0].ActorID)
	require.Nil(t, events[0].Note)

	require.Equal(t, []enums.NotificationKind{enums.NotificationStatusChanged}, h.notifier.kinds())
	require.Equal(t, enums.OrderStatusExpedicao, h.notifier.notices[0].Status)
}

func TestExecuteRejectsInvalidTransition(t *testing.T) {
	h := newHarness(t)
	order := h.seedOrder(t, enums.OrderStatusProducao)

	_, err := h.svc.Execute(context.Background(), order.ID, enums.TargetStatus(enums.OrderStatusEntregue), TransitionOptions{})
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))
	require.Equal(t, "Transição inválida: PRODUCAO → ENTREGUE", pkgerrors.Reason(err))
	require.Equal(t, enums.OrderStatusProducao, h.reload(t, order.ID).Status)
	require.Empty(t, h.events(t, order.ID))
	require.Empty(t, h.notifier.kinds())
}

func TestExecuteUnknownOrder(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Execute(context.Background(), uuid.New(), enums.TargetAwaitingVisit(), TransitionOptions{})
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestExecuteSchedulesVisit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order := h.seedOrder(t, enums.OrderStatusPreparacao)
	visitAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	res, err := h.svc.Execute(ctx, order.ID, enums.TargetAwaitingVisit(), TransitionOptions{VisitAt: &visitAt})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPreparacao, res.Status)
	require.True(t, res.VisitAwaiting)
	require.Equal(t, enums.AwaitingVisit, res.DisplayStatus)

	stored := h.reload(t, order.ID)
	require.True(t, stored.VisitAwaiting)
	require.True(t, stored.VisitAt.Equal(visitAt))

	events := h.events(t, order.ID)
	require.Len(t, events, 1)
	require.Equal(t, NoteVisitScheduled, *events[0].Note)
	require.Equal(t, []enums.NotificationKind{enums.NotificationVisitScheduled}, h.notifier.kinds())

	_, err = h.svc.Execute(ctx, order.ID, enums.TargetAwaitingVisit(), TransitionOptions{VisitAt: &visitAt})
	require.NoError(t, err)
	require.Len(t, h.events(t, order.ID), 2)
	require.Len(t, h.notifier.kinds(), 1, "same visit date must not notify again")
}

func TestExecuteConcludesVisit(t *testing.T) {
	h := newHarness(t)
	visitAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	order := h.seedOrder(t, enums.OrderStatusPreparacao, func(o *models.Order) {
		o.VisitAwaiting = true
		o.VisitAt = &visitAt
	})

	res, err := h.svc.Execute(context.Background(), order.ID, enums.TargetStatus(enums.OrderStatusPreparacao), TransitionOptions{})
	require.NoError(t, err)
	require.False(t, res.VisitAwaiting)
	require.Equal(t, enums.OrderStatusPreparacao, res.Status)

	events := h.events(t, order.ID)
	require.Len(t, events, 1)
	require.Equal(t, events[0].From, events[0].To)
	require.Equal(t, NoteVisitConcluded, *events[0].Note)
	require.Equal(t, []enums.NotificationKind{enums.NotificationVisitConcluded}, h.notifier.kinds())
}

func TestExecuteDeliveryClearsETA(t *testing.T) {
	h := newHarness(t)
	eta := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	order := h.seedOrder(t, enums.OrderStatusExpedicao, func(o *models.Order) { o.ETA = &eta })

	res, err := h.svc.Execute(context.Background(), order.ID, enums.TargetStatus(enums.OrderStatusEntregue), TransitionOptions{})
	require.NoError(t, err)
	require.Nil(t, res.ETA)
	require.Nil(t, h.reload(t, order.ID).ETA)
}

func TestExecuteNotifierFailureKeepsTransition(t *testing.T) {
	h := newHarness(t)
	h.notifier.err = errors.New("provider down")
	order := h.seedOrder(t, enums.OrderStatusPreparacao)

	_, err := h.svc.Execute(context.Background(), order.ID, enums.TargetStatus(enums.OrderStatusProducao), TransitionOptions{})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusProducao, h.reload(t, order.ID).Status)
}

func TestExecuteBulkRejectsNonAdjacentTarget(t *testing.T) {
	h := newHarness(t)
	a := h.seedOrder(t, enums.OrderStatusProducao)

	res, err := h.svc.ExecuteBulk(context.Background(), []uuid.UUID{a.ID}, enums.TargetStatus(enums.OrderStatusEntregue), TransitionOptions{})
	require.NoError(t, err)
	require.Zero(t, res.Updated)
	require.Equal(t, []SkippedOrder{{ID: a.ID, Reason: "Transição inválida: PRODUCAO → ENTREGUE"}}, res.Skipped)
	require.Equal(t, enums.OrderStatusProducao, h.reload(t, a.ID).Status)
	require.Empty(t, h.notifier.kinds())
}

func TestExecuteBulkPartialSuccess(t *testing.T) {
	h := newHarness(t)
	first := h.seedOrder(t, enums.OrderStatusPreparacao)
	second := h.seedOrder(t, enums.OrderStatusPreparacao, func(o *models.Order) { o.VisitAwaiting = true })
	invalid := h.seedOrder(t, enums.OrderStatusExpedicao)
	missing := uuid.New()

	ids := []uuid.UUID{first.ID, invalid.ID, second.ID, first.ID, missing}
	res, err := h.svc.ExecuteBulk(context.Background(), ids, enums.TargetStatus(enums.OrderStatusProducao), TransitionOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, res.Updated)
	require.Equal(t, []SkippedOrder{
		{ID: invalid.ID, Reason: "Transição inválida: EXPEDICAO → PRODUCAO"},
		{ID: missing, Reason: ReasonOrderNotFound},
	}, res.Skipped)

	require.Equal(t, enums.OrderStatusProducao, h.reload(t, first.ID).Status)
	stored := h.reload(t, second.ID)
	require.Equal(t, enums.OrderStatusProducao, stored.Status)
	require.False(t, stored.VisitAwaiting)
	require.Equal(t, enums.OrderStatusExpedicao, h.reload(t, invalid.ID).Status)

	require.Equal(t, []enums.NotificationKind{enums.NotificationStatusChanged, enums.NotificationStatusChanged}, h.notifier.kinds())
}

func TestExecuteBulkGroupsDeferredNotices(t *testing.T) {
	h := newHarness(t)
	visitAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	pending := h.seedOrder(t, enums.OrderStatusPreparacao, func(o *models.Order) {
		o.VisitAwaiting = true
		o.VisitAt = &visitAt
	})
	fresh := h.seedOrder(t, enums.OrderStatusProducao)

	res, err := h.svc.ExecuteBulk(context.Background(), []uuid.UUID{pending.ID, fresh.ID}, enums.TargetStatus(enums.OrderStatusPreparacao), TransitionOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Updated)
	require.Len(t, res.Skipped, 1)
	require.Equal(t, []enums.NotificationKind{enums.NotificationVisitConcluded}, h.notifier.kinds())

	res, err = h.svc.ExecuteBulk(context.Background(), []uuid.UUID{fresh.ID, pending.ID}, enums.TargetAwaitingVisit(), TransitionOptions{VisitAt: &visitAt})
	require.NoError(t, err)
	require.Equal(t, 2, res.Updated)
	// pending keeps the same date, so only fresh is scheduled
	require.Equal(t, []enums.NotificationKind{enums.NotificationVisitConcluded, enums.NotificationVisitScheduled}, h.notifier.kinds())
}

func TestExecuteBulkSendsNothingWhenCommitFails(t *testing.T) {
	h := newHarness(t)
	order := h.seedOrder(t, enums.OrderStatusPreparacao)
	h.svc.tx = refusingCommit{inner: h.svc.tx}

	_, err := h.svc.ExecuteBulk(context.Background(), []uuid.UUID{order.ID}, enums.TargetStatus(enums.OrderStatusProducao), TransitionOptions{})
	require.EqualError(t, err, "commit refused")
	require.Empty(t, h.notifier.kinds())
	require.Equal(t, enums.OrderStatusPreparacao, h.reload(t, order.ID).Status)
}

func TestExecuteBulkIsolatesItemWriteFailure(t *testing.T) {
	h := newHarness(t)
	good := h.seedOrder(t, enums.OrderStatusPreparacao)
	bad := h.seedOrder(t, enums.OrderStatusPreparacao)
	other := h.seedOrder(t, enums.OrderStatusPreparacao)
	require.NoError(t, h.conn.Exec(`CREATE TRIGGER reject_status_event BEFORE INSERT ON status_events
		WHEN NEW.order_id = '`+bad.ID.String()+`'
		BEGIN SELECT RAISE(ABORT, 'event store unavailable'); END`).Error)

	ids := []uuid.UUID{good.ID, bad.ID, other.ID}
	res, err := h.svc.ExecuteBulk(context.Background(), ids, enums.TargetStatus(enums.OrderStatusProducao), TransitionOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, res.Updated)
	require.Len(t, res.Skipped, 1)
	require.Equal(t, bad.ID, res.Skipped[0].ID)
	require.Contains(t, res.Skipped[0].Reason, "event store unavailable")

	require.Equal(t, enums.OrderStatusProducao, h.reload(t, good.ID).Status)
	require.Equal(t, enums.OrderStatusPreparacao, h.reload(t, bad.ID).Status)
	require.Equal(t, enums.OrderStatusProducao, h.reload(t, other.ID).Status)
	require.Len(t, h.events(t, good.ID), 1)
	require.Empty(t, h.events(t, bad.ID))
	require.Len(t, h.events(t, other.ID), 1)

	require.Equal(t, []enums.NotificationKind{enums.NotificationStatusChanged, enums.NotificationStatusChanged}, h.notifier.kinds())
	for _, n := range h.notifier.notices {
		require.NotEqual(t, bad.ID, n.Order.ID)
	}
}

func TestExecuteBulkRequiresIDs(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.ExecuteBulk(context.Background(), []uuid.UUID{uuid.Nil}, enums.TargetAwaitingVisit(), TransitionOptions{})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestAdvanceBulkMovesEachOrderToItsNextStatus(t *testing.T) {
	h := newHarness(t)
	eta := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	prep := h.seedOrder(t, enums.OrderStatusPreparacao)
	prod := h.seedOrder(t, enums.OrderStatusProducao)
	ship := h.seedOrder(t, enums.OrderStatusExpedicao, func(o *models.Order) { o.ETA = &eta })
	done := h.seedOrder(t, enums.OrderStatusEntregue)

	res, err := h.svc.AdvanceBulk(context.Background(), []uuid.UUID{prep.ID, prod.ID, ship.ID, done.ID}, TransitionOptions{})
	require.NoError(t, err)
	require.Equal(t, 3, res.Updated)
	require.Equal(t, []SkippedOrder{{ID: done.ID, Reason: ReasonNoNextStatus}}, res.Skipped)

	require.Equal(t, enums.OrderStatusProducao, h.reload(t, prep.ID).Status)
	require.Equal(t, enums.OrderStatusExpedicao, h.reload(t, prod.ID).Status)
	delivered := h.reload(t, ship.ID)
	require.Equal(t, enums.OrderStatusEntregue, delivered.Status)
	require.Nil(t, delivered.ETA)
	require.Len(t, h.notifier.kinds(), 3)
}

func TestAdvanceBulkSetsETAOnlyOnShipping(t *testing.T) {
	h := newHarness(t)
	eta := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	prep := h.seedOrder(t, enums.OrderStatusPreparacao)
	prod := h.seedOrder(t, enums.OrderStatusProducao)

	res, err := h.svc.AdvanceBulk(context.Background(), []uuid.UUID{prep.ID, prod.ID}, TransitionOptions{ETA: &eta})
	require.NoError(t, err)
	require.Equal(t, 2, res.Updated)

	require.Nil(t, h.reload(t, prep.ID).ETA)
	shipped := h.reload(t, prod.ID)
	require.Equal(t, enums.OrderStatusExpedicao, shipped.Status)
	require.True(t, shipped.ETA.Equal(eta))
}
