package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/google/uuid"
)

const (
	NoteVisitScheduled = "Visita técnica agendada"
	NoteVisitAwaiting  = "Aguardando visita técnica"
	NoteVisitConcluded = "Visita técnica concluída"

	ReasonNoNextStatus  = "Sem próximo status"
	ReasonOrderNotFound = "Pedido não encontrado"
)

// Path identifies which of the three transition flavours a request takes.
type Path int

const (
	PathForward Path = iota
	PathVisitEntry
	PathVisitConclusion
)

func (p Path) String() string {
	switch p {
	case PathVisitEntry:
		return "visit_entry"
	case PathVisitConclusion:
		return "visit_conclusion"
	default:
		return "forward"
	}
}

// TransitionOptions are the optional inputs of a transition request.
type TransitionOptions struct {
	VisitAt *time.Time
	ETA     *time.Time
	Note    *string
	ActorID *uuid.UUID
}

// Plan is the outcome of validating a transition against one order: the
// column updates, the audit event and the notice to send after commit.
type Plan struct {
	Path    Path
	From    enums.OrderStatus
	To      enums.OrderStatus
	Updates map[string]any
	Note    string
	Notice  enums.NotificationKind
}

// InvalidTransitionError builds the error for a pair missing from the table.
func InvalidTransitionError(from, to enums.OrderStatus) *pkgerrors.Error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "Transição inválida: %s → %s", from, to).
		WithDetails(map[string]string{"from": string(from), "to": string(to)})
}

// PlanTransition validates target against the order's current state.
//
// The awaiting-visit target always succeeds. PREPARACAO requested while a
// visit is pending concludes the visit; that check runs before the table
// lookup. Anything else must be the immediate successor.
func PlanTransition(order *models.Order, target enums.StatusTarget, opts TransitionOptions) (Plan, error) {
	if order == nil {
		return Plan{}, pkgerrors.New(pkgerrors.CodeNotFound, ReasonOrderNotFound)
	}

	if target.IsAwaitingVisit() {
		return planVisitEntry(order, opts), nil
	}

	to := target.Status()
	if to == enums.OrderStatusPreparacao && order.VisitAwaiting {
		return Plan{
			Path:    PathVisitConclusion,
			From:    order.Status,
			To:      enums.OrderStatusPreparacao,
			Updates: map[string]any{"visit_awaiting": false},
			Note:    withUserNote(NoteVisitConcluded, opts.Note),
			Notice:  enums.NotificationVisitConcluded,
		}, nil
	}

	if !order.Status.CanTransitionTo(to) {
		return Plan{}, InvalidTransitionError(order.Status, to)
	}

	updates := map[string]any{"status": to}
	if order.VisitAwaiting {
		updates["visit_awaiting"] = false
	}
	switch to {
	case enums.OrderStatusExpedicao:
		if opts.ETA != nil {
			updates["eta"] = *opts.ETA
		}
	case enums.OrderStatusEntregue:
		updates["eta"] = nil
	}

	note := ""
	if opts.Note != nil {
		note = strings.TrimSpace(*opts.Note)
	}
	return Plan{
		Path:    PathForward,
		From:    order.Status,
		To:      to,
		Updates: updates,
		Note:    note,
		Notice:  enums.NotificationStatusChanged,
	}, nil
}

func planVisitEntry(order *models.Order, opts TransitionOptions) Plan {
	updates := map[string]any{
		"status":         enums.OrderStatusPreparacao,
		"visit_awaiting": true,
	}
	note := NoteVisitAwaiting
	if opts.VisitAt != nil {
		updates["visit_at"] = *opts.VisitAt
		note = NoteVisitScheduled
	}

	var notice enums.NotificationKind
	switch {
	case opts.VisitAt != nil && (order.VisitAt == nil || !order.VisitAt.Equal(*opts.VisitAt)):
		notice = enums.NotificationVisitScheduled
	case opts.VisitAt == nil && order.VisitAt == nil:
		notice = enums.NotificationVisitAwaiting
	}

	return Plan{
		Path:    PathVisitEntry,
		From:    order.Status,
		To:      enums.OrderStatusPreparacao,
		Updates: updates,
		Note:    withUserNote(note, opts.Note),
		Notice:  notice,
	}
}

// Event builds the audit row for the plan.
func (p Plan) Event(orderID uuid.UUID, at time.Time, actorID *uuid.UUID) *models.StatusEvent {
	event := &models.StatusEvent{
		OrderID: orderID,
		From:    p.From,
		To:      p.To,
		At:      at,
		ActorID: actorID,
	}
	if p.Note != "" {
		note := p.Note
		event.Note = &note
	}
	return event
}

// Apply mirrors the plan's updates onto an in-memory order.
func (p Plan) Apply(order *models.Order) {
	for column, value := range p.Updates {
		switch column {
		case "status":
			order.Status = value.(enums.OrderStatus)
		case "visit_awaiting":
			order.VisitAwaiting = value.(bool)
		case "visit_at":
			t := value.(time.Time)
			order.VisitAt = &t
		case "eta":
			if t, ok := value.(time.Time); ok {
				order.ETA = &t
			} else {
				order.ETA = nil
			}
		default:
			panic(fmt.Sprintf("orders: unhandled plan column %q", column))
		}
	}
}

func withUserNote(base string, note *string) string {
	if note == nil || strings.TrimSpace(*note) == "" {
		return base
	}
	return base + ". " + strings.TrimSpace(*note)
}
