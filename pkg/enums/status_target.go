package enums

import (
	"fmt"
	"strings"
)

// AwaitingVisit is the pseudo-status exposed for orders in PREPARACAO whose
// technical visit is still pending. It is never persisted.
const AwaitingVisit = "AGUARDA_VISITA"

// StatusTarget is a requested transition target: a canonical status or the
// awaiting-visit pseudo-status.
type StatusTarget struct {
	status        OrderStatus
	awaitingVisit bool
}

// TargetStatus wraps a canonical status as a target.
func TargetStatus(status OrderStatus) StatusTarget {
	return StatusTarget{status: status}
}

// TargetAwaitingVisit is the pseudo-status target.
func TargetAwaitingVisit() StatusTarget {
	return StatusTarget{awaitingVisit: true}
}

// ParseStatusTarget accepts any canonical status or AGUARDA_VISITA.
func ParseStatusTarget(value string) (StatusTarget, error) {
	raw := strings.ToUpper(strings.TrimSpace(value))
	if raw == AwaitingVisit {
		return TargetAwaitingVisit(), nil
	}
	status, err := ParseOrderStatus(raw)
	if err != nil {
		return StatusTarget{}, fmt.Errorf("invalid status target %q", value)
	}
	return TargetStatus(status), nil
}

// IsAwaitingVisit reports whether the target is the pseudo-status.
func (t StatusTarget) IsAwaitingVisit() bool {
	return t.awaitingVisit
}

// Status returns the canonical status the target resolves to. The
// pseudo-status resolves to PREPARACAO.
func (t StatusTarget) Status() OrderStatus {
	if t.awaitingVisit {
		return OrderStatusPreparacao
	}
	return t.status
}

func (t StatusTarget) String() string {
	if t.awaitingVisit {
		return AwaitingVisit
	}
	return string(t.status)
}

// DisplayState is the read-side projection of status + visit flag.
type DisplayState struct {
	Status        OrderStatus
	AwaitingVisit bool
}

// DisplayStateOf projects the persisted fields. The flag only counts while
// the order is in PREPARACAO.
func DisplayStateOf(status OrderStatus, visitAwaiting bool) DisplayState {
	return DisplayState{Status: status, AwaitingVisit: visitAwaiting && status == OrderStatusPreparacao}
}

func (d DisplayState) String() string {
	if d.AwaitingVisit {
		return AwaitingVisit
	}
	return string(d.Status)
}

// DisplayStates lists every value a caller can filter or group by.
func DisplayStates() []string {
	out := []string{AwaitingVisit}
	for _, status := range orderStatusSequence {
		out = append(out, string(status))
	}
	return out
}
