package enums

import (
	"fmt"
	"strings"
)

// OrderStatus is the canonical, persisted lifecycle stage of an order.
type OrderStatus string

const (
	OrderStatusPreparacao OrderStatus = "PREPARACAO"
	OrderStatusProducao   OrderStatus = "PRODUCAO"
	OrderStatusExpedicao  OrderStatus = "EXPEDICAO"
	OrderStatusEntregue   OrderStatus = "ENTREGUE"
)

// orderStatusSequence is the forward order of the lifecycle.
var orderStatusSequence = []OrderStatus{
	OrderStatusPreparacao,
	OrderStatusProducao,
	OrderStatusExpedicao,
	OrderStatusEntregue,
}

// allowedNext maps each status to the targets it may move to. Only the
// immediate successor is allowed; ENTREGUE is terminal.
var allowedNext = map[OrderStatus][]OrderStatus{
	OrderStatusPreparacao: {OrderStatusProducao},
	OrderStatusProducao:   {OrderStatusExpedicao},
	OrderStatusExpedicao:  {OrderStatusEntregue},
	OrderStatusEntregue:   {},
}

// OrderStatuses returns the canonical statuses in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatusSequence))
	copy(out, orderStatusSequence)
	return out
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	_, ok := allowedNext[s]
	return ok
}

// IsTerminal reports whether no further transition exists.
func (s OrderStatus) IsTerminal() bool {
	return s.IsValid() && len(allowedNext[s]) == 0
}

// Next returns the immediate successor, or false for the terminal status.
func (s OrderStatus) Next() (OrderStatus, bool) {
	next := allowedNext[s]
	if len(next) == 0 {
		return "", false
	}
	return next[0], true
}

// CanTransitionTo reports whether to is listed as an allowed next status of s.
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, candidate := range allowedNext[s] {
		if candidate == to {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	candidate := OrderStatus(strings.ToUpper(strings.TrimSpace(value)))
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
