package enums

import "testing"

func TestEveryNonTerminalStatusAllowsItsSuccessor(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusPreparacao, OrderStatusProducao, OrderStatusExpedicao} {
		next, ok := status.Next()
		if !ok {
			t.Fatalf("%s should have a next status", status)
		}
		if !status.CanTransitionTo(next) {
			t.Fatalf("%s -> %s should be allowed", status, next)
		}
	}
}

func TestTerminalStatusAllowsNothing(t *testing.T) {
	if !OrderStatusEntregue.IsTerminal() {
		t.Fatal("ENTREGUE must be terminal")
	}
	if _, ok := OrderStatusEntregue.Next(); ok {
		t.Fatal("ENTREGUE has no next status")
	}
	for _, to := range OrderStatuses() {
		if OrderStatusEntregue.CanTransitionTo(to) {
			t.Fatalf("ENTREGUE -> %s must be rejected", to)
		}
	}
}

func TestNonAdjacentTransitionsRejected(t *testing.T) {
	for _, from := range OrderStatuses() {
		next, _ := from.Next()
		for _, to := range OrderStatuses() {
			if to == next {
				continue
			}
			if from.CanTransitionTo(to) {
				t.Fatalf("%s -> %s should be rejected", from, to)
			}
		}
	}
}

func TestParseStatusTarget(t *testing.T) {
	target, err := ParseStatusTarget("aguarda_visita")
	if err != nil {
		t.Fatalf("parse pseudo status: %v", err)
	}
	if !target.IsAwaitingVisit() || target.Status() != OrderStatusPreparacao {
		t.Fatalf("pseudo status should resolve to PREPARACAO, got %+v", target)
	}
	if target.String() != AwaitingVisit {
		t.Fatalf("unexpected string %q", target.String())
	}

	target, err = ParseStatusTarget("EXPEDICAO")
	if err != nil || target.IsAwaitingVisit() || target.Status() != OrderStatusExpedicao {
		t.Fatalf("unexpected target %+v err=%v", target, err)
	}

	if _, err := ParseStatusTarget("CANCELADO"); err == nil {
		t.Fatal("expected unknown target to fail")
	}
}

func TestDisplayStateProjection(t *testing.T) {
	if got := DisplayStateOf(OrderStatusPreparacao, true).String(); got != AwaitingVisit {
		t.Fatalf("expected AGUARDA_VISITA, got %s", got)
	}
	if got := DisplayStateOf(OrderStatusProducao, true).String(); got != "PRODUCAO" {
		t.Fatalf("flag outside PREPARACAO must be ignored, got %s", got)
	}
	if got := DisplayStateOf(OrderStatusPreparacao, false).String(); got != "PREPARACAO" {
		t.Fatalf("unexpected display %s", got)
	}
	if len(DisplayStates()) != 5 {
		t.Fatalf("expected 5 display states")
	}
}

func TestSendBudgetJobStatusActive(t *testing.T) {
	for _, status := range ActiveSendBudgetJobStatuses() {
		if !status.IsActive() {
			t.Fatalf("%s should be active", status)
		}
	}
	if SendBudgetJobSucceeded.IsActive() || SendBudgetJobFailed.IsActive() {
		t.Fatal("terminal statuses are not active")
	}
	if _, err := ParseSendBudgetJobStatus("DONE"); err == nil {
		t.Fatal("expected invalid status error")
	}
}
