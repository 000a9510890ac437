package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/email"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/google/uuid"
)

type recordingSender struct {
	sent []email.Message
	err  error
}

func (s *recordingSender) Send(ctx context.Context, msg email.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return "msg_1", nil
}

func testConfig() Config {
	return Config{
		CompanyName:   "Vidrobox",
		PublicBaseURL: "https://vidrobox.com.br/",
		AdminAddress:  "atendimento@vidrobox.com.br",
		ReviewURL:     "https://g.page/vidrobox/review",
		Location:      time.UTC,
	}
}

func testOrder(status enums.OrderStatus) *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		Code:        "PED-1A2B3C4D",
		Status:      status,
		PublicToken: "tok123",
		Customer:    &models.Customer{Name: "Maria", Email: "maria@example.com"},
		Items:       []models.OrderItem{{Description: "Box de correr 1,20m"}},
	}
}

func newTestDispatcher(t *testing.T, sender email.Sender) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(sender, testConfig(), logger.Nop())
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return d
}

func TestNotifyStatusChangedDelivered(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(t, sender)

	if err := d.Notify(context.Background(), StatusChanged(testOrder(enums.OrderStatusEntregue))); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To[0] != "maria@example.com" {
		t.Fatalf("unexpected recipient %v", msg.To)
	}
	if msg.Subject != "Pedido PED-1A2B3C4D: Entregue" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "https://g.page/vidrobox/review") {
		t.Fatalf("expected review call to action in %s", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "https://vidrobox.com.br/pedido/tok123") {
		t.Fatalf("expected status link in %s", msg.HTML)
	}
}

func TestNotifyStatusChangedShippingHasETAAndNoReview(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(t, sender)

	order := testOrder(enums.OrderStatusExpedicao)
	eta := time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)
	tracking := "BR123456789"
	order.ETA = &eta
	order.TrackingCode = &tracking

	if err := d.Notify(context.Background(), StatusChanged(order)); err != nil {
		t.Fatalf("notify: %v", err)
	}
	html := sender.sent[0].HTML
	for _, want := range []string{"02/04/2025", "BR123456789", "Em expedição"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in %s", want, html)
		}
	}
	if strings.Contains(html, "review") {
		t.Fatalf("review link only belongs to delivered orders")
	}
}

func TestNotifyClientMessageGoesToAdmin(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(t, sender)

	if err := d.Notify(context.Background(), ClientMessage(testOrder(enums.OrderStatusProducao), "Posso mudar a cor?")); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sender.sent[0].To[0] != "atendimento@vidrobox.com.br" {
		t.Fatalf("client message should reach staff, got %v", sender.sent[0].To)
	}
	if !strings.Contains(sender.sent[0].HTML, "Posso mudar a cor?") {
		t.Fatalf("message body missing")
	}
}

func TestNotifyWithoutSenderIsDisabled(t *testing.T) {
	d := newTestDispatcher(t, nil)
	err := d.Notify(context.Background(), VisitAwaiting(testOrder(enums.OrderStatusPreparacao)))
	if !errors.Is(err, ErrEmailDisabled) {
		t.Fatalf("expected ErrEmailDisabled, got %v", err)
	}
}

func TestNotifyWithoutRecipient(t *testing.T) {
	d := newTestDispatcher(t, &recordingSender{})
	order := testOrder(enums.OrderStatusPreparacao)
	order.Customer = nil
	if err := d.Notify(context.Background(), OrderCreated(order)); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
}

func TestNotifyPropagatesSenderFailure(t *testing.T) {
	d := newTestDispatcher(t, &recordingSender{err: errors.New("provider down")})
	if err := d.Notify(context.Background(), VisitConcluded(testOrder(enums.OrderStatusPreparacao))); err == nil {
		t.Fatal("expected sender failure")
	}
}

func TestRenderEveryKind(t *testing.T) {
	d := newTestDispatcher(t, nil)
	visitAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	budgetEmail := "joao@example.com"

	for _, kind := range enums.NotificationKinds() {
		n := Notice{Kind: kind, Order: testOrder(enums.OrderStatusPreparacao), Status: enums.OrderStatusPreparacao, VisitAt: &visitAt, Message: "oi"}
		if kind == enums.NotificationBudgetSent {
			n = Notice{Kind: kind, Budget: &models.Budget{ID: uuid.New(), Name: "João", Email: &budgetEmail, TotalCents: 123456}}
		}
		rendered, err := d.Render(n)
		if err != nil {
			t.Fatalf("render %s: %v", kind, err)
		}
		if rendered.Subject == "" || !strings.Contains(rendered.HTML, "Vidrobox") {
			t.Fatalf("render %s produced empty output", kind)
		}
	}
}

func TestRenderVisitScheduledFormatsDate(t *testing.T) {
	d := newTestDispatcher(t, nil)
	order := testOrder(enums.OrderStatusPreparacao)
	visitAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	order.VisitAt = &visitAt

	rendered, err := d.Render(VisitScheduled(order))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(rendered.HTML, "01/03/2025 às 10h00") {
		t.Fatalf("unexpected visit date in %s", rendered.HTML)
	}
}

func TestBudgetReference(t *testing.T) {
	if got := BudgetReference("1a2b3c4d-0000-0000-0000-000000000000"); got != "ORC-1A2B3C4D" {
		t.Fatalf("unexpected reference %q", got)
	}
}

func TestNotifyBudgetSentCarriesAttachmentsAndLink(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(t, sender)
	to := "joao@example.com"
	token := "orc-token"
	budget := &models.Budget{ID: uuid.New(), Name: "João", Email: &to, Model: "Box de canto", TotalCents: 250000, PublicToken: &token}
	attachments := []email.Attachment{{Filename: "orcamento.pdf", Content: []byte("%PDF"), ContentType: "application/pdf"}}

	if err := d.Notify(context.Background(), BudgetSent(budget, attachments)); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].To[0] != to {
		t.Fatalf("unexpected sends %+v", sender.sent)
	}
	msg := sender.sent[0]
	if len(msg.Attachments) != 1 {
		t.Fatalf("expected the pdf attachment")
	}
	if !strings.Contains(msg.HTML, "https://vidrobox.com.br/orcamento/orc-token") {
		t.Fatalf("missing public budget link in %s", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "R$ 2.500,00") {
		t.Fatalf("missing formatted total in %s", msg.HTML)
	}
}
