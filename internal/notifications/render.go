package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	"github.com/angelmondragon/vidrobox-backend/pkg/money"
)

//go:embed templates/*.html
var templateFS embed.FS

var subjects = map[enums.NotificationKind]string{
	enums.NotificationOrderCreated:   "Recebemos seu pedido %s",
	enums.NotificationStatusChanged:  "Pedido %s: %s",
	enums.NotificationVisitScheduled: "Pedido %s: visita técnica agendada",
	enums.NotificationVisitAwaiting:  "Pedido %s: aguardando visita técnica",
	enums.NotificationVisitConcluded: "Pedido %s: visita técnica concluída",
	enums.NotificationAdminMessage:   "Nova mensagem sobre o pedido %s",
	enums.NotificationClientMessage:  "Mensagem do cliente no pedido %s",
	enums.NotificationBudgetSent:     "Seu orçamento %s",
}

var statusLabels = map[enums.OrderStatus]string{
	enums.OrderStatusPreparacao: "Em preparação",
	enums.OrderStatusProducao:   "Em produção",
	enums.OrderStatusExpedicao:  "Em expedição",
	enums.OrderStatusEntregue:   "Entregue",
}

// StatusLabel is the customer facing name of a status.
func StatusLabel(status enums.OrderStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}

type templateData struct {
	CompanyName  string
	CustomerName string
	OrderCode    string
	StatusLabel  string
	ETA          string
	TrackingCode string
	VisitAt      string
	Message      string
	StatusURL    string
	ReviewURL    string
	ShowReview   bool
	ProductName  string
	BudgetRef    string
	BudgetTotal  string
	BudgetURL    string
}

// Rendered is a ready-to-send email body.
type Rendered struct {
	Subject string
	HTML    string
}

type renderer struct {
	templates map[enums.NotificationKind]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{templates: make(map[enums.NotificationKind]*template.Template)}
	for _, kind := range enums.NotificationKinds() {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+string(kind)+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		r.templates[kind] = tmpl
	}
	return r, nil
}

func (r *renderer) render(kind enums.NotificationKind, data templateData) (Rendered, error) {
	tmpl, ok := r.templates[kind]
	if !ok {
		return Rendered{}, fmt.Errorf("no template for %q", kind)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return Rendered{}, fmt.Errorf("render %s: %w", kind, err)
	}

	var subject string
	switch kind {
	case enums.NotificationStatusChanged:
		subject = fmt.Sprintf(subjects[kind], data.OrderCode, data.StatusLabel)
	case enums.NotificationBudgetSent:
		subject = fmt.Sprintf(subjects[kind], data.BudgetRef)
	default:
		subject = fmt.Sprintf(subjects[kind], data.OrderCode)
	}
	return Rendered{Subject: subject, HTML: buf.String()}, nil
}

func (d *Dispatcher) buildData(n Notice) templateData {
	data := templateData{
		CompanyName: d.cfg.CompanyName,
		Message:     strings.TrimSpace(n.Message),
		ReviewURL:   d.cfg.ReviewURL,
	}
	if o := n.Order; o != nil {
		data.OrderCode = o.Code
		data.StatusURL = d.publicURL("pedido", o.PublicToken)
		if o.Customer != nil {
			data.CustomerName = o.Customer.Name
		}
		if item := o.FirstItem(); item != nil {
			data.ProductName = item.Description
		}
	}
	if n.Status != "" {
		data.StatusLabel = StatusLabel(n.Status)
		data.ShowReview = n.Status == enums.OrderStatusEntregue && d.cfg.ReviewURL != ""
	}
	data.ETA = d.formatDate(n.ETA, "02/01/2006")
	data.VisitAt = d.formatDate(n.VisitAt, "02/01/2006 às 15h04")
	if n.TrackingCode != nil {
		data.TrackingCode = strings.TrimSpace(*n.TrackingCode)
	}
	if b := n.Budget; b != nil {
		data.CustomerName = b.Name
		data.BudgetRef = BudgetReference(b.ID.String())
		data.BudgetTotal = money.FormatBRL(b.TotalCents)
		data.BudgetURL = n.BudgetURL
		if data.BudgetURL == "" && b.PublicToken != nil {
			data.BudgetURL = d.publicURL("orcamento", *b.PublicToken)
		}
		data.ProductName = b.Model
	}
	return data
}

func (d *Dispatcher) formatDate(t *time.Time, layout string) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(d.cfg.Location).Format(layout)
}

func (d *Dispatcher) publicURL(section, token string) string {
	if token == "" {
		return ""
	}
	return strings.TrimRight(d.cfg.PublicBaseURL, "/") + "/" + section + "/" + token
}

// BudgetReference is the short human reference printed on quotes.
func BudgetReference(id string) string {
	compact := strings.ReplaceAll(id, "-", "")
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return "ORC-" + strings.ToUpper(compact)
}
