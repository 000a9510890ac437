package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/email"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
)

// ErrEmailDisabled is returned when no email provider is configured.
var ErrEmailDisabled = errors.New("email delivery disabled")

// ErrNoRecipient is returned when the notice has nobody to send to.
var ErrNoRecipient = errors.New("notification has no recipient")

// Config carries presentation settings for outgoing emails.
type Config struct {
	CompanyName   string
	PublicBaseURL string
	AdminAddress  string
	ReviewURL     string
	Location      *time.Location
}

// Dispatcher renders notices and hands them to the email provider.
type Dispatcher struct {
	sender   email.Sender
	cfg      Config
	renderer *renderer
	logg     *logger.Logger
}

// NewDispatcher builds a dispatcher. A nil sender disables delivery: every
// Notify call then returns ErrEmailDisabled.
func NewDispatcher(sender email.Sender, cfg Config, logg *logger.Logger) (*Dispatcher, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	r, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &Dispatcher{sender: sender, cfg: cfg, renderer: r, logg: logg}, nil
}

// Render builds subject and body without sending.
func (d *Dispatcher) Render(n Notice) (Rendered, error) {
	if !n.Kind.IsValid() {
		return Rendered{}, fmt.Errorf("unknown notification kind %q", n.Kind)
	}
	return d.renderer.render(n.Kind, d.buildData(n))
}

// Notify renders and sends one notice. Callers decide whether a failure
// matters; order flows log and move on.
func (d *Dispatcher) Notify(ctx context.Context, n Notice) error {
	to := d.recipient(n)
	if to == "" {
		return ErrNoRecipient
	}
	rendered, err := d.Render(n)
	if err != nil {
		return err
	}
	if d.sender == nil {
		return ErrEmailDisabled
	}

	id, err := d.sender.Send(ctx, email.Message{
		To:          []string{to},
		Subject:     rendered.Subject,
		HTML:        rendered.HTML,
		Attachments: n.Attachments,
	})
	if err != nil {
		return err
	}

	fields := map[string]any{"kind": string(n.Kind), "email_id": id}
	if n.Order != nil {
		fields["order_id"] = n.Order.ID.String()
	}
	if n.Budget != nil {
		fields["budget_id"] = n.Budget.ID.String()
	}
	d.logg.Info(d.logg.WithFields(ctx, fields), "notification sent")
	return nil
}

func (d *Dispatcher) recipient(n Notice) string {
	switch n.Kind {
	case enums.NotificationClientMessage:
		return strings.TrimSpace(d.cfg.AdminAddress)
	case enums.NotificationBudgetSent:
		if n.Budget != nil && n.Budget.Email != nil {
			return strings.TrimSpace(*n.Budget.Email)
		}
		return ""
	}
	if n.Order != nil && n.Order.Customer != nil {
		return strings.TrimSpace(n.Order.Customer.Email)
	}
	return ""
}
