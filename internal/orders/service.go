package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/vidrobox-backend/internal/customers"
	"github.com/angelmondragon/vidrobox-backend/internal/notifications"
	"github.com/angelmondragon/vidrobox-backend/pkg/db"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/angelmondragon/vidrobox-backend/pkg/pagination"
	"github.com/angelmondragon/vidrobox-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	noteOrderCreated = "Pedido criado"
	maxMessageLength = 4000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier sends one notice. Failures are reported, never retried.
type Notifier interface {
	Notify(ctx context.Context, n notifications.Notice) error
}

type customerResolver interface {
	Upsert(ctx context.Context, tx *gorm.DB, contact customers.Contact) (*models.Customer, error)
	GetWithTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Customer, error)
}

// Service covers the order lifecycle, staff edits and the public status page.
type Service interface {
	Execute(ctx context.Context, orderID uuid.UUID, target enums.StatusTarget, opts TransitionOptions) (*TransitionResult, error)
	ExecuteBulk(ctx context.Context, orderIDs []uuid.UUID, target enums.StatusTarget, opts TransitionOptions) (*BulkResult, error)
	AdvanceBulk(ctx context.Context, orderIDs []uuid.UUID, opts TransitionOptions) (*BulkResult, error)

	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	CreateWithTx(ctx context.Context, tx *gorm.DB, input CreateInput) (*models.Order, error)
	NotifyCreated(ctx context.Context, order *models.Order)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params ListParams) (*OrderList, error)
	Summary(ctx context.Context) (map[string]int64, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	ListTrash(ctx context.Context, params pagination.Params) (*OrderList, error)
	PostAdminMessage(ctx context.Context, orderID, adminID uuid.UUID, body string) (*models.OrderMessage, error)

	PublicView(ctx context.Context, token string) (*PublicView, error)
	PostClientMessage(ctx context.Context, token, body string) (*models.OrderMessage, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	customers customerResolver
	notifier  Notifier
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, customers customerResolver, notifier Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer resolver required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		customers: customers,
		notifier:  notifier,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// CodeFor derives the human order code from its id.
func CodeFor(id uuid.UUID) string {
	return "PED-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

func notFound() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeNotFound, ReasonOrderNotFound)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.CreateWithTx(ctx, tx, input)
		order = created
		return err
	})
	if err != nil {
		return nil, err
	}
	s.NotifyCreated(ctx, order)
	return order, nil
}

// CreateWithTx inserts the order, its items and the opening event inside tx.
// Callers notify with NotifyCreated once tx commits.
func (s *service) CreateWithTx(ctx context.Context, tx *gorm.DB, input CreateInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	var (
		customer *models.Customer
		err      error
	)
	switch {
	case input.CustomerID != nil:
		customer, err = s.customers.GetWithTx(ctx, tx, *input.CustomerID)
	case input.Customer != nil:
		customer, err = s.customers.Upsert(ctx, tx, *input.Customer)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id or customer is required")
	}
	if err != nil {
		return nil, err
	}

	token, err := security.NewPublicToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate public token")
	}

	id := uuid.New()
	order := &models.Order{
		ID:            id,
		Code:          CodeFor(id),
		CustomerID:    customer.ID,
		BudgetID:      input.BudgetID,
		Status:        enums.OrderStatusPreparacao,
		VisitAwaiting: input.AwaitingVisit || input.VisitAt != nil,
		VisitAt:       input.VisitAt,
		PublicToken:   token,
		Notes:         input.Notes,
	}
	for _, item := range input.Items {
		if strings.TrimSpace(item.Description) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item description is required")
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		order.Items = append(order.Items, models.OrderItem{
			Description:    strings.TrimSpace(item.Description),
			Model:          item.Model,
			GlassType:      item.GlassType,
			GlassColor:     item.GlassColor,
			Finish:         item.Finish,
			WidthMM:        item.WidthMM,
			HeightMM:       item.HeightMM,
			Quantity:       qty,
			UnitPriceCents: item.UnitPriceCents,
		})
	}

	r := s.repo.WithTx(tx)
	if err := r.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	note := noteOrderCreated
	switch {
	case input.VisitAt != nil:
		note += ". " + NoteVisitScheduled
	case input.AwaitingVisit:
		note += ". " + NoteVisitAwaiting
	}
	event := &models.StatusEvent{
		OrderID: order.ID,
		From:    enums.OrderStatusPreparacao,
		To:      enums.OrderStatusPreparacao,
		At:      s.now(),
		ActorID: input.ActorID,
		Note:    &note,
	}
	if err := r.CreateEvent(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order event")
	}

	order.Customer = customer
	return order, nil
}

func (s *service) NotifyCreated(ctx context.Context, order *models.Order) {
	if order == nil {
		return
	}
	s.notify(ctx, notifications.OrderCreated(order))
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, notFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*OrderList, error) {
	filters := params.Filters
	if filters.DisplayStatus != "" {
		state := strings.ToUpper(strings.TrimSpace(filters.DisplayStatus))
		if _, err := enums.ParseStatusTarget(state); err != nil {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status filter %q", filters.DisplayStatus)
		}
		filters.DisplayStatus = state
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(params.Limit), filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return buildList(rows, params.Limit), nil
}

func buildList(rows []models.Order, limit int) *OrderList {
	page := pagination.Build(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	list := &OrderList{Items: make([]OrderSummary, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, o := range page.Items {
		list.Items = append(list.Items, toSummary(o))
	}
	return list
}

// Summary counts live orders per display state. Every state is present.
func (s *service) Summary(ctx context.Context) (map[string]int64, error) {
	rows, err := s.repo.CountByState(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
	}
	out := make(map[string]int64, len(enums.DisplayStates()))
	for _, state := range enums.DisplayStates() {
		out[state] = 0
	}
	for _, row := range rows {
		out[enums.DisplayStateOf(row.Status, row.VisitAwaiting).String()] += row.Total
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Order, error) {
	updates := map[string]any{}
	if input.TrackingCode != nil {
		if code := strings.TrimSpace(*input.TrackingCode); code == "" {
			updates["tracking_code"] = nil
		} else {
			updates["tracking_code"] = code
		}
	}
	if input.Notes != nil {
		updates["notes"] = strings.TrimSpace(*input.Notes)
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			if db.IsNotFound(err) {
				return nil, notFound()
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order")
		}
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return notFound()
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
	}
	return nil
}

func (s *service) Restore(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Restore(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return notFound()
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore order")
	}
	return nil
}

func (s *service) ListTrash(ctx context.Context, params pagination.Params) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListDeleted(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list deleted orders")
	}
	return buildList(rows, params.Limit), nil
}

func cleanMessage(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}
	if len([]rune(body)) > maxMessageLength {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "message must be at most %d characters", maxMessageLength)
	}
	return body, nil
}

// PostAdminMessage stores a staff message and emails the customer.
func (s *service) PostAdminMessage(ctx context.Context, orderID, adminID uuid.UUID, body string) (*models.OrderMessage, error) {
	body, err := cleanMessage(body)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, notFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	msg := &models.OrderMessage{OrderID: order.ID, Author: enums.MessageAuthorAdmin, Body: body}
	if adminID != uuid.Nil {
		msg.AdminID = &adminID
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create message")
	}
	s.notify(ctx, notifications.AdminMessage(order, body))
	return msg, nil
}

func (s *service) loadByToken(ctx context.Context, token string) (*models.Order, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, notFound()
	}
	order, err := s.repo.FindByPublicToken(ctx, token)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, notFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order by token")
	}
	return order, nil
}

func (s *service) PublicView(ctx context.Context, token string) (*PublicView, error) {
	ref, err := s.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	order, err := s.Get(ctx, ref.ID)
	if err != nil {
		return nil, err
	}

	view := &PublicView{
		Code:         order.Code,
		Status:       order.DisplayState().String(),
		StatusLabel:  notifications.StatusLabel(order.Status),
		VisitAt:      order.VisitAt,
		ETA:          order.ETA,
		TrackingCode: order.TrackingCode,
		Events:       make([]PublicEvent, 0, len(order.Events)),
		Messages:     make([]PublicMessage, 0, len(order.Messages)),
		CreatedAt:    order.CreatedAt,
	}
	if order.DisplayState().AwaitingVisit {
		view.StatusLabel = NoteVisitAwaiting
	}
	if order.Customer != nil {
		view.CustomerName = order.Customer.Name
	}
	if item := order.FirstItem(); item != nil {
		view.Product = item.Description
	}
	for _, e := range order.Events {
		view.Events = append(view.Events, PublicEvent{From: e.From, To: e.To, At: e.At, Note: e.Note})
	}
	for _, m := range order.Messages {
		view.Messages = append(view.Messages, PublicMessage{Author: m.Author, Body: m.Body, CreatedAt: m.CreatedAt})
	}
	return view, nil
}

// PostClientMessage stores a customer message and alerts staff.
func (s *service) PostClientMessage(ctx context.Context, token, body string) (*models.OrderMessage, error) {
	body, err := cleanMessage(body)
	if err != nil {
		return nil, err
	}
	ref, err := s.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, ref.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	msg := &models.OrderMessage{OrderID: order.ID, Author: enums.MessageAuthorClient, Body: body}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create message")
	}
	s.notify(ctx, notifications.ClientMessage(order, body))
	return msg, nil
}

// notify sends best-effort: failures are logged and swallowed.
func (s *service) notify(ctx context.Context, n notifications.Notice) {
	fields := map[string]any{"kind": string(n.Kind)}
	if n.Order != nil {
		fields["order_id"] = n.Order.ID.String()
	}
	ctx = s.logg.WithFields(ctx, fields)

	err := s.notifier.Notify(ctx, n)
	switch {
	case err == nil:
	case errors.Is(err, notifications.ErrEmailDisabled):
		s.logg.Debug(ctx, "notification skipped: email disabled")
	default:
		s.logg.WarnErr(ctx, "notification failed", err)
	}
}
