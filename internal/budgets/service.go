package budgets

import (
	"context"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/vidrobox-backend/internal/customers"
	"github.com/angelmondragon/vidrobox-backend/internal/notifications"
	"github.com/angelmondragon/vidrobox-backend/internal/orders"
	"github.com/angelmondragon/vidrobox-backend/pkg/db"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/angelmondragon/vidrobox-backend/pkg/fetch"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/angelmondragon/vidrobox-backend/pkg/metrics"
	"github.com/angelmondragon/vidrobox-backend/pkg/money"
	"github.com/angelmondragon/vidrobox-backend/pkg/pagination"
	"github.com/angelmondragon/vidrobox-backend/pkg/pdf"
	"github.com/angelmondragon/vidrobox-backend/pkg/storage"
	"github.com/angelmondragon/vidrobox-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	reasonBudgetNotFound  = "Orçamento não encontrado"
	reasonBudgetConfirmed = "Orçamento já confirmado"
	reasonMissingEmail    = "Orçamento sem e-mail do cliente"
	maxPhotos             = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier sends the quote email.
type Notifier interface {
	Notify(ctx context.Context, n notifications.Notice) error
}

type customerUpserter interface {
	Upsert(ctx context.Context, tx *gorm.DB, contact customers.Contact) (*models.Customer, error)
}

type orderCreator interface {
	CreateWithTx(ctx context.Context, tx *gorm.DB, input orders.CreateInput) (*models.Order, error)
	NotifyCreated(ctx context.Context, order *models.Order)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type pdfRenderer interface {
	Render(doc pdf.BudgetDocument) ([]byte, int, error)
}

// Service manages quote requests and turns them into sent quotes and orders.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.Budget, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Budget, error)
	List(ctx context.Context, params ListParams) (*BudgetList, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Budget, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	ListTrash(ctx context.Context, params pagination.Params) (*BudgetList, error)
	PublicView(ctx context.Context, token string) (*PublicView, error)

	Convert(ctx context.Context, id uuid.UUID) (*ConvertResult, error)
	ConvertAsync(ctx context.Context, id uuid.UUID, idempotencyKey string) (*JobView, error)
	Job(ctx context.Context, jobID uuid.UUID) (*JobView, error)
	Wait()

	Confirm(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.Order, error)
	ConfirmByToken(ctx context.Context, token string) (*models.Order, error)
}

// ServiceParams bundles the dependencies of the budgets service.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Customers customerUpserter
	Orders    orderCreator
	Renderer  pdfRenderer
	Uploader  storage.Uploader
	Fetcher   fetch.Getter
	Notifier  Notifier
	Metrics   *metrics.BudgetMetrics
	Logger    *logger.Logger
	KeyPrefix string
}

type service struct {
	repo      Repository
	tx        txRunner
	customers customerUpserter
	orders    orderCreator
	renderer  pdfRenderer
	uploader  storage.Uploader
	fetcher   fetch.Getter
	notifier  Notifier
	metrics   *metrics.BudgetMetrics
	logg      *logger.Logger
	keyPrefix string
	now       func() time.Time
	jobs      sync.WaitGroup
}

// NewService validates params and builds the service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("budgets repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Customers == nil:
		return nil, fmt.Errorf("customer upserter required")
	case params.Orders == nil:
		return nil, fmt.Errorf("order creator required")
	case params.Renderer == nil:
		return nil, fmt.Errorf("pdf renderer required")
	case params.Uploader == nil:
		return nil, fmt.Errorf("uploader required")
	case params.Fetcher == nil:
		return nil, fmt.Errorf("fetcher required")
	case params.Notifier == nil:
		return nil, fmt.Errorf("notifier required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		customers: params.Customers,
		orders:    params.Orders,
		renderer:  params.Renderer,
		uploader:  params.Uploader,
		fetcher:   params.Fetcher,
		notifier:  params.Notifier,
		metrics:   params.Metrics,
		logg:      params.Logger,
		keyPrefix: params.KeyPrefix,
		now:       time.Now,
	}, nil
}

func notFound() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeNotFound, reasonBudgetNotFound)
}

func (s *service) load(ctx context.Context, r Repository, id uuid.UUID) (*models.Budget, error) {
	budget, err := r.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, notFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load budget")
	}
	return budget, nil
}

// Request stores a new quote request. Prices are filled in later by staff.
func (s *service) Request(ctx context.Context, input RequestInput) (*models.Budget, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	email, err := validEmail(input.Email)
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(input.Model)
	if model == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model is required")
	}
	if err := validDimensions(input.WidthMM, input.HeightMM); err != nil {
		return nil, err
	}
	photos, err := validPhotoURLs(input.PhotoURLs)
	if err != nil {
		return nil, err
	}
	qty := input.Quantity
	if qty <= 0 {
		qty = 1
	}

	budget := &models.Budget{
		Name:       name,
		Email:      &email,
		Phone:      trimmed(input.Phone),
		Address:    trimmed(input.Address),
		City:       trimmed(input.City),
		Model:      model,
		GlassType:  trimmed(input.GlassType),
		GlassColor: trimmed(input.GlassColor),
		Finish:     trimmed(input.Finish),
		WidthMM:    input.WidthMM,
		HeightMM:   input.HeightMM,
		Quantity:   qty,
		Notes:      trimmed(input.Notes),
		Files:      datatypes.JSONSlice[types.FileEntry]{},
		PhotoURLs:  datatypes.JSONSlice[string](photos),
	}
	if err := s.repo.Create(ctx, budget); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create budget")
	}
	s.logg.Info(s.logg.WithBudgetID(ctx, budget.ID.String()), "budget requested")
	return budget, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Budget, error) {
	return s.load(ctx, s.repo, id)
}

func (s *service) List(ctx context.Context, params ListParams) (*BudgetList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(params.Limit), params.Query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list budgets")
	}
	return buildList(rows, params.Limit), nil
}

func buildList(rows []models.Budget, limit int) *BudgetList {
	page := pagination.Build(rows, limit, func(b models.Budget) pagination.Cursor {
		return pagination.Cursor{CreatedAt: b.CreatedAt, ID: b.ID}
	})
	list := &BudgetList{Items: make([]BudgetSummary, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, b := range page.Items {
		list.Items = append(list.Items, BudgetSummary{
			ID:         b.ID,
			Reference:  notifications.BudgetReference(b.ID.String()),
			Name:       b.Name,
			Email:      b.Email,
			Model:      b.Model,
			TotalCents: b.TotalCents,
			Total:      money.FormatBRL(b.TotalCents),
			SentAt:     b.SentAt,
			OrderID:    b.OrderID,
			CreatedAt:  b.CreatedAt,
		})
	}
	return list
}

// Update edits contact, product and price fields and recomputes the total.
// Confirmed budgets are frozen.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Budget, error) {
	budget, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if budget.OrderID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, reasonBudgetConfirmed)
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		updates["name"] = name
	}
	if input.Email != nil {
		email, err := validEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		updates["email"] = email
	}
	if input.Model != nil {
		model := strings.TrimSpace(*input.Model)
		if model == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "model cannot be blank")
		}
		updates["model"] = model
	}
	for column, value := range map[string]*string{
		"phone":       input.Phone,
		"address":     input.Address,
		"city":        input.City,
		"glass_type":  input.GlassType,
		"glass_color": input.GlassColor,
		"finish":      input.Finish,
		"notes":       input.Notes,
	} {
		if value != nil {
			updates[column] = trimmed(value)
		}
	}
	if input.InvoiceURL != nil {
		invoice := strings.TrimSpace(*input.InvoiceURL)
		if invoice == "" {
			updates["invoice_url"] = nil
		} else {
			if !isHTTPURL(invoice) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice_url must be an http(s) URL")
			}
			updates["invoice_url"] = invoice
		}
	}
	if input.PhotoURLs != nil {
		photos, err := validPhotoURLs(input.PhotoURLs)
		if err != nil {
			return nil, err
		}
		updates["photo_urls"] = datatypes.JSONSlice[string](photos)
	}

	width, height := budget.WidthMM, budget.HeightMM
	if input.WidthMM != nil {
		width = input.WidthMM
		updates["width_mm"] = *input.WidthMM
	}
	if input.HeightMM != nil {
		height = input.HeightMM
		updates["height_mm"] = *input.HeightMM
	}
	if err := validDimensions(width, height); err != nil {
		return nil, err
	}
	if input.Quantity != nil {
		if *input.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		updates["quantity"] = *input.Quantity
	}

	product, installation, discount := budget.ProductCents, budget.InstallationCents, budget.DiscountCents
	if input.ProductCents != nil {
		product = *input.ProductCents
	}
	if input.InstallationCents != nil {
		installation = *input.InstallationCents
	}
	if input.DiscountCents != nil {
		discount = *input.DiscountCents
	}
	if product < 0 || installation < 0 || discount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amounts cannot be negative")
	}
	total := product + installation - discount
	if total < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds the budget amount")
	}
	updates["product_cents"] = product
	updates["installation_cents"] = installation
	updates["discount_cents"] = discount
	updates["total_cents"] = total

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if db.IsNotFound(err) {
			return nil, notFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update budget")
	}
	return s.load(ctx, s.repo, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return notFound()
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete budget")
	}
	return nil
}

func (s *service) Restore(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Restore(ctx, id); err != nil {
		if db.IsNotFound(err) {
			return notFound()
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore budget")
	}
	return nil
}

func (s *service) ListTrash(ctx context.Context, params pagination.Params) (*BudgetList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListDeleted(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list deleted budgets")
	}
	return buildList(rows, params.Limit), nil
}

func (s *service) loadByToken(ctx context.Context, token string) (*models.Budget, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, notFound()
	}
	budget, err := s.repo.FindByPublicToken(ctx, token)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, notFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load budget by token")
	}
	return budget, nil
}

func (s *service) PublicView(ctx context.Context, token string) (*PublicView, error) {
	budget, err := s.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	files := []types.FileEntry(budget.Files)
	if files == nil {
		files = []types.FileEntry{}
	}
	return &PublicView{
		Reference:  notifications.BudgetReference(budget.ID.String()),
		Name:       budget.Name,
		Model:      budget.Model,
		GlassType:  budget.GlassType,
		GlassColor: budget.GlassColor,
		Finish:     budget.Finish,
		WidthMM:    budget.WidthMM,
		HeightMM:   budget.HeightMM,
		Quantity:   budget.Quantity,
		Total:      money.FormatBRL(budget.TotalCents),
		PDFURL:     budget.PDFURL,
		Files:      files,
		SentAt:     budget.SentAt,
		Confirmed:  budget.OrderID != nil,
	}, nil
}

func (s *service) Wait() {
	s.jobs.Wait()
}

func validEmail(raw string) (string, error) {
	email := customers.NormalizeEmail(raw)
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "invalid email %q", raw)
	}
	return email, nil
}

func validDimensions(width, height *int) error {
	if (width != nil && *width <= 0) || (height != nil && *height <= 0) {
		return pkgerrors.New(pkgerrors.CodeValidation, "dimensions must be positive millimetres")
	}
	return nil
}

func validPhotoURLs(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if !isHTTPURL(u) {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid photo URL %q", u)
		}
		out = append(out, u)
	}
	if len(out) > maxPhotos {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "at most %d photos are allowed", maxPhotos)
	}
	return out, nil
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
