package customers

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/angelmondragon/vidrobox-backend/pkg/db"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/angelmondragon/vidrobox-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is the set of fields copied onto a customer record.
type Contact struct {
	Name     string
	Email    string
	Phone    *string
	Document *string
	Address  *string
	City     *string
}

// ListParams configures the customer listing.
type ListParams struct {
	Limit  int
	Cursor string
	Query  string
}

// Service manages customers. Upsert is shared by budget conversion, budget
// confirmation and manual order creation.
type Service interface {
	Upsert(ctx context.Context, tx *gorm.DB, contact Contact) (*models.Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	GetWithTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, params ListParams) (*pagination.Page[models.Customer], error)
	Update(ctx context.Context, id uuid.UUID, contact Contact) (*models.Customer, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	return &service{repo: repo}, nil
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Upsert finds the customer by email and refreshes the supplied contact
// fields, or creates it. Empty fields never overwrite stored values.
func (s *service) Upsert(ctx context.Context, tx *gorm.DB, contact Contact) (*models.Customer, error) {
	email := NormalizeEmail(contact.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid customer email %q", contact.Email)
	}
	name := strings.TrimSpace(contact.Name)
	if name == "" {
		name = email
	}

	r := s.repo.WithTx(tx)
	candidate := &models.Customer{
		Name:     name,
		Email:    email,
		Phone:    trimmed(contact.Phone),
		Document: trimmed(contact.Document),
		Address:  trimmed(contact.Address),
		City:     trimmed(contact.City),
	}
	inserted, err := r.InsertIfAbsent(ctx, candidate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert customer")
	}
	if inserted {
		return candidate, nil
	}

	existing, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer by email")
	}
	updates := contactUpdates(Contact{Name: strings.TrimSpace(contact.Name), Phone: contact.Phone, Document: contact.Document, Address: contact.Address, City: contact.City})
	if len(updates) == 0 {
		return existing, nil
	}
	if err := r.Update(ctx, existing.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update customer")
	}
	return r.FindByID(ctx, existing.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return s.GetWithTx(ctx, nil, id)
}

func (s *service) GetWithTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.WithTx(tx).FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cliente não encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer")
	}
	return customer, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*pagination.Page[models.Customer], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(params.Limit), params.Query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customers")
	}
	page := pagination.Build(rows, params.Limit, func(c models.Customer) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	return &page, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, contact Contact) (*models.Customer, error) {
	updates := contactUpdates(contact)
	if email := NormalizeEmail(contact.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid customer email %q", contact.Email)
		}
		updates["email"] = email
	}
	if len(updates) == 0 {
		return s.Get(ctx, id)
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		switch {
		case db.IsNotFound(err):
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cliente não encontrado")
		case db.IsUniqueViolation(err, "uq_customers_email"):
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Já existe um cliente com este e-mail")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update customer")
	}
	return s.Get(ctx, id)
}

func contactUpdates(contact Contact) map[string]any {
	updates := map[string]any{}
	if name := strings.TrimSpace(contact.Name); name != "" {
		updates["name"] = name
	}
	for column, value := range map[string]*string{
		"phone":    contact.Phone,
		"document": contact.Document,
		"address":  contact.Address,
		"city":     contact.City,
	} {
		if v := trimmed(value); v != nil {
			updates[column] = *v
		}
	}
	return updates
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
