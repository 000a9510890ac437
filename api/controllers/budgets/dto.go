package budgets

import (
	"time"

	budgetsvc "github.com/angelmondragon/vidrobox-backend/internal/budgets"
	"github.com/angelmondragon/vidrobox-backend/internal/notifications"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	"github.com/angelmondragon/vidrobox-backend/pkg/money"
	"github.com/angelmondragon/vidrobox-backend/pkg/types"
	"github.com/google/uuid"
)

type quoteRequest struct {
	Name       string   `json:"name" validate:"required,notblank,max=200"`
	Email      string   `json:"email" validate:"required,email"`
	Phone      *string  `json:"phone" validate:"omitempty,max=40"`
	Address    *string  `json:"address" validate:"omitempty,max=300"`
	City       *string  `json:"city" validate:"omitempty,max=120"`
	Model      string   `json:"model" validate:"required,max=120"`
	GlassType  *string  `json:"glass_type" validate:"omitempty,max=80"`
	GlassColor *string  `json:"glass_color" validate:"omitempty,max=80"`
	Finish     *string  `json:"finish" validate:"omitempty,max=80"`
	WidthMM    *int     `json:"width_mm" validate:"omitempty,min=1"`
	HeightMM   *int     `json:"height_mm" validate:"omitempty,min=1"`
	Quantity   int      `json:"quantity" validate:"omitempty,min=1,max=100"`
	Notes      *string  `json:"notes" validate:"omitempty,max=2000"`
	PhotoURLs  []string `json:"photo_urls" validate:"omitempty,max=10,dive,url"`
}

func (q quoteRequest) toInput() budgetsvc.RequestInput {
	return budgetsvc.RequestInput{
		Name:       q.Name,
		Email:      q.Email,
		Phone:      q.Phone,
		Address:    q.Address,
		City:       q.City,
		Model:      q.Model,
		GlassType:  q.GlassType,
		GlassColor: q.GlassColor,
		Finish:     q.Finish,
		WidthMM:    q.WidthMM,
		HeightMM:   q.HeightMM,
		Quantity:   q.Quantity,
		Notes:      q.Notes,
		PhotoURLs:  q.PhotoURLs,
	}
}

type updateRequest struct {
	Name              *string  `json:"name" validate:"omitempty,max=200"`
	Email             *string  `json:"email" validate:"omitempty,email"`
	Phone             *string  `json:"phone" validate:"omitempty,max=40"`
	Address           *string  `json:"address" validate:"omitempty,max=300"`
	City              *string  `json:"city" validate:"omitempty,max=120"`
	Model             *string  `json:"model" validate:"omitempty,max=120"`
	GlassType         *string  `json:"glass_type" validate:"omitempty,max=80"`
	GlassColor        *string  `json:"glass_color" validate:"omitempty,max=80"`
	Finish            *string  `json:"finish" validate:"omitempty,max=80"`
	WidthMM           *int     `json:"width_mm" validate:"omitempty,min=1"`
	HeightMM          *int     `json:"height_mm" validate:"omitempty,min=1"`
	Quantity          *int     `json:"quantity" validate:"omitempty,min=1,max=100"`
	Notes             *string  `json:"notes" validate:"omitempty,max=2000"`
	ProductCents      *int64   `json:"product_cents" validate:"omitempty,min=0"`
	InstallationCents *int64   `json:"installation_cents" validate:"omitempty,min=0"`
	DiscountCents     *int64   `json:"discount_cents" validate:"omitempty,min=0"`
	InvoiceURL        *string  `json:"invoice_url" validate:"omitempty,url"`
	PhotoURLs         []string `json:"photo_urls" validate:"omitempty,max=10,dive,url"`
}

func (u updateRequest) toInput() budgetsvc.UpdateInput {
	return budgetsvc.UpdateInput{
		Name:              u.Name,
		Email:             u.Email,
		Phone:             u.Phone,
		Address:           u.Address,
		City:              u.City,
		Model:             u.Model,
		GlassType:         u.GlassType,
		GlassColor:        u.GlassColor,
		Finish:            u.Finish,
		WidthMM:           u.WidthMM,
		HeightMM:          u.HeightMM,
		Quantity:          u.Quantity,
		Notes:             u.Notes,
		ProductCents:      u.ProductCents,
		InstallationCents: u.InstallationCents,
		DiscountCents:     u.DiscountCents,
		InvoiceURL:        u.InvoiceURL,
		PhotoURLs:         u.PhotoURLs,
	}
}

// BudgetDetail is the admin view of a single budget.
type BudgetDetail struct {
	ID                uuid.UUID         `json:"id"`
	Reference         string            `json:"reference"`
	Name              string            `json:"name"`
	Email             *string           `json:"email,omitempty"`
	Phone             *string           `json:"phone,omitempty"`
	Address           *string           `json:"address,omitempty"`
	City              *string           `json:"city,omitempty"`
	Model             string            `json:"model"`
	GlassType         *string           `json:"glass_type,omitempty"`
	GlassColor        *string           `json:"glass_color,omitempty"`
	Finish            *string           `json:"finish,omitempty"`
	WidthMM           *int              `json:"width_mm,omitempty"`
	HeightMM          *int              `json:"height_mm,omitempty"`
	Quantity          int               `json:"quantity"`
	Notes             *string           `json:"notes,omitempty"`
	ProductCents      int64             `json:"product_cents"`
	InstallationCents int64             `json:"installation_cents"`
	DiscountCents     int64             `json:"discount_cents"`
	TotalCents        int64             `json:"total_cents"`
	Total             string            `json:"total"`
	PDFURL            *string           `json:"pdf_url,omitempty"`
	InvoiceURL        *string           `json:"invoice_url,omitempty"`
	Files             []types.FileEntry `json:"files"`
	PhotoURLs         []string          `json:"photo_urls"`
	PublicToken       *string           `json:"public_token,omitempty"`
	CustomerID        *uuid.UUID        `json:"customer_id,omitempty"`
	OrderID           *uuid.UUID        `json:"order_id,omitempty"`
	SentAt            *time.Time        `json:"sent_at,omitempty"`
	ConfirmedAt       *time.Time        `json:"confirmed_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func detailOf(b *models.Budget) BudgetDetail {
	return BudgetDetail{
		ID:                b.ID,
		Reference:         notifications.BudgetReference(b.ID.String()),
		Name:              b.Name,
		Email:             b.Email,
		Phone:             b.Phone,
		Address:           b.Address,
		City:              b.City,
		Model:             b.Model,
		GlassType:         b.GlassType,
		GlassColor:        b.GlassColor,
		Finish:            b.Finish,
		WidthMM:           b.WidthMM,
		HeightMM:          b.HeightMM,
		Quantity:          b.Quantity,
		Notes:             b.Notes,
		ProductCents:      b.ProductCents,
		InstallationCents: b.InstallationCents,
		DiscountCents:     b.DiscountCents,
		TotalCents:        b.TotalCents,
		Total:             money.FormatBRL(b.TotalCents),
		PDFURL:            b.PDFURL,
		InvoiceURL:        b.InvoiceURL,
		Files:             append([]types.FileEntry{}, b.Files...),
		PhotoURLs:         append([]string{}, b.PhotoURLs...),
		PublicToken:       b.PublicToken,
		CustomerID:        b.CustomerID,
		OrderID:           b.OrderID,
		SentAt:            b.SentAt,
		ConfirmedAt:       b.ConfirmedAt,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// RequestReceipt acknowledges a public quote request.
type RequestReceipt struct {
	ID        uuid.UUID `json:"id"`
	Reference string    `json:"reference"`
}

// ConfirmationDTO is returned once a budget becomes an order.
type ConfirmationDTO struct {
	OrderID     uuid.UUID         `json:"order_id"`
	Code        string            `json:"code"`
	Status      enums.OrderStatus `json:"status"`
	PublicToken string            `json:"public_token"`
}

func confirmationOf(o *models.Order) ConfirmationDTO {
	return ConfirmationDTO{OrderID: o.ID, Code: o.Code, Status: o.Status, PublicToken: o.PublicToken}
}
