package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	"github.com/angelmondragon/vidrobox-backend/pkg/types"
)

// Budget is a quote requested by a prospective customer.
type Budget struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name    string    `gorm:"column:name;not null"`
	Email   *string   `gorm:"column:email"`
	Phone   *string   `gorm:"column:phone"`
	Address *string   `gorm:"column:address"`
	City    *string   `gorm:"column:city"`

	Model      string  `gorm:"column:model;not null"`
	GlassType  *string `gorm:"column:glass_type"`
	GlassColor *string `gorm:"column:glass_color"`
	Finish     *string `gorm:"column:finish"`
	WidthMM    *int    `gorm:"column:width_mm"`
	HeightMM   *int    `gorm:"column:height_mm"`
	Quantity   int     `gorm:"column:quantity;not null"`
	Notes      *string `gorm:"column:notes"`

	ProductCents      int64 `gorm:"column:product_cents;not null"`
	InstallationCents int64 `gorm:"column:installation_cents;not null"`
	DiscountCents     int64 `gorm:"column:discount_cents;not null"`
	TotalCents        int64 `gorm:"column:total_cents;not null"`

	PDFURL      *string                             `gorm:"column:pdf_url"`
	InvoiceURL  *string                             `gorm:"column:invoice_url"`
	Files       datatypes.JSONSlice[types.FileEntry] `gorm:"column:files"`
	PhotoURLs   datatypes.JSONSlice[string]          `gorm:"column:photo_urls"`
	PublicToken *string                             `gorm:"column:public_token;uniqueIndex:uq_budgets_public_token"`
	CustomerID  *uuid.UUID                          `gorm:"column:customer_id;type:uuid"`
	OrderID     *uuid.UUID                          `gorm:"column:order_id;type:uuid"`
	SentAt      *time.Time                          `gorm:"column:sent_at"`
	ConfirmedAt *time.Time                          `gorm:"column:confirmed_at"`
	DeletedAt   gorm.DeletedAt                      `gorm:"column:deleted_at;index"`
	CreatedAt   time.Time                           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                           `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Budget) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// SendBudgetJob tracks one asynchronous conversion of a budget.
type SendBudgetJob struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	BudgetID       uuid.UUID                 `gorm:"column:budget_id;type:uuid;not null;index"`
	Status         enums.SendBudgetJobStatus `gorm:"column:status;type:text;not null"`
	IdempotencyKey *string                   `gorm:"column:idempotency_key"`
	PDFURL         *string                   `gorm:"column:pdf_url"`
	EmailStatus    *enums.EmailStatus        `gorm:"column:email_status;type:text"`
	LastError      *string                   `gorm:"column:last_error"`
	StartedAt      *time.Time                `gorm:"column:started_at"`
	FinishedAt     *time.Time                `gorm:"column:finished_at"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (j *SendBudgetJob) BeforeCreate(*gorm.DB) error {
	ensureID(&j.ID)
	return nil
}
