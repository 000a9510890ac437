package budgets

import (
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	"github.com/angelmondragon/vidrobox-backend/pkg/types"
	"github.com/google/uuid"
)

// RequestInput is a quote request, either from the public form or staff.
type RequestInput struct {
	Name       string
	Email      string
	Phone      *string
	Address    *string
	City       *string
	Model      string
	GlassType  *string
	GlassColor *string
	Finish     *string
	WidthMM    *int
	HeightMM   *int
	Quantity   int
	Notes      *string
	PhotoURLs  []string
}

// UpdateInput edits a budget before it is sent. Nil fields are untouched.
type UpdateInput struct {
	Name              *string
	Email             *string
	Phone             *string
	Address           *string
	City              *string
	Model             *string
	GlassType         *string
	GlassColor        *string
	Finish            *string
	WidthMM           *int
	HeightMM          *int
	Quantity          *int
	Notes             *string
	ProductCents      *int64
	InstallationCents *int64
	DiscountCents     *int64
	InvoiceURL        *string
	PhotoURLs         []string
}

// ListParams configures the admin budget list.
type ListParams struct {
	Limit  int
	Cursor string
	Query  string
}

// ConvertResult is the terminal outcome of one conversion.
type ConvertResult struct {
	BudgetID    uuid.UUID         `json:"budget_id"`
	PDFURL      string            `json:"pdf_url"`
	PublicToken string            `json:"public_token"`
	CustomerID  uuid.UUID         `json:"customer_id"`
	EmailStatus enums.EmailStatus `json:"email_status"`
	EmailError  string            `json:"email_error,omitempty"`
}

// JobView exposes an asynchronous conversion.
type JobView struct {
	ID          uuid.UUID                 `json:"job_id"`
	BudgetID    uuid.UUID                 `json:"budget_id"`
	Status      enums.SendBudgetJobStatus `json:"status"`
	PDFURL      *string                   `json:"pdf_url,omitempty"`
	EmailStatus *enums.EmailStatus        `json:"email_status,omitempty"`
	LastError   *string                   `json:"last_error,omitempty"`
	StartedAt   *time.Time                `json:"started_at,omitempty"`
	FinishedAt  *time.Time                `json:"finished_at,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	Reused      bool                      `json:"reused"`
}

// BudgetSummary is one row of the admin budget list.
type BudgetSummary struct {
	ID         uuid.UUID  `json:"id"`
	Reference  string     `json:"reference"`
	Name       string     `json:"name"`
	Email      *string    `json:"email,omitempty"`
	Model      string     `json:"model"`
	TotalCents int64      `json:"total_cents"`
	Total      string     `json:"total"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// BudgetList wraps one page of summaries.
type BudgetList struct {
	Items      []BudgetSummary `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// PublicView is what the customer sees through the tokenized quote link.
type PublicView struct {
	Reference  string            `json:"reference"`
	Name       string            `json:"name"`
	Model      string            `json:"model"`
	GlassType  *string           `json:"glass_type,omitempty"`
	GlassColor *string           `json:"glass_color,omitempty"`
	Finish     *string           `json:"finish,omitempty"`
	WidthMM    *int              `json:"width_mm,omitempty"`
	HeightMM   *int              `json:"height_mm,omitempty"`
	Quantity   int               `json:"quantity"`
	Total      string            `json:"total"`
	PDFURL     *string           `json:"pdf_url,omitempty"`
	Files      []types.FileEntry `json:"files"`
	SentAt     *time.Time        `json:"sent_at,omitempty"`
	Confirmed  bool              `json:"confirmed"`
}

func jobView(job *models.SendBudgetJob, reused bool) *JobView {
	return &JobView{
		ID:          job.ID,
		BudgetID:    job.BudgetID,
		Status:      job.Status,
		PDFURL:      job.PDFURL,
		EmailStatus: job.EmailStatus,
		LastError:   job.LastError,
		StartedAt:   job.StartedAt,
		FinishedAt:  job.FinishedAt,
		CreatedAt:   job.CreatedAt,
		Reused:      reused,
	}
}
