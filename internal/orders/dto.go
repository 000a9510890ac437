package orders

import (
	"time"

	"github.com/angelmondragon/vidrobox-backend/internal/customers"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	"github.com/google/uuid"
)

// TransitionResult is returned by the single-order executor.
type TransitionResult struct {
	OK            bool              `json:"ok"`
	Status        enums.OrderStatus `json:"status"`
	DisplayStatus string            `json:"display_status"`
	VisitAwaiting bool              `json:"visit_awaiting"`
	VisitAt       *time.Time        `json:"visit_at,omitempty"`
	ETA           *time.Time        `json:"eta"`
}

// SkippedOrder explains why one order of a bulk request was left untouched.
type SkippedOrder struct {
	ID     uuid.UUID `json:"id"`
	Reason string    `json:"reason"`
}

// BulkResult is returned by the bulk executors.
type BulkResult struct {
	Updated int            `json:"updated"`
	Skipped []SkippedOrder `json:"skipped"`
}

// ItemInput is one product line of a new order.
type ItemInput struct {
	Description    string
	Model          *string
	GlassType      *string
	GlassColor     *string
	Finish         *string
	WidthMM        *int
	HeightMM       *int
	Quantity       int
	UnitPriceCents int64
}

// CreateInput creates an order for a new or existing customer.
type CreateInput struct {
	CustomerID    *uuid.UUID
	Customer      *customers.Contact
	BudgetID      *uuid.UUID
	Items         []ItemInput
	Notes         *string
	AwaitingVisit bool
	VisitAt       *time.Time
	ActorID       *uuid.UUID
}

// UpdateInput edits fields that are not part of the lifecycle.
type UpdateInput struct {
	TrackingCode *string
	Notes        *string
}

// ListFilters narrow the admin order list.
type ListFilters struct {
	DisplayStatus string
	CustomerID    *uuid.UUID
	Query         string
}

// ListParams configures the admin order list.
type ListParams struct {
	Limit   int
	Cursor  string
	Filters ListFilters
}

// OrderSummary is one row of the admin order list.
type OrderSummary struct {
	ID            uuid.UUID         `json:"id"`
	Code          string            `json:"code"`
	Status        enums.OrderStatus `json:"status"`
	DisplayStatus string            `json:"display_status"`
	VisitAt       *time.Time        `json:"visit_at,omitempty"`
	ETA           *time.Time        `json:"eta,omitempty"`
	CustomerID    uuid.UUID         `json:"customer_id"`
	CustomerName  string            `json:"customer_name"`
	Product       string            `json:"product,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// OrderList wraps one page of summaries.
type OrderList struct {
	Items      []OrderSummary `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// PublicEvent is an audit event without staff identity.
type PublicEvent struct {
	From enums.OrderStatus `json:"from"`
	To   enums.OrderStatus `json:"to"`
	At   time.Time         `json:"at"`
	Note *string           `json:"note,omitempty"`
}

// PublicMessage is a message shown on the public status page.
type PublicMessage struct {
	Author    enums.MessageAuthor `json:"author"`
	Body      string              `json:"body"`
	CreatedAt time.Time           `json:"created_at"`
}

// PublicView is what a customer sees through the tokenized link.
type PublicView struct {
	Code         string          `json:"code"`
	Status       string          `json:"status"`
	StatusLabel  string          `json:"status_label"`
	VisitAt      *time.Time      `json:"visit_at,omitempty"`
	ETA          *time.Time      `json:"eta,omitempty"`
	TrackingCode *string         `json:"tracking_code,omitempty"`
	CustomerName string          `json:"customer_name"`
	Product      string          `json:"product,omitempty"`
	Events       []PublicEvent   `json:"events"`
	Messages     []PublicMessage `json:"messages"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toSummary(o models.Order) OrderSummary {
	summary := OrderSummary{
		ID:            o.ID,
		Code:          o.Code,
		Status:        o.Status,
		DisplayStatus: o.DisplayState().String(),
		VisitAt:       o.VisitAt,
		ETA:           o.ETA,
		CustomerID:    o.CustomerID,
		CreatedAt:     o.CreatedAt,
	}
	if o.Customer != nil {
		summary.CustomerName = o.Customer.Name
	}
	if item := o.FirstItem(); item != nil {
		summary.Product = item.Description
	}
	return summary
}

func resultOf(o *models.Order) *TransitionResult {
	return &TransitionResult{
		OK:            true,
		Status:        o.Status,
		DisplayStatus: o.DisplayState().String(),
		VisitAwaiting: o.VisitAwaiting,
		VisitAt:       o.VisitAt,
		ETA:           o.ETA,
	}
}
