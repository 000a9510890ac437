package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
)

// Order is a shower enclosure order moving through the production lifecycle.
// VisitAwaiting overlays PREPARACAO while a technical visit is pending.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Code          string            `gorm:"column:code;not null;uniqueIndex:uq_orders_code"`
	CustomerID    uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	BudgetID      *uuid.UUID        `gorm:"column:budget_id;type:uuid"`
	Status        enums.OrderStatus `gorm:"column:status;type:text;not null"`
	VisitAwaiting bool              `gorm:"column:visit_awaiting;not null"`
	VisitAt       *time.Time        `gorm:"column:visit_at"`
	ETA           *time.Time        `gorm:"column:eta"`
	TrackingCode  *string           `gorm:"column:tracking_code"`
	PublicToken   string            `gorm:"column:public_token;not null;uniqueIndex:uq_orders_public_token"`
	Notes         *string           `gorm:"column:notes"`
	DeletedAt     gorm.DeletedAt    `gorm:"column:deleted_at;index"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Customer *Customer      `gorm:"foreignKey:CustomerID"`
	Items    []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Events   []StatusEvent  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Messages []OrderMessage `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// DisplayState projects status + visit flag for callers.
func (o *Order) DisplayState() enums.DisplayState {
	return enums.DisplayStateOf(o.Status, o.VisitAwaiting)
}

// FirstItem returns the first product line, or nil.
func (o *Order) FirstItem() *OrderItem {
	if len(o.Items) == 0 {
		return nil
	}
	return &o.Items[0]
}

// OrderItem is a product line of an order.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	Description    string    `gorm:"column:description;not null"`
	Model          *string   `gorm:"column:model"`
	GlassType      *string   `gorm:"column:glass_type"`
	GlassColor     *string   `gorm:"column:glass_color"`
	Finish         *string   `gorm:"column:finish"`
	WidthMM        *int      `gorm:"column:width_mm"`
	HeightMM       *int      `gorm:"column:height_mm"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// StatusEvent is the append-only audit trail of an order. From == To rows
// annotate visit sub-state changes.
type StatusEvent struct {
	ID      uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	From    enums.OrderStatus `gorm:"column:from_status;type:text;not null"`
	To      enums.OrderStatus `gorm:"column:to_status;type:text;not null"`
	At      time.Time         `gorm:"column:at;not null"`
	ActorID *uuid.UUID        `gorm:"column:actor_id;type:uuid"`
	Note    *string           `gorm:"column:note"`
}

func (e *StatusEvent) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// OrderMessage is a message exchanged between staff and the customer.
type OrderMessage struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Author    enums.MessageAuthor `gorm:"column:author;type:text;not null"`
	AdminID   *uuid.UUID          `gorm:"column:admin_id;type:uuid"`
	Body      string              `gorm:"column:body;not null"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (m *OrderMessage) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
