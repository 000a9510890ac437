package orders

import (
	"time"

	"github.com/angelmondragon/vidrobox-backend/internal/customers"
	ordersvc "github.com/angelmondragon/vidrobox-backend/internal/orders"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	"github.com/google/uuid"
)

type contactRequest struct {
	Name     string  `json:"name" validate:"required,notblank,max=200"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=40"`
	Document *string `json:"document" validate:"omitempty,max=40"`
	Address  *string `json:"address" validate:"omitempty,max=300"`
	City     *string `json:"city" validate:"omitempty,max=120"`
}

type itemRequest struct {
	Description    string  `json:"description" validate:"required,max=300"`
	Model          *string `json:"model"`
	GlassType      *string `json:"glass_type"`
	GlassColor     *string `json:"glass_color"`
	Finish         *string `json:"finish"`
	WidthMM        *int    `json:"width_mm" validate:"omitempty,min=1"`
	HeightMM       *int    `json:"height_mm" validate:"omitempty,min=1"`
	Quantity       int     `json:"quantity" validate:"omitempty,min=1"`
	UnitPriceCents int64   `json:"unit_price_cents" validate:"min=0"`
}

type createRequest struct {
	CustomerID    *uuid.UUID      `json:"customer_id" validate:"required_without=Customer"`
	Customer      *contactRequest `json:"customer" validate:"omitempty"`
	BudgetID      *uuid.UUID      `json:"budget_id"`
	Items         []itemRequest   `json:"items" validate:"required,min=1,dive"`
	Notes         *string         `json:"notes" validate:"omitempty,max=2000"`
	AwaitingVisit bool            `json:"awaiting_visit"`
	VisitAt       *time.Time      `json:"visit_at"`
}

func (c contactRequest) toContact() customers.Contact {
	return customers.Contact{
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Document: c.Document,
		Address:  c.Address,
		City:     c.City,
	}
}

func (req createRequest) toInput(actor *uuid.UUID) ordersvc.CreateInput {
	input := ordersvc.CreateInput{
		CustomerID:    req.CustomerID,
		BudgetID:      req.BudgetID,
		Notes:         req.Notes,
		AwaitingVisit: req.AwaitingVisit,
		VisitAt:       req.VisitAt,
		ActorID:       actor,
	}
	if req.Customer != nil {
		contact := req.Customer.toContact()
		input.Customer = &contact
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, ordersvc.ItemInput{
			Description:    item.Description,
			Model:          item.Model,
			GlassType:      item.GlassType,
			GlassColor:     item.GlassColor,
			Finish:         item.Finish,
			WidthMM:        item.WidthMM,
			HeightMM:       item.HeightMM,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return input
}

type updateRequest struct {
	TrackingCode *string `json:"tracking_code" validate:"omitempty,max=120"`
	Notes        *string `json:"notes" validate:"omitempty,max=2000"`
}

type transitionRequest struct {
	Status  string     `json:"status" validate:"required"`
	VisitAt *time.Time `json:"visit_at"`
	ETA     *time.Time `json:"eta"`
	Note    *string    `json:"note" validate:"omitempty,max=500"`
}

type bulkTransitionRequest struct {
	IDs     []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
	Status  string      `json:"status" validate:"required"`
	VisitAt *time.Time  `json:"visit_at"`
	ETA     *time.Time  `json:"eta"`
	Note    *string     `json:"note" validate:"omitempty,max=500"`
}

type advanceRequest struct {
	IDs  []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
	ETA  *time.Time  `json:"eta"`
	Note *string     `json:"note" validate:"omitempty,max=500"`
}

type messageRequest struct {
	Body string `json:"body" validate:"required,notblank,max=4000"`
}

type customerDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone *string   `json:"phone,omitempty"`
	City  *string   `json:"city,omitempty"`
}

type itemDTO struct {
	ID             uuid.UUID `json:"id"`
	Description    string    `json:"description"`
	Model          *string   `json:"model,omitempty"`
	GlassType      *string   `json:"glass_type,omitempty"`
	GlassColor     *string   `json:"glass_color,omitempty"`
	Finish         *string   `json:"finish,omitempty"`
	WidthMM        *int      `json:"width_mm,omitempty"`
	HeightMM       *int      `json:"height_mm,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
}

type eventDTO struct {
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
	At      time.Time         `json:"at"`
	ActorID *uuid.UUID        `json:"actor_id,omitempty"`
	Note    *string           `json:"note,omitempty"`
}

type messageDTO struct {
	ID        uuid.UUID           `json:"id"`
	Author    enums.MessageAuthor `json:"author"`
	AdminID   *uuid.UUID          `json:"admin_id,omitempty"`
	Body      string              `json:"body"`
	CreatedAt time.Time           `json:"created_at"`
}

// OrderDetail is the admin view of a single order.
type OrderDetail struct {
	ID            uuid.UUID         `json:"id"`
	Code          string            `json:"code"`
	Status        enums.OrderStatus `json:"status"`
	DisplayStatus string            `json:"display_status"`
	VisitAwaiting bool              `json:"visit_awaiting"`
	VisitAt       *time.Time        `json:"visit_at,omitempty"`
	ETA           *time.Time        `json:"eta,omitempty"`
	TrackingCode  *string           `json:"tracking_code,omitempty"`
	PublicToken   string            `json:"public_token"`
	Notes         *string           `json:"notes,omitempty"`
	BudgetID      *uuid.UUID        `json:"budget_id,omitempty"`
	Customer      *customerDTO      `json:"customer,omitempty"`
	Items         []itemDTO         `json:"items"`
	Events        []eventDTO        `json:"events"`
	Messages      []messageDTO      `json:"messages"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func detailOf(o *models.Order) OrderDetail {
	detail := OrderDetail{
		ID:            o.ID,
		Code:          o.Code,
		Status:        o.Status,
		DisplayStatus: o.DisplayState().String(),
		VisitAwaiting: o.VisitAwaiting,
		VisitAt:       o.VisitAt,
		ETA:           o.ETA,
		TrackingCode:  o.TrackingCode,
		PublicToken:   o.PublicToken,
		Notes:         o.Notes,
		BudgetID:      o.BudgetID,
		Items:         make([]itemDTO, 0, len(o.Items)),
		Events:        make([]eventDTO, 0, len(o.Events)),
		Messages:      make([]messageDTO, 0, len(o.Messages)),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if c := o.Customer; c != nil {
		detail.Customer = &customerDTO{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone, City: c.City}
	}
	for _, item := range o.Items {
		detail.Items = append(detail.Items, itemDTO{
			ID:             item.ID,
			Description:    item.Description,
			Model:          item.Model,
			GlassType:      item.GlassType,
			GlassColor:     item.GlassColor,
			Finish:         item.Finish,
			WidthMM:        item.WidthMM,
			HeightMM:       item.HeightMM,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	for _, ev := range o.Events {
		detail.Events = append(detail.Events, eventDTO{From: ev.From, To: ev.To, At: ev.At, ActorID: ev.ActorID, Note: ev.Note})
	}
	for _, msg := range o.Messages {
		detail.Messages = append(detail.Messages, messageOf(&msg))
	}
	return detail
}

func messageOf(m *models.OrderMessage) messageDTO {
	return messageDTO{ID: m.ID, Author: m.Author, AdminID: m.AdminID, Body: m.Body, CreatedAt: m.CreatedAt}
}
