package notifications

import (
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/email"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
)

// Notice is one email the dispatcher should send.
type Notice struct {
	Kind  enums.NotificationKind
	Order *models.Order

	// status_changed
	Status       enums.OrderStatus
	ETA          *time.Time
	TrackingCode *string

	// visit_scheduled
	VisitAt *time.Time

	// admin_message / client_message
	Message string

	// budget_sent
	Budget      *models.Budget
	BudgetURL   string
	Attachments []email.Attachment
}

// StatusChanged builds the notice sent after a real transition.
func StatusChanged(order *models.Order) Notice {
	return Notice{
		Kind:         enums.NotificationStatusChanged,
		Order:        order,
		Status:       order.Status,
		ETA:          order.ETA,
		TrackingCode: order.TrackingCode,
	}
}

// VisitScheduled builds the notice sent when a visit date is set or moved.
func VisitScheduled(order *models.Order) Notice {
	return Notice{Kind: enums.NotificationVisitScheduled, Order: order, VisitAt: order.VisitAt}
}

// VisitAwaiting builds the notice sent when a visit is pending without a date.
func VisitAwaiting(order *models.Order) Notice {
	return Notice{Kind: enums.NotificationVisitAwaiting, Order: order}
}

// VisitConcluded builds the notice sent when the pending visit is done.
func VisitConcluded(order *models.Order) Notice {
	return Notice{Kind: enums.NotificationVisitConcluded, Order: order}
}

// OrderCreated builds the welcome notice for a new order.
func OrderCreated(order *models.Order) Notice {
	return Notice{Kind: enums.NotificationOrderCreated, Order: order, Status: order.Status}
}

// AdminMessage notifies the customer of a message written by staff.
func AdminMessage(order *models.Order, body string) Notice {
	return Notice{Kind: enums.NotificationAdminMessage, Order: order, Message: body}
}

// ClientMessage notifies staff of a message written by the customer.
func ClientMessage(order *models.Order, body string) Notice {
	return Notice{Kind: enums.NotificationClientMessage, Order: order, Message: body}
}

// BudgetSent delivers a converted quote with its attachments.
func BudgetSent(budget *models.Budget, attachments []email.Attachment) Notice {
	return Notice{Kind: enums.NotificationBudgetSent, Budget: budget, Attachments: attachments}
}
