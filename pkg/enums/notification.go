package enums

// NotificationKind selects the email template sent by the dispatcher.
type NotificationKind string

const (
	NotificationOrderCreated   NotificationKind = "order_created"
	NotificationStatusChanged  NotificationKind = "status_changed"
	NotificationVisitScheduled NotificationKind = "visit_scheduled"
	NotificationVisitAwaiting  NotificationKind = "visit_awaiting"
	NotificationVisitConcluded NotificationKind = "visit_concluded"
	NotificationAdminMessage   NotificationKind = "admin_message"
	NotificationClientMessage  NotificationKind = "client_message"
	NotificationBudgetSent     NotificationKind = "budget_sent"
)

var validNotificationKinds = []NotificationKind{
	NotificationOrderCreated,
	NotificationStatusChanged,
	NotificationVisitScheduled,
	NotificationVisitAwaiting,
	NotificationVisitConcluded,
	NotificationAdminMessage,
	NotificationClientMessage,
	NotificationBudgetSent,
}

// NotificationKinds lists every kind in a stable order.
func NotificationKinds() []NotificationKind {
	out := make([]NotificationKind, len(validNotificationKinds))
	copy(out, validNotificationKinds)
	return out
}

func (k NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// MessageAuthor identifies who wrote an order message.
type MessageAuthor string

const (
	MessageAuthorAdmin  MessageAuthor = "ADMIN"
	MessageAuthorClient MessageAuthor = "CLIENT"
)
