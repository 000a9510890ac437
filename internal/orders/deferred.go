package orders

import (
	"github.com/angelmondragon/vidrobox-backend/internal/notifications"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
)

// deferredNotices collects notices during a transaction. They are sent only
// after the transaction commits.
type deferredNotices struct {
	scheduled     []notifications.Notice
	awaiting      []notifications.Notice
	concluded     []notifications.Notice
	statusChanged []notifications.Notice
}

func (d *deferredNotices) queue(kind enums.NotificationKind, order *models.Order) {
	switch kind {
	case enums.NotificationVisitScheduled:
		d.scheduled = append(d.scheduled, notifications.VisitScheduled(order))
	case enums.NotificationVisitAwaiting:
		d.awaiting = append(d.awaiting, notifications.VisitAwaiting(order))
	case enums.NotificationVisitConcluded:
		d.concluded = append(d.concluded, notifications.VisitConcluded(order))
	case enums.NotificationStatusChanged:
		d.statusChanged = append(d.statusChanged, notifications.StatusChanged(order))
	}
}

func (d *deferredNotices) len() int {
	return len(d.scheduled) + len(d.awaiting) + len(d.concluded) + len(d.statusChanged)
}

func (d *deferredNotices) all() []notifications.Notice {
	out := make([]notifications.Notice, 0, d.len())
	out = append(out, d.scheduled...)
	out = append(out, d.awaiting...)
	out = append(out, d.concluded...)
	out = append(out, d.statusChanged...)
	return out
}
