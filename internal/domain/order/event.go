package order

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated        = "order.created"
	EventOrderPaid           = "order.paid"
	EventOrderPaymentFailed  = "order.payment_failed"
	EventOrderPaymentExpired = "order.payment_expired"
	EventOrderStatusChanged  = "order.status_changed"
)

// Event is published after a state change has been committed.
type Event struct {
	ID            string
	Type          string
	OrderCode     string
	UserID        string
	Status        Status
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	Total         int64
	OccurredAt    time.Time
}

func NewEvent(eventType string, o *Order, now time.Time) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		OrderCode:     o.Code,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
		Total:         o.Total,
		OccurredAt:    now.UTC(),
	}
}

// PaymentEventType maps the payment status reached by a callback to its event type.
func PaymentEventType(ps PaymentStatus) string {
	switch ps {
	case PaymentPaid:
		return EventOrderPaid
	case PaymentExpired:
		return EventOrderPaymentExpired
	default:
		return EventOrderPaymentFailed
	}
}
