package order

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	}
	return "", ErrInvalidStatus
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

// CanTransitionTo reports whether an admin may move an order from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentExpired  PaymentStatus = "expired"
	PaymentRefunded PaymentStatus = "refunded"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch ps := PaymentStatus(s); ps {
	case PaymentUnpaid, PaymentPaid, PaymentFailed, PaymentExpired, PaymentRefunded:
		return ps, nil
	}
	return "", ErrInvalidStatus
}

type PaymentMethod string

const (
	PaymentCOD   PaymentMethod = "cod"
	PaymentVNPay PaymentMethod = "vnpay"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentVNPay
}

// PaymentUpdate là thay đổi do callback cổng thanh toán áp lên đơn.
// Status nil nghĩa là giữ nguyên trạng thái đơn.
type PaymentUpdate struct {
	PaymentStatus PaymentStatus
	IsPaid        bool
	Status        *Status
	PaidAt        *time.Time
	At            time.Time
}

func Settled(now time.Time) PaymentUpdate {
	processing := StatusProcessing
	paidAt := now.UTC()
	return PaymentUpdate{
		PaymentStatus: PaymentPaid,
		IsPaid:        true,
		Status:        &processing,
		PaidAt:        &paidAt,
		At:            now.UTC(),
	}
}

func PaymentRejected(now time.Time) PaymentUpdate {
	return PaymentUpdate{PaymentStatus: PaymentFailed, At: now.UTC()}
}

func PaymentTimedOut(now time.Time) PaymentUpdate {
	return PaymentUpdate{PaymentStatus: PaymentExpired, At: now.UTC()}
}

// Apply mutates o in place. Callers must already have checked CanApplyPayment.
// Status only moves forward from pending: a cancelled order stays cancelled
// and the captured payment is left for a refund.
func (u PaymentUpdate) Apply(o *Order) {
	o.PaymentStatus = u.PaymentStatus
	o.IsPaid = u.IsPaid
	if u.Status != nil && o.Status == StatusPending {
		o.Status = *u.Status
	}
	if u.PaidAt != nil {
		t := *u.PaidAt
		o.PaidAt = &t
	}
	o.UpdatedAt = u.At
}

// CanApplyPayment is the guard shared by every store: paid is absorbing and
// repeating the current payment status is a no-op.
func (o *Order) CanApplyPayment(u PaymentUpdate) bool {
	return o.PaymentStatus != PaymentPaid && o.PaymentStatus != u.PaymentStatus
}

// NeedsRefund: tiền đã về nhưng đơn đã huỷ trước đó.
func (o *Order) NeedsRefund() bool {
	return o.IsPaid && o.Status == StatusCancelled
}

// StatusChange là thay đổi trạng thái do admin hoặc khách huỷ đơn.
type StatusChange struct {
	From     Status
	To       Status
	MarkPaid bool
	Now      time.Time
}

// NewStatusChange validates an admin transition. Delivering a COD order also marks it paid.
func NewStatusChange(o *Order, to Status, now time.Time) (StatusChange, error) {
	if !o.Status.CanTransitionTo(to) {
		return StatusChange{}, ErrInvalidTransition
	}
	return StatusChange{
		From:     o.Status,
		To:       to,
		MarkPaid: to == StatusDelivered && o.PaymentMethod == PaymentCOD && !o.IsPaid,
		Now:      now,
	}, nil
}

func (c StatusChange) Apply(o *Order) {
	o.Status = c.To
	if c.MarkPaid {
		paidAt := c.Now.UTC()
		o.PaymentStatus = PaymentPaid
		o.IsPaid = true
		o.PaidAt = &paidAt
	}
	o.UpdatedAt = c.Now.UTC()
}

// RestoresStock reports whether the change must put the reserved inventory back.
func (c StatusChange) RestoresStock() bool {
	return c.To == StatusCancelled
}

type Filter struct {
	Status        Status
	PaymentStatus PaymentStatus
}
