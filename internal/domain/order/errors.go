package order

import "errors"

var (
	ErrMissingField         = errors.New("required field is missing")
	ErrEmptyItems           = errors.New("order must contain at least one item")
	ErrMissingShipping      = errors.New("shipping info requires full name, phone, address and province")
	ErrInvalidPaymentMethod = errors.New("payment method must be cod or vnpay")
	ErrInvalidAmount        = errors.New("order amounts are invalid")
	ErrOrderNotFound        = errors.New("order not found")
	ErrDuplicateCode        = errors.New("order code already exists")
	ErrInvalidStatus        = errors.New("unknown order status")
	ErrInvalidTransition    = errors.New("order status transition is not allowed")
	ErrStatusConflict       = errors.New("order status was changed by someone else, reload and retry")
	ErrNotCancellable       = errors.New("order can no longer be cancelled")
	ErrNotPayable           = errors.New("order is not awaiting online payment")
	ErrAlreadyPaid          = errors.New("order is already paid")
)
