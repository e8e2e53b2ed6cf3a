package payment

import (
	"errors"
	"time"
)

var (
	ErrChecksumFailed     = errors.New("invalid payment signature")
	ErrAmountMismatch     = errors.New("payment amount does not match the order")
	ErrGatewayUnavailable = errors.New("payment gateway is temporarily unavailable")
	ErrGatewayRejected    = errors.New("payment gateway rejected the request")
)

// Outcome là kết quả thanh toán đã được chuẩn hoá, không phụ thuộc mã riêng của cổng.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeExpired Outcome = "expired"
	OutcomePending Outcome = "pending"
)

// Notification is a verified gateway message about one transaction.
type Notification struct {
	OrderCode     string
	Amount        int64
	ResponseCode  string
	TransactionNo string
	BankCode      string
	PayDate       string
	Outcome       Outcome
}

type URLRequest struct {
	OrderCode   string
	Amount      int64
	Description string
	ClientIP    string
	Locale      string
	BankCode    string
	CreatedAt   time.Time
}

type QueryRequest struct {
	OrderCode   string
	Description string
	ClientIP    string
	// TransactionDate is the vnp_CreateDate sent with the original payment URL.
	TransactionDate time.Time
}
