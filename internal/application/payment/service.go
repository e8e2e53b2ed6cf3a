package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	domain "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/payment"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/repository"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/metrics"
)

const (
	SourceIPN    = "ipn"
	SourceReturn = "return"
	SourceQuery  = "query"
)

// Gateway ký URL thanh toán và xác thực tham số callback.
type Gateway interface {
	BuildPaymentURL(req payment.URLRequest) (string, error)
	VerifyCallback(params url.Values) (*payment.Notification, error)
}

type TransactionQuerier interface {
	QueryTransaction(ctx context.Context, req payment.QueryRequest) (*payment.Notification, error)
}

type Publisher interface {
	PublishEvent(ctx context.Context, event domain.Event) error
}

type Deps struct {
	Orders    repository.OrderRepository
	Gateway   Gateway
	Querier   TransactionQuerier
	Publisher Publisher
	Metrics   *metrics.Metrics
	Logger    logger.Logger
	Now       func() time.Time
}

type Service struct {
	Deps
}

func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{Deps: deps}
}

type CreateURLCommand struct {
	OrderCode string
	UserID    string
	BankCode  string
	Locale    string
	ClientIP  string
}

// CreatePaymentURL tạo URL redirect sang VNPAY cho đơn của chính user.
func (s *Service) CreatePaymentURL(ctx context.Context, cmd CreateURLCommand) (string, error) {
	o, err := s.Orders.FindByCode(ctx, cmd.OrderCode)
	if err != nil {
		return "", fmt.Errorf("find order: %w", err)
	}
	if o == nil || !o.OwnedBy(cmd.UserID) {
		return "", domain.ErrOrderNotFound
	}
	if o.IsPaid || o.PaymentStatus == domain.PaymentPaid {
		return "", domain.ErrAlreadyPaid
	}
	if o.PaymentMethod != domain.PaymentVNPay || o.Status != domain.StatusPending {
		return "", domain.ErrNotPayable
	}

	paymentURL, err := s.Gateway.BuildPaymentURL(payment.URLRequest{
		OrderCode:   o.Code,
		Amount:      o.Total,
		Description: "Thanh toan don hang " + o.Code,
		ClientIP:    cmd.ClientIP,
		Locale:      cmd.Locale,
		BankCode:    cmd.BankCode,
		CreatedAt:   o.CreatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("build payment url: %w", err)
	}

	s.Logger.WithContext(ctx).Info("payment url issued", logger.String("order_code", o.Code))
	return paymentURL, nil
}

// CallbackResult là kết quả đối soát một callback. Applied=false nghĩa là không có gì thay đổi.
type CallbackResult struct {
	OrderCode string
	Outcome   payment.Outcome
	Applied   bool
	Order     *domain.Order
}

// HandleCallback dùng chung cho IPN và return URL: xác thực chữ ký, tìm đơn,
// bỏ qua nếu đã paid, kiểm tra số tiền rồi mới cập nhật trạng thái thanh toán.
func (s *Service) HandleCallback(ctx context.Context, source string, params url.Values) (*CallbackResult, error) {
	log := s.Logger.WithContext(ctx).WithFields(logger.String("source", source))

	n, err := s.Gateway.VerifyCallback(params)
	if err != nil {
		s.Metrics.ObserveCallback(source, callbackResult(err))
		log.Warn("payment callback rejected",
			logger.String("order_code", params.Get("vnp_TxnRef")),
			logger.Error(err),
		)
		return nil, err
	}

	res, err := s.reconcile(ctx, n, true)
	if err != nil {
		s.Metrics.ObserveCallback(source, callbackResult(err))
		if errors.Is(err, domain.ErrOrderNotFound) || errors.Is(err, payment.ErrAmountMismatch) {
			log.Warn("payment callback rejected", logger.String("order_code", n.OrderCode), logger.Error(err))
		} else {
			log.Error("payment callback failed", logger.String("order_code", n.OrderCode), logger.Error(err))
		}
		return nil, err
	}

	result := string(res.Outcome)
	if !res.Applied {
		result = "duplicate"
	}
	s.Metrics.ObserveCallback(source, result)
	log.Info("payment callback processed",
		logger.String("order_code", res.OrderCode),
		logger.String("response_code", n.ResponseCode),
		logger.String("outcome", string(res.Outcome)),
		logger.Bool("applied", res.Applied),
	)
	return res, nil
}

type QueryResult struct {
	Notification *payment.Notification `json:"-"`
	OrderCode    string                `json:"orderCode"`
	Outcome      payment.Outcome       `json:"outcome"`
	Reconciled   bool                  `json:"reconciled"`
	Order        *domain.Order         `json:"order"`
}

// QueryAndReconcile hỏi VNPAY trạng thái giao dịch (querydr). Chỉ giao dịch đã
// thành công mới được đối soát vào đơn, qua cùng đường cập nhật với callback.
func (s *Service) QueryAndReconcile(ctx context.Context, code, clientIP string) (*QueryResult, error) {
	o, err := s.Orders.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	if o.PaymentMethod != domain.PaymentVNPay {
		return nil, domain.ErrNotPayable
	}

	n, err := s.Querier.QueryTransaction(ctx, payment.QueryRequest{
		OrderCode:       o.Code,
		Description:     "Truy van giao dich " + o.Code,
		ClientIP:        clientIP,
		TransactionDate: o.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	out := &QueryResult{Notification: n, OrderCode: o.Code, Outcome: n.Outcome, Order: o}
	if n.Outcome != payment.OutcomeSuccess {
		return out, nil
	}

	res, err := s.reconcile(ctx, n, false)
	if err != nil {
		s.Metrics.ObserveCallback(SourceQuery, callbackResult(err))
		return nil, err
	}
	if res.Applied {
		s.Metrics.ObserveCallback(SourceQuery, string(res.Outcome))
	}
	out.Reconciled = res.Applied
	out.Order = res.Order
	return out, nil
}

func (s *Service) reconcile(ctx context.Context, n *payment.Notification, checkAmount bool) (*CallbackResult, error) {
	o, err := s.Orders.FindByCode(ctx, n.OrderCode)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}

	// paid là trạng thái hấp thụ: callback lặp lại vẫn trả success, không ghi gì thêm.
	if o.PaymentStatus == domain.PaymentPaid {
		return &CallbackResult{OrderCode: o.Code, Outcome: payment.OutcomeSuccess, Order: o}, nil
	}
	if checkAmount && n.Amount != o.Total {
		return nil, fmt.Errorf("%w: got %d, want %d", payment.ErrAmountMismatch, n.Amount, o.Total)
	}

	var upd domain.PaymentUpdate
	now := s.Now()
	switch n.Outcome {
	case payment.OutcomeSuccess:
		upd = domain.Settled(now)
	case payment.OutcomeExpired:
		upd = domain.PaymentTimedOut(now)
	case payment.OutcomePending:
		return &CallbackResult{OrderCode: o.Code, Outcome: n.Outcome, Order: o}, nil
	default:
		upd = domain.PaymentRejected(now)
	}

	updated, applied, err := s.Orders.ApplyPayment(ctx, o.Code, upd)
	if err != nil {
		return nil, fmt.Errorf("apply payment: %w", err)
	}

	outcome := n.Outcome
	if updated.PaymentStatus == domain.PaymentPaid {
		outcome = payment.OutcomeSuccess
	}
	if applied {
		if updated.NeedsRefund() {
			s.Logger.WithContext(ctx).Warn("payment settled on cancelled order, refund required",
				logger.String("order_code", updated.Code),
				logger.Int64("amount", n.Amount),
			)
		}
		s.publish(ctx, domain.NewEvent(domain.PaymentEventType(updated.PaymentStatus), updated, now))
	}
	return &CallbackResult{OrderCode: updated.Code, Outcome: outcome, Applied: applied, Order: updated}, nil
}

func (s *Service) publish(ctx context.Context, event domain.Event) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishEvent(ctx, event); err != nil {
		s.Metrics.ObservePublishError()
		s.Logger.WithContext(ctx).Error("publish payment event failed",
			logger.String("event_type", event.Type),
			logger.String("order_code", event.OrderCode),
			logger.Error(err),
		)
	}
}

func callbackResult(err error) string {
	switch {
	case errors.Is(err, payment.ErrChecksumFailed):
		return "checksum_failed"
	case errors.Is(err, domain.ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, payment.ErrAmountMismatch):
		return "amount_mismatch"
	default:
		return "error"
	}
}
