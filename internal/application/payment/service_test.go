package payment

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/config"
	domain "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/payment"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/product"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/payment/vnpay"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/persistence/memory"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/metrics"
)

// MockPublisher là mock cho Publisher interface
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishEvent(ctx context.Context, event domain.Event) error {
	return m.Called(ctx, event).Error(0)
}

type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) QueryTransaction(ctx context.Context, req payment.QueryRequest) (*payment.Notification, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Notification), args.Error(1)
}

const secret = "TESTSECRETKEY"

var (
	now    = time.Date(2026, 6, 1, 3, 5, 0, 0, time.UTC)
	vnpCfg = config.VNPayConfig{
		TmnCode:    "XTFASHN1",
		HashSecret: secret,
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:8080/api/payment/vnpay_return",
	}
)

type fixture struct {
	store     *memory.Store
	publisher *MockPublisher
	querier   *MockQuerier
	metrics   *metrics.Metrics
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     memory.NewStore(),
		publisher: new(MockPublisher),
		querier:   new(MockQuerier),
		metrics:   metrics.New(prometheus.NewRegistry()),
	}
	f.publisher.On("PublishEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.svc = NewService(Deps{
		Orders:    f.store.Orders(),
		Gateway:   vnpay.NewClient(vnpCfg),
		Querier:   f.querier,
		Publisher: f.publisher,
		Metrics:   f.metrics,
		Now:       func() time.Time { return now },
	})

	require.NoError(t, f.store.Orders().Insert(context.Background(), &domain.Order{
		ID:            "o-1",
		Code:          "ORD123",
		UserID:        "u1",
		Items:         []domain.LineItem{{ProductID: "P1", Quantity: 2, Price: 100000}},
		PaymentMethod: domain.PaymentVNPay,
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentUnpaid,
		Subtotal:      200000,
		ShippingFee:   30000,
		Total:         230000,
		CreatedAt:     now.Add(-5 * time.Minute),
	}))
	return f
}

func (f *fixture) order(t *testing.T) *domain.Order {
	t.Helper()
	o, err := f.store.Orders().FindByCode(context.Background(), "ORD123")
	require.NoError(t, err)
	require.NotNil(t, o)
	return o
}

func callback(responseCode string, amount string) url.Values {
	params := url.Values{}
	params.Set("vnp_Amount", amount)
	params.Set("vnp_BankCode", "NCB")
	params.Set("vnp_OrderInfo", "Thanh toan don hang ORD123")
	params.Set("vnp_PayDate", "20260601100500")
	params.Set("vnp_ResponseCode", responseCode)
	params.Set("vnp_TmnCode", vnpCfg.TmnCode)
	params.Set("vnp_TransactionNo", "14012345")
	params.Set("vnp_TransactionStatus", responseCode)
	params.Set("vnp_TxnRef", "ORD123")
	params.Set("vnp_SecureHash", vnpay.NewSigner(secret).Sign(vnpay.CanonicalQuery(params)))
	return params
}

func TestHandleCallback_SuccessThenReplayIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	params := callback("00", "23000000")

	// Act: lần 1 qua IPN, lần 2 qua return URL
	first, err := f.svc.HandleCallback(ctx, SourceIPN, params)
	require.NoError(t, err)
	afterFirst := f.order(t)
	second, err := f.svc.HandleCallback(ctx, SourceReturn, params)
	require.NoError(t, err)

	// Assert
	assert.True(t, first.Applied)
	assert.Equal(t, payment.OutcomeSuccess, first.Outcome)
	assert.False(t, second.Applied)
	assert.Equal(t, payment.OutcomeSuccess, second.Outcome)

	o := f.order(t)
	assert.Equal(t, domain.PaymentPaid, o.PaymentStatus)
	assert.True(t, o.IsPaid)
	assert.Equal(t, domain.StatusProcessing, o.Status)
	require.NotNil(t, o.PaidAt)
	assert.Equal(t, now, *o.PaidAt)
	assert.Equal(t, afterFirst, o)

	f.publisher.AssertNumberOfCalls(t, "PublishEvent", 1)
	f.publisher.AssertCalled(t, "PublishEvent", mock.Anything, mock.MatchedBy(func(e domain.Event) bool {
		return e.Type == domain.EventOrderPaid && e.OrderCode == "ORD123"
	}))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Callbacks.WithLabelValues(SourceIPN, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Callbacks.WithLabelValues(SourceReturn, "duplicate")))
}

func TestHandleCallback_FailureKeepsOrderPayable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.HandleCallback(ctx, SourceIPN, callback("24", "23000000"))

	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, payment.OutcomeFailed, res.Outcome)
	o := f.order(t)
	assert.Equal(t, domain.PaymentFailed, o.PaymentStatus)
	assert.False(t, o.IsPaid)
	assert.Equal(t, domain.StatusPending, o.Status)

	paymentURL, err := f.svc.CreatePaymentURL(ctx, CreateURLCommand{OrderCode: "ORD123", UserID: "u1", ClientIP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Contains(t, paymentURL, "vnp_TxnRef=ORD123")

	// thanh toán lại thành công sau khi thất bại
	res, err = f.svc.HandleCallback(ctx, SourceIPN, callback("00", "23000000"))
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, domain.PaymentPaid, f.order(t).PaymentStatus)
}

func TestHandleCallback_ExpiredCode(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.HandleCallback(context.Background(), SourceIPN, callback("11", "23000000"))

	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeExpired, res.Outcome)
	assert.Equal(t, domain.PaymentExpired, f.order(t).PaymentStatus)
	assert.Equal(t, domain.StatusPending, f.order(t).Status)
	f.publisher.AssertCalled(t, "PublishEvent", mock.Anything, mock.MatchedBy(func(e domain.Event) bool {
		return e.Type == domain.EventOrderPaymentExpired
	}))
}

func TestHandleCallback_SuccessOnCancelledOrderKeepsItCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.SeedProducts(product.Product{ID: "P1", Price: 100000, Stock: 10})

	// Arrange: đơn đã bị huỷ trước khi IPN tới
	change, err := domain.NewStatusChange(f.order(t), domain.StatusCancelled, now)
	require.NoError(t, err)
	_, err = f.store.Orders().UpdateStatus(ctx, "o-1", change)
	require.NoError(t, err)

	// Act
	res, err := f.svc.HandleCallback(ctx, SourceIPN, callback("00", "23000000"))

	// Assert
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, payment.OutcomeSuccess, res.Outcome)

	o := f.order(t)
	assert.Equal(t, domain.StatusCancelled, o.Status)
	assert.Equal(t, domain.PaymentPaid, o.PaymentStatus)
	assert.True(t, o.IsPaid)
	assert.True(t, o.NeedsRefund())

	p, err := f.store.Products().FindByID(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
	assert.Equal(t, 0, p.Sold)

	// replay vẫn không mở lại đơn
	res, err = f.svc.HandleCallback(ctx, SourceReturn, callback("00", "23000000"))
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, domain.StatusCancelled, f.order(t).Status)
}

func TestHandleCallback_FailureAfterPaidIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.HandleCallback(ctx, SourceIPN, callback("00", "23000000"))
	require.NoError(t, err)

	res, err := f.svc.HandleCallback(ctx, SourceIPN, callback("24", "23000000"))

	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, payment.OutcomeSuccess, res.Outcome)
	assert.Equal(t, domain.PaymentPaid, f.order(t).PaymentStatus)
}

func TestHandleCallback_ChecksumMutationLeavesOrderUntouched(t *testing.T) {
	for _, key := range []string{"vnp_Amount", "vnp_ResponseCode", "vnp_TxnRef", "vnp_TransactionNo", "vnp_OrderInfo"} {
		t.Run(key, func(t *testing.T) {
			f := newFixture(t)
			params := callback("00", "23000000")
			v := []byte(params.Get(key))
			v[0], v[len(v)-1] = v[len(v)-1], v[0]
			if string(v) == params.Get(key) {
				v = append(v, 'x')
			}
			params.Set(key, string(v))

			_, err := f.svc.HandleCallback(context.Background(), SourceIPN, params)

			assert.ErrorIs(t, err, payment.ErrChecksumFailed)
			assert.Equal(t, domain.PaymentUnpaid, f.order(t).PaymentStatus)
			f.publisher.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleCallback_UnknownOrderAndAmountMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	params := callback("00", "23000000")
	params.Set("vnp_TxnRef", "ORD999")
	params.Set("vnp_SecureHash", vnpay.NewSigner(secret).Sign(vnpay.CanonicalQuery(withoutHash(params))))
	_, err := f.svc.HandleCallback(ctx, SourceIPN, params)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = f.svc.HandleCallback(ctx, SourceIPN, callback("00", "100"))
	assert.ErrorIs(t, err, payment.ErrAmountMismatch)
	assert.Equal(t, domain.PaymentUnpaid, f.order(t).PaymentStatus)
}

func TestCreatePaymentURL_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePaymentURL(ctx, CreateURLCommand{OrderCode: "ORD123", UserID: "u2"})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = f.svc.CreatePaymentURL(ctx, CreateURLCommand{OrderCode: "NOPE", UserID: "u1"})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = f.svc.HandleCallback(ctx, SourceIPN, callback("00", "23000000"))
	require.NoError(t, err)
	_, err = f.svc.CreatePaymentURL(ctx, CreateURLCommand{OrderCode: "ORD123", UserID: "u1"})
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
}

func TestCreatePaymentURL_CODIsNotPayable(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Orders().Insert(context.Background(), &domain.Order{
		ID: "o-2", Code: "COD1", UserID: "u1", PaymentMethod: domain.PaymentCOD,
		Status: domain.StatusPending, PaymentStatus: domain.PaymentUnpaid, Total: 1000,
	}))

	_, err := f.svc.CreatePaymentURL(context.Background(), CreateURLCommand{OrderCode: "COD1", UserID: "u1"})

	assert.ErrorIs(t, err, domain.ErrNotPayable)
}

func TestQueryAndReconcile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.querier.On("QueryTransaction", mock.Anything, mock.MatchedBy(func(r payment.QueryRequest) bool {
		return r.OrderCode == "ORD123" && r.TransactionDate.Equal(now.Add(-5*time.Minute))
	})).Return(&payment.Notification{OrderCode: "ORD123", Amount: 230000, ResponseCode: "00", Outcome: payment.OutcomeSuccess}, nil)

	res, err := f.svc.QueryAndReconcile(ctx, "ORD123", "127.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Reconciled)
	assert.Equal(t, domain.PaymentPaid, res.Order.PaymentStatus)

	res, err = f.svc.QueryAndReconcile(ctx, "ORD123", "127.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Reconciled)
	f.publisher.AssertNumberOfCalls(t, "PublishEvent", 1)
}

func TestQueryAndReconcile_PendingDoesNothing(t *testing.T) {
	f := newFixture(t)
	f.querier.On("QueryTransaction", mock.Anything, mock.Anything).
		Return(&payment.Notification{OrderCode: "ORD123", Outcome: payment.OutcomePending}, nil)

	res, err := f.svc.QueryAndReconcile(context.Background(), "ORD123", "")

	require.NoError(t, err)
	assert.False(t, res.Reconciled)
	assert.Equal(t, domain.PaymentUnpaid, f.order(t).PaymentStatus)
}

func TestQueryAndReconcile_GatewayUnavailable(t *testing.T) {
	f := newFixture(t)
	f.querier.On("QueryTransaction", mock.Anything, mock.Anything).Return(nil, payment.ErrGatewayUnavailable)

	_, err := f.svc.QueryAndReconcile(context.Background(), "ORD123", "")

	assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
}

func withoutHash(params url.Values) url.Values {
	out := url.Values{}
	for k, v := range params {
		if k != "vnp_SecureHash" {
			out[k] = v
		}
	}
	return out
}
