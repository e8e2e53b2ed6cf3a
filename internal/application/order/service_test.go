package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/application/pricing"
	promoapp "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/application/promotion"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/cart"
	domain "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/product"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/promotion"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/repository"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/persistence/memory"
)

// MockPublisher là mock cho Publisher interface
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishEvent(ctx context.Context, event domain.Event) error {
	return m.Called(ctx, event).Error(0)
}

type stubPromotions struct {
	res *promoapp.Result
	err error
}

func (s stubPromotions) Evaluate(context.Context, string, int64, string) (*promoapp.Result, error) {
	return s.res, s.err
}

var fixedNow = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

var shipping = domain.ShippingInfo{
	FullName: "Tran Thi B",
	Phone:    "0911222333",
	Address:  "1 Nguyen Hue",
	Province: "TP HCM",
}

type fixture struct {
	store     *memory.Store
	carts     *memory.CartStore
	idem      *memory.IdempotencyStore
	publisher *MockPublisher
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.SeedProducts(
		product.Product{ID: "P1", Name: "Ao so mi", Price: 100000, Stock: 10},
		product.Product{ID: "P2", Name: "Vay lien", Price: 500000, Stock: 10},
	)
	f := &fixture{
		store:     store,
		carts:     memory.NewCartStore(),
		idem:      memory.NewIdempotencyStore(),
		publisher: new(MockPublisher),
	}
	f.publisher.On("PublishEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.svc = f.service(promoapp.NewEvaluator(store.Promotions(), store.Orders()).WithClock(func() time.Time { return fixedNow }))
	return f
}

func (f *fixture) service(promotions PromotionChecker) *Service {
	return NewService(Deps{
		Pricing:     pricing.NewEngine(f.store.Products()),
		Promotions:  promotions,
		Orders:      f.store.Orders(),
		Products:    f.store.Products(),
		PromoStore:  f.store.Promotions(),
		Carts:       f.carts,
		Idempotency: f.idem,
		Tx:          f.store,
		Publisher:   f.publisher,
		Shipping:    FlatRateShipping(30000, 2000000),
		Now:         func() time.Time { return fixedNow },
	})
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.Products().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func codCommand(items ...pricing.LineRequest) CreateOrderCommand {
	return CreateOrderCommand{
		UserID:        "u1",
		Items:         items,
		Shipping:      shipping,
		PaymentMethod: domain.PaymentCOD,
	}
}

func TestCreateOrder_HappyPathCOD(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	c := &cart.Cart{UserID: "u1"}
	require.NoError(t, c.SetItem("P1", 2, fixedNow))
	require.NoError(t, f.carts.Save(ctx, c))

	// Act
	o, reused, err := f.svc.CreateOrder(ctx, codCommand(pricing.LineRequest{ProductID: "P1", Quantity: 2}))

	// Assert
	require.NoError(t, err)
	assert.False(t, reused)
	assert.Equal(t, int64(200000), o.Subtotal)
	assert.Equal(t, int64(30000), o.ShippingFee)
	assert.Equal(t, int64(230000), o.Total)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, domain.PaymentUnpaid, o.PaymentStatus)
	assert.Equal(t, 8, f.stock(t, "P1"))

	stored, err := f.store.Orders().FindByCode(ctx, o.Code)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(100000), stored.Items[0].Price)

	emptied, err := f.carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, emptied.Items)

	f.publisher.AssertCalled(t, "PublishEvent", mock.Anything, mock.MatchedBy(func(e domain.Event) bool {
		return e.Type == domain.EventOrderCreated && e.OrderCode == o.Code
	}))
}

func TestCreateOrder_PercentPromoCapped(t *testing.T) {
	f := newFixture(t)
	maxDiscount := int64(150000)
	f.store.SeedPromotions(promotion.Promotion{
		ID: "pr1", Code: "SALE20", Kind: promotion.KindPercent, Value: decimal.NewFromInt(20),
		MaxDiscount: &maxDiscount, Active: true,
		StartDate: fixedNow.Add(-time.Hour), EndDate: fixedNow.Add(time.Hour),
	})

	cmd := codCommand(pricing.LineRequest{ProductID: "P2", Quantity: 2})
	cmd.PromoCode = "sale20"
	o, _, err := f.svc.CreateOrder(context.Background(), cmd)

	require.NoError(t, err)
	assert.Equal(t, int64(1000000), o.Subtotal)
	assert.Equal(t, int64(150000), o.Discount)
	assert.Equal(t, int64(1000000-150000+30000), o.Total)
	require.NotNil(t, o.Promotion)
	assert.Equal(t, "SALE20", o.Promotion.Code)

	p, err := f.store.Promotions().FindByCode(context.Background(), "SALE20")
	require.NoError(t, err)
	assert.Equal(t, 1, p.UsedCount)
}

func TestCreateOrder_FreeShippingPromoWaivesFee(t *testing.T) {
	f := newFixture(t)
	f.store.SeedPromotions(promotion.Promotion{
		ID: "pr2", Code: "FREESHIP", Kind: promotion.KindFreeShipping, Active: true,
		StartDate: fixedNow.Add(-time.Hour), EndDate: fixedNow.Add(time.Hour),
	})

	cmd := codCommand(pricing.LineRequest{ProductID: "P1", Quantity: 1})
	cmd.PromoCode = "FREESHIP"
	o, _, err := f.svc.CreateOrder(context.Background(), cmd)

	require.NoError(t, err)
	assert.Equal(t, int64(0), o.ShippingFee)
	assert.Equal(t, int64(0), o.Discount)
	assert.Equal(t, int64(100000), o.Total)
}

func TestCreateOrder_PromotionRaceRollsBack(t *testing.T) {
	// Arrange: store đã hết lượt nhưng evaluator vẫn cho qua
	f := newFixture(t)
	maxUses := 1
	promo := promotion.Promotion{ID: "pr3", Code: "LAST", Kind: promotion.KindFixed, Value: decimal.NewFromInt(10000), MaxUses: &maxUses, UsedCount: 1}
	f.store.SeedPromotions(promo)
	svc := f.service(stubPromotions{res: &promoapp.Result{Promotion: &promo, Discount: 10000, Snapshot: promo.Snapshot(10000)}})

	cmd := codCommand(pricing.LineRequest{ProductID: "P1", Quantity: 3})
	cmd.PromoCode = "LAST"

	// Act
	_, _, err := svc.CreateOrder(context.Background(), cmd)

	// Assert
	assert.ErrorIs(t, err, promotion.ErrPromotionRace)
	assert.Equal(t, 10, f.stock(t, "P1"))
	list, _, err := f.store.Orders().ListByUser(context.Background(), "u1", repository.Page{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.CreateOrder(context.Background(), codCommand(pricing.LineRequest{ProductID: "P1", Quantity: 11}))

	assert.ErrorIs(t, err, product.ErrInsufficientStock)
	assert.Equal(t, 10, f.stock(t, "P1"))
}

func TestCreateOrder_NoOversell(t *testing.T) {
	const (
		stock      = 5
		requesters = 40
	)
	f := newFixture(t)
	f.store.SeedProducts(product.Product{ID: "HOT", Name: "Limited", Price: 50000, Stock: stock})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
		other     []error
	)
	for i := 0; i < requesters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.svc.CreateOrder(context.Background(), codCommand(pricing.LineRequest{ProductID: "HOT", Quantity: 1}))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, product.ErrInventoryRace), errors.Is(err, product.ErrInsufficientStock):
				rejected++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, stock, succeeded)
	assert.Equal(t, requesters-stock, rejected)
	assert.Equal(t, 0, f.stock(t, "HOT"))
}

func TestCreateOrder_IdempotencyKeyReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cmd := codCommand(pricing.LineRequest{ProductID: "P1", Quantity: 1})
	cmd.IdempotencyKey = "k-1"

	first, reused, err := f.svc.CreateOrder(ctx, cmd)
	require.NoError(t, err)
	assert.False(t, reused)

	second, reused, err := f.svc.CreateOrder(ctx, cmd)
	require.NoError(t, err)
	assert.True(t, reused)
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, 9, f.stock(t, "P1"))
}

func TestCreateOrder_IdempotencyKeyInFlightAndRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.idem.Claim(ctx, "u1", "busy")
	require.NoError(t, err)
	cmd := codCommand(pricing.LineRequest{ProductID: "P1", Quantity: 1})
	cmd.IdempotencyKey = "busy"
	_, _, err = f.svc.CreateOrder(ctx, cmd)
	assert.ErrorIs(t, err, ErrCheckoutInProgress)

	failing := codCommand(pricing.LineRequest{ProductID: "P1", Quantity: 99})
	failing.IdempotencyKey = "retry-me"
	_, _, err = f.svc.CreateOrder(ctx, failing)
	require.ErrorIs(t, err, product.ErrInsufficientStock)

	failing.Items[0].Quantity = 1
	_, reused, err := f.svc.CreateOrder(ctx, failing)
	require.NoError(t, err)
	assert.False(t, reused)
}

func TestCreateOrder_FailedCheckoutReleasesKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cmd := codCommand(pricing.LineRequest{ProductID: "P1", Quantity: 99})
	cmd.IdempotencyKey = "k-out-of-stock"

	// Act
	o, reused, err := f.svc.CreateOrder(ctx, cmd)

	// Assert
	require.ErrorIs(t, err, product.ErrInsufficientStock)
	assert.Nil(t, o)
	assert.False(t, reused)

	state, code, err := f.idem.Claim(ctx, "u1", "k-out-of-stock")
	require.NoError(t, err)
	assert.Equal(t, repository.ClaimAcquired, state)
	assert.Empty(t, code)
}

func TestCreateOrder_PublishFailureDoesNotFailCheckout(t *testing.T) {
	f := newFixture(t)
	publisher := new(MockPublisher)
	publisher.On("PublishEvent", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	f.publisher = publisher
	svc := f.service(stubPromotions{})

	o, _, err := svc.CreateOrder(context.Background(), codCommand(pricing.LineRequest{ProductID: "P1", Quantity: 1}))

	require.NoError(t, err)
	assert.NotEmpty(t, o.Code)
	publisher.AssertNumberOfCalls(t, "PublishEvent", 1)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)

	cmd := codCommand(pricing.LineRequest{ProductID: "P1", Quantity: 1})
	cmd.PaymentMethod = "paypal"
	_, _, err := f.svc.CreateOrder(context.Background(), cmd)
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)

	cmd = codCommand(pricing.LineRequest{ProductID: "P1", Quantity: 1})
	cmd.Shipping.Address = ""
	_, _, err = f.svc.CreateOrder(context.Background(), cmd)
	assert.ErrorIs(t, err, domain.ErrMissingShipping)
}

func TestFlatRateShipping(t *testing.T) {
	policy := FlatRateShipping(30000, 2000000)
	assert.Equal(t, int64(30000), policy(1999999))
	assert.Equal(t, int64(0), policy(2000000))
	assert.Equal(t, int64(15000), FlatRateShipping(15000, 0)(99999999))
}
