package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/application/pricing"
	promoapp "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/application/promotion"
	domain "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/product"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/promotion"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/repository"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/metrics"
)

const maxCodeAttempts = 3

var ErrCheckoutInProgress = errors.New("a checkout with this idempotency key is still in progress")

// Publisher đẩy event của đơn ra message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, event domain.Event) error
}

type Pricer interface {
	PriceCart(ctx context.Context, lines []pricing.LineRequest) (*pricing.Result, error)
}

type PromotionChecker interface {
	Evaluate(ctx context.Context, code string, subtotal int64, userID string) (*promoapp.Result, error)
}

// Deps gom các dependency của Service. Idempotency, Publisher và Metrics có thể nil.
type Deps struct {
	Pricing     Pricer
	Promotions  PromotionChecker
	Orders      repository.OrderRepository
	Products    repository.ProductRepository
	PromoStore  repository.PromotionRepository
	Carts       repository.CartRepository
	Idempotency repository.IdempotencyStore
	Tx          repository.Transactor
	Publisher   Publisher
	Shipping    ShippingPolicy
	Metrics     *metrics.Metrics
	Logger      logger.Logger
	Now         func() time.Time
}

type Service struct {
	Deps
}

func NewService(deps Deps) *Service {
	if deps.Shipping == nil {
		deps.Shipping = FlatRateShipping(30000, 2000000)
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{Deps: deps}
}

type CreateOrderCommand struct {
	UserID         string
	Items          []pricing.LineRequest
	Shipping       domain.ShippingInfo
	PaymentMethod  domain.PaymentMethod
	PromoCode      string
	IdempotencyKey string
}

// CreateOrder chạy toàn bộ luồng checkout. reused=true khi Idempotency-Key đã hoàn tất
// trước đó và đơn cũ được trả lại thay vì tạo mới.
func (s *Service) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (o *domain.Order, reused bool, err error) {
	log := s.Logger.WithContext(ctx)

	if cmd.IdempotencyKey != "" && s.Idempotency != nil {
		existing, claimed, claimErr := s.claimKey(ctx, cmd)
		if claimErr != nil {
			return nil, false, claimErr
		}
		if existing != nil {
			log.Info("checkout replayed", logger.String("order_code", existing.Code))
			return existing, true, nil
		}
		if claimed {
			// đọc named return err, không phải biến cục bộ
			defer func() {
				if err == nil && o != nil {
					if cerr := s.Idempotency.Complete(ctx, cmd.UserID, cmd.IdempotencyKey, o.Code); cerr != nil {
						log.Warn("complete idempotency key failed", logger.Error(cerr))
					}
					return
				}
				if rerr := s.Idempotency.Release(context.WithoutCancel(ctx), cmd.UserID, cmd.IdempotencyKey); rerr != nil {
					log.Warn("release idempotency key failed", logger.Error(rerr))
				}
			}()
		}
	}

	o, err = s.createOrder(ctx, cmd)
	if err != nil {
		s.Metrics.ObserveCheckout(checkoutResult(err))
		log.Warn("checkout rejected", logger.String("user_id", cmd.UserID), logger.Error(err))
		return nil, false, err
	}

	s.Metrics.ObserveCheckout("created")
	log.Info("order created",
		logger.String("order_code", o.Code),
		logger.String("payment_method", string(o.PaymentMethod)),
		logger.Int64("total", o.Total),
	)

	if err := s.Carts.Clear(ctx, cmd.UserID); err != nil {
		log.Warn("clear cart failed", logger.String("order_code", o.Code), logger.Error(err))
	}
	s.publish(ctx, domain.NewEvent(domain.EventOrderCreated, o, s.Now()))

	return o, false, nil
}

func (s *Service) claimKey(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, bool, error) {
	state, code, err := s.Idempotency.Claim(ctx, cmd.UserID, cmd.IdempotencyKey)
	if err != nil {
		return nil, false, fmt.Errorf("claim idempotency key: %w", err)
	}

	switch state {
	case repository.ClaimInFlight:
		return nil, false, ErrCheckoutInProgress
	case repository.ClaimCompleted:
		o, err := s.Orders.FindByCode(ctx, code)
		if err != nil {
			return nil, false, fmt.Errorf("load replayed order: %w", err)
		}
		if o == nil {
			return nil, false, domain.ErrOrderNotFound
		}
		return o, false, nil
	default:
		return nil, true, nil
	}
}

func (s *Service) createOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if cmd.UserID == "" {
		return nil, domain.ErrMissingField
	}
	if !cmd.PaymentMethod.Valid() {
		return nil, domain.ErrInvalidPaymentMethod
	}
	if err := cmd.Shipping.Validate(); err != nil {
		return nil, err
	}

	priced, err := s.Pricing.PriceCart(ctx, cmd.Items)
	if err != nil {
		return nil, err
	}

	var promo *promoapp.Result
	if cmd.PromoCode != "" {
		promo, err = s.Promotions.Evaluate(ctx, cmd.PromoCode, priced.Subtotal, cmd.UserID)
		if err != nil {
			return nil, err
		}
	}

	params := domain.NewOrderParams{
		UserID:        cmd.UserID,
		Items:         priced.Items,
		Shipping:      cmd.Shipping,
		PaymentMethod: cmd.PaymentMethod,
		ShippingFee:   s.Shipping(priced.Subtotal),
		Now:           s.Now(),
	}
	if promo != nil {
		snapshot := promo.Snapshot
		params.Discount = promo.Discount
		params.Promotion = &snapshot
		if promo.FreeShipping {
			params.ShippingFee = 0
		}
	}

	o, err := domain.NewOrder(params)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		err = s.Tx.Transact(ctx, func(ctx context.Context) error {
			return s.reserve(ctx, o, promo)
		})
		if !errors.Is(err, domain.ErrDuplicateCode) || attempt == maxCodeAttempts {
			break
		}
		o.Code = domain.NewCode(params.Now)
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// reserve ghi đơn, trừ tồn kho và tăng lượt dùng mã trong cùng một transaction.
func (s *Service) reserve(ctx context.Context, o *domain.Order, promo *promoapp.Result) error {
	if err := s.Orders.Insert(ctx, o); err != nil {
		if errors.Is(err, domain.ErrDuplicateCode) {
			return err
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		if err := s.Products.DecrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			if errors.Is(err, product.ErrInventoryRace) {
				return fmt.Errorf("%w: %s", product.ErrInventoryRace, it.Name)
			}
			return fmt.Errorf("decrement stock %s: %w", it.ProductID, err)
		}
	}

	if promo != nil {
		if err := s.PromoStore.IncrementUsage(ctx, promo.Promotion.ID); err != nil {
			if errors.Is(err, promotion.ErrPromotionRace) {
				return err
			}
			return fmt.Errorf("increment promotion usage: %w", err)
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event domain.Event) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishEvent(ctx, event); err != nil {
		s.Metrics.ObservePublishError()
		s.Logger.WithContext(ctx).Error("publish order event failed",
			logger.String("event_type", event.Type),
			logger.String("order_code", event.OrderCode),
			logger.Error(err),
		)
	}
}

func checkoutResult(err error) string {
	switch {
	case errors.Is(err, product.ErrInventoryRace), errors.Is(err, promotion.ErrPromotionRace):
		return "conflict"
	case errors.Is(err, product.ErrInsufficientStock):
		return "out_of_stock"
	case isPromotionError(err):
		return "promotion_rejected"
	case isValidationError(err):
		return "invalid"
	default:
		return "error"
	}
}

func isPromotionError(err error) bool {
	for _, target := range []error{
		promotion.ErrPromotionNotFound,
		promotion.ErrPromotionInactive,
		promotion.ErrMinOrderNotMet,
		promotion.ErrPromotionExhausted,
		promotion.ErrPerUserLimitReached,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isValidationError(err error) bool {
	for _, target := range []error{
		product.ErrProductNotFound,
		product.ErrInvalidQuantity,
		domain.ErrMissingField,
		domain.ErrEmptyItems,
		domain.ErrMissingShipping,
		domain.ErrInvalidPaymentMethod,
		domain.ErrInvalidAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
