package payment

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	domain "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/payment"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/repository"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
)

// SweeperConfig điều khiển việc quét định kỳ các đơn VNPAY chưa nhận được IPN.
type SweeperConfig struct {
	Interval  time.Duration
	MinAge    time.Duration
	Workers   int
	BatchSize int
	ClientIP  string
}

// Sweeper hỏi querydr cho các đơn VNPAY còn unpaid quá MinAge, phòng trường hợp IPN bị mất.
type Sweeper struct {
	svc    *Service
	orders repository.OrderRepository
	cfg    SweeperConfig
	log    logger.Logger
}

func NewSweeper(svc *Service, cfg SweeperConfig) *Sweeper {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.ClientIP == "" {
		cfg.ClientIP = "127.0.0.1"
	}
	return &Sweeper{svc: svc, orders: svc.Orders, cfg: cfg, log: svc.Logger.WithFields(logger.String("component", "payment_sweeper"))}
}

// Run quét mỗi Interval tới khi ctx bị huỷ. Lỗi của một lần quét chỉ được log.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.SweepOnce(ctx)
			if err != nil && ctx.Err() == nil {
				s.log.Warn("payment sweep failed", logger.Error(err))
				continue
			}
			if n > 0 {
				s.log.Info("payment sweep reconciled orders", logger.Int("reconciled", n))
			}
		}
	}
}

// SweepOnce trả về số đơn được đối soát thành paid trong lượt này.
// Breaker mở thì dừng lượt quét sớm.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	candidates, err := s.candidates(ctx)
	if err != nil {
		return 0, err
	}

	var reconciled atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	for _, o := range candidates {
		code := o.Code
		g.Go(func() error {
			res, err := s.svc.QueryAndReconcile(gctx, code, s.cfg.ClientIP)
			switch {
			case errors.Is(err, payment.ErrGatewayUnavailable):
				return err
			case err != nil:
				s.log.Warn("query transaction failed", logger.String("order_code", code), logger.Error(err))
				return nil
			}
			if res.Reconciled {
				reconciled.Add(1)
			}
			return nil
		})
	}

	err = g.Wait()
	return int(reconciled.Load()), err
}

func (s *Sweeper) candidates(ctx context.Context) ([]*domain.Order, error) {
	filter := domain.Filter{Status: domain.StatusPending, PaymentStatus: domain.PaymentUnpaid}
	cutoff := s.svc.Now().Add(-s.cfg.MinAge)

	var out []*domain.Order
	for offset := 0; ; offset += s.cfg.BatchSize {
		page, total, err := s.orders.List(ctx, filter, repository.Page{Offset: offset, Limit: s.cfg.BatchSize})
		if err != nil {
			return nil, err
		}
		for _, o := range page {
			if o.PaymentMethod == domain.PaymentVNPay && o.CreatedAt.Before(cutoff) {
				out = append(out, o)
			}
		}
		if offset+s.cfg.BatchSize >= total || len(page) == 0 {
			return out, nil
		}
	}
}
