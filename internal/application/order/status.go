package order

import (
	"context"
	"fmt"

	domain "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
)

// UpdateStatus chuyển trạng thái đơn theo yêu cầu của admin.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to domain.Status) (*domain.Order, error) {
	o, err := s.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}

	change, err := domain.NewStatusChange(o, to, s.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %s -> %s", err, o.Status, to)
	}
	return s.applyStatusChange(ctx, o, change)
}

// CancelByCustomer cho phép chủ đơn huỷ khi đơn còn pending và chưa thanh toán.
func (s *Service) CancelByCustomer(ctx context.Context, code, userID string) (*domain.Order, error) {
	o, err := s.Orders.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if o == nil || !o.OwnedBy(userID) {
		return nil, domain.ErrOrderNotFound
	}
	if o.Status != domain.StatusPending || o.IsPaid || o.PaymentStatus == domain.PaymentPaid {
		return nil, domain.ErrNotCancellable
	}

	change := domain.StatusChange{From: o.Status, To: domain.StatusCancelled, Now: s.Now()}
	return s.applyStatusChange(ctx, o, change)
}

func (s *Service) applyStatusChange(ctx context.Context, o *domain.Order, change domain.StatusChange) (*domain.Order, error) {
	var updated *domain.Order
	err := s.Tx.Transact(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.Orders.UpdateStatus(ctx, o.ID, change)
		if err != nil {
			return err
		}
		if !change.RestoresStock() {
			return nil
		}
		for _, it := range o.Items {
			if err := s.Products.RestoreStock(ctx, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("restore stock %s: %w", it.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Info("order status changed",
		logger.String("order_code", updated.Code),
		logger.String("from", string(change.From)),
		logger.String("to", string(change.To)),
	)
	s.publish(ctx, domain.NewEvent(domain.EventOrderStatusChanged, updated, s.Now()))
	return updated, nil
}
