package cart

import (
	"context"
	"fmt"
	"time"

	domain "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/cart"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/product"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/repository"
)

type Service struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	now      func() time.Time
}

func NewService(carts repository.CartRepository, products repository.ProductRepository) *Service {
	return &Service{carts: carts, products: products, now: time.Now}
}

func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return c, nil
}

// SetItem đặt số lượng một sản phẩm trong giỏ. Tồn kho chỉ được kiểm tra lại lúc checkout.
func (s *Service) SetItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity > 0 {
		p, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("load product: %w", err)
		}
		if p == nil {
			return nil, product.ErrProductNotFound
		}
	}

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if err := c.SetItem(productID, quantity, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
