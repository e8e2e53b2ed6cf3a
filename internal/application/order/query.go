package order

import (
	"context"
	"fmt"

	domain "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PageQuery struct {
	Page  int
	Limit int
}

// Normalize áp dụng mặc định page=1, limit=20 và chặn limit tối đa 100.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	return q
}

func (q PageQuery) window() repository.Page {
	return repository.Page{Offset: (q.Page - 1) * q.Limit, Limit: q.Limit}
}

type OrderList struct {
	Orders []*domain.Order `json:"orders"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
	Total  int             `json:"total"`
}

func (s *Service) ListMine(ctx context.Context, userID string, q PageQuery) (*OrderList, error) {
	q = q.Normalize()
	orders, total, err := s.Orders.ListByUser(ctx, userID, q.window())
	if err != nil {
		return nil, fmt.Errorf("list orders of user: %w", err)
	}
	return &OrderList{Orders: orders, Page: q.Page, Limit: q.Limit, Total: total}, nil
}

func (s *Service) ListAll(ctx context.Context, filter domain.Filter, q PageQuery) (*OrderList, error) {
	q = q.Normalize()
	orders, total, err := s.Orders.List(ctx, filter, q.window())
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &OrderList{Orders: orders, Page: q.Page, Limit: q.Limit, Total: total}, nil
}

// GetByCode trả về đơn cho chủ đơn hoặc admin; người khác nhận ErrOrderNotFound.
func (s *Service) GetByCode(ctx context.Context, code, userID string, isAdmin bool) (*domain.Order, error) {
	o, err := s.Orders.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if o == nil || (!isAdmin && !o.OwnedBy(userID)) {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}
