package memory

import (
	"context"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/product"
)

type ProductRepository struct {
	s *Store
}

func (r *ProductRepository) FindByID(_ context.Context, id string) (*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *ProductRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return product.ErrInvalidQuantity
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return product.ErrProductNotFound
	}
	if p.Stock < quantity {
		return product.ErrInventoryRace
	}
	p.Stock -= quantity
	p.Sold += quantity
	r.s.record(ctx, func() {
		p.Stock += quantity
		p.Sold -= quantity
	})
	return nil
}

func (r *ProductRepository) RestoreStock(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return product.ErrInvalidQuantity
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return product.ErrProductNotFound
	}
	sold := min(quantity, p.Sold)
	p.Stock += quantity
	p.Sold -= sold
	r.s.record(ctx, func() {
		p.Stock -= quantity
		p.Sold += sold
	})
	return nil
}
