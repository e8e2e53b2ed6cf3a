package memory

import (
	"context"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/promotion"
)

type PromotionRepository struct {
	s *Store
}

func (r *PromotionRepository) FindByCode(_ context.Context, code string) (*promotion.Promotion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.promoByCode[code]
	if !ok {
		return nil, nil
	}
	cp := *r.s.promotions[id]
	return &cp, nil
}

func (r *PromotionRepository) IncrementUsage(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.promotions[id]
	if !ok {
		return promotion.ErrPromotionNotFound
	}
	if p.Exhausted() {
		return promotion.ErrPromotionRace
	}
	p.UsedCount++
	r.s.record(ctx, func() { p.UsedCount-- })
	return nil
}
