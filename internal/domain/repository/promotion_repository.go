package repository

import (
	"context"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/promotion"
)

type PromotionRepository interface {
	// FindByCode expects an already normalized code.
	FindByCode(ctx context.Context, code string) (*promotion.Promotion, error)

	// IncrementUsage tăng used_count khi chưa chạm max_uses, ngược lại trả về promotion.ErrPromotionRace.
	IncrementUsage(ctx context.Context, id string) error
}
