package promotion

import (
	"context"
	"fmt"
	"time"

	domain "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/promotion"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/repository"
)

// UsageCounter đếm số đơn chưa huỷ của user đã dùng một mã.
type UsageCounter interface {
	CountPromotionUses(ctx context.Context, userID, code string) (int, error)
}

type Result struct {
	Promotion    *domain.Promotion
	Discount     int64
	Snapshot     domain.Snapshot
	FreeShipping bool
}

type Evaluator struct {
	promotions repository.PromotionRepository
	usage      UsageCounter
	now        func() time.Time
}

func NewEvaluator(promotions repository.PromotionRepository, usage UsageCounter) *Evaluator {
	return &Evaluator{promotions: promotions, usage: usage, now: time.Now}
}

// WithClock overrides the evaluation time, used by tests.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// Evaluate kiểm tra mã theo thứ tự: tồn tại, đang hiệu lực, giá trị tối thiểu,
// tổng lượt dùng, lượt dùng của user. Không ghi gì; used_count được tăng khi tạo đơn.
func (e *Evaluator) Evaluate(ctx context.Context, code string, subtotal int64, userID string) (*Result, error) {
	normalized := domain.NormalizeCode(code)
	if normalized == "" {
		return nil, domain.ErrPromotionNotFound
	}

	p, err := e.promotions.FindByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("load promotion: %w", err)
	}
	if p == nil {
		return nil, domain.ErrPromotionNotFound
	}
	if !p.IsEffective(e.now()) {
		return nil, domain.ErrPromotionInactive
	}
	if subtotal < p.MinOrderValue {
		return nil, domain.ErrMinOrderNotMet
	}
	if p.Exhausted() {
		return nil, domain.ErrPromotionExhausted
	}
	if p.MaxUsesPerUser != nil {
		used, err := e.usage.CountPromotionUses(ctx, userID, p.Code)
		if err != nil {
			return nil, fmt.Errorf("count promotion uses: %w", err)
		}
		if used >= *p.MaxUsesPerUser {
			return nil, domain.ErrPerUserLimitReached
		}
	}

	discount := p.Discount(subtotal)
	return &Result{
		Promotion:    p,
		Discount:     discount,
		Snapshot:     p.Snapshot(discount),
		FreeShipping: p.Kind == domain.KindFreeShipping,
	}, nil
}
