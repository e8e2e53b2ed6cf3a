package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/promotion"
)

type PromotionRepository struct {
	pool *pgxpool.Pool
}

func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

func (r *PromotionRepository) FindByCode(ctx context.Context, code string) (*promotion.Promotion, error) {
	// value đọc dạng text để decimal giữ nguyên độ chính xác của NUMERIC
	const query = `
		SELECT id, code, kind, value::text, min_order_value, max_discount, max_uses,
			max_uses_per_user, used_count, active, start_date, end_date
		FROM promotions
		WHERE code = $1`

	var (
		p     promotion.Promotion
		kind  string
		value string
	)
	err := conn(ctx, r.pool).QueryRow(ctx, query, code).Scan(
		&p.ID,
		&p.Code,
		&kind,
		&value,
		&p.MinOrderValue,
		&p.MaxDiscount,
		&p.MaxUses,
		&p.MaxUsesPerUser,
		&p.UsedCount,
		&p.Active,
		&p.StartDate,
		&p.EndDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find promotion %s: %w", code, err)
	}

	p.Kind = promotion.Kind(kind)
	if p.Value, err = decimal.NewFromString(value); err != nil {
		return nil, fmt.Errorf("promotion %s value %q: %w", code, value, err)
	}
	return &p, nil
}

func (r *PromotionRepository) IncrementUsage(ctx context.Context, id string) error {
	const query = `
		UPDATE promotions
		SET used_count = used_count + 1
		WHERE id = $1 AND (max_uses IS NULL OR used_count < max_uses)`

	q := conn(ctx, r.pool)
	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment promotion usage %s: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM promotions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check promotion %s: %w", id, err)
	}
	if !exists {
		return promotion.ErrPromotionNotFound
	}
	return promotion.ErrPromotionRace
}

// Upsert ghi đè mã giảm giá theo id, dùng cho seed. used_count được giữ nguyên khi đã tồn tại.
func (r *PromotionRepository) Upsert(ctx context.Context, p promotion.Promotion) error {
	const query = `
		INSERT INTO promotions (id, code, kind, value, min_order_value, max_discount, max_uses,
			max_uses_per_user, used_count, active, start_date, end_date)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE
		SET code = EXCLUDED.code,
			kind = EXCLUDED.kind,
			value = EXCLUDED.value,
			min_order_value = EXCLUDED.min_order_value,
			max_discount = EXCLUDED.max_discount,
			max_uses = EXCLUDED.max_uses,
			max_uses_per_user = EXCLUDED.max_uses_per_user,
			active = EXCLUDED.active,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date`

	_, err := conn(ctx, r.pool).Exec(ctx, query,
		p.ID,
		promotion.NormalizeCode(p.Code),
		string(p.Kind),
		p.Value.String(),
		p.MinOrderValue,
		p.MaxDiscount,
		p.MaxUses,
		p.MaxUsesPerUser,
		p.UsedCount,
		p.Active,
		p.StartDate,
		p.EndDate,
	)
	if err != nil {
		return fmt.Errorf("upsert promotion %s: %w", p.Code, err)
	}
	return nil
}
