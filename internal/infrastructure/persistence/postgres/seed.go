package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/product"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/promotion"
)

// Seed upsert catalog trong một transaction.
func Seed(ctx context.Context, pool *pgxpool.Pool, products []product.Product, promos []promotion.Promotion) error {
	productRepo := NewProductRepository(pool)
	promoRepo := NewPromotionRepository(pool)

	return NewTransactor(pool).Transact(ctx, func(ctx context.Context) error {
		for _, p := range products {
			if err := productRepo.Upsert(ctx, p); err != nil {
				return err
			}
		}
		for _, p := range promos {
			if err := promoRepo.Upsert(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}
