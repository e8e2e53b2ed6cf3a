package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/product"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*product.Product, error) {
	const query = `SELECT id, name, price, stock, sold FROM products WHERE id = $1`

	var p product.Product
	err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Sold)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	return &p, nil
}

// DecrementStock là conditional update: chỉ trừ khi stock >= quantity.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return product.ErrInvalidQuantity
	}

	const query = `
		UPDATE products
		SET stock = stock - $2, sold = sold + $2
		WHERE id = $1 AND stock >= $2`

	tag, err := conn(ctx, r.pool).Exec(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock %s: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return r.missOrRace(ctx, id, product.ErrInventoryRace)
}

func (r *ProductRepository) RestoreStock(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		return product.ErrInvalidQuantity
	}

	const query = `
		UPDATE products
		SET stock = stock + $2, sold = GREATEST(sold - $2, 0)
		WHERE id = $1`

	tag, err := conn(ctx, r.pool).Exec(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("restore stock %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

// Upsert ghi đè sản phẩm theo id, dùng cho seed.
func (r *ProductRepository) Upsert(ctx context.Context, p product.Product) error {
	const query = `
		INSERT INTO products (id, name, price, stock, sold)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			sold = EXCLUDED.sold`

	_, err := conn(ctx, r.pool).Exec(ctx, query, p.ID, p.Name, p.Price, p.Stock, p.Sold)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

func (r *ProductRepository) missOrRace(ctx context.Context, id string, race error) error {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return product.ErrProductNotFound
	}
	return race
}
