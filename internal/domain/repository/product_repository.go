package repository

import (
	"context"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/product"
)

type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*product.Product, error)

	// DecrementStock trừ tồn kho chỉ khi stock >= quantity, trả về product.ErrInventoryRace nếu không đủ.
	DecrementStock(ctx context.Context, id string, quantity int) error
	RestoreStock(ctx context.Context, id string, quantity int) error
}
