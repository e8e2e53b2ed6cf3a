package repository

import (
	"context"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/cart"
)

// CartRepository returns an empty cart, not nil, for users without one.
type CartRepository interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	Save(ctx context.Context, c *cart.Cart) error
	Clear(ctx context.Context, userID string) error
}

type ClaimState int

const (
	ClaimAcquired ClaimState = iota
	ClaimInFlight
	ClaimCompleted
)

// IdempotencyStore giữ Idempotency-Key của request tạo đơn.
// Khi key đã Complete, Claim trả về mã đơn đã tạo.
type IdempotencyStore interface {
	Claim(ctx context.Context, userID, key string) (state ClaimState, orderCode string, err error)
	Complete(ctx context.Context, userID, key, orderCode string) error
	Release(ctx context.Context, userID, key string) error
}
