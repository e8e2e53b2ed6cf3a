package repository

import (
	"context"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
)

// Page is an offset window over a newest-first listing.
type Page struct {
	Offset int
	Limit  int
}

// OrderRepository persists orders. Find methods return nil, nil when nothing matches.
type OrderRepository interface {
	Insert(ctx context.Context, o *order.Order) error
	FindByCode(ctx context.Context, code string) (*order.Order, error)
	FindByID(ctx context.Context, id string) (*order.Order, error)
	ListByUser(ctx context.Context, userID string, page Page) ([]*order.Order, int, error)
	List(ctx context.Context, filter order.Filter, page Page) ([]*order.Order, int, error)

	// CountPromotionUses đếm số đơn chưa huỷ của user có dùng mã code.
	CountPromotionUses(ctx context.Context, userID, code string) (int, error)

	// ApplyPayment applies upd only while the order is not paid and not already in
	// upd's payment status. applied reports whether a row changed; the returned
	// order is the current state either way.
	ApplyPayment(ctx context.Context, code string, upd order.PaymentUpdate) (o *order.Order, applied bool, err error)

	// UpdateStatus is a compare-and-set on change.From and returns
	// order.ErrStatusConflict when the stored status moved on.
	UpdateStatus(ctx context.Context, id string, change order.StatusChange) (*order.Order, error)
}
