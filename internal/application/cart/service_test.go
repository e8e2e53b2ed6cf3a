package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/cart"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/product"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/persistence/memory"
)

func TestService_SetItemAndClear(t *testing.T) {
	store := memory.NewStore()
	store.SeedProducts(product.Product{ID: "P1", Price: 1000, Stock: 1})
	svc := NewService(memory.NewCartStore(), store.Products())
	ctx := context.Background()

	c, err := svc.SetItem(ctx, "u1", "P1", 3)
	require.NoError(t, err)
	assert.Equal(t, []domain.Item{{ProductID: "P1", Quantity: 3}}, c.Items)

	_, err = svc.SetItem(ctx, "u1", "GHOST", 1)
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	_, err = svc.SetItem(ctx, "u1", "P1", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	c, err = svc.SetItem(ctx, "u1", "P1", 0)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	_, err = svc.SetItem(ctx, "u1", "P1", 1)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, "u1"))
	c, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}
