package pricing

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/product"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	return m.Called(ctx, id, quantity).Error(0)
}

func (m *MockProductRepository) RestoreStock(ctx context.Context, id string, quantity int) error {
	return m.Called(ctx, id, quantity).Error(0)
}

func TestPriceCart_HappyPath(t *testing.T) {
	// Arrange
	repo := new(MockProductRepository)
	repo.On("FindByID", mock.Anything, "p1").Return(&product.Product{ID: "p1", Name: "Ao", Price: 100000, Stock: 5}, nil)
	engine := NewEngine(repo)

	// Act
	res, err := engine.PriceCart(context.Background(), []LineRequest{{ProductID: "p1", Quantity: 2}})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(200000), res.Subtotal)
	assert.Equal(t, []order.LineItem{{ProductID: "p1", Name: "Ao", Quantity: 2, Price: 100000}}, res.Items)
	repo.AssertExpectations(t)
}

func TestPriceCart_SubtotalIsSumOfLines(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		repo := new(MockProductRepository)
		n := 1 + rng.Intn(5)
		lines := make([]LineRequest, 0, n)
		var want int64
		for j := 0; j < n; j++ {
			id := string(rune('a' + j))
			price := int64(rng.Intn(2000000))
			qty := 1 + rng.Intn(10)
			repo.On("FindByID", mock.Anything, id).Return(&product.Product{ID: id, Price: price, Stock: qty + rng.Intn(5)}, nil)
			lines = append(lines, LineRequest{ProductID: id, Quantity: qty})
			want += price * int64(qty)
		}

		res, err := NewEngine(repo).PriceCart(context.Background(), lines)

		require.NoError(t, err)
		assert.Equal(t, want, res.Subtotal)
	}
}

func TestPriceCart_MergesDuplicateLinesBeforeStockCheck(t *testing.T) {
	repo := new(MockProductRepository)
	repo.On("FindByID", mock.Anything, "p1").Return(&product.Product{ID: "p1", Price: 1000, Stock: 3}, nil)

	_, err := NewEngine(repo).PriceCart(context.Background(), []LineRequest{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p1", Quantity: 2},
	})

	assert.ErrorIs(t, err, product.ErrInsufficientStock)
	repo.AssertNumberOfCalls(t, "FindByID", 1)
}

func TestPriceCart_InsufficientStockWinsOverOtherErrors(t *testing.T) {
	repo := new(MockProductRepository)
	repo.On("FindByID", mock.Anything, "missing").Return(nil, nil)
	repo.On("FindByID", mock.Anything, "p1").Return(&product.Product{ID: "p1", Price: 1000, Stock: 1}, nil)

	_, err := NewEngine(repo).PriceCart(context.Background(), []LineRequest{
		{ProductID: "missing", Quantity: 1},
		{ProductID: "bad", Quantity: 0},
		{ProductID: "p1", Quantity: 5},
	})

	assert.ErrorIs(t, err, product.ErrInsufficientStock)
}

func TestPriceCart_LineErrors(t *testing.T) {
	repo := new(MockProductRepository)
	repo.On("FindByID", mock.Anything, "missing").Return(nil, nil)
	repo.On("FindByID", mock.Anything, "p1").Return(&product.Product{ID: "p1", Price: 1000, Stock: 10}, nil)
	engine := NewEngine(repo)
	ctx := context.Background()

	_, err := engine.PriceCart(ctx, nil)
	assert.ErrorIs(t, err, order.ErrEmptyItems)

	_, err = engine.PriceCart(ctx, []LineRequest{{ProductID: "missing", Quantity: 1}})
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	_, err = engine.PriceCart(ctx, []LineRequest{{ProductID: "p1", Quantity: 0}})
	assert.ErrorIs(t, err, product.ErrInvalidQuantity)

	_, err = engine.PriceCart(ctx, []LineRequest{{ProductID: "p1", Quantity: -3}, {ProductID: "p1", Quantity: 1}})
	assert.ErrorIs(t, err, product.ErrInvalidQuantity)
}
