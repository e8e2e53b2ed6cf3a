package promotion

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domain "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/promotion"
)

type MockPromotionRepository struct {
	mock.Mock
}

func (m *MockPromotionRepository) FindByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Promotion), args.Error(1)
}

func (m *MockPromotionRepository) IncrementUsage(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockUsageCounter struct {
	mock.Mock
}

func (m *MockUsageCounter) CountPromotionUses(ctx context.Context, userID, code string) (int, error) {
	args := m.Called(ctx, userID, code)
	return args.Int(0), args.Error(1)
}

var evalNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func basePromotion() *domain.Promotion {
	return &domain.Promotion{
		ID:        "pr1",
		Code:      "SUMMER",
		Kind:      domain.KindPercent,
		Value:     decimal.NewFromInt(20),
		Active:    true,
		StartDate: evalNow.Add(-time.Hour),
		EndDate:   evalNow.Add(time.Hour),
	}
}

func TestEvaluate_PercentCapped(t *testing.T) {
	// Arrange
	p := basePromotion()
	p.MaxDiscount = int64Ptr(150000)
	repo := new(MockPromotionRepository)
	repo.On("FindByCode", mock.Anything, "SUMMER").Return(p, nil)
	e := NewEvaluator(repo, new(MockUsageCounter)).WithClock(func() time.Time { return evalNow })

	// Act
	res, err := e.Evaluate(context.Background(), "  summer ", 1000000, "u1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(150000), res.Discount)
	assert.Equal(t, "SUMMER", res.Snapshot.Code)
	assert.Equal(t, int64(150000), res.Snapshot.Discount)
	assert.False(t, res.FreeShipping)
	repo.AssertExpectations(t)
}

func TestEvaluate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *domain.Promotion)
		used   int
		want   error
	}{
		{"inactive flag", func(p *domain.Promotion) { p.Active = false }, 0, domain.ErrPromotionInactive},
		{"not started", func(p *domain.Promotion) { p.StartDate = evalNow.Add(time.Minute) }, 0, domain.ErrPromotionInactive},
		{"end is exclusive", func(p *domain.Promotion) { p.EndDate = evalNow }, 0, domain.ErrPromotionInactive},
		{"min order", func(p *domain.Promotion) { p.MinOrderValue = 600000 }, 0, domain.ErrMinOrderNotMet},
		{"exhausted", func(p *domain.Promotion) { p.MaxUses = intPtr(3); p.UsedCount = 3 }, 0, domain.ErrPromotionExhausted},
		{"per user", func(p *domain.Promotion) { p.MaxUsesPerUser = intPtr(1) }, 1, domain.ErrPerUserLimitReached},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := basePromotion()
			tt.mutate(p)
			repo := new(MockPromotionRepository)
			repo.On("FindByCode", mock.Anything, "SUMMER").Return(p, nil)
			usage := new(MockUsageCounter)
			usage.On("CountPromotionUses", mock.Anything, "u1", "SUMMER").Return(tt.used, nil)
			e := NewEvaluator(repo, usage).WithClock(func() time.Time { return evalNow })

			_, err := e.Evaluate(context.Background(), "SUMMER", 500000, "u1")

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEvaluate_NotFound(t *testing.T) {
	repo := new(MockPromotionRepository)
	repo.On("FindByCode", mock.Anything, "NOPE").Return(nil, nil)
	e := NewEvaluator(repo, new(MockUsageCounter))

	_, err := e.Evaluate(context.Background(), "nope", 100, "u1")
	assert.ErrorIs(t, err, domain.ErrPromotionNotFound)

	_, err = e.Evaluate(context.Background(), "   ", 100, "u1")
	assert.ErrorIs(t, err, domain.ErrPromotionNotFound)
}

func TestEvaluate_PerUserBelowLimit(t *testing.T) {
	p := basePromotion()
	p.Kind = domain.KindFreeShipping
	p.MaxUsesPerUser = intPtr(2)
	repo := new(MockPromotionRepository)
	repo.On("FindByCode", mock.Anything, "SUMMER").Return(p, nil)
	usage := new(MockUsageCounter)
	usage.On("CountPromotionUses", mock.Anything, "u1", "SUMMER").Return(1, nil)
	e := NewEvaluator(repo, usage).WithClock(func() time.Time { return evalNow })

	res, err := e.Evaluate(context.Background(), "SUMMER", 500000, "u1")

	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Discount)
	assert.True(t, res.FreeShipping)
	usage.AssertExpectations(t)
}
