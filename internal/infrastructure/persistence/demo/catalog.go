// Package demo chứa catalog mẫu dùng cho môi trường local.
package demo

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/product"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/promotion"
)

func Products() []product.Product {
	return []product.Product{
		{ID: "p-tee-white", Name: "Áo thun basic trắng", Price: 199000, Stock: 50},
		{ID: "p-jean-slim", Name: "Quần jean slim fit", Price: 549000, Stock: 30},
		{ID: "p-jacket-bomber", Name: "Áo khoác bomber", Price: 899000, Stock: 10},
	}
}

// Promotions có hiệu lực từ một tháng trước now tới một năm sau.
func Promotions(now time.Time) []promotion.Promotion {
	maxDiscount := int64(150000)
	perUser := 1
	maxUses := 100
	return []promotion.Promotion{
		{
			ID: "promo-welcome", Code: "WELCOME20", Kind: promotion.KindPercent,
			Value: decimal.NewFromInt(20), MaxDiscount: &maxDiscount, MaxUsesPerUser: &perUser,
			Active: true, StartDate: now.AddDate(0, -1, 0), EndDate: now.AddDate(1, 0, 0),
		},
		{
			ID: "promo-freeship", Code: "FREESHIP", Kind: promotion.KindFreeShipping,
			MinOrderValue: 300000, MaxUses: &maxUses,
			Active: true, StartDate: now.AddDate(0, -1, 0), EndDate: now.AddDate(1, 0, 0),
		},
	}
}
