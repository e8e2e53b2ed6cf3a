package memory

import (
	"time"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/persistence/demo"
)

// SeedDemoCatalog nạp vài sản phẩm và mã giảm giá mẫu cho môi trường local.
func (s *Store) SeedDemoCatalog(now time.Time) {
	s.SeedProducts(demo.Products()...)
	s.SeedPromotions(demo.Promotions(now)...)
}
