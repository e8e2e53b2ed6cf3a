package memory

import (
	"context"
	"sync"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/product"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/promotion"
)

// Store giữ toàn bộ dữ liệu trong RAM, dùng cho chạy local và test.
// Mỗi thao tác ghi là một conditional update dưới cùng một mutex.
// Transact không cô lập giữa các goroutine: nó ghi lại thao tác bù trừ và chạy ngược khi fn lỗi.
type Store struct {
	mu sync.Mutex

	products    map[string]*product.Product
	promotions  map[string]*promotion.Promotion
	promoByCode map[string]string
	orders      map[string]*order.Order
	orderByCode map[string]string
	seq         map[string]int
	nextSeq     int
}

func NewStore() *Store {
	return &Store{
		products:    make(map[string]*product.Product),
		promotions:  make(map[string]*promotion.Promotion),
		promoByCode: make(map[string]string),
		orders:      make(map[string]*order.Order),
		orderByCode: make(map[string]string),
		seq:         make(map[string]int),
	}
}

func (s *Store) Products() *ProductRepository     { return &ProductRepository{s: s} }
func (s *Store) Promotions() *PromotionRepository { return &PromotionRepository{s: s} }
func (s *Store) Orders() *OrderRepository         { return &OrderRepository{s: s} }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) SeedProducts(items ...product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range items {
		p := p
		s.products[p.ID] = &p
	}
}

func (s *Store) SeedPromotions(items ...promotion.Promotion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range items {
		p := p
		p.Code = promotion.NormalizeCode(p.Code)
		s.promotions[p.ID] = &p
		s.promoByCode[p.Code] = p.ID
	}
}

type journal struct {
	undo []func()
}

type journalKey struct{}

// Transact chạy fn với một journal trong ctx. Transact lồng nhau dùng chung journal ngoài cùng.
func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}

	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		s.mu.Lock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// record must be called with s.mu held.
func (s *Store) record(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}
