package memory

import (
	"context"
	"sync"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/cart"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/repository"
)

// CartStore thay cho Redis khi STORAGE_DRIVER=memory.
type CartStore struct {
	mu    sync.Mutex
	carts map[string]cart.Cart
}

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]cart.Cart)}
}

func (s *CartStore) Get(_ context.Context, userID string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		return &cart.Cart{UserID: userID, Items: []cart.Item{}}, nil
	}
	c.Items = append([]cart.Item{}, c.Items...)
	return &c, nil
}

func (s *CartStore) Save(_ context.Context, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	cp.Items = append([]cart.Item{}, c.Items...)
	s.carts[c.UserID] = cp
	return nil
}

func (s *CartStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userID)
	return nil
}

const pendingClaim = ""

type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{keys: make(map[string]string)}
}

func (s *IdempotencyStore) Claim(_ context.Context, userID, key string) (repository.ClaimState, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := userID + ":" + key
	code, ok := s.keys[k]
	switch {
	case !ok:
		s.keys[k] = pendingClaim
		return repository.ClaimAcquired, "", nil
	case code == pendingClaim:
		return repository.ClaimInFlight, "", nil
	default:
		return repository.ClaimCompleted, code, nil
	}
}

func (s *IdempotencyStore) Complete(_ context.Context, userID, key, orderCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[userID+":"+key] = orderCode
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys, userID+":"+key)
	return nil
}
