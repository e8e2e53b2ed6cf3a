package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/repository"
)

const (
	pendingValue   = "pending"
	completePrefix = "done:"
)

// IdempotencyStore giữ Idempotency-Key của POST /orders.
// Giá trị "pending" khi request đầu còn chạy, "done:<orderCode>" khi đã tạo đơn.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

func (s *IdempotencyStore) Claim(ctx context.Context, userID, key string) (repository.ClaimState, string, error) {
	k := idemKey(userID, key)

	ok, err := s.client.SetNX(ctx, k, pendingValue, s.ttl).Result()
	if err != nil {
		return 0, "", fmt.Errorf("redis setnx failed: %w", err)
	}
	if ok {
		return repository.ClaimAcquired, "", nil
	}

	val, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// key vừa hết hạn giữa SETNX và GET; coi như request khác đang giữ.
		return repository.ClaimInFlight, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("redis get failed: %w", err)
	}
	if code, done := strings.CutPrefix(val, completePrefix); done {
		return repository.ClaimCompleted, code, nil
	}
	return repository.ClaimInFlight, "", nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, userID, key, orderCode string) error {
	if err := s.client.Set(ctx, idemKey(userID, key), completePrefix+orderCode, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, userID, key string) error {
	if err := s.client.Del(ctx, idemKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func idemKey(userID, key string) string {
	return fmt.Sprintf("idem:%s:%s", userID, key)
}
