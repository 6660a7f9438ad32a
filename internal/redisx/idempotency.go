package redisx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore maps a client supplied checkout key to the order it
// produced, so a retried request returns the original order instead of
// placing a second one.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = TTLIdempotency
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

// Lookup reports the order id remembered for key, if any.
func (s *IdempotencyStore) Lookup(ctx context.Context, owner, key string) (int64, bool, error) {
	val, err := s.rdb.Get(ctx, checkoutKey(owner, key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup idempotency key: %w", err)
	}

	orderID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt idempotency value %q: %w", val, err)
	}
	return orderID, true, nil
}

// Remember stores orderID under key unless another order already claimed it.
// The first writer wins.
func (s *IdempotencyStore) Remember(ctx context.Context, owner, key string, orderID int64) error {
	if err := s.rdb.SetNX(ctx, checkoutKey(owner, key), orderID, s.ttl).Err(); err != nil {
		return fmt.Errorf("remember idempotency key: %w", err)
	}
	return nil
}

func checkoutKey(owner, key string) string {
	return fmt.Sprintf(KeyIdemCheckout, owner, key)
}
