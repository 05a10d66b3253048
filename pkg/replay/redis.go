package replay

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openlibx402/go-x402/pkg/x402"
)

const redisKeyPrefix = "x402:replay:"

// RedisStore is a Store backed by Redis, for guards running more than one
// instance. Consumption is a single SETNX with the retention as TTL, so the
// exactly-once property holds across processes.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a store on an existing Redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Connect dials Redis at the given address and returns a store on the
// connection, failing fast when the server is unreachable.
func Connect(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, x402.WrapError(x402.KindNetworkError, err, "failed to connect to redis at %s", addr)
	}

	return NewRedisStore(client), nil
}

// Consume implements Store.
func (s *RedisStore) Consume(ctx context.Context, paymentID, token string, retainFor time.Duration) (bool, error) {
	key := redisKeyPrefix + paymentID + "/" + token

	ok, err := s.client.SetNX(ctx, key, "1", retainFor).Result()
	if err != nil {
		return false, x402.WrapError(x402.KindNetworkError, err, "failed to record consumed proof")
	}
	return ok, nil
}
