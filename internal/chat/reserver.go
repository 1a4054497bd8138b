package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-seller-marketplace/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// Reserver marks a pair as being committed so concurrent creators wait instead of racing the insert.
type Reserver interface {
	Reserve(ctx context.Context, p Pair) (bool, error)
	Release(ctx context.Context, p Pair)
}

type RedisReserver struct {
	Redis redis.Cmdable
	TTL   time.Duration
}

func (r *RedisReserver) key(p Pair) string {
	return fmt.Sprintf(redisx.KeyConversationReserve, p.A, p.B)
}

func (r *RedisReserver) Reserve(ctx context.Context, p Pair) (bool, error) {
	ttl := r.TTL
	if ttl == 0 {
		ttl = redisx.TTLReservation
	}
	return redisx.Claim(ctx, r.Redis, r.key(p), ttl)
}

func (r *RedisReserver) Release(ctx context.Context, p Pair) {
	_ = r.Redis.Del(ctx, r.key(p)).Err()
}
