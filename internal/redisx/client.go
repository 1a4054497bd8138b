package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.Ping(pctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return r, nil
}

// Claim sets key only if absent. It reports whether this caller now owns the key.
func Claim(ctx context.Context, rdb redis.Cmdable, key string, ttl time.Duration) (bool, error) {
	return rdb.SetNX(ctx, key, "1", ttl).Result()
}

// Deduper remembers processed event ids so at-least-once consumers act once.
type Deduper struct {
	Redis   redis.Cmdable
	Service string
}

// FirstSeen claims the event id; false means it was already handled.
func (d *Deduper) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	return Claim(ctx, d.Redis, fmt.Sprintf(KeyDedup, d.Service, eventID), TTLDedup)
}

// Forget releases a claim so a failed handler can be retried on redelivery.
func (d *Deduper) Forget(ctx context.Context, eventID string) error {
	return d.Redis.Del(ctx, fmt.Sprintf(KeyDedup, d.Service, eventID)).Err()
}
