package realtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-seller-marketplace/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// RedisPresence shares presence between API instances. Keys expire after TTL unless
// the stream refreshes them by registering again, so a crashed instance ages out.
type RedisPresence struct {
	Redis redis.Cmdable
	TTL   time.Duration
}

func (p *RedisPresence) ttl() time.Duration {
	if p.TTL > 0 {
		return p.TTL
	}
	return redisx.TTLPresence
}

func (p *RedisPresence) Register(ctx context.Context, userID, connID string) error {
	userKey := fmt.Sprintf(redisx.KeyPresenceUser, userID)
	_, err := p.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, userKey, connID)
		pipe.Expire(ctx, userKey, p.ttl())
		pipe.Set(ctx, fmt.Sprintf(redisx.KeyPresenceConn, connID), userID, p.ttl())
		return nil
	})
	return err
}

func (p *RedisPresence) Unregister(ctx context.Context, connID string) error {
	connKey := fmt.Sprintf(redisx.KeyPresenceConn, connID)
	userID, err := p.Redis.Get(ctx, connKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = p.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, fmt.Sprintf(redisx.KeyPresenceUser, userID), connID)
		pipe.Del(ctx, connKey)
		return nil
	})
	return err
}

func (p *RedisPresence) IsOnline(ctx context.Context, userID string) (bool, error) {
	n, err := p.Redis.SCard(ctx, fmt.Sprintf(redisx.KeyPresenceUser, userID)).Result()
	return n > 0, err
}
