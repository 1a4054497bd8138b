package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ariefcatur/go-seller-marketplace/internal/redisx"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const notFoundMarker = "notfound"

// CachedRepo is a read-through Redis cache in front of a Repository.
// Concurrent misses for the same key share one database read.
type CachedRepo struct {
	Repository
	redis redis.Cmdable
	group singleflight.Group
}

func NewCachedRepo(real Repository, rdb redis.Cmdable) *CachedRepo {
	return &CachedRepo{Repository: real, redis: rdb}
}

func (c *CachedRepo) GetByID(ctx context.Context, id string) (Product, error) {
	key := fmt.Sprintf(redisx.KeyProduct, id)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return Product{}, ErrNotFound
		}
		var p Product
		if err := json.Unmarshal(data, &p); err == nil {
			return p, nil
		}
		slog.WarnContext(ctx, "corrupt product cache entry", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		slog.WarnContext(ctx, "redis get failed, continuing with db", "key", key, "err", err)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		p, err := c.Repository.GetByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			c.set(ctx, key, notFoundMarker, redisx.TTLProductNotFound)
			return nil, err
		}
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(p); err == nil {
			c.set(ctx, key, b, redisx.TTLProductCache)
		}
		return p, nil
	})
	if err != nil {
		return Product{}, err
	}
	return v.(Product), nil
}

func (c *CachedRepo) List(ctx context.Context) ([]Product, error) {
	data, err := c.redis.Get(ctx, redisx.KeyProductsAll).Bytes()
	if err == nil {
		var ps []Product
		if json.Unmarshal(data, &ps) == nil {
			return ps, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		slog.WarnContext(ctx, "redis get failed, continuing with db", "key", redisx.KeyProductsAll, "err", err)
	}

	v, err, _ := c.group.Do(redisx.KeyProductsAll, func() (any, error) {
		ps, err := c.Repository.List(ctx)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(ps); err == nil {
			c.set(ctx, redisx.KeyProductsAll, b, redisx.TTLProductCache)
		}
		return ps, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Product), nil
}

func (c *CachedRepo) Create(ctx context.Context, p *Product) error {
	if err := c.Repository.Create(ctx, p); err != nil {
		return err
	}
	// a cached "notfound" marker for this id must not outlive the insert
	if err := c.redis.Del(ctx, redisx.KeyProductsAll, fmt.Sprintf(redisx.KeyProduct, p.ID)).Err(); err != nil {
		slog.WarnContext(ctx, "invalidate product cache", "err", err)
	}
	return nil
}

func (c *CachedRepo) set(ctx context.Context, key string, v any, ttl time.Duration) {
	if err := c.redis.Set(ctx, key, v, ttl).Err(); err != nil {
		slog.WarnContext(ctx, "cache product", "key", key, "err", err)
	}
}
