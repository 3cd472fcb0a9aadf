// Package cache puts a Redis read-through layer in front of a product store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"secondhand/internal/domain"
	"secondhand/internal/repos"
)

const (
	productKeyPrefix = "product:detail:"
	listKeyPrefix    = "products:v:"
	versionKey       = "products:version"

	DefaultTTL = 2 * time.Minute
)

// Products wraps a repos.ProductStore. List keys embed a version number that
// every write bumps, so stale lists are never read and simply expire.
// Redis failures are logged and the call falls through to the wrapped store.
type Products struct {
	next  repos.ProductStore
	redis *redis.Client
	ttl   time.Duration
}

var _ repos.ProductStore = (*Products)(nil)

func NewProducts(next repos.ProductStore, rdb *redis.Client, ttl time.Duration) *Products {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Products{next: next, redis: rdb, ttl: ttl}
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

func (p *Products) version(ctx context.Context) (int64, error) {
	v, err := p.redis.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := p.redis.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return p.redis.Get(ctx, versionKey).Int64()
	}
	return v, err
}

func (p *Products) cachedList(ctx context.Context, suffix string, load func() ([]domain.Product, error)) ([]domain.Product, error) {
	ver, err := p.version(ctx)
	if err != nil {
		zap.L().Warn("cache.version", zap.Error(err))
		return load()
	}
	key := fmt.Sprintf("%s%d:%s", listKeyPrefix, ver, suffix)
	if raw, err := p.redis.Get(ctx, key).Bytes(); err == nil {
		var out []domain.Product
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
		zap.L().Warn("cache.decode", zap.String("key", key))
	}
	out, err := load()
	if err != nil {
		return nil, err
	}
	p.set(ctx, key, out)
	return out, nil
}

func (p *Products) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := p.redis.Set(ctx, key, raw, p.ttl).Err(); err != nil {
		zap.L().Warn("cache.set", zap.String("key", key), zap.Error(err))
	}
}

func (p *Products) All(ctx context.Context) ([]domain.Product, error) {
	return p.cachedList(ctx, "all", func() ([]domain.Product, error) { return p.next.All(ctx) })
}

func (p *Products) BySeller(ctx context.Context, name string) ([]domain.Product, error) {
	return p.cachedList(ctx, "seller:"+name, func() ([]domain.Product, error) { return p.next.BySeller(ctx, name) })
}

func (p *Products) Get(ctx context.Context, id string) (domain.Product, error) {
	key := productKeyPrefix + id
	if raw, err := p.redis.Get(ctx, key).Bytes(); err == nil {
		var out domain.Product
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
	}
	out, err := p.next.Get(ctx, id)
	if err != nil {
		return out, err
	}
	p.set(ctx, key, out)
	return out, nil
}

func (p *Products) Create(ctx context.Context, prod domain.Product) (string, error) {
	id, err := p.next.Create(ctx, prod)
	if err == nil {
		p.invalidate(ctx, "")
	}
	return id, err
}

func (p *Products) UpdateStatus(ctx context.Context, id string, status domain.ListingStatus, ifVersion int64) error {
	err := p.next.UpdateStatus(ctx, id, status, ifVersion)
	if err == nil {
		p.invalidate(ctx, id)
	}
	return err
}

func (p *Products) Copy(ctx context.Context, id string) (string, error) {
	newID, err := p.next.Copy(ctx, id)
	if err == nil {
		p.invalidate(ctx, "")
	}
	return newID, err
}

// invalidate bumps the list version and drops the detail entry for id, if any.
func (p *Products) invalidate(ctx context.Context, id string) {
	if err := p.redis.Incr(ctx, versionKey).Err(); err != nil {
		zap.L().Error("cache.invalidate", zap.Error(err))
	}
	if id != "" {
		if err := p.redis.Del(ctx, productKeyPrefix+id).Err(); err != nil {
			zap.L().Warn("cache.del", zap.String("product_id", id), zap.Error(err))
		}
	}
}
