package redisclient

import (
	"context"
	"time"

	"github.com/mohit83k/radius-bridge/internal/model"
	"github.com/patrickmn/go-cache"
)

// cachedStore serves package reads from memory. Packages do not change for
// the lifetime of a session, so a short TTL is enough.
type cachedStore struct {
	Store
	packages *cache.Cache
}

// WithPackageCache wraps a Store so GetPackage is read-through cached.
// A non-positive ttl disables caching.
func WithPackageCache(s Store, ttl time.Duration) Store {
	if ttl <= 0 {
		return s
	}
	return &cachedStore{
		Store:    s,
		packages: cache.New(ttl, 2*ttl),
	}
}

func (c *cachedStore) GetPackage(ctx context.Context, id string) (*model.Package, error) {
	if v, found := c.packages.Get(id); found {
		if pkg, ok := v.(model.Package); ok {
			return &pkg, nil
		}
	}

	pkg, err := c.Store.GetPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	c.packages.Set(id, *pkg, cache.DefaultExpiration)
	return pkg, nil
}
