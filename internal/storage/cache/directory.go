package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/paintops/go-notification-service/pkg/dispatch"
	"github.com/paintops/go-notification-service/pkg/notification"
)

// ErrMiss is returned by a CacheClient when the key is absent.
var ErrMiss = errors.New("cache miss")

// CacheClient defines the subset of Redis commands we need.
type CacheClient interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedDirectory adds read-aside caching to any Directory.
// Only hits are cached so a user created after a miss is found on the next dispatch.
type CachedDirectory struct {
	realDirectory dispatch.Directory
	cache         CacheClient
	ttl           time.Duration
	logger        *slog.Logger
}

func NewCachedDirectory(realDirectory dispatch.Directory, cache CacheClient, ttl time.Duration, logger *slog.Logger) *CachedDirectory {
	return &CachedDirectory{
		realDirectory: realDirectory,
		cache:         cache,
		ttl:           ttl,
		logger:        logger.With("component", "CachedDirectory"),
	}
}

func (d *CachedDirectory) Lookup(ctx context.Context, email string) (notification.Identity, error) {
	key := cacheKey(email)

	var cached notification.Identity
	err := d.cache.Get(ctx, key, &cached)
	if err == nil && cached.ID != "" {
		return cached, nil
	}
	if err != nil && !errors.Is(err, ErrMiss) {
		// Redis trouble degrades to the source of truth.
		d.logger.Warn("Cache read failed", "key", key, "err", err)
	}

	identity, err := d.realDirectory.Lookup(ctx, email)
	if err != nil {
		return notification.Identity{}, err
	}

	if err := d.cache.Set(ctx, key, identity, d.ttl); err != nil {
		d.logger.Warn("Cache write failed", "key", key, "err", err)
	}
	return identity, nil
}

func cacheKey(email string) string {
	return "notify:recipient:" + email
}
