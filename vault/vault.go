// Package vault defines the boundary between the graph engine and the note
// store that backs it. Consumers depend on the Vault facade; backends
// implement Driver.
package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/hrygo/vaultsense/internal/profile"
	"github.com/hrygo/vaultsense/vault/cache"
)

// Vault provides access to notes through a driver, caching the expensive
// full-vault scans (backlinks, tag search) between graph rebuilds.
type Vault struct {
	profile *profile.Profile
	driver  Driver

	cacheConfig cache.Config

	backlinkCache *cache.Cache // cache for reverse-link scans
	tagCache      *cache.Cache // cache for tag searches
}

// New creates a new Vault on top of driver.
func New(driver Driver, p *profile.Profile) *Vault {
	ttl := 5 * time.Minute
	maxItems := 1000
	if p != nil {
		if p.CacheTTLSeconds > 0 {
			ttl = time.Duration(p.CacheTTLSeconds) * time.Second
		}
		if p.CacheMaxItems > 0 {
			maxItems = p.CacheMaxItems
		}
	}
	cacheConfig := cache.Config{
		DefaultTTL:      ttl,
		CleanupInterval: ttl / 2,
		MaxItems:        maxItems,
	}

	return &Vault{
		profile:       p,
		driver:        driver,
		cacheConfig:   cacheConfig,
		backlinkCache: cache.New(cacheConfig),
		tagCache:      cache.New(cacheConfig),
	}
}

func (v *Vault) GetDriver() Driver {
	return v.driver
}

func (v *Vault) Close() error {
	v.backlinkCache.Close()
	v.tagCache.Close()
	return v.driver.Close()
}

// Refresh drops all cached scan results. The graph engine calls this at the
// start of every forced rebuild so a build never sees stale backlinks.
func (v *Vault) Refresh(ctx context.Context) {
	v.backlinkCache.Clear(ctx)
	v.tagCache.Clear(ctx)
}

func (v *Vault) ListNotes(ctx context.Context) ([]*Note, error) {
	return v.driver.ListNotes(ctx)
}

func (v *Vault) ResolveLink(ctx context.Context, linkText, sourcePath string) (*Note, error) {
	return v.driver.ResolveLink(ctx, linkText, sourcePath)
}

func (v *Vault) GetOutgoingLinks(ctx context.Context, path string) ([]*OutgoingLink, error) {
	return v.driver.GetOutgoingLinks(ctx, path)
}

func (v *Vault) GetBacklinks(ctx context.Context, path string) ([]*Backlink, error) {
	if cached, ok := v.backlinkCache.Get(ctx, path); ok {
		return cached.([]*Backlink), nil
	}
	backlinks, err := v.driver.GetBacklinks(ctx, path)
	if err != nil {
		return nil, err
	}
	v.backlinkCache.Set(ctx, path, backlinks)
	return backlinks, nil
}

func (v *Vault) SearchByTag(ctx context.Context, tag string, limit int) ([]*TagMatch, error) {
	key := fmt.Sprintf("%s:%d", tag, limit)
	if cached, ok := v.tagCache.Get(ctx, key); ok {
		return cached.([]*TagMatch), nil
	}
	matches, err := v.driver.SearchByTag(ctx, tag, limit)
	if err != nil {
		return nil, err
	}
	v.tagCache.Set(ctx, key, matches)
	return matches, nil
}
