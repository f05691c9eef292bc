package reference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"pharmarag-chat/pkg/ragclient"
)

const DefaultCacheTTL = 10 * time.Minute

// CacheObserver is told about every lookup.
type CacheObserver interface {
	CacheLookup(hit bool)
}

type nopCacheObserver struct{}

func (nopCacheObserver) CacheLookup(bool) {}

// CachedSource keeps recently served pages in memory. Pages are shared
// between all workspaces using the same CachedSource.
type CachedSource struct {
	next     Source
	cache    *cache.Cache
	observer CacheObserver
}

func NewCachedSource(next Source, ttl time.Duration, observer CacheObserver) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if observer == nil {
		observer = nopCacheObserver{}
	}
	return &CachedSource{
		next:     next,
		cache:    cache.New(ttl, 2*ttl),
		observer: observer,
	}
}

func (c *CachedSource) MedicineNames(ctx context.Context, page, pageSize int) (*ragclient.NamesPage, error) {
	key := fmt.Sprintf("names:%d:%d", page, pageSize)
	return c.lookup(key, func() (*ragclient.NamesPage, error) {
		return c.next.MedicineNames(ctx, page, pageSize)
	})
}

func (c *CachedSource) SearchMedicineNames(ctx context.Context, query string, page, pageSize int) (*ragclient.NamesPage, error) {
	key := fmt.Sprintf("search:%s:%d:%d", strings.ToLower(strings.TrimSpace(query)), page, pageSize)
	return c.lookup(key, func() (*ragclient.NamesPage, error) {
		return c.next.SearchMedicineNames(ctx, query, page, pageSize)
	})
}

// Invalidate drops every cached page.
func (c *CachedSource) Invalidate() {
	c.cache.Flush()
}

func (c *CachedSource) ItemCount() int {
	return c.cache.ItemCount()
}

func (c *CachedSource) lookup(key string, load func() (*ragclient.NamesPage, error)) (*ragclient.NamesPage, error) {
	if x, found := c.cache.Get(key); found {
		c.observer.CacheLookup(true)
		return copyPage(x.(*ragclient.NamesPage)), nil
	}
	c.observer.CacheLookup(false)

	page, err := load()
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, copyPage(page), cache.DefaultExpiration)
	return page, nil
}

func copyPage(p *ragclient.NamesPage) *ragclient.NamesPage {
	out := *p
	out.Names = append([]string(nil), p.Names...)
	return &out
}
