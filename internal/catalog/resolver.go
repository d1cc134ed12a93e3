package catalog

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Searcher is the remote product search used when the local cache has no match.
type Searcher interface {
	Search(ctx context.Context, term string, pageSize int) ([]Product, error)
}

// Resolver turns an operator-typed term into one product, preferring the
// product list cached at startup over a backend round-trip.
type Resolver struct {
	remote   Searcher
	pageSize int
	logger   *zap.Logger

	mu    sync.RWMutex
	cache []Product
}

func NewResolver(remote Searcher, pageSize int, logger *zap.Logger) *Resolver {
	if pageSize <= 0 {
		pageSize = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		remote:   remote,
		pageSize: pageSize,
		logger:   logger.Named("resolver"),
	}
}

// Load replaces the cache with the first size products of the backend list.
func (r *Resolver) Load(ctx context.Context, size int) error {
	products, err := r.remote.Search(ctx, "", size)
	if err != nil {
		return err
	}
	r.SetCache(products)
	r.logger.Info("product cache loaded", zap.Int("products", len(products)))
	return nil
}

func (r *Resolver) SetCache(products []Product) {
	cache := make([]Product, len(products))
	copy(cache, products)

	r.mu.Lock()
	r.cache = cache
	r.mu.Unlock()
}

func (r *Resolver) Cached() []Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, len(r.cache))
	copy(out, r.cache)
	return out
}

// Resolve returns the first cached product whose name, code or barcode contains
// term, else the first remote search result. Remote failures count as not found.
func (r *Resolver) Resolve(ctx context.Context, term string) (Product, bool) {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return Product{}, false
	}

	if p, ok := r.lookupLocal(needle); ok {
		return p, true
	}

	products, err := r.remote.Search(ctx, needle, r.pageSize)
	if err != nil {
		r.logger.Warn("remote product search failed", zap.String("term", needle), zap.Error(err))
		return Product{}, false
	}
	if len(products) == 0 {
		return Product{}, false
	}
	return products[0], true
}

func (r *Resolver) lookupLocal(needle string) (Product, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.cache {
		if matches(p, needle) {
			return p, true
		}
	}
	return Product{}, false
}

func matches(p Product, needle string) bool {
	for _, field := range []string{p.Name, p.Code, p.Barcode} {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
