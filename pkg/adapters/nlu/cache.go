package nlu

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/aretw0/dockwise/pkg/ports"
	gocache "github.com/patrickmn/go-cache"
)

// CachedClassifier memoizes another classifier by utterance and threshold.
// Errors are not cached.
type CachedClassifier struct {
	next  ports.Classifier
	cache *gocache.Cache
}

// NewCachedClassifier wraps next. Entries expire after ttl; ttl <= 0 keeps them forever.
func NewCachedClassifier(next ports.Classifier, ttl time.Duration) *CachedClassifier {
	exp := ttl
	cleanup := 2 * ttl
	if ttl <= 0 {
		exp = gocache.NoExpiration
		cleanup = 10 * time.Minute
	}
	return &CachedClassifier{next: next, cache: gocache.New(exp, cleanup)}
}

func cacheKey(text string, threshold float64) string {
	return fmt.Sprintf("%.4f|%s", threshold, text)
}

// Classify returns a cached copy when available.
func (c *CachedClassifier) Classify(ctx context.Context, text string, threshold float64) (*domain.NLUResult, error) {
	key := cacheKey(text, threshold)
	if v, ok := c.cache.Get(key); ok {
		return cloneResult(v.(*domain.NLUResult)), nil
	}

	res, err := c.next.Classify(ctx, text, threshold)
	if err != nil {
		return nil, err
	}
	if res != nil {
		c.cache.SetDefault(key, cloneResult(res))
	}
	return res, nil
}

// Len returns the number of cached utterances.
func (c *CachedClassifier) Len() int {
	return c.cache.ItemCount()
}

// Flush drops every cached result.
func (c *CachedClassifier) Flush() {
	c.cache.Flush()
}

func cloneResult(r *domain.NLUResult) *domain.NLUResult {
	out := *r
	if r.Intent != nil {
		intent := *r.Intent
		out.Intent = &intent
	}
	out.Entities = slices.Clone(r.Entities)
	return &out
}
