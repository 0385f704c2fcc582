package embedding

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
)

// WithLRUCache memoizes EmbedQuery results. Zero-vector fallbacks are not
// cached: a transient backend failure must not pin zeros for the TTL.
// Document batches are not cached; ingestion embeds fresh content anyway.
func WithLRUCache(next Provider, size int, ttl time.Duration) Provider {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &lruProvider{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruProvider struct {
	next  Provider
	cache *expirable.LRU[string, []float32]
}

func (l *lruProvider) Dim() int {
	return l.next.Dim()
}

func (l *lruProvider) EmbedQuery(ctx context.Context, text string) []float32 {
	if cached, ok := l.cache.Get(text); ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit")
		return cloneVector(cached)
	}
	vec := l.next.EmbedQuery(ctx, text)
	if !IsZeroVector(vec) {
		l.cache.Add(text, cloneVector(vec))
	}
	return vec
}

func (l *lruProvider) EmbedDocuments(ctx context.Context, texts []string) [][]float32 {
	return l.next.EmbedDocuments(ctx, texts)
}

func cloneVector(values []float32) []float32 {
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
