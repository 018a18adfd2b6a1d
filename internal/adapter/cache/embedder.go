package cache

import (
	"fmt"

	"semcluster/internal/port"
)

// CachedEmbedder wraps an Embedder with a persistent cache. Only texts
// missing from the cache are sent to the API; results are stored for the
// next run.
type CachedEmbedder struct {
	inner port.Embedder
	cache *EmbeddingCache
}

func NewCachedEmbedder(inner port.Embedder, cache *EmbeddingCache) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache}
}

func (e *CachedEmbedder) Embed(texts []string) ([][]float32, error) {
	model := e.inner.ModelName()
	vectors := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if v, ok := e.cache.Get(model, text); ok {
			vectors[i] = v
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	fresh, err := e.inner.Embed(missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missing))
	}

	for j, v := range fresh {
		vectors[missingIdx[j]] = v
		if err := e.cache.Put(model, missing[j], v); err != nil {
			return nil, fmt.Errorf("failed to cache embedding: %w", err)
		}
	}

	return vectors, nil
}

func (e *CachedEmbedder) Dimension() int {
	return e.inner.Dimension()
}

func (e *CachedEmbedder) ModelName() string {
	return e.inner.ModelName()
}
