package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

var bucketEmbeddings = []byte("embeddings")

// EmbeddingCache persists embedding vectors across runs, keyed by model and
// text, so repeated runs over the same corpus skip paid API calls.
type EmbeddingCache struct {
	db *bbolt.DB
}

// Open opens (creating if needed) an embedding cache at the given path.
func Open(path string) (*EmbeddingCache, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create embeddings bucket: %w", err)
	}

	return &EmbeddingCache{db: db}, nil
}

// Close closes the underlying database.
func (c *EmbeddingCache) Close() error {
	return c.db.Close()
}

func cacheKey(model, text string) []byte {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return []byte(hex.EncodeToString(sum[:16]))
}

// Get returns the cached vector for (model, text), if present.
func (c *EmbeddingCache) Get(model, text string) ([]float32, bool) {
	var vector []float32
	found := false

	c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		if b == nil {
			return nil
		}
		data := b.Get(cacheKey(model, text))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &vector); err != nil {
			return nil // Skip corrupted entries
		}
		found = true
		return nil
	})

	return vector, found
}

// Put stores a vector for (model, text).
func (c *EmbeddingCache) Put(model, text string, vector []float32) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		if b == nil {
			return fmt.Errorf("embeddings bucket not found")
		}
		return b.Put(cacheKey(model, text), data)
	})
}

// Count returns the number of cached vectors.
func (c *EmbeddingCache) Count() (int, error) {
	count := 0
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		if b == nil {
			return nil
		}
		count = b.Stats().KeyN
		return nil
	})
	return count, err
}
