package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	embeddingCachePrefix = "embedding:"
	embeddingCacheTTL    = 24 * time.Hour
)

// EmbeddingCache keeps query embeddings so repeated questions skip the
// embedding API
type EmbeddingCache struct {
	client *Client
	ttl    time.Duration
}

// NewEmbeddingCache creates a new embedding cache
func NewEmbeddingCache(client *Client) *EmbeddingCache {
	return &EmbeddingCache{client: client, ttl: embeddingCacheTTL}
}

func embeddingKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return embeddingCachePrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached vector, or nil on a miss
func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, error) {
	data, err := c.client.rdb.Get(ctx, embeddingKey(model, text)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding cache: %w", err)
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedding: %w", err)
	}
	return vec, nil
}

// Set caches the vector of text under model
func (c *EmbeddingCache) Set(ctx context.Context, model, text string, vec []float32) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	return c.client.rdb.Set(ctx, embeddingKey(model, text), data, c.ttl).Err()
}
