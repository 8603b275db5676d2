package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Embedder turns texts into vectors, one per input, in input order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedderOptions configures an OpenAI-compatible embeddings endpoint
type EmbedderOptions struct {
	BaseURL    string
	APIKey     string
	Model      string
	BatchSize  int
	HTTPClient *http.Client
}

// HTTPEmbedder calls POST {base}/embeddings. DashScope's compatible mode
// serves text-embedding-v2 through the same protocol.
type HTTPEmbedder struct {
	baseURL   string
	apiKey    string
	model     string
	batchSize int
	client    *http.Client
}

// NewHTTPEmbedder creates an embedder
func NewHTTPEmbedder(opts EmbedderOptions) *HTTPEmbedder {
	if opts.Model == "" {
		opts.Model = "text-embedding-v2"
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 16
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPEmbedder{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		apiKey:    opts.APIKey,
		model:     opts.Model,
		batchSize: opts.BatchSize,
		client:    opts.HTTPClient,
	}
}

// Model returns the embedding model name
func (e *HTTPEmbedder) Model() string {
	return e.model
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed embeds texts in batches
func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *HTTPEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embeddings returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var er embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(er.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings returned %d vectors for %d inputs", len(er.Data), len(texts))
	}

	sort.Slice(er.Data, func(i, j int) bool { return er.Data[i].Index < er.Data[j].Index })
	vecs := make([][]float32, len(er.Data))
	for i, d := range er.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

// VectorCache stores vectors by model and text
type VectorCache interface {
	Get(ctx context.Context, model, text string) ([]float32, error)
	Set(ctx context.Context, model, text string, vec []float32) error
}

// CachedEmbedder serves repeated texts from a cache. Cache failures only
// cost a recomputation.
type CachedEmbedder struct {
	inner Embedder
	cache VectorCache
	model string
}

// NewCachedEmbedder wraps inner with cache under the given model name
func NewCachedEmbedder(inner Embedder, cache VectorCache, model string) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache, model: model}
}

// Embed returns cached vectors where available and embeds the rest
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, t := range texts {
		vec, err := c.cache.Get(ctx, c.model, t)
		if err != nil {
			log.Warn().Err(err).Msg("embedding cache read failed")
		}
		if vec != nil {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		if err := c.cache.Set(ctx, c.model, missTexts[j], vecs[j]); err != nil {
			log.Warn().Err(err).Msg("embedding cache write failed")
		}
	}
	return out, nil
}
