package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Rrens/kb-assistant/internal/domain"
)

// Chroma is a client for the Chroma v1 REST API bound to one collection
type Chroma struct {
	baseURL    string
	collection string
	embedder   Embedder
	client     *http.Client

	mu           sync.Mutex
	collectionID string
}

// NewChroma creates a Chroma client. The collection is created lazily.
func NewChroma(baseURL, collection string, embedder Embedder, client *http.Client) *Chroma {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Chroma{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		embedder:   embedder,
		client:     client,
	}
}

type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type addRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Documents  []string         `json:"documents"`
	Metadatas  []map[string]any `json:"metadatas"`
}

type queryRequest struct {
	QueryEmbeddings [][]float32    `json:"query_embeddings"`
	NResults        int            `json:"n_results"`
	Where           map[string]any `json:"where,omitempty"`
	Include         []string       `json:"include"`
}

type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Documents [][]*string        `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

// Heartbeat checks that the server answers
func (c *Chroma) Heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/heartbeat", nil, nil)
}

// Search embeds query and returns up to k nearest chunks matching filter
func (c *Chroma) Search(ctx context.Context, query string, filter map[string]any, k int) ([]domain.Document, error) {
	id, err := c.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}

	vecs, err := c.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vecs))
	}

	var qr queryResponse
	err = c.do(ctx, http.MethodPost, "/api/v1/collections/"+id+"/query", queryRequest{
		QueryEmbeddings: vecs,
		NResults:        k,
		Where:           filter,
		Include:         []string{"documents", "metadatas"},
	}, &qr)
	if err != nil {
		return nil, err
	}

	if len(qr.IDs) == 0 {
		return nil, nil
	}
	docs := make([]domain.Document, 0, len(qr.IDs[0]))
	for i, docID := range qr.IDs[0] {
		d := domain.Document{ID: docID}
		if len(qr.Documents) > 0 && i < len(qr.Documents[0]) && qr.Documents[0][i] != nil {
			d.Content = *qr.Documents[0][i]
		}
		if len(qr.Metadatas) > 0 && i < len(qr.Metadatas[0]) {
			d.Metadata = qr.Metadatas[0][i]
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// Add embeds and stores documents. Documents need a non-empty ID.
func (c *Chroma) Add(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	id, err := c.ensureCollection(ctx)
	if err != nil {
		return err
	}

	texts := make([]string, len(docs))
	req := addRequest{
		IDs:       make([]string, len(docs)),
		Documents: texts,
		Metadatas: make([]map[string]any, len(docs)),
	}
	for i, d := range docs {
		req.IDs[i] = d.ID
		texts[i] = d.Content
		req.Metadatas[i] = d.Metadata
	}

	req.Embeddings, err = c.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}

	return c.do(ctx, http.MethodPost, "/api/v1/collections/"+id+"/add", req, nil)
}

// Reset drops the collection and creates it again empty
func (c *Chroma) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.collectionID = ""
	c.mu.Unlock()

	err := c.do(ctx, http.MethodDelete, "/api/v1/collections/"+url.PathEscape(c.collection), nil, nil)
	if err != nil && !isNotFound(err) {
		return err
	}

	_, err = c.ensureCollection(ctx)
	return err
}

func (c *Chroma) ensureCollection(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.collectionID != "" {
		return c.collectionID, nil
	}

	var cr collectionResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/collections", map[string]any{
		"name":          c.collection,
		"get_or_create": true,
	}, &cr)
	if err != nil {
		return "", fmt.Errorf("failed to get collection %s: %w", c.collection, err)
	}
	if cr.ID == "" {
		return "", fmt.Errorf("collection %s has no id", c.collection)
	}

	c.collectionID = cr.ID
	return cr.ID, nil
}

// StatusError is a non-2xx answer from Chroma
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chroma returned status %d: %s", e.Status, e.Body)
}

func isNotFound(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	// older servers answer a missing collection with 500 and a ValueError
	return se.Status == http.StatusNotFound || strings.Contains(se.Body, "does not exist")
}

func (c *Chroma) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("chroma request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode chroma response: %w", err)
	}
	return nil
}
