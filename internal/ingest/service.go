package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/internal/domain"
	"github.com/Rrens/kb-assistant/internal/metrics"
)

// Ingestion errors map to 400 responses
var (
	ErrEmptyFilename   = errors.New("empty filename")
	ErrEmptyFile       = errors.New("empty file")
	ErrUnsupportedFile = errors.New("unsupported or empty file type")
)

// DefaultVisibility is applied when the caller gives none
const DefaultVisibility = "public"

// Index is the vector store documents are written to
type Index interface {
	Add(ctx context.Context, docs []domain.Document) error
	Reset(ctx context.Context) error
}

// Service stores uploads on disk and indexes their chunks
type Service struct {
	dataDir  string
	index    Index
	splitter *Splitter
	now      func() time.Time
}

// NewService creates an ingestion service rooted at dataDir
func NewService(dataDir string, index Index, splitter *Splitter) *Service {
	return &Service{
		dataDir:  dataDir,
		index:    index,
		splitter: splitter,
		now:      time.Now,
	}
}

// Ingest saves one uploaded file under a unique name and indexes it
func (s *Service) Ingest(ctx context.Context, filename string, content []byte, visibility, docID string) (*domain.IngestResult, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, ErrEmptyFilename
	}
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}
	suffix := filepath.Ext(filename)
	if !Supported(filename) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, suffix)
	}
	visibility = normalizeVisibility(visibility)
	docID = strings.TrimSpace(docID)

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	name := fmt.Sprintf("%d_%s%s", s.now().Unix(), strings.ReplaceAll(uuid.NewString(), "-", ""), suffix)
	path := filepath.Join(s.dataDir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	docs, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, suffix)
	}

	chunks := s.chunk(docs, func(meta map[string]any) {
		meta["visibility"] = visibility
		if docID != "" {
			meta["doc_id"] = docID
		}
	})
	if err := s.index.Add(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", name, err)
	}
	metrics.AddIngestedChunks(len(chunks))

	log.Info().
		Str("saved_as", path).
		Str("visibility", visibility).
		Int("chunks", len(chunks)).
		Msg("Document ingested")

	return &domain.IngestResult{
		SavedAs:    path,
		Visibility: visibility,
		DocID:      docID,
		Chunks:     len(chunks),
	}, nil
}

// Reindex empties the collection and indexes every file in the data dir
func (s *Service) Reindex(ctx context.Context, visibilityDefault string) (*domain.ReindexResult, error) {
	visibilityDefault = normalizeVisibility(visibilityDefault)

	if err := s.index.Reset(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset collection: %w", err)
	}

	if _, err := os.Stat(s.dataDir); errors.Is(err, os.ErrNotExist) {
		return &domain.ReindexResult{VisibilityDefault: visibilityDefault, Message: "No documents found in " + s.dataDir}, nil
	}
	docs, err := LoadDir(s.dataDir)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return &domain.ReindexResult{VisibilityDefault: visibilityDefault, Message: "No documents found in " + s.dataDir}, nil
	}

	chunks := s.chunk(docs, func(meta map[string]any) {
		if _, ok := meta["visibility"]; !ok {
			meta["visibility"] = visibilityDefault
		}
	})
	if err := s.index.Add(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to index data dir: %w", err)
	}
	metrics.AddIngestedChunks(len(chunks))

	log.Info().
		Int("docs", len(docs)).
		Int("chunks", len(chunks)).
		Str("visibility_default", visibilityDefault).
		Msg("Knowledge base reindexed")

	return &domain.ReindexResult{
		Docs:              len(docs),
		Chunks:            len(chunks),
		VisibilityDefault: visibilityDefault,
	}, nil
}

// chunk splits docs and gives every chunk a stable id derived from its file
func (s *Service) chunk(docs []domain.Document, tag func(map[string]any)) []domain.Document {
	var out []domain.Document
	for _, d := range docs {
		source, _ := d.Metadata["source"].(string)
		base := filepath.Base(source)
		for i, text := range s.splitter.Split(d.Content) {
			meta := make(map[string]any, len(d.Metadata)+2)
			for k, v := range d.Metadata {
				meta[k] = v
			}
			tag(meta)
			out = append(out, domain.Document{
				ID:       fmt.Sprintf("%s#%d", base, i),
				Content:  text,
				Metadata: meta,
			})
		}
	}
	return out
}

func normalizeVisibility(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return DefaultVisibility
	}
	return v
}
