package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/internal/api/response"
	"github.com/Rrens/kb-assistant/internal/domain"
	"github.com/Rrens/kb-assistant/internal/ingest"
)

// Ingester stores and indexes knowledge-base documents
type Ingester interface {
	Ingest(ctx context.Context, filename string, content []byte, visibility, docID string) (*domain.IngestResult, error)
	Reindex(ctx context.Context, visibilityDefault string) (*domain.ReindexResult, error)
}

// IngestHandler handles document upload endpoints
type IngestHandler struct {
	ingester Ingester
	maxBytes int64
}

// NewIngestHandler creates a new ingest handler. maxBytes caps one upload.
func NewIngestHandler(ingester Ingester, maxBytes int64) *IngestHandler {
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	return &IngestHandler{ingester: ingester, maxBytes: maxBytes}
}

// Ingest handles a multipart upload of one .md or .txt document
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "no file uploaded")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		response.BadRequest(w, "failed to read upload")
		return
	}
	if int64(len(content)) > h.maxBytes {
		response.Error(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", h.maxBytes))
		return
	}

	result, err := h.ingester.Ingest(r.Context(), header.Filename, content, r.FormValue("visibility"), r.FormValue("doc_id"))
	if err != nil {
		if errors.Is(err, ingest.ErrEmptyFilename) || errors.Is(err, ingest.ErrEmptyFile) || errors.Is(err, ingest.ErrUnsupportedFile) {
			response.BadRequest(w, err.Error())
			return
		}
		log.Ctx(r.Context()).Error().Err(err).Msg("ingest failed")
		response.InternalError(w, "failed to ingest document")
		return
	}

	response.OK(w, result)
}

// Reindex rebuilds the collection from the data directory
func (h *IngestHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	result, err := h.ingester.Reindex(r.Context(), r.FormValue("visibility_default"))
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("reindex failed")
		response.InternalError(w, "failed to reindex knowledge base")
		return
	}

	response.OK(w, result)
}
