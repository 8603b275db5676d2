package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/internal/domain"
	"github.com/Rrens/kb-assistant/internal/llm"
	"github.com/Rrens/kb-assistant/internal/metrics"
)

// MsgNoEvidence is answered when retrieval found nothing to ground on
const MsgNoEvidence = "我没有在当前可见知识库中找到足够证据回答。请提供更具体的关键词/文档来源。"

// VisibilityPublic is readable by every role
const VisibilityPublic = "public"

// Searcher is the vector search contract. A nil filter searches everything.
type Searcher interface {
	Search(ctx context.Context, query string, filter map[string]any, k int) ([]domain.Document, error)
}

// Flow answers knowledge-base questions: retrieve, grade, then generate or refuse
type Flow struct {
	searcher    Searcher
	completer   llm.Completer
	topK        int
	contextDocs int
}

// NewFlow creates a QA flow. Non-positive sizes fall back to 8 retrieved
// and 6 prompted documents.
func NewFlow(searcher Searcher, completer llm.Completer, topK, contextDocs int) *Flow {
	if topK <= 0 {
		topK = 8
	}
	if contextDocs <= 0 {
		contextDocs = 6
	}
	return &Flow{
		searcher:    searcher,
		completer:   completer,
		topK:        topK,
		contextDocs: contextDocs,
	}
}

// Answer runs one QA turn. The retrieved documents are returned for citation.
func (f *Flow) Answer(ctx context.Context, turn domain.Turn) (string, []domain.Document, error) {
	docs, err := f.retrieve(ctx, turn)
	if err != nil {
		return "", nil, err
	}
	metrics.ObserveRetrieval(len(docs))

	if len(docs) == 0 {
		return MsgNoEvidence, nil, nil
	}

	if len(docs) > f.contextDocs {
		docs = docs[:f.contextDocs]
	}

	answer, err := f.completer.Complete(ctx, llm.QASystem, llm.BuildQAPrompt(turn.Text, docs))
	if err != nil {
		return "", docs, fmt.Errorf("failed to generate answer: %w", err)
	}
	return strings.TrimSpace(answer), docs, nil
}

// retrieve searches with a visibility filter first and falls back to an
// unfiltered search when chunks carry no visibility metadata
func (f *Flow) retrieve(ctx context.Context, turn domain.Turn) ([]domain.Document, error) {
	docs, err := f.searcher.Search(ctx, turn.Text, VisibilityFilter(turn.UserRole), f.topK)
	if err != nil {
		return nil, fmt.Errorf("filtered search failed: %w", err)
	}
	if len(docs) > 0 {
		return docs, nil
	}

	log.Ctx(ctx).Debug().Str("role", turn.UserRole).Msg("filtered retrieval empty, falling back to unfiltered")
	docs, err = f.searcher.Search(ctx, turn.Text, nil, f.topK)
	if err != nil {
		return nil, fmt.Errorf("unfiltered search failed: %w", err)
	}
	return docs, nil
}

// VisibilityFilter restricts results to public chunks and those of role
func VisibilityFilter(role string) map[string]any {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = VisibilityPublic
	}
	return map[string]any{
		"visibility": map[string]any{"$in": []string{VisibilityPublic, role}},
	}
}

// Sources turns retrieved documents into numbered citations
func Sources(docs []domain.Document) []domain.Source {
	sources := make([]domain.Source, 0, len(docs))
	for i, d := range docs {
		src := domain.Source{Index: i + 1, Page: d.Metadata["page"]}
		if s, ok := d.Metadata["source"].(string); ok {
			src.Source = s
		}
		sources = append(sources, src)
	}
	return sources
}
