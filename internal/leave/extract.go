package leave

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/internal/llm"
)

// Extractor pulls structured leave fields out of free text. Implementations
// return an empty Extraction instead of an error when nothing usable came back.
type Extractor interface {
	ExtractFields(ctx context.Context, text string) Extraction
	ParseTime(ctx context.Context, now time.Time, text string) Extraction
}

// LLMExtractor implements Extractor with one completion call per pass
type LLMExtractor struct {
	completer llm.Completer
}

// NewLLMExtractor creates an extractor backed by the given completer
func NewLLMExtractor(completer llm.Completer) *LLMExtractor {
	return &LLMExtractor{completer: completer}
}

// ExtractFields asks the model for leave type, times and reason
func (e *LLMExtractor) ExtractFields(ctx context.Context, text string) Extraction {
	raw, err := e.completer.Complete(ctx, llm.SlotSystem, llm.BuildSlotPrompt(text))
	if err != nil {
		log.Warn().Err(err).Msg("leave field extraction failed")
		return Extraction{}
	}
	out, ok := ParseExtraction(raw)
	if !ok {
		log.Debug().Str("raw", raw).Msg("discarding malformed field extraction")
	}
	return out
}

// ParseTime asks the model to resolve relative time expressions against now.
// Only start and end are kept from its answer.
func (e *LLMExtractor) ParseTime(ctx context.Context, now time.Time, text string) Extraction {
	raw, err := e.completer.Complete(ctx, llm.TimeSystem, llm.BuildTimePrompt(now, text))
	if err != nil {
		log.Warn().Err(err).Msg("leave time parsing failed")
		return Extraction{}
	}
	out, ok := ParseExtraction(raw)
	if !ok {
		log.Debug().Str("raw", raw).Msg("discarding malformed time parse")
	}
	return Extraction{StartTime: out.StartTime, EndTime: out.EndTime}
}

// ParseExtraction decodes model output into an Extraction. Fenced output is
// unwrapped first. Non-string values and the literal "null" count as absent.
// ok is false when the payload is not a JSON object.
func ParseExtraction(raw string) (Extraction, bool) {
	payload := llm.ExtractJSON(raw)
	if payload == "" {
		return Extraction{}, false
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return Extraction{}, false
	}

	return Extraction{
		LeaveType: stringField(fields, "leave_type"),
		StartTime: stringField(fields, "start_time"),
		EndTime:   stringField(fields, "end_time"),
		Reason:    stringField(fields, "reason"),
	}, true
}

func stringField(fields map[string]any, key string) string {
	s, ok := fields[key].(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return ""
	}
	return s
}
