package workflow

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/internal/domain"
	"github.com/Rrens/kb-assistant/internal/metrics"
)

// MsgQAUnavailable is answered when retrieval or generation failed
const MsgQAUnavailable = "知识库服务暂时不可用，请稍后再试。"

// LeaveHandler runs a leave turn and updates state in place
type LeaveHandler interface {
	Handle(ctx context.Context, turn domain.Turn, state *domain.SessionState) string
}

// QAHandler answers a knowledge-base question
type QAHandler interface {
	Answer(ctx context.Context, turn domain.Turn) (string, []domain.Document, error)
}

// Engine routes each turn to the QA or leave sub-workflow
type Engine struct {
	qa    QAHandler
	leave LeaveHandler
}

// NewEngine creates a turn engine
func NewEngine(qa QAHandler, leave LeaveHandler) *Engine {
	return &Engine{qa: qa, leave: leave}
}

// HandleTurn runs one turn against a copy of prior, which may be nil. It
// never fails: collaborator errors become user-facing answers.
func (e *Engine) HandleTurn(ctx context.Context, turn domain.Turn, prior *domain.SessionState) domain.TurnResult {
	state := prior.Clone()
	state.Docs = nil

	route := DecideRoute(turn, state.ActiveRoute)
	state.ActiveRoute = route
	metrics.IncTurn(string(route))

	logger := log.With().
		Str("session_id", turn.SessionID).
		Str("route", string(route)).
		Logger()
	ctx = logger.WithContext(ctx)

	switch route {
	case domain.RouteLeave:
		e.leave.Handle(ctx, turn, state)
	default:
		answer, docs, err := e.qa.Answer(ctx, turn)
		if err != nil {
			logger.Error().Err(err).Msg("qa turn failed")
			answer = MsgQAUnavailable
		}
		state.Answer = answer
		state.Docs = docs
	}

	return domain.TurnResult{
		Answer: state.Answer,
		State:  *state,
		Route:  route,
	}
}
