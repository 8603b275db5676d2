package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/internal/domain"
	"github.com/Rrens/kb-assistant/internal/qa"
)

// Defaults applied to turns that omit them
const (
	DefaultUserRole  = "public"
	DefaultRequester = "anonymous"
)

// TurnEngine runs a single turn against prior session state
type TurnEngine interface {
	HandleTurn(ctx context.Context, turn domain.Turn, prior *domain.SessionState) domain.TurnResult
}

// ChatService wraps the turn engine with session loading, saving and locking
type ChatService struct {
	engine   TurnEngine
	sessions domain.SessionStore
	locker   domain.SessionLocker
	newID    func() string
}

// NewChatService creates a chat service. locker may be nil when callers
// already serialize turns of a session.
func NewChatService(engine TurnEngine, sessions domain.SessionStore, locker domain.SessionLocker) *ChatService {
	return &ChatService{
		engine:   engine,
		sessions: sessions,
		locker:   locker,
		newID:    uuid.NewString,
	}
}

// Chat handles one chat request end to end
func (s *ChatService) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	turn := domain.Turn{
		Text:      strings.TrimSpace(req.Text),
		UserRole:  strings.TrimSpace(req.UserRole),
		Requester: strings.TrimSpace(req.Requester),
		Mode:      strings.TrimSpace(req.Mode),
		SessionID: strings.TrimSpace(req.SessionID),
	}
	if turn.UserRole == "" {
		turn.UserRole = DefaultUserRole
	}
	if turn.Requester == "" {
		turn.Requester = DefaultRequester
	}
	if turn.SessionID == "" {
		turn.SessionID = s.newID()
	}

	logger := log.With().Str("session_id", turn.SessionID).Logger()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, turn.SessionID)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	prior, err := s.sessions.Load(ctx, turn.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	result := s.engine.HandleTurn(ctx, turn, prior)

	// the answer stands even if state is lost; a record may already exist
	if err := s.sessions.Save(ctx, turn.SessionID, &result.State); err != nil {
		logger.Error().Err(err).Msg("failed to save session")
	}

	resp := &domain.ChatResponse{
		Answer:      result.Answer,
		SessionID:   turn.SessionID,
		ActiveRoute: result.Route,
		LeaveID:     result.State.LeaveID,
	}
	if result.Route == domain.RouteQA {
		resp.Sources = qa.Sources(result.State.Docs)
	}
	return resp, nil
}
