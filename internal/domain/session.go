package domain

import (
	"context"
	"errors"
	"time"
)

// SessionTTL is how long a conversation's state survives after its last write
const SessionTTL = 7 * 24 * time.Hour

// Route identifies the sub-workflow that owns a turn
type Route string

const (
	RouteQA    Route = "qa"
	RouteLeave Route = "leave"
)

// LeaveStage records where the apply flow stopped on the previous turn
type LeaveStage string

const (
	LeaveStageNone            LeaveStage = ""
	LeaveStageAwaitingInfo    LeaveStage = "awaiting_info"
	LeaveStageAwaitingConfirm LeaveStage = "awaiting_confirm"
)

// Document is a retrieved knowledge-base chunk
type Document struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SessionState is the cross-turn state of one conversation.
// Docs is per-turn only and is stripped by session stores before writing.
type SessionState struct {
	ActiveRoute   Route       `json:"active_route,omitempty"`
	Req           *LeaveDraft `json:"req,omitempty"`
	MissingFields []string    `json:"missing_fields,omitempty"`
	Violations    []string    `json:"violations,omitempty"`
	LeaveStage    LeaveStage  `json:"leave_stage,omitempty"`
	LeaveID       string      `json:"leave_id,omitempty"`
	Answer        string      `json:"answer,omitempty"`
	Docs          []Document  `json:"docs,omitempty"`
}

// Clone returns a deep copy of the state. A nil state clones to an empty one.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return &SessionState{}
	}
	c := *s
	c.Req = s.Req.Clone()
	c.MissingFields = append([]string(nil), s.MissingFields...)
	c.Violations = append([]string(nil), s.Violations...)
	c.Docs = append([]Document(nil), s.Docs...)
	return &c
}

// ResetDraft clears every trace of the in-progress leave request
func (s *SessionState) ResetDraft() {
	s.Req = nil
	s.MissingFields = nil
	s.Violations = nil
	s.LeaveStage = LeaveStageNone
}

// ErrSessionBusy is returned when another turn of the same session is in flight
var ErrSessionBusy = errors.New("session is busy")

// SessionStore defines the interface for cross-turn state persistence
type SessionStore interface {
	// Load returns nil without error when the session does not exist or has expired
	Load(ctx context.Context, sessionID string) (*SessionState, error)
	Save(ctx context.Context, sessionID string, state *SessionState) error
}

// SessionLocker serializes turns that share a session id
type SessionLocker interface {
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}
