package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/kb-assistant/internal/domain"
)

func TestChatService_NewSessionDefaults(t *testing.T) {
	ctx := context.Background()
	engine := new(MockTurnEngine)
	sessions := new(MockSessionStore)
	locker := new(MockSessionLocker)

	svc := NewChatService(engine, sessions, locker)
	svc.newID = func() string { return "sess-1" }

	wantTurn := domain.Turn{Text: "年假有几天？", UserRole: "public", Requester: "anonymous", SessionID: "sess-1"}
	result := domain.TurnResult{
		Answer: "年假五天[1]",
		Route:  domain.RouteQA,
		State: domain.SessionState{
			ActiveRoute: domain.RouteQA,
			Answer:      "年假五天[1]",
			Docs:        []domain.Document{{Content: "年假五天", Metadata: map[string]any{"source": "hr.md"}}},
		},
	}

	locker.On("Lock", ctx, "sess-1").Return(nil)
	sessions.On("Load", ctx, "sess-1").Return(nil, nil)
	engine.On("HandleTurn", ctx, wantTurn, (*domain.SessionState)(nil)).Return(result)
	sessions.On("Save", ctx, "sess-1", mock.AnythingOfType("*domain.SessionState")).Return(nil)

	resp, err := svc.Chat(ctx, domain.ChatRequest{Text: "  年假有几天？ "})
	require.NoError(t, err)

	assert.Equal(t, "年假五天[1]", resp.Answer)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, domain.RouteQA, resp.ActiveRoute)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "hr.md", resp.Sources[0].Source)
	assert.Equal(t, 1, locker.released)

	engine.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestChatService_ExistingSession(t *testing.T) {
	ctx := context.Background()
	engine := new(MockTurnEngine)
	sessions := new(MockSessionStore)

	prior := &domain.SessionState{ActiveRoute: domain.RouteLeave, LeaveStage: domain.LeaveStageAwaitingConfirm}
	result := domain.TurnResult{
		Answer: "已为你提交请假申请，编号 LV-0a1b2c3d，等待审批。",
		Route:  domain.RouteLeave,
		State:  domain.SessionState{ActiveRoute: domain.RouteLeave, LeaveID: "LV-0a1b2c3d"},
	}

	sessions.On("Load", ctx, "s9").Return(prior, nil)
	engine.On("HandleTurn", ctx, mock.MatchedBy(func(turn domain.Turn) bool {
		return turn.Text == "确认" && turn.Requester == "alice" && turn.UserRole == "hr"
	}), prior).Return(result)
	sessions.On("Save", ctx, "s9", mock.MatchedBy(func(s *domain.SessionState) bool {
		return s.LeaveID == "LV-0a1b2c3d"
	})).Return(nil)

	svc := NewChatService(engine, sessions, nil)
	resp, err := svc.Chat(ctx, domain.ChatRequest{Text: "确认", UserRole: "hr", Requester: "alice", SessionID: "s9"})
	require.NoError(t, err)

	assert.Equal(t, "LV-0a1b2c3d", resp.LeaveID)
	assert.Equal(t, domain.RouteLeave, resp.ActiveRoute)
	assert.Empty(t, resp.Sources)
	sessions.AssertExpectations(t)
}

func TestChatService_SessionBusy(t *testing.T) {
	ctx := context.Background()
	engine := new(MockTurnEngine)
	sessions := new(MockSessionStore)
	locker := new(MockSessionLocker)
	locker.On("Lock", ctx, "s1").Return(domain.ErrSessionBusy)

	svc := NewChatService(engine, sessions, locker)
	_, err := svc.Chat(ctx, domain.ChatRequest{Text: "确认", SessionID: "s1"})

	assert.ErrorIs(t, err, domain.ErrSessionBusy)
	engine.AssertNotCalled(t, "HandleTurn", mock.Anything, mock.Anything, mock.Anything)
	sessions.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
}

func TestChatService_LoadFailure(t *testing.T) {
	ctx := context.Background()
	engine := new(MockTurnEngine)
	sessions := new(MockSessionStore)
	sessions.On("Load", ctx, "s1").Return(nil, errors.New("redis down"))

	svc := NewChatService(engine, sessions, nil)
	_, err := svc.Chat(ctx, domain.ChatRequest{Text: "hi", SessionID: "s1"})

	assert.ErrorContains(t, err, "failed to load session")
	engine.AssertNotCalled(t, "HandleTurn", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatService_SaveFailureKeepsAnswer(t *testing.T) {
	ctx := context.Background()
	engine := new(MockTurnEngine)
	sessions := new(MockSessionStore)

	sessions.On("Load", ctx, "s1").Return(nil, nil)
	engine.On("HandleTurn", ctx, mock.Anything, mock.Anything).Return(domain.TurnResult{
		Answer: "ok", Route: domain.RouteLeave,
	})
	sessions.On("Save", ctx, "s1", mock.Anything).Return(errors.New("redis down"))

	svc := NewChatService(engine, sessions, nil)
	resp, err := svc.Chat(ctx, domain.ChatRequest{Text: "请假", SessionID: "s1"})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Answer)
}
