package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/kb-assistant/internal/domain"
)

type MockQA struct {
	mock.Mock
}

func (m *MockQA) Answer(ctx context.Context, turn domain.Turn) (string, []domain.Document, error) {
	args := m.Called(ctx, turn)
	var docs []domain.Document
	if d := args.Get(1); d != nil {
		docs = d.([]domain.Document)
	}
	return args.String(0), docs, args.Error(2)
}

type MockLeave struct {
	mock.Mock
}

func (m *MockLeave) Handle(ctx context.Context, turn domain.Turn, state *domain.SessionState) string {
	args := m.Called(ctx, turn, state)
	answer := args.String(0)
	state.Answer = answer
	state.LeaveStage = domain.LeaveStageAwaitingInfo
	return answer
}

func TestEngine_LeaveRouteIsStickyAndPersisted(t *testing.T) {
	qa := new(MockQA)
	lv := new(MockLeave)
	e := NewEngine(qa, lv)

	turn := domain.Turn{Text: "下周二", SessionID: "s1"}
	prior := &domain.SessionState{ActiveRoute: domain.RouteLeave, LeaveStage: domain.LeaveStageAwaitingInfo}
	lv.On("Handle", mock.Anything, turn, mock.AnythingOfType("*domain.SessionState")).Return("缺少信息：结束时间。请补充/修正后再说一次。")

	res := e.HandleTurn(context.Background(), turn, prior)
	assert.Equal(t, domain.RouteLeave, res.Route)
	assert.Equal(t, domain.RouteLeave, res.State.ActiveRoute)
	assert.Equal(t, "缺少信息：结束时间。请补充/修正后再说一次。", res.Answer)
	qa.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything)

	// the prior state is not mutated
	assert.Empty(t, prior.Answer)
}

func TestEngine_QARouteCarriesDocsForThisTurnOnly(t *testing.T) {
	qa := new(MockQA)
	e := NewEngine(qa, new(MockLeave))

	turn := domain.Turn{Text: "VPN 怎么连？"}
	docs := []domain.Document{{Content: "vpn guide", Metadata: map[string]any{"source": "it.md"}}}
	qa.On("Answer", mock.Anything, turn).Return("见[1]", docs, nil)

	prior := &domain.SessionState{Docs: []domain.Document{{Content: "stale"}}}
	res := e.HandleTurn(context.Background(), turn, prior)
	assert.Equal(t, domain.RouteQA, res.Route)
	assert.Equal(t, "见[1]", res.Answer)
	assert.Equal(t, docs, res.State.Docs)
}

func TestEngine_QAErrorBecomesAnswer(t *testing.T) {
	qa := new(MockQA)
	e := NewEngine(qa, new(MockLeave))

	turn := domain.Turn{Text: "hello", Mode: "qa"}
	qa.On("Answer", mock.Anything, turn).Return("", nil, errors.New("llm down"))

	res := e.HandleTurn(context.Background(), turn, nil)
	assert.Equal(t, MsgQAUnavailable, res.Answer)
	assert.Empty(t, res.State.Docs)
}

func TestEngine_QAModeLeavesDraftIntact(t *testing.T) {
	qa := new(MockQA)
	e := NewEngine(qa, new(MockLeave))

	turn := domain.Turn{Text: "年假有几天？", Mode: "kb"}
	qa.On("Answer", mock.Anything, turn).Return("5 天[1]", nil, nil)

	prior := &domain.SessionState{
		ActiveRoute: domain.RouteLeave,
		Req:         &domain.LeaveDraft{LeaveType: domain.LeaveTypeAnnual},
		LeaveStage:  domain.LeaveStageAwaitingInfo,
	}
	res := e.HandleTurn(context.Background(), turn, prior)
	assert.Equal(t, domain.RouteQA, res.State.ActiveRoute)
	require.NotNil(t, res.State.Req)
	assert.Equal(t, domain.LeaveStageAwaitingInfo, res.State.LeaveStage)
}
