package leave

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/kb-assistant/internal/domain"
)

func newTestWorkflow(store *MockLeaveRepository, ext *MockExtractor, opts ...Option) *Workflow {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewWorkflow(store, ext, cst, opts...)
}

func TestTransitions_Exhaustive(t *testing.T) {
	steps := []Step{StepStart, StepParseTime, StepExtract, StepValidate, StepNeedInfo, StepConfirm, StepCreate, StepEnd}
	legal := map[[2]Step]bool{
		{StepStart, StepParseTime}:   true,
		{StepStart, StepValidate}:    true,
		{StepParseTime, StepExtract}: true,
		{StepExtract, StepValidate}:  true,
		{StepValidate, StepNeedInfo}: true,
		{StepValidate, StepConfirm}:  true,
		{StepNeedInfo, StepEnd}:      true,
		{StepConfirm, StepCreate}:    true,
		{StepConfirm, StepEnd}:       true,
		{StepCreate, StepEnd}:        true,
	}

	for _, from := range steps {
		for _, to := range steps {
			assert.Equal(t, legal[[2]Step{from, to}], canTransition(from, to), "%s -> %s", from, to)
		}
	}

	// every path from start terminates
	var walk func(s Step, seen map[Step]bool)
	walk = func(s Step, seen map[Step]bool) {
		if s == StepEnd {
			return
		}
		require.False(t, seen[s], "cycle through %s", s)
		require.NotEmpty(t, transitions[s], "%s has no outgoing edge", s)
		seen[s] = true
		for _, next := range transitions[s] {
			walk(next, seen)
		}
		delete(seen, s)
	}
	walk(StepStart, map[Step]bool{})
}

func TestApply_TomorrowMorningAnnualNeedsNotice(t *testing.T) {
	store := new(MockLeaveRepository)
	ext := new(MockExtractor)
	w := newTestWorkflow(store, ext)
	ctx := context.Background()

	text := "我想请明天上午的年假"
	ext.On("ParseTime", mock.Anything, testNow, text).
		Return(Extraction{StartTime: "2026-10-15 09:00", EndTime: "2026-10-15 12:00"})
	ext.On("ExtractFields", mock.Anything, text).
		Return(Extraction{LeaveType: "annual"})
	store.On("GetBalance", mock.Anything, "u1").
		Return(&domain.LeaveBalance{Requester: "u1", AnnualDays: 3}, nil)

	state := &domain.SessionState{}
	answer := w.Handle(ctx, domain.Turn{Text: text, Requester: "u1"}, state)

	require.NotNil(t, state.Req)
	assert.Equal(t, domain.LeaveTypeAnnual, state.Req.LeaveType)
	assert.Equal(t, "2026-10-15 09:00", state.Req.StartTime)
	assert.Equal(t, "2026-10-15 12:00", state.Req.EndTime)
	assert.Equal(t, "u1", state.Req.Requester)
	assert.Contains(t, state.Violations, MsgAdvanceNotice)
	assert.Equal(t, domain.LeaveStageAwaitingInfo, state.LeaveStage)
	assert.Contains(t, answer, MsgAdvanceNotice)
	assert.Contains(t, answer, "规则问题：")
	assert.Equal(t, answer, state.Answer)

	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	ext.AssertExpectations(t)
}

func TestApply_SlotFillingAcrossTurns(t *testing.T) {
	store := new(MockLeaveRepository)
	ext := new(MockExtractor)
	w := newTestWorkflow(store, ext)
	ctx := context.Background()
	store.On("GetBalance", mock.Anything, "u1").Return(nil, nil)

	// turn 1: only the type is known
	ext.On("ParseTime", mock.Anything, testNow, "我要请事假").Return(Extraction{})
	ext.On("ExtractFields", mock.Anything, "我要请事假").Return(Extraction{LeaveType: "personal"})

	state := &domain.SessionState{}
	answer := w.Handle(ctx, domain.Turn{Text: "我要请事假", Requester: "u1"}, state)
	assert.Equal(t, []string{domain.FieldStartTime, domain.FieldEndTime}, state.MissingFields)
	assert.Equal(t, "缺少信息：开始时间、结束时间。请补充/修正后再说一次。", answer)

	// turn 2: times arrive, type must survive the empty field extraction
	text := "10月20号全天"
	ext.On("ParseTime", mock.Anything, testNow, text).
		Return(Extraction{StartTime: "2026-10-20 09:00", EndTime: "2026-10-20 18:00"})
	ext.On("ExtractFields", mock.Anything, text).Return(Extraction{})

	answer = w.Handle(ctx, domain.Turn{Text: text, Requester: "u1"}, state)
	assert.Equal(t, domain.LeaveTypePersonal, state.Req.LeaveType)
	require.NotNil(t, state.Req.DurationDays)
	assert.Equal(t, 1.13, *state.Req.DurationDays)
	assert.Empty(t, state.MissingFields)
	assert.Empty(t, state.Violations)
	assert.Equal(t, domain.LeaveStageAwaitingConfirm, state.LeaveStage)
	assert.Contains(t, answer, "请确认你的请假信息")
	assert.Contains(t, answer, "- 类型：事假")
	assert.Contains(t, answer, "- 时长：1.13 天")
}

func TestApply_ParseTimeSkippedWhenTimesKnown(t *testing.T) {
	store := new(MockLeaveRepository)
	ext := new(MockExtractor)
	w := newTestWorkflow(store, ext)
	store.On("GetBalance", mock.Anything, "u1").Return(nil, nil)
	ext.On("ExtractFields", mock.Anything, "原因是看病").Return(Extraction{Reason: "看病"})

	state := &domain.SessionState{
		ActiveRoute: domain.RouteLeave,
		Req: &domain.LeaveDraft{
			LeaveType: domain.LeaveTypeSick,
			StartTime: "2026-10-14 09:00",
			EndTime:   "2026-10-15 18:00",
			Requester: "u1",
		},
		Violations: []string{MsgSickNeedsReason},
		LeaveStage: domain.LeaveStageAwaitingInfo,
	}

	answer := w.Handle(context.Background(), domain.Turn{Text: "原因是看病", Requester: "u1"}, state)
	assert.Contains(t, answer, "请确认你的请假信息")
	assert.Equal(t, "看病", state.Req.Reason)
	ext.AssertNotCalled(t, "ParseTime", mock.Anything, mock.Anything, mock.Anything)
}

func confirmableState() *domain.SessionState {
	days := 1.13
	return &domain.SessionState{
		ActiveRoute: domain.RouteLeave,
		Req: &domain.LeaveDraft{
			LeaveType:    domain.LeaveTypeAnnual,
			StartTime:    "2026-10-20 09:00",
			EndTime:      "2026-10-20 18:00",
			DurationDays: &days,
			Requester:    "u1",
		},
		LeaveStage: domain.LeaveStageAwaitingConfirm,
	}
}

func TestApply_ConfirmCreatesPendingRecord(t *testing.T) {
	store := new(MockLeaveRepository)
	ext := new(MockExtractor)
	w := newTestWorkflow(store, ext)
	store.On("GetBalance", mock.Anything, "u1").Return(&domain.LeaveBalance{AnnualDays: 5}, nil)
	store.On("Insert", mock.Anything, mock.AnythingOfType("*domain.LeaveRecord")).Return(nil)

	state := confirmableState()
	answer := w.Handle(context.Background(), domain.Turn{Text: " 确认 ", Requester: "u1"}, state)

	require.Len(t, store.Calls, 2)
	rec := store.Calls[1].Arguments.Get(1).(*domain.LeaveRecord)
	assert.Regexp(t, regexp.MustCompile(`^LV-[0-9a-f]{8}$`), rec.LeaveID)
	assert.Equal(t, domain.LeaveStatusPending, rec.Status)
	assert.Equal(t, "u1", rec.Requester)
	assert.Equal(t, domain.LeaveTypeAnnual, rec.LeaveType)
	assert.Equal(t, 1.13, rec.DurationDays)
	assert.Equal(t, testNow, rec.CreatedAt)

	assert.Equal(t, RenderCreated(rec.LeaveID), answer)
	assert.Equal(t, rec.LeaveID, state.LeaveID)
	assert.Nil(t, state.Req)
	assert.Equal(t, domain.LeaveStageNone, state.LeaveStage)
	assert.Equal(t, domain.RouteLeave, state.ActiveRoute)

	ext.AssertNotCalled(t, "ExtractFields", mock.Anything, mock.Anything)
	ext.AssertNotCalled(t, "ParseTime", mock.Anything, mock.Anything, mock.Anything)
}

func TestApply_ConfirmTokenWithoutPriorRecapDoesNotCreate(t *testing.T) {
	store := new(MockLeaveRepository)
	ext := new(MockExtractor)
	w := newTestWorkflow(store, ext)
	store.On("GetBalance", mock.Anything, "u1").Return(nil, nil)
	ext.On("ExtractFields", mock.Anything, "确认").Return(Extraction{})

	state := confirmableState()
	state.LeaveStage = domain.LeaveStageAwaitingInfo

	answer := w.Handle(context.Background(), domain.Turn{Text: "确认", Requester: "u1"}, state)
	assert.Contains(t, answer, "请确认你的请假信息")
	assert.Equal(t, domain.LeaveStageAwaitingConfirm, state.LeaveStage)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestApply_ConfirmRevalidatesBeforeCreate(t *testing.T) {
	store := new(MockLeaveRepository)
	ext := new(MockExtractor)
	w := newTestWorkflow(store, ext)
	store.On("GetBalance", mock.Anything, "u1").Return(&domain.LeaveBalance{AnnualDays: 0.5}, nil)

	state := confirmableState()
	answer := w.Handle(context.Background(), domain.Turn{Text: "ok", Requester: "u1"}, state)

	assert.Contains(t, answer, BalanceMessage(0.5))
	assert.Equal(t, domain.LeaveStageAwaitingInfo, state.LeaveStage)
	assert.NotNil(t, state.Req)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestApply_CorrectionAtConfirmStageRecaps(t *testing.T) {
	store := new(MockLeaveRepository)
	ext := new(MockExtractor)
	w := newTestWorkflow(store, ext)
	store.On("GetBalance", mock.Anything, "u1").Return(nil, nil)
	ext.On("ExtractFields", mock.Anything, "原因写陪家人").Return(Extraction{Reason: "陪家人"})

	state := confirmableState()
	answer := w.Handle(context.Background(), domain.Turn{Text: "原因写陪家人", Requester: "u1"}, state)

	assert.Contains(t, answer, "- 原因：陪家人")
	assert.Equal(t, domain.LeaveStageAwaitingConfirm, state.LeaveStage)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestApply_InsertFailureIsPolite(t *testing.T) {
	store := new(MockLeaveRepository)
	ext := new(MockExtractor)
	w := newTestWorkflow(store, ext, WithIDGenerator(func() string { return "LV-deadbeef" }))
	store.On("GetBalance", mock.Anything, "u1").Return(nil, nil)
	store.On("Insert", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	state := confirmableState()
	answer := w.Handle(context.Background(), domain.Turn{Text: "submit", Requester: "u1"}, state)

	assert.Equal(t, MsgServiceFailure, answer)
	assert.Empty(t, state.LeaveID)
	assert.NotNil(t, state.Req, "draft survives a failed insert")
}

func TestApply_DefaultBalanceAndRequester(t *testing.T) {
	store := new(MockLeaveRepository)
	ext := new(MockExtractor)
	w := newTestWorkflow(store, ext, WithDefaultBalance(1))
	text := "10月20到21号年假"
	ext.On("ParseTime", mock.Anything, testNow, text).
		Return(Extraction{StartTime: "2026-10-20 09:00", EndTime: "2026-10-21 18:00"})
	ext.On("ExtractFields", mock.Anything, text).Return(Extraction{LeaveType: "annual"})
	store.On("GetBalance", mock.Anything, "anonymous").Return(nil, nil)

	state := &domain.SessionState{}
	answer := w.Handle(context.Background(), domain.Turn{Text: text}, state)

	assert.Equal(t, "anonymous", state.Req.Requester)
	assert.Contains(t, answer, BalanceMessage(1))
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	rec := &domain.LeaveRecord{
		LeaveID: "LV-1a2b3c4d", Requester: "u1", LeaveType: domain.LeaveTypeSick,
		StartTime: "2026-10-20 09:00", EndTime: "2026-10-20 18:00", DurationDays: 1.13,
		Status: domain.LeaveStatusApproved,
	}

	t.Run("id from text", func(t *testing.T) {
		store := new(MockLeaveRepository)
		w := newTestWorkflow(store, new(MockExtractor))
		store.On("Get", mock.Anything, "LV-1a2b3c4d").Return(rec, nil)

		state := &domain.SessionState{}
		answer := w.Handle(ctx, domain.Turn{Text: "查询请假 LV-1A2B3C4D", Requester: "u1"}, state)
		assert.Contains(t, answer, "请假单 LV-1a2b3c4d")
		assert.Contains(t, answer, "- 状态：已批准")
		assert.Equal(t, "LV-1a2b3c4d", state.LeaveID)
	})

	t.Run("id from session", func(t *testing.T) {
		store := new(MockLeaveRepository)
		w := newTestWorkflow(store, new(MockExtractor))
		store.On("Get", mock.Anything, "LV-1a2b3c4d").Return(rec, nil)

		state := &domain.SessionState{LeaveID: "LV-1a2b3c4d"}
		answer := w.Handle(ctx, domain.Turn{Text: "我的请假审批进度", Requester: "u1"}, state)
		assert.Contains(t, answer, "- 类型：病假")
	})

	t.Run("no id", func(t *testing.T) {
		store := new(MockLeaveRepository)
		w := newTestWorkflow(store, new(MockExtractor))

		answer := w.Handle(ctx, domain.Turn{Text: "查询请假状态"}, &domain.SessionState{})
		assert.Equal(t, MsgNeedLeaveID, answer)
		store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		store := new(MockLeaveRepository)
		w := newTestWorkflow(store, new(MockExtractor))
		store.On("Get", mock.Anything, "LV-00000000").Return(nil, domain.ErrLeaveNotFound)

		answer := w.Handle(ctx, domain.Turn{Text: "查询请假 LV-00000000"}, &domain.SessionState{})
		assert.Equal(t, RenderNotFound("LV-00000000"), answer)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("pending record", func(t *testing.T) {
		store := new(MockLeaveRepository)
		w := newTestWorkflow(store, new(MockExtractor))
		store.On("Get", mock.Anything, "LV-1a2b3c4d").Return(pendingRecord(), nil)
		store.On("Cancel", mock.Anything, "LV-1a2b3c4d").Return(true, nil)

		state := &domain.SessionState{}
		answer := w.Handle(ctx, domain.Turn{Text: "取消 LV-1a2b3c4d", Requester: "u1"}, state)
		assert.Equal(t, RenderCancelled("LV-1a2b3c4d"), answer)
		assert.Equal(t, "LV-1a2b3c4d", state.LeaveID)
	})

	t.Run("non pending record", func(t *testing.T) {
		store := new(MockLeaveRepository)
		w := newTestWorkflow(store, new(MockExtractor))
		approved := pendingRecord()
		approved.LeaveID = "LV-00000000"
		approved.Status = domain.LeaveStatusApproved
		store.On("Get", mock.Anything, "LV-00000000").Return(approved, nil)
		store.On("Cancel", mock.Anything, "LV-00000000").Return(false, nil)

		answer := w.Handle(ctx, domain.Turn{Text: "cancel LV-00000000", Requester: "u1"}, &domain.SessionState{})
		assert.Equal(t, RenderCancelFailed("LV-00000000"), answer)
		assert.Contains(t, answer, "不存在或不是待审批状态")
		store.AssertNumberOfCalls(t, "Cancel", 1)
	})

	t.Run("pending draft is discarded", func(t *testing.T) {
		store := new(MockLeaveRepository)
		w := newTestWorkflow(store, new(MockExtractor))

		state := confirmableState()
		state.LeaveID = "LV-1a2b3c4d"
		answer := w.Handle(ctx, domain.Turn{Text: "算了，取消吧"}, state)
		assert.Equal(t, MsgDraftDiscarded, answer)
		assert.Nil(t, state.Req)
		assert.Equal(t, domain.LeaveStageNone, state.LeaveStage)
		store.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
	})

	t.Run("session id", func(t *testing.T) {
		store := new(MockLeaveRepository)
		w := newTestWorkflow(store, new(MockExtractor))
		store.On("Get", mock.Anything, "LV-1a2b3c4d").Return(pendingRecord(), nil)
		store.On("Cancel", mock.Anything, "LV-1a2b3c4d").Return(true, nil)

		answer := w.Handle(ctx, domain.Turn{Text: "撤销", Requester: "u1"}, &domain.SessionState{LeaveID: "LV-1a2b3c4d"})
		assert.Equal(t, RenderCancelled("LV-1a2b3c4d"), answer)
	})

	t.Run("store error", func(t *testing.T) {
		store := new(MockLeaveRepository)
		w := newTestWorkflow(store, new(MockExtractor))
		store.On("Get", mock.Anything, "LV-1a2b3c4d").Return(pendingRecord(), nil)
		store.On("Cancel", mock.Anything, "LV-1a2b3c4d").Return(false, errors.New("timeout"))

		answer := w.Handle(ctx, domain.Turn{Text: "取消 LV-1a2b3c4d", Requester: "u1"}, &domain.SessionState{})
		assert.Equal(t, MsgServiceFailure, answer)
	})

	t.Run("unknown record", func(t *testing.T) {
		store := new(MockLeaveRepository)
		w := newTestWorkflow(store, new(MockExtractor))
		store.On("Get", mock.Anything, "LV-00000000").Return(nil, domain.ErrLeaveNotFound)

		answer := w.Handle(ctx, domain.Turn{Text: "取消 LV-00000000", Requester: "u1"}, &domain.SessionState{})
		assert.Equal(t, RenderCancelFailed("LV-00000000"), answer)
		store.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
	})
}

func TestOtherRequestersRecordsAreHidden(t *testing.T) {
	ctx := context.Background()
	store := new(MockLeaveRepository)
	extractor := new(MockExtractor)
	w := newTestWorkflow(store, extractor)
	store.On("Get", mock.Anything, "LV-1a2b3c4d").Return(pendingRecord(), nil)

	state := &domain.SessionState{}
	answer := w.Handle(ctx, domain.Turn{Text: "查询请假 LV-1a2b3c4d", Requester: "u2"}, state)
	assert.Equal(t, RenderNotFound("LV-1a2b3c4d"), answer)
	assert.Empty(t, state.LeaveID)

	answer = w.Handle(ctx, domain.Turn{Text: "取消 LV-1a2b3c4d", Requester: "u2"}, state)
	assert.Equal(t, RenderCancelFailed("LV-1a2b3c4d"), answer)

	answer = w.Handle(ctx, domain.Turn{Text: "把 LV-1a2b3c4d 改成年假", Requester: "u2"}, state)
	assert.Equal(t, RenderNotFound("LV-1a2b3c4d"), answer)

	store.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	extractor.AssertNotCalled(t, "ExtractFields", mock.Anything, mock.Anything)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	records := []domain.LeaveRecord{
		{LeaveID: "LV-00000003", LeaveType: domain.LeaveTypeAnnual, StartTime: "2026-10-22 09:00", EndTime: "2026-10-22 18:00", DurationDays: 1.13, Status: domain.LeaveStatusPending},
		{LeaveID: "LV-00000002", LeaveType: domain.LeaveTypeSick, StartTime: "2026-10-12 09:00", EndTime: "2026-10-12 12:00", DurationDays: 0.38, Status: domain.LeaveStatusApproved},
		{LeaveID: "LV-00000001", LeaveType: domain.LeaveTypePersonal, StartTime: "2026-10-01 09:00", EndTime: "2026-10-01 18:00", DurationDays: 1.13, Status: domain.LeaveStatusCancelled},
	}

	store := new(MockLeaveRepository)
	w := newTestWorkflow(store, new(MockExtractor))
	store.On("ListRecent", mock.Anything, "u1", 3).Return(records, nil)

	answer := w.Handle(ctx, domain.Turn{Text: "给我看最近3条请假记录", Requester: "u1"}, &domain.SessionState{})
	assert.Contains(t, answer, "最近 3 条请假记录：")
	assert.Regexp(t, `(?s)1\. LV-00000003.*2\. LV-00000002.*3\. LV-00000001`, answer)
	store.AssertExpectations(t)

	empty := new(MockLeaveRepository)
	w = newTestWorkflow(empty, new(MockExtractor))
	empty.On("ListRecent", mock.Anything, "u2", 5).Return([]domain.LeaveRecord{}, nil)
	assert.Equal(t, MsgNoRecords, w.Handle(ctx, domain.Turn{Text: "我的请假记录", Requester: "u2"}, &domain.SessionState{}))
}

func pendingRecord() *domain.LeaveRecord {
	return &domain.LeaveRecord{
		LeaveID:      "LV-1a2b3c4d",
		Requester:    "u1",
		LeaveType:    domain.LeaveTypePersonal,
		StartTime:    "2026-10-20 09:00",
		EndTime:      "2026-10-20 18:00",
		DurationDays: 1.13,
		Status:       domain.LeaveStatusPending,
	}
}

func TestModify(t *testing.T) {
	ctx := context.Background()
	text := "把 LV-1a2b3c4d 改成下午"

	t.Run("updates only changed fields", func(t *testing.T) {
		store := new(MockLeaveRepository)
		ext := new(MockExtractor)
		w := newTestWorkflow(store, ext)
		store.On("Get", mock.Anything, "LV-1a2b3c4d").Return(pendingRecord(), nil)
		store.On("GetBalance", mock.Anything, "u1").Return(nil, nil)
		ext.On("ParseTime", mock.Anything, testNow, text).Return(Extraction{StartTime: "2026-10-20 13:00", EndTime: "2026-10-20 18:00"})
		ext.On("ExtractFields", mock.Anything, text).Return(Extraction{})
		store.On("Update", mock.Anything, "LV-1a2b3c4d", mock.Anything).Return(true, nil)

		state := &domain.SessionState{}
		answer := w.Handle(ctx, domain.Turn{Text: text, Requester: "u1"}, state)
		assert.Contains(t, answer, "已更新请假单 LV-1a2b3c4d")
		assert.Equal(t, "LV-1a2b3c4d", state.LeaveID)

		upd := store.Calls[2].Arguments.Get(2).(domain.LeaveUpdate)
		require.NotNil(t, upd.StartTime)
		assert.Equal(t, "2026-10-20 13:00", *upd.StartTime)
		assert.Nil(t, upd.EndTime)
		assert.Nil(t, upd.LeaveType)
		assert.Nil(t, upd.Reason)
		require.NotNil(t, upd.DurationDays)
		assert.Equal(t, 0.63, *upd.DurationDays)
	})

	t.Run("validation failure leaves record untouched", func(t *testing.T) {
		store := new(MockLeaveRepository)
		ext := new(MockExtractor)
		w := newTestWorkflow(store, ext)
		store.On("Get", mock.Anything, "LV-1a2b3c4d").Return(pendingRecord(), nil)
		store.On("GetBalance", mock.Anything, "u1").Return(nil, nil)
		ext.On("ParseTime", mock.Anything, testNow, text).Return(Extraction{StartTime: "2026-10-20 17:00", EndTime: "2026-10-20 18:00"})
		ext.On("ExtractFields", mock.Anything, text).Return(Extraction{})

		answer := w.Handle(ctx, domain.Turn{Text: text, Requester: "u1"}, &domain.SessionState{})
		assert.Contains(t, answer, MsgMinimumUnit)
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not pending", func(t *testing.T) {
		store := new(MockLeaveRepository)
		w := newTestWorkflow(store, new(MockExtractor))
		rec := pendingRecord()
		rec.Status = domain.LeaveStatusApproved
		store.On("Get", mock.Anything, "LV-1a2b3c4d").Return(rec, nil)

		answer := w.Handle(ctx, domain.Turn{Text: text, Requester: "u1"}, &domain.SessionState{})
		assert.Equal(t, RenderModifyFailed("LV-1a2b3c4d"), answer)
	})

	t.Run("nothing extracted", func(t *testing.T) {
		store := new(MockLeaveRepository)
		ext := new(MockExtractor)
		w := newTestWorkflow(store, ext)
		store.On("Get", mock.Anything, "LV-1a2b3c4d").Return(pendingRecord(), nil)
		ext.On("ParseTime", mock.Anything, testNow, text).Return(Extraction{})
		ext.On("ExtractFields", mock.Anything, text).Return(Extraction{})

		answer := w.Handle(ctx, domain.Turn{Text: text, Requester: "u1"}, &domain.SessionState{})
		assert.Equal(t, MsgNothingToApply, answer)
	})

	t.Run("pending draft absorbs the correction", func(t *testing.T) {
		store := new(MockLeaveRepository)
		ext := new(MockExtractor)
		w := newTestWorkflow(store, ext)
		store.On("GetBalance", mock.Anything, "u1").Return(nil, nil)
		ext.On("ExtractFields", mock.Anything, "类型改成事假").Return(Extraction{LeaveType: "personal"})

		state := confirmableState()
		state.LeaveID = "LV-99999999"
		answer := w.Handle(ctx, domain.Turn{Text: "类型改成事假", Requester: "u1"}, state)

		assert.Contains(t, answer, "- 类型：事假")
		assert.Equal(t, domain.LeaveTypePersonal, state.Req.LeaveType)
		store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("no id", func(t *testing.T) {
		w := newTestWorkflow(new(MockLeaveRepository), new(MockExtractor))
		answer := w.Handle(ctx, domain.Turn{Text: "我要修改"}, &domain.SessionState{})
		assert.Equal(t, MsgNeedLeaveID, answer)
	})
}

func TestNewLeaveID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewLeaveID()
		assert.Regexp(t, `^LV-[0-9a-f]{8}$`, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 95)
}
