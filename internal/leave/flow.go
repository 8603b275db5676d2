package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/internal/domain"
	"github.com/Rrens/kb-assistant/internal/metrics"
)

// Step is a node of the apply flow
type Step string

const (
	StepStart     Step = "start"
	StepParseTime Step = "parse_time"
	StepExtract   Step = "extract"
	StepValidate  Step = "validate"
	StepNeedInfo  Step = "need_info"
	StepConfirm   Step = "confirm"
	StepCreate    Step = "create"
	StepEnd       Step = "end"
)

// transitions enumerates every legal edge of the apply flow. Start goes
// straight to validate only when a pending draft is being confirmed.
var transitions = map[Step][]Step{
	StepStart:     {StepParseTime, StepValidate},
	StepParseTime: {StepExtract},
	StepExtract:   {StepValidate},
	StepValidate:  {StepNeedInfo, StepConfirm},
	StepNeedInfo:  {StepEnd},
	StepConfirm:   {StepCreate, StepEnd},
	StepCreate:    {StepEnd},
}

func canTransition(from, to Step) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

const anonymousRequester = "anonymous"

// DefaultAnnualBalance is used when a requester has no balance row
const DefaultAnnualBalance = 5.0

// Workflow dispatches leave turns and drives the apply flow
type Workflow struct {
	store          domain.LeaveRepository
	extractor      Extractor
	loc            *time.Location
	now            func() time.Time
	newID          func() string
	defaultBalance float64
}

// Option configures a Workflow
type Option func(*Workflow)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithIDGenerator overrides leave id minting
func WithIDGenerator(gen func() string) Option {
	return func(w *Workflow) { w.newID = gen }
}

// WithDefaultBalance sets the annual balance assumed for unknown requesters
func WithDefaultBalance(days float64) Option {
	return func(w *Workflow) { w.defaultBalance = days }
}

// NewWorkflow creates a leave workflow. A nil loc means time.Local.
func NewWorkflow(store domain.LeaveRepository, extractor Extractor, loc *time.Location, opts ...Option) *Workflow {
	if loc == nil {
		loc = time.Local
	}
	w := &Workflow{
		store:          store,
		extractor:      extractor,
		loc:            loc,
		now:            time.Now,
		newID:          NewLeaveID,
		defaultBalance: DefaultAnnualBalance,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewLeaveID mints "LV-" followed by 8 lowercase hex characters
func NewLeaveID() string {
	return "LV-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Handle runs one leave turn against state and returns the answer. State is
// updated in place. Store failures are logged and answered politely.
func (w *Workflow) Handle(ctx context.Context, turn domain.Turn, state *domain.SessionState) string {
	intent := ClassifyIntent(turn.Text)
	textID, hasTextID := FindLeaveID(turn.Text)

	// A correction to a pending draft that names no record belongs to the draft
	if intent == IntentModify && !hasTextID && state.Req != nil {
		intent = IntentApply
	}
	metrics.IncLeaveIntent(string(intent))

	logger := log.With().
		Str("session_id", turn.SessionID).
		Str("intent", string(intent)).
		Logger()
	ctx = logger.WithContext(ctx)

	var (
		answer string
		err    error
	)
	switch intent {
	case IntentQuery:
		answer, err = w.query(ctx, turn, w.resolveID(textID, state), state)
	case IntentCancel:
		answer, err = w.cancel(ctx, turn, textID, state)
	case IntentList:
		answer, err = w.list(ctx, turn)
	case IntentModify:
		answer, err = w.modify(ctx, turn, w.resolveID(textID, state), state)
	default:
		answer, err = w.apply(ctx, turn, state)
	}

	if err != nil {
		logger.Error().Err(err).Msg("leave turn failed")
		answer = MsgServiceFailure
	}
	state.Answer = answer
	return answer
}

func (w *Workflow) resolveID(textID string, state *domain.SessionState) string {
	if textID != "" {
		return textID
	}
	return state.LeaveID
}

func (w *Workflow) query(ctx context.Context, turn domain.Turn, leaveID string, state *domain.SessionState) (string, error) {
	if leaveID == "" {
		return MsgNeedLeaveID, nil
	}

	rec, err := w.ownRecord(ctx, turn, leaveID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return RenderNotFound(leaveID), nil
	}

	state.LeaveID = rec.LeaveID
	return RenderRecord(rec), nil
}

// ownRecord fetches leaveID for the turn's requester. Records of other
// requesters are reported as missing.
func (w *Workflow) ownRecord(ctx context.Context, turn domain.Turn, leaveID string) (*domain.LeaveRecord, error) {
	rec, err := w.store.Get(ctx, leaveID)
	if errors.Is(err, domain.ErrLeaveNotFound) {
		return nil, nil
	}
	if err != nil {
		metrics.IncStoreError("get")
		return nil, fmt.Errorf("failed to get leave %s: %w", leaveID, err)
	}
	if rec.Requester != requesterOf(turn) {
		log.Ctx(ctx).Warn().Str("leave_id", leaveID).Msg("leave record belongs to another requester")
		return nil, nil
	}
	return rec, nil
}

// cancel prefers an id named in the text, then a pending draft, then the
// session's last leave id
func (w *Workflow) cancel(ctx context.Context, turn domain.Turn, textID string, state *domain.SessionState) (string, error) {
	if textID == "" && state.Req != nil {
		state.ResetDraft()
		return MsgDraftDiscarded, nil
	}

	leaveID := w.resolveID(textID, state)
	if leaveID == "" {
		return MsgNeedLeaveID, nil
	}

	rec, err := w.ownRecord(ctx, turn, leaveID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return RenderCancelFailed(leaveID), nil
	}

	ok, err := w.store.Cancel(ctx, leaveID)
	if err != nil {
		metrics.IncStoreError("cancel")
		return "", fmt.Errorf("failed to cancel leave %s: %w", leaveID, err)
	}
	if !ok {
		return RenderCancelFailed(leaveID), nil
	}

	state.LeaveID = leaveID
	return RenderCancelled(leaveID), nil
}

func (w *Workflow) list(ctx context.Context, turn domain.Turn) (string, error) {
	limit := ParseListLimit(turn.Text)
	records, err := w.store.ListRecent(ctx, requesterOf(turn), limit)
	if err != nil {
		metrics.IncStoreError("list")
		return "", fmt.Errorf("failed to list leaves: %w", err)
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return RenderList(records), nil
}

func (w *Workflow) modify(ctx context.Context, turn domain.Turn, leaveID string, state *domain.SessionState) (string, error) {
	if leaveID == "" {
		return MsgNeedLeaveID, nil
	}

	rec, err := w.ownRecord(ctx, turn, leaveID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return RenderNotFound(leaveID), nil
	}
	if rec.Status != domain.LeaveStatusPending {
		return RenderModifyFailed(leaveID), nil
	}

	now := w.now().In(w.loc)
	base := &domain.LeaveDraft{
		LeaveType: rec.LeaveType,
		StartTime: rec.StartTime,
		EndTime:   rec.EndTime,
		Reason:    rec.Reason,
		Requester: rec.Requester,
	}
	candidate := Merge(base, w.extractor.ParseTime(ctx, now, turn.Text), w.loc)
	candidate = Merge(candidate, w.extractor.ExtractFields(ctx, turn.Text), w.loc)

	update := diffDraft(base, candidate)
	if update.IsEmpty() {
		return MsgNothingToApply, nil
	}

	balance, err := w.annualBalance(ctx, rec.Requester)
	if err != nil {
		return "", err
	}
	res := Validate(candidate, balance, now)
	if !res.OK() {
		return RenderNeedInfo(res), nil
	}
	if candidate.DurationDays != nil && *candidate.DurationDays != rec.DurationDays {
		d := *candidate.DurationDays
		update.DurationDays = &d
	}

	ok, err := w.store.Update(ctx, leaveID, update)
	if err != nil {
		metrics.IncStoreError("update")
		return "", fmt.Errorf("failed to update leave %s: %w", leaveID, err)
	}
	if !ok {
		return RenderModifyFailed(leaveID), nil
	}

	state.LeaveID = leaveID
	return RenderModified(leaveID, candidate), nil
}

// diffDraft returns the fields of next that differ from prev
func diffDraft(prev, next *domain.LeaveDraft) domain.LeaveUpdate {
	var u domain.LeaveUpdate
	if next.LeaveType != prev.LeaveType {
		t := next.LeaveType
		u.LeaveType = &t
	}
	if next.StartTime != prev.StartTime {
		s := next.StartTime
		u.StartTime = &s
	}
	if next.EndTime != prev.EndTime {
		s := next.EndTime
		u.EndTime = &s
	}
	if next.Reason != prev.Reason {
		s := next.Reason
		u.Reason = &s
	}
	return u
}

// applyRun carries one pass of the apply flow
type applyRun struct {
	turn       domain.Turn
	priorStage domain.LeaveStage
	confirming bool
	now        time.Time
	draft      *domain.LeaveDraft
	result     Result
	answer     string
}

func (w *Workflow) apply(ctx context.Context, turn domain.Turn, state *domain.SessionState) (string, error) {
	run := &applyRun{
		turn:       turn,
		priorStage: state.LeaveStage,
		confirming: state.LeaveStage == domain.LeaveStageAwaitingConfirm && state.Req != nil && IsConfirmation(turn.Text),
		now:        w.now().In(w.loc),
		draft:      state.Req.Clone(),
	}
	if run.draft == nil {
		run.draft = &domain.LeaveDraft{}
	}

	logger := log.Ctx(ctx)
	step := StepStart
	for step != StepEnd {
		next, err := w.runStep(ctx, step, run, state)
		if err != nil {
			return "", err
		}
		if !canTransition(step, next) {
			return "", fmt.Errorf("illegal apply transition %s -> %s", step, next)
		}
		logger.Debug().Str("from", string(step)).Str("to", string(next)).Msg("apply transition")
		if next == StepEnd {
			metrics.IncApplyOutcome(string(step))
		}
		step = next
	}

	return run.answer, nil
}

func (w *Workflow) runStep(ctx context.Context, step Step, run *applyRun, state *domain.SessionState) (Step, error) {
	switch step {
	case StepStart:
		if run.confirming {
			return StepValidate, nil
		}
		return StepParseTime, nil

	case StepParseTime:
		if !HasValidTimes(run.draft, w.loc) {
			parsed := w.extractor.ParseTime(ctx, run.now, run.turn.Text)
			run.draft = Merge(run.draft, Extraction{StartTime: parsed.StartTime, EndTime: parsed.EndTime}, w.loc)
		}
		return StepExtract, nil

	case StepExtract:
		run.draft = Merge(run.draft, w.extractor.ExtractFields(ctx, run.turn.Text), w.loc)
		run.draft.Requester = requesterOf(run.turn)
		state.Req = run.draft
		return StepValidate, nil

	case StepValidate:
		balance, err := w.annualBalance(ctx, run.draft.Requester)
		if err != nil {
			return "", err
		}
		run.result = Validate(run.draft, balance, run.now)
		state.Req = run.draft
		state.MissingFields = run.result.Missing
		state.Violations = run.result.Violations
		if !run.result.OK() {
			return StepNeedInfo, nil
		}
		return StepConfirm, nil

	case StepNeedInfo:
		run.answer = RenderNeedInfo(run.result)
		state.LeaveStage = domain.LeaveStageAwaitingInfo
		return StepEnd, nil

	case StepConfirm:
		if run.confirming {
			return StepCreate, nil
		}
		run.answer = RenderConfirm(run.draft)
		state.LeaveStage = domain.LeaveStageAwaitingConfirm
		return StepEnd, nil

	case StepCreate:
		rec := recordFromDraft(w.newID(), run.draft, run.now)
		if err := w.store.Insert(ctx, rec); err != nil {
			metrics.IncStoreError("insert")
			return "", fmt.Errorf("failed to insert leave: %w", err)
		}
		log.Ctx(ctx).Info().
			Str("leave_id", rec.LeaveID).
			Str("requester", rec.Requester).
			Str("leave_type", string(rec.LeaveType)).
			Msg("leave request created")
		state.LeaveID = rec.LeaveID
		state.ResetDraft()
		run.answer = RenderCreated(rec.LeaveID)
		return StepEnd, nil
	}

	return "", fmt.Errorf("unknown apply step %q", step)
}

func (w *Workflow) annualBalance(ctx context.Context, requester string) (float64, error) {
	b, err := w.store.GetBalance(ctx, requester)
	if err != nil {
		metrics.IncStoreError("balance")
		return 0, fmt.Errorf("failed to get balance for %s: %w", requester, err)
	}
	if b == nil {
		return w.defaultBalance, nil
	}
	return b.AnnualDays, nil
}

func recordFromDraft(leaveID string, d *domain.LeaveDraft, now time.Time) *domain.LeaveRecord {
	var days float64
	if d.DurationDays != nil {
		days = *d.DurationDays
	}
	return &domain.LeaveRecord{
		LeaveID:      leaveID,
		Requester:    d.Requester,
		LeaveType:    d.LeaveType,
		StartTime:    d.StartTime,
		EndTime:      d.EndTime,
		DurationDays: days,
		Reason:       d.Reason,
		Status:       domain.LeaveStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func requesterOf(turn domain.Turn) string {
	if r := strings.TrimSpace(turn.Requester); r != "" {
		return r
	}
	return anonymousRequester
}
