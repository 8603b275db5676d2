package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/kb-assistant/internal/domain"
)

var cst = time.FixedZone("CST", 8*3600)

// Wednesday 2026-10-14 10:00 CST
var testNow = time.Date(2026, 10, 14, 10, 0, 0, 0, cst)

func TestValidate_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		draft   domain.LeaveDraft
		missing []string
	}{
		{
			name:    "empty draft",
			draft:   domain.LeaveDraft{},
			missing: []string{domain.FieldLeaveType, domain.FieldStartTime, domain.FieldEndTime},
		},
		{
			name:    "only type",
			draft:   domain.LeaveDraft{LeaveType: domain.LeaveTypeSick},
			missing: []string{domain.FieldStartTime, domain.FieldEndTime},
		},
		{
			name:    "missing end with bad start",
			draft:   domain.LeaveDraft{LeaveType: domain.LeaveTypeAnnual, StartTime: "garbage"},
			missing: []string{domain.FieldEndTime},
		},
		{
			name:    "missing type only",
			draft:   domain.LeaveDraft{StartTime: "2026-10-20 09:00", EndTime: "2026-10-19 09:00"},
			missing: []string{domain.FieldLeaveType},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.draft
			res := Validate(&d, 5, testNow)
			assert.Equal(t, tt.missing, res.Missing)
			assert.Empty(t, res.Violations)
			assert.Nil(t, d.DurationDays)
			assert.False(t, res.OK())
		})
	}
}

func TestValidate_UnparsableTimes(t *testing.T) {
	d := &domain.LeaveDraft{LeaveType: domain.LeaveTypeAnnual, StartTime: "next tuesday", EndTime: "2026-10-20 18:00"}
	res := Validate(d, 5, testNow)
	assert.Empty(t, res.Missing)
	assert.Equal(t, []string{MsgBadTimeFormat}, res.Violations)
	assert.Nil(t, d.DurationDays)
}

func TestValidate_EndNotAfterStart(t *testing.T) {
	for _, lt := range []domain.LeaveType{domain.LeaveTypeAnnual, domain.LeaveTypeSick, domain.LeaveTypePersonal, domain.LeaveTypeOther} {
		for _, end := range []string{"2026-10-20 09:00", "2026-10-19 18:00"} {
			d := &domain.LeaveDraft{LeaveType: lt, StartTime: "2026-10-20 09:00", EndTime: end, Reason: "x"}
			res := Validate(d, 5, testNow)
			assert.Contains(t, res.Violations, MsgEndBeforeStart, "type %s end %s", lt, end)
			assert.NotContains(t, res.Violations, MsgMinimumUnit)
			assert.Nil(t, d.DurationDays)
		}
	}
}

func TestValidate_DurationAndMinimumUnit(t *testing.T) {
	d := &domain.LeaveDraft{LeaveType: domain.LeaveTypePersonal, StartTime: "2026-10-20 09:00", EndTime: "2026-10-20 11:00"}
	res := Validate(d, 5, testNow)
	assert.Equal(t, []string{MsgMinimumUnit}, res.Violations)
	require.NotNil(t, d.DurationDays)
	assert.Equal(t, 0.25, *d.DurationDays)

	d = &domain.LeaveDraft{LeaveType: domain.LeaveTypePersonal, StartTime: "2026-10-20 09:00", EndTime: "2026-10-20 13:00"}
	res = Validate(d, 5, testNow)
	assert.True(t, res.OK())
	assert.Equal(t, 0.5, *d.DurationDays)
}

func TestValidate_DurationIsIdempotent(t *testing.T) {
	d := &domain.LeaveDraft{LeaveType: domain.LeaveTypeAnnual, StartTime: "2026-10-20 09:00", EndTime: "2026-10-21 18:00"}

	Validate(d, 5, testNow)
	require.NotNil(t, d.DurationDays)
	first := *d.DurationDays

	Validate(d, 5, testNow)
	assert.Equal(t, first, *d.DurationDays)
	assert.Equal(t, 4.13, first)
}

func TestValidate_Annual(t *testing.T) {
	t.Run("within balance and notice", func(t *testing.T) {
		d := &domain.LeaveDraft{LeaveType: domain.LeaveTypeAnnual, StartTime: "2026-10-20 09:00", EndTime: "2026-10-20 18:00"}
		res := Validate(d, 5, testNow)
		assert.True(t, res.OK())
		assert.Equal(t, 1.13, *d.DurationDays)
	})

	t.Run("exceeds balance", func(t *testing.T) {
		d := &domain.LeaveDraft{LeaveType: domain.LeaveTypeAnnual, StartTime: "2026-10-20 09:00", EndTime: "2026-10-22 09:00"}
		res := Validate(d, 2.5, testNow)
		assert.Equal(t, []string{BalanceMessage(2.5)}, res.Violations)
		assert.Contains(t, res.Violations[0], "2.5")
	})

	t.Run("less than a day ahead", func(t *testing.T) {
		d := &domain.LeaveDraft{LeaveType: domain.LeaveTypeAnnual, StartTime: "2026-10-15 09:00", EndTime: "2026-10-15 18:00"}
		res := Validate(d, 5, testNow)
		assert.Equal(t, []string{MsgAdvanceNotice}, res.Violations)
		assert.NotNil(t, d.DurationDays)
	})

	t.Run("exactly one day ahead", func(t *testing.T) {
		d := &domain.LeaveDraft{LeaveType: domain.LeaveTypeAnnual, StartTime: "2026-10-15 10:00", EndTime: "2026-10-15 18:00"}
		res := Validate(d, 5, testNow)
		assert.True(t, res.OK())
	})
}

func TestValidate_Sick(t *testing.T) {
	d := &domain.LeaveDraft{LeaveType: domain.LeaveTypeSick, StartTime: "2026-10-14 09:00", EndTime: "2026-10-15 09:00"}
	res := Validate(d, 0, testNow)
	assert.Equal(t, []string{MsgSickNeedsReason}, res.Violations)

	d.Reason = "发烧"
	res = Validate(d, 0, testNow)
	assert.True(t, res.OK())

	short := &domain.LeaveDraft{LeaveType: domain.LeaveTypeSick, StartTime: "2026-10-14 13:00", EndTime: "2026-10-14 18:00"}
	res = Validate(short, 0, testNow)
	assert.True(t, res.OK(), "sick leave under a day needs no reason")
}

func TestValidate_OtherTypesHaveNoExtraRules(t *testing.T) {
	for _, lt := range []domain.LeaveType{domain.LeaveTypePersonal, domain.LeaveTypeOther} {
		d := &domain.LeaveDraft{LeaveType: lt, StartTime: "2026-10-14 11:00", EndTime: "2026-10-30 18:00"}
		res := Validate(d, 0, testNow)
		assert.True(t, res.OK(), string(lt))
	}
}
