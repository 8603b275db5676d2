package leave

import (
	"fmt"
	"math"
	"time"

	"github.com/Rrens/kb-assistant/internal/domain"
)

const (
	hoursPerDay   = 8.0
	minimumDays   = 0.5
	advanceNotice = 24 * time.Hour
)

// Violation messages
const (
	MsgBadTimeFormat   = "start_time/end_time 格式应为 ISO（YYYY-MM-DD HH:MM）"
	MsgEndBeforeStart  = "结束时间必须晚于开始时间"
	MsgMinimumUnit     = "最小请假单位为 0.5 天"
	MsgAdvanceNotice   = "年假需至少提前 1 个工作日提交"
	MsgSickNeedsReason = "病假超过 1 天需提供病假原因/证明说明"
	msgBalanceFmt      = "年假余额不足（剩余 %g 天）"
)

// Result is the outcome of validating a draft. Both fields empty means the
// draft can be submitted.
type Result struct {
	Missing    []string
	Violations []string
}

func (r Result) OK() bool {
	return len(r.Missing) == 0 && len(r.Violations) == 0
}

// BalanceMessage is the violation reported when annual leave exceeds balance
func BalanceMessage(balance float64) string {
	return fmt.Sprintf(msgBalanceFmt, balance)
}

// Validate checks a draft against the leave policy. Timestamps are read in
// now's location. When end is after start the derived duration is written
// to draft.DurationDays even if other rules fail.
func Validate(draft *domain.LeaveDraft, balance float64, now time.Time) Result {
	var res Result
	if draft == nil {
		draft = &domain.LeaveDraft{}
	}

	if draft.LeaveType == "" {
		res.Missing = append(res.Missing, domain.FieldLeaveType)
	}
	if draft.StartTime == "" {
		res.Missing = append(res.Missing, domain.FieldStartTime)
	}
	if draft.EndTime == "" {
		res.Missing = append(res.Missing, domain.FieldEndTime)
	}
	if len(res.Missing) > 0 {
		return res
	}

	loc := now.Location()
	start, okStart := ParseTimestamp(draft.StartTime, loc)
	end, okEnd := ParseTimestamp(draft.EndTime, loc)
	if !okStart || !okEnd {
		res.Violations = append(res.Violations, MsgBadTimeFormat)
		return res
	}

	var days float64
	if !end.After(start) {
		draft.DurationDays = nil
		res.Violations = append(res.Violations, MsgEndBeforeStart)
	} else {
		days = DurationDays(start, end)
		draft.DurationDays = &days
		if days < minimumDays {
			res.Violations = append(res.Violations, MsgMinimumUnit)
		}
	}

	switch draft.LeaveType {
	case domain.LeaveTypeAnnual:
		if days > balance {
			res.Violations = append(res.Violations, BalanceMessage(balance))
		}
		if start.Before(now.Add(advanceNotice)) {
			res.Violations = append(res.Violations, MsgAdvanceNotice)
		}
	case domain.LeaveTypeSick:
		if days >= 1 && draft.Reason == "" {
			res.Violations = append(res.Violations, MsgSickNeedsReason)
		}
	}

	return res
}

// DurationDays converts a time span into 8-hour days rounded to 2 decimals
func DurationDays(start, end time.Time) float64 {
	days := end.Sub(start).Hours() / hoursPerDay
	return math.Round(days*100) / 100
}
