package leave

import (
	"strings"
	"time"

	"github.com/Rrens/kb-assistant/internal/domain"
)

// TimeLayout is the canonical wall-clock layout of draft and record timestamps
const TimeLayout = "2006-01-02 15:04"

var acceptedLayouts = []string{
	TimeLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Extraction is the structured output of one extraction pass. Empty fields
// mean "nothing extracted" and never erase draft values.
type Extraction struct {
	LeaveType string `json:"leave_type"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason"`
}

// IsEmpty reports whether the pass produced nothing
func (e Extraction) IsEmpty() bool {
	return e.LeaveType == "" && e.StartTime == "" && e.EndTime == "" && e.Reason == ""
}

// ParseTimestamp parses an ISO-8601 date-time in loc. Offsets in RFC 3339
// input are honored and converted to loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), true
	}
	return time.Time{}, false
}

// NormalizeTimestamp rewrites a parseable timestamp into TimeLayout
func NormalizeTimestamp(s string, loc *time.Location) (string, bool) {
	t, ok := ParseTimestamp(s, loc)
	if !ok {
		return "", false
	}
	return t.Format(TimeLayout), true
}

// HasValidTimes reports whether both draft timestamps parse
func HasValidTimes(d *domain.LeaveDraft, loc *time.Location) bool {
	if d == nil {
		return false
	}
	_, okStart := ParseTimestamp(d.StartTime, loc)
	_, okEnd := ParseTimestamp(d.EndTime, loc)
	return okStart && okEnd
}

// Merge layers e over d and returns the result as a new draft. A field is
// only overwritten when e carries a usable value for it: unknown leave types
// and unparsable timestamps are treated as absent.
func Merge(d *domain.LeaveDraft, e Extraction, loc *time.Location) *domain.LeaveDraft {
	out := d.Clone()
	if out == nil {
		out = &domain.LeaveDraft{}
	}

	if t := domain.LeaveType(strings.ToLower(strings.TrimSpace(e.LeaveType))); t.Valid() {
		out.LeaveType = t
	}
	if v, ok := NormalizeTimestamp(e.StartTime, loc); ok {
		out.StartTime = v
	}
	if v, ok := NormalizeTimestamp(e.EndTime, loc); ok {
		out.EndTime = v
	}
	if r := strings.TrimSpace(e.Reason); r != "" {
		out.Reason = r
	}
	return out
}
