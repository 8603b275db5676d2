package domain

import (
	"context"
	"errors"
	"time"
)

// LeaveType is the category of a leave request
type LeaveType string

const (
	LeaveTypeAnnual   LeaveType = "annual"
	LeaveTypeSick     LeaveType = "sick"
	LeaveTypePersonal LeaveType = "personal"
	LeaveTypeOther    LeaveType = "other"
)

// Valid reports whether t is one of the known leave types
func (t LeaveType) Valid() bool {
	switch t {
	case LeaveTypeAnnual, LeaveTypeSick, LeaveTypePersonal, LeaveTypeOther:
		return true
	}
	return false
}

// Label returns the display name used in user-facing messages
func (t LeaveType) Label() string {
	switch t {
	case LeaveTypeAnnual:
		return "年假"
	case LeaveTypeSick:
		return "病假"
	case LeaveTypePersonal:
		return "事假"
	case LeaveTypeOther:
		return "其他"
	}
	return string(t)
}

// LeaveStatus is the lifecycle state of a committed leave record.
// PENDING is the only state that can transition; all others are final.
type LeaveStatus string

const (
	LeaveStatusPending   LeaveStatus = "PENDING"
	LeaveStatusApproved  LeaveStatus = "APPROVED"
	LeaveStatusRejected  LeaveStatus = "REJECTED"
	LeaveStatusCancelled LeaveStatus = "CANCELLED"
)

// Label returns the display name used in user-facing messages
func (s LeaveStatus) Label() string {
	switch s {
	case LeaveStatusPending:
		return "待审批"
	case LeaveStatusApproved:
		return "已批准"
	case LeaveStatusRejected:
		return "已驳回"
	case LeaveStatusCancelled:
		return "已取消"
	}
	return string(s)
}

// Draft field names. They double as JSON keys and as the entries of a
// validation result's missing set.
const (
	FieldLeaveType    = "leave_type"
	FieldStartTime    = "start_time"
	FieldEndTime      = "end_time"
	FieldDurationDays = "duration_days"
	FieldReason       = "reason"
)

// LeaveDraft is a leave request being filled in across turns
type LeaveDraft struct {
	LeaveType    LeaveType `json:"leave_type,omitempty"`
	StartTime    string    `json:"start_time,omitempty"`
	EndTime      string    `json:"end_time,omitempty"`
	DurationDays *float64  `json:"duration_days,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	Requester    string    `json:"requester,omitempty"`
}

// Clone returns a deep copy of the draft
func (d *LeaveDraft) Clone() *LeaveDraft {
	if d == nil {
		return nil
	}
	c := *d
	if d.DurationDays != nil {
		v := *d.DurationDays
		c.DurationDays = &v
	}
	return &c
}

// LeaveRecord is a committed leave request owned by the record store.
// StartTime and EndTime use the "2006-01-02 15:04" wall-clock layout.
type LeaveRecord struct {
	LeaveID      string      `json:"leave_id" bson:"leave_id"`
	Requester    string      `json:"requester" bson:"requester"`
	LeaveType    LeaveType   `json:"leave_type" bson:"leave_type"`
	StartTime    string      `json:"start_time" bson:"start_time"`
	EndTime      string      `json:"end_time" bson:"end_time"`
	DurationDays float64     `json:"duration_days" bson:"duration_days"`
	Reason       string      `json:"reason,omitempty" bson:"reason,omitempty"`
	Status       LeaveStatus `json:"status" bson:"status"`
	CreatedAt    time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" bson:"updated_at"`
}

// LeaveBalance holds the remaining leave days of a requester
type LeaveBalance struct {
	Requester    string  `json:"requester" bson:"requester"`
	AnnualDays   float64 `json:"annual_days" bson:"annual_days"`
	SickDays     float64 `json:"sick_days" bson:"sick_days"`
	PersonalDays float64 `json:"personal_days" bson:"personal_days"`
}

// LeaveUpdate is a partial update of a pending record. Nil fields are left untouched.
type LeaveUpdate struct {
	LeaveType    *LeaveType
	StartTime    *string
	EndTime      *string
	DurationDays *float64
	Reason       *string
}

// IsEmpty reports whether the update changes nothing
func (u LeaveUpdate) IsEmpty() bool {
	return u.LeaveType == nil && u.StartTime == nil && u.EndTime == nil &&
		u.DurationDays == nil && u.Reason == nil
}

// ErrLeaveNotFound is returned by LeaveRepository.Get for unknown ids
var ErrLeaveNotFound = errors.New("leave request not found")

// LeaveRepository defines the interface for leave record storage.
// Cancel, Update and SetStatus only touch PENDING records and report
// whether a record was changed.
type LeaveRepository interface {
	Insert(ctx context.Context, record *LeaveRecord) error
	Get(ctx context.Context, leaveID string) (*LeaveRecord, error)
	ListRecent(ctx context.Context, requester string, limit int) ([]LeaveRecord, error)
	Cancel(ctx context.Context, leaveID string) (bool, error)
	Update(ctx context.Context, leaveID string, update LeaveUpdate) (bool, error)
	SetStatus(ctx context.Context, leaveID string, status LeaveStatus) (bool, error)
	// GetBalance returns nil without error when the requester has no balance row
	GetBalance(ctx context.Context, requester string) (*LeaveBalance, error)
	Close() error
}
