package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/internal/domain"
)

// ErrLeaveNotPending is returned when a review targets a final record
var ErrLeaveNotPending = errors.New("leave request is not pending")

// LeaveService exposes leave records to reviewers
type LeaveService struct {
	store domain.LeaveRepository
}

// NewLeaveService creates a new leave service
func NewLeaveService(store domain.LeaveRepository) *LeaveService {
	return &LeaveService{store: store}
}

// Get returns a record or domain.ErrLeaveNotFound
func (s *LeaveService) Get(ctx context.Context, leaveID string) (*domain.LeaveRecord, error) {
	return s.store.Get(ctx, leaveID)
}

// Approve moves a pending record to APPROVED
func (s *LeaveService) Approve(ctx context.Context, leaveID, reviewer string) (*domain.LeaveRecord, error) {
	return s.review(ctx, leaveID, reviewer, domain.LeaveStatusApproved)
}

// Reject moves a pending record to REJECTED
func (s *LeaveService) Reject(ctx context.Context, leaveID, reviewer string) (*domain.LeaveRecord, error) {
	return s.review(ctx, leaveID, reviewer, domain.LeaveStatusRejected)
}

func (s *LeaveService) review(ctx context.Context, leaveID, reviewer string, status domain.LeaveStatus) (*domain.LeaveRecord, error) {
	changed, err := s.store.SetStatus(ctx, leaveID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to review leave request: %w", err)
	}

	rec, err := s.store.Get(ctx, leaveID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return rec, ErrLeaveNotPending
	}

	log.Info().
		Str("leave_id", leaveID).
		Str("reviewer", reviewer).
		Str("status", string(status)).
		Msg("Leave request reviewed")
	return rec, nil
}
