package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/kb-assistant/internal/domain"
)

func TestLeaveService_Approve(t *testing.T) {
	ctx := context.Background()
	store := new(MockLeaveRepository)
	approved := &domain.LeaveRecord{LeaveID: "LV-0a1b2c3d", Status: domain.LeaveStatusApproved}

	store.On("SetStatus", ctx, "LV-0a1b2c3d", domain.LeaveStatusApproved).Return(true, nil)
	store.On("Get", ctx, "LV-0a1b2c3d").Return(approved, nil)

	svc := NewLeaveService(store)
	rec, err := svc.Approve(ctx, "LV-0a1b2c3d", "zhang.hr")

	require.NoError(t, err)
	assert.Equal(t, domain.LeaveStatusApproved, rec.Status)
	store.AssertExpectations(t)
}

func TestLeaveService_RejectFinalRecord(t *testing.T) {
	ctx := context.Background()
	store := new(MockLeaveRepository)
	cancelled := &domain.LeaveRecord{LeaveID: "LV-0a1b2c3d", Status: domain.LeaveStatusCancelled}

	store.On("SetStatus", ctx, "LV-0a1b2c3d", domain.LeaveStatusRejected).Return(false, nil)
	store.On("Get", ctx, "LV-0a1b2c3d").Return(cancelled, nil)

	svc := NewLeaveService(store)
	rec, err := svc.Reject(ctx, "LV-0a1b2c3d", "li.manager")

	assert.ErrorIs(t, err, ErrLeaveNotPending)
	assert.Equal(t, domain.LeaveStatusCancelled, rec.Status)
}

func TestLeaveService_ReviewUnknown(t *testing.T) {
	ctx := context.Background()
	store := new(MockLeaveRepository)

	store.On("SetStatus", ctx, "LV-ffffffff", domain.LeaveStatusApproved).Return(false, nil)
	store.On("Get", ctx, "LV-ffffffff").Return(nil, domain.ErrLeaveNotFound)

	svc := NewLeaveService(store)
	_, err := svc.Approve(ctx, "LV-ffffffff", "zhang.hr")

	assert.ErrorIs(t, err, domain.ErrLeaveNotFound)
}

func TestLeaveService_StoreError(t *testing.T) {
	ctx := context.Background()
	store := new(MockLeaveRepository)
	store.On("SetStatus", ctx, "LV-0a1b2c3d", domain.LeaveStatusApproved).Return(false, errors.New("db down"))

	svc := NewLeaveService(store)
	_, err := svc.Approve(ctx, "LV-0a1b2c3d", "zhang.hr")

	assert.ErrorContains(t, err, "db down")
}
