package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Rrens/kb-assistant/internal/domain"
)

// MockTurnEngine mocks the TurnEngine interface
type MockTurnEngine struct {
	mock.Mock
}

func (m *MockTurnEngine) HandleTurn(ctx context.Context, turn domain.Turn, prior *domain.SessionState) domain.TurnResult {
	args := m.Called(ctx, turn, prior)
	return args.Get(0).(domain.TurnResult)
}

// MockSessionStore mocks the domain.SessionStore interface
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionState), args.Error(1)
}

func (m *MockSessionStore) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	args := m.Called(ctx, sessionID, state)
	return args.Error(0)
}

// MockSessionLocker mocks the domain.SessionLocker interface
type MockSessionLocker struct {
	mock.Mock
	released int
}

func (m *MockSessionLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	args := m.Called(ctx, sessionID)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func() { m.released++ }, nil
}

// MockLeaveRepository mocks the domain.LeaveRepository interface
type MockLeaveRepository struct {
	mock.Mock
}

func (m *MockLeaveRepository) Insert(ctx context.Context, rec *domain.LeaveRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockLeaveRepository) Get(ctx context.Context, leaveID string) (*domain.LeaveRecord, error) {
	args := m.Called(ctx, leaveID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeaveRecord), args.Error(1)
}

func (m *MockLeaveRepository) ListRecent(ctx context.Context, requester string, limit int) ([]domain.LeaveRecord, error) {
	args := m.Called(ctx, requester, limit)
	return args.Get(0).([]domain.LeaveRecord), args.Error(1)
}

func (m *MockLeaveRepository) Cancel(ctx context.Context, leaveID string) (bool, error) {
	args := m.Called(ctx, leaveID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeaveRepository) Update(ctx context.Context, leaveID string, u domain.LeaveUpdate) (bool, error) {
	args := m.Called(ctx, leaveID, u)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeaveRepository) SetStatus(ctx context.Context, leaveID string, status domain.LeaveStatus) (bool, error) {
	args := m.Called(ctx, leaveID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeaveRepository) GetBalance(ctx context.Context, requester string) (*domain.LeaveBalance, error) {
	args := m.Called(ctx, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LeaveBalance), args.Error(1)
}

func (m *MockLeaveRepository) Close() error {
	return m.Called().Error(0)
}
