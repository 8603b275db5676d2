package leave

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Rrens/kb-assistant/internal/domain"
)

// MockLeaveRepository mocks the LeaveRepository interface
type MockLeaveRepository struct {
	mock.Mock
}

func (m *MockLeaveRepository) Insert(ctx context.Context, record *domain.LeaveRecord) error {
	args := m.Called(ctx, record)
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

func (m *MockLeaveRepository) Update(ctx context.Context, leaveID string, update domain.LeaveUpdate) (bool, error) {
	args := m.Called(ctx, leaveID, update)
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
	return nil
}

// MockExtractor mocks the Extractor interface
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) ExtractFields(ctx context.Context, text string) Extraction {
	args := m.Called(ctx, text)
	return args.Get(0).(Extraction)
}

func (m *MockExtractor) ParseTime(ctx context.Context, now time.Time, text string) Extraction {
	args := m.Called(ctx, now, text)
	return args.Get(0).(Extraction)
}

// stubCompleter returns canned completions keyed by system prompt
type stubCompleter struct {
	replies map[string]string
	err     error
	calls   int
}

func (s *stubCompleter) Complete(_ context.Context, system, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.replies[system], nil
}
