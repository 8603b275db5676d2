package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/kb-assistant/internal/config"
	"github.com/Rrens/kb-assistant/internal/domain"
)

func TestOpenLeaveStore_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{LeaveStore: config.LeaveStoreConfig{
		Driver:             "SQLite",
		DSN:                filepath.Join(t.TempDir(), "leave.db"),
		AutoMigrateOnStart: true,
	}}

	store, err := OpenLeaveStore(ctx, cfg)
	require.NoError(t, err)
	defer store.Close()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Insert(ctx, &domain.LeaveRecord{
		LeaveID:   "LV-12345678",
		Requester: "alice",
		LeaveType: domain.LeaveTypePersonal,
		StartTime: "2026-10-20 09:00",
		EndTime:   "2026-10-20 12:00",
		Status:    domain.LeaveStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	rec, err := store.Get(ctx, "LV-12345678")
	require.NoError(t, err)
	assert.Equal(t, domain.LeaveTypePersonal, rec.LeaveType)
}

func TestOpenLeaveStore_UnknownDriver(t *testing.T) {
	cfg := &config.Config{LeaveStore: config.LeaveStoreConfig{Driver: "oracle"}}

	_, err := OpenLeaveStore(context.Background(), cfg)
	assert.ErrorContains(t, err, "unsupported leave store driver")
}
