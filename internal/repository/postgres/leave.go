package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Rrens/kb-assistant/internal/domain"
)

// LeaveRepository implements domain.LeaveRepository
type LeaveRepository struct {
	pool Querier
}

// NewLeaveRepository creates a new leave repository. pool is usually a
// *pgxpool.Pool.
func NewLeaveRepository(pool Querier) *LeaveRepository {
	return &LeaveRepository{pool: pool}
}

const leaveColumns = `leave_id, requester, leave_type, start_time, end_time, duration_days,
		COALESCE(reason, ''), status, created_at, updated_at`

func (r *LeaveRepository) Insert(ctx context.Context, rec *domain.LeaveRecord) error {
	query := `
		INSERT INTO leave_requests
			(leave_id, requester, leave_type, start_time, end_time, duration_days, reason, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		rec.LeaveID,
		rec.Requester,
		string(rec.LeaveType),
		rec.StartTime,
		rec.EndTime,
		rec.DurationDays,
		nullable(rec.Reason),
		string(rec.Status),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert leave request: %w", err)
	}
	return nil
}

func (r *LeaveRepository) Get(ctx context.Context, leaveID string) (*domain.LeaveRecord, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE leave_id = $1`

	rec, err := scanLeave(r.pool.QueryRow(ctx, query, leaveID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLeaveNotFound
		}
		return nil, fmt.Errorf("failed to get leave request: %w", err)
	}
	return rec, nil
}

func (r *LeaveRepository) ListRecent(ctx context.Context, requester string, limit int) ([]domain.LeaveRecord, error) {
	query := `
		SELECT ` + leaveColumns + `
		FROM leave_requests
		WHERE requester = $1
		ORDER BY created_at DESC, leave_id DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, requester, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	var records []domain.LeaveRecord
	for rows.Next() {
		rec, err := scanLeave(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *LeaveRepository) Cancel(ctx context.Context, leaveID string) (bool, error) {
	return r.SetStatus(ctx, leaveID, domain.LeaveStatusCancelled)
}

func (r *LeaveRepository) SetStatus(ctx context.Context, leaveID string, status domain.LeaveStatus) (bool, error) {
	query := `
		UPDATE leave_requests
		SET status = $1, updated_at = $2
		WHERE leave_id = $3 AND status = 'PENDING'
	`
	tag, err := r.pool.Exec(ctx, query, string(status), time.Now().UTC(), leaveID)
	if err != nil {
		return false, fmt.Errorf("failed to set leave status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LeaveRepository) Update(ctx context.Context, leaveID string, u domain.LeaveUpdate) (bool, error) {
	if u.IsEmpty() {
		return false, nil
	}

	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.LeaveType != nil {
		add("leave_type", string(*u.LeaveType))
	}
	if u.StartTime != nil {
		add("start_time", *u.StartTime)
	}
	if u.EndTime != nil {
		add("end_time", *u.EndTime)
	}
	if u.DurationDays != nil {
		add("duration_days", *u.DurationDays)
	}
	if u.Reason != nil {
		add("reason", nullable(*u.Reason))
	}
	add("updated_at", time.Now().UTC())
	args = append(args, leaveID)

	query := fmt.Sprintf(
		`UPDATE leave_requests SET %s WHERE leave_id = $%d AND status = 'PENDING'`,
		strings.Join(sets, ", "), len(args),
	)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update leave request: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LeaveRepository) GetBalance(ctx context.Context, requester string) (*domain.LeaveBalance, error) {
	query := `
		SELECT requester, annual_days, sick_days, personal_days
		FROM leave_balances
		WHERE requester = $1
	`
	var b domain.LeaveBalance
	err := r.pool.QueryRow(ctx, query, requester).Scan(
		&b.Requester,
		&b.AnnualDays,
		&b.SickDays,
		&b.PersonalDays,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get leave balance: %w", err)
	}
	return &b, nil
}

// Close is a no-op. The pool belongs to DB.
func (r *LeaveRepository) Close() error {
	return nil
}

func scanLeave(row pgx.Row) (*domain.LeaveRecord, error) {
	var rec domain.LeaveRecord
	var leaveType, status string
	err := row.Scan(
		&rec.LeaveID,
		&rec.Requester,
		&leaveType,
		&rec.StartTime,
		&rec.EndTime,
		&rec.DurationDays,
		&rec.Reason,
		&status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.LeaveType = domain.LeaveType(leaveType)
	rec.Status = domain.LeaveStatus(status)
	return &rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
