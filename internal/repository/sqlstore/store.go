// Package sqlstore keeps leave records in MySQL or SQLite through database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/kb-assistant/internal/domain"
)

// Dialect names the database behind a Store
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

// Store implements domain.LeaveRepository on a *sql.DB.
// Both dialects accept "?" placeholders.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB returns the underlying handle
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the database flavour
func (s *Store) Dialect() Dialect {
	return s.dialect
}

const leaveColumns = `leave_id, requester, leave_type, start_time, end_time, duration_days,
		COALESCE(reason, ''), status, created_at, updated_at`

func (s *Store) Insert(ctx context.Context, rec *domain.LeaveRecord) error {
	query := `
		INSERT INTO leave_requests
			(leave_id, requester, leave_type, start_time, end_time, duration_days, reason, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.LeaveID,
		rec.Requester,
		string(rec.LeaveType),
		rec.StartTime,
		rec.EndTime,
		rec.DurationDays,
		nullable(rec.Reason),
		string(rec.Status),
		rec.CreatedAt.UTC(),
		rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert leave request: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, leaveID string) (*domain.LeaveRecord, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE leave_id = ?`

	rec, err := scanLeave(s.db.QueryRowContext(ctx, query, leaveID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLeaveNotFound
		}
		return nil, fmt.Errorf("failed to get leave request: %w", err)
	}
	return rec, nil
}

func (s *Store) ListRecent(ctx context.Context, requester string, limit int) ([]domain.LeaveRecord, error) {
	query := `
		SELECT ` + leaveColumns + `
		FROM leave_requests
		WHERE requester = ?
		ORDER BY created_at DESC, leave_id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, requester, limit)
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

func (s *Store) Cancel(ctx context.Context, leaveID string) (bool, error) {
	return s.SetStatus(ctx, leaveID, domain.LeaveStatusCancelled)
}

func (s *Store) SetStatus(ctx context.Context, leaveID string, status domain.LeaveStatus) (bool, error) {
	query := `
		UPDATE leave_requests
		SET status = ?, updated_at = ?
		WHERE leave_id = ? AND status = 'PENDING'
	`
	res, err := s.db.ExecContext(ctx, query, string(status), time.Now().UTC(), leaveID)
	if err != nil {
		return false, fmt.Errorf("failed to set leave status: %w", err)
	}
	return affected(res)
}

func (s *Store) Update(ctx context.Context, leaveID string, u domain.LeaveUpdate) (bool, error) {
	if u.IsEmpty() {
		return false, nil
	}

	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
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

	query := `UPDATE leave_requests SET ` + strings.Join(sets, ", ") +
		` WHERE leave_id = ? AND status = 'PENDING'`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update leave request: %w", err)
	}
	return affected(res)
}

func (s *Store) GetBalance(ctx context.Context, requester string) (*domain.LeaveBalance, error) {
	query := `
		SELECT requester, annual_days, sick_days, personal_days
		FROM leave_balances
		WHERE requester = ?
	`
	var b domain.LeaveBalance
	err := s.db.QueryRowContext(ctx, query, requester).Scan(
		&b.Requester,
		&b.AnnualDays,
		&b.SickDays,
		&b.PersonalDays,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get leave balance: %w", err)
	}
	return &b, nil
}

// UpsertBalance sets the balance row of a requester
func (s *Store) UpsertBalance(ctx context.Context, b domain.LeaveBalance) error {
	query := `
		INSERT INTO leave_balances (requester, annual_days, sick_days, personal_days)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (requester) DO UPDATE SET
			annual_days = excluded.annual_days,
			sick_days = excluded.sick_days,
			personal_days = excluded.personal_days
	`
	if s.dialect == DialectMySQL {
		query = `
			INSERT INTO leave_balances (requester, annual_days, sick_days, personal_days)
			VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				annual_days = VALUES(annual_days),
				sick_days = VALUES(sick_days),
				personal_days = VALUES(personal_days)
		`
	}
	_, err := s.db.ExecContext(ctx, query, b.Requester, b.AnnualDays, b.SickDays, b.PersonalDays)
	if err != nil {
		return fmt.Errorf("failed to upsert leave balance: %w", err)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLeave(row scanner) (*domain.LeaveRecord, error) {
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

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
