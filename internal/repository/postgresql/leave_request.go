package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

const leaveColumns = `
	id, employee_id, leave_type, start_time, end_time, status, reason,
	cancelled_by, cancelled_at, cancellation_reason, created_at, updated_at`

func scanLeave(row pgx.Row) (leave.Interval, error) {
	var l leave.Interval
	err := row.Scan(
		&l.ID, &l.EmployeeID, &l.Type, &l.StartTime, &l.EndTime, &l.Status, &l.Reason,
		&l.CancelledBy, &l.CancelledAt, &l.CancellationReason, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

// GetByID implements leave.LeaveRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.Interval, error) {
	q := GetQuerier(ctx, r.db)

	// Lock the row when running inside a transaction so concurrent edits serialize
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE id = $1 FOR UPDATE`

	l, err := scanLeave(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Interval{}, leave.ErrLeaveRequestNotFound
		}
		return leave.Interval{}, fmt.Errorf("failed to get leave request: %w", err)
	}

	return l, nil
}

// ListApproved implements leave.LeaveRepository.
func (r *leaveRequestRepositoryImpl) ListApproved(ctx context.Context, employeeID string, from, to time.Time) ([]leave.Interval, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveColumns + `
		FROM leave_requests
		WHERE employee_id = $1
		  AND status = 'approved'
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leave: %w", err)
	}
	defer rows.Close()

	var leaves []leave.Interval
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		leaves = append(leaves, l)
	}

	return leaves, rows.Err()
}

// UpdateTimes implements leave.LeaveRepository.
func (r *leaveRequestRepositoryImpl) UpdateTimes(ctx context.Context, id string, start, end time.Time) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE leave_requests
		SET start_time = $2, end_time = $3, updated_at = $4
		WHERE id = $1`,
		id, start, end, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}

	return nil
}

// Cancel implements leave.LeaveRepository.
func (r *leaveRequestRepositoryImpl) Cancel(ctx context.Context, id string, cancelledBy *string, reason *string) error {
	q := GetQuerier(ctx, r.db)

	now := time.Now().UTC()
	tag, err := q.Exec(ctx, `
		UPDATE leave_requests
		SET status = 'cancelled', cancelled_by = $2, cancelled_at = $3, cancellation_reason = $4, updated_at = $3
		WHERE id = $1`,
		id, cancelledBy, now, reason,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}

	return nil
}

// Delete implements leave.LeaveRepository.
func (r *leaveRequestRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM leave_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}

	return nil
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRepository {
	return &leaveRequestRepositoryImpl{db: db}
}
