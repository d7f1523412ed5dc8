package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type dailyRecordRepository struct {
	db *database.DB
}

const dailyRecordColumns = `
	id, employee_id, work_date, time_period_id, check_in, check_out, status,
	late_minutes, early_leave_minutes, absent_minutes, leave_minutes,
	actual_minutes, effective_minutes, calculated_at, created_at, updated_at`

func scanDailyRecord(row pgx.Row) (attendance.DailyRecord, error) {
	var r attendance.DailyRecord
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.WorkDate, &r.TimePeriodID, &r.CheckIn, &r.CheckOut, &r.Status,
		&r.LateMinutes, &r.EarlyLeaveMinutes, &r.AbsentMinutes, &r.LeaveMinutes,
		&r.ActualMinutes, &r.EffectiveMinutes, &r.CalculatedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// GetByID implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) GetByID(ctx context.Context, id string) (attendance.DailyRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + dailyRecordColumns + `
		FROM daily_attendance_records
		WHERE id = $1`

	record, err := scanDailyRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.DailyRecord{}, attendance.ErrDailyRecordNotFound
		}
		return attendance.DailyRecord{}, fmt.Errorf("failed to get daily record: %w", err)
	}

	return record, nil
}

// ListByEmployeeAndDate implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) ListByEmployeeAndDate(ctx context.Context, employeeID string, workDate time.Time) ([]attendance.DailyRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT d.id, d.employee_id, d.work_date, d.time_period_id, d.check_in, d.check_out, d.status,
			d.late_minutes, d.early_leave_minutes, d.absent_minutes, d.leave_minutes,
			d.actual_minutes, d.effective_minutes, d.calculated_at, d.created_at, d.updated_at
		FROM daily_attendance_records d
		LEFT JOIN time_periods tp ON tp.id = d.time_period_id
		WHERE d.employee_id = $1 AND d.work_date = $2
		ORDER BY tp.start_time NULLS LAST, d.id`

	rows, err := q.Query(ctx, query, employeeID, dateOnly(workDate))
	if err != nil {
		return nil, fmt.Errorf("failed to list daily records: %w", err)
	}
	defer rows.Close()

	var records []attendance.DailyRecord
	for rows.Next() {
		record, err := scanDailyRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// ExistsForEmployeeAndDate implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) ExistsForEmployeeAndDate(ctx context.Context, employeeID string, workDate time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM daily_attendance_records WHERE employee_id = $1 AND work_date = $2
		)`, employeeID, dateOnly(workDate)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check daily record: %w", err)
	}

	return exists, nil
}

// CreateShell implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) CreateShell(ctx context.Context, record attendance.DailyRecord) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO daily_attendance_records (
			id, employee_id, work_date, time_period_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (employee_id, work_date, time_period_id) DO NOTHING`

	_, err := q.Exec(ctx, query,
		record.ID, record.EmployeeID, dateOnly(record.WorkDate), record.TimePeriodID,
		record.Status, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create daily record shell: %w", err)
	}

	return nil
}

// SaveResult implements attendance.DailyRecordRepository.
func (r *dailyRecordRepository) SaveResult(ctx context.Context, record attendance.DailyRecord) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE daily_attendance_records SET
			check_in = $2,
			check_out = $3,
			status = $4,
			late_minutes = $5,
			early_leave_minutes = $6,
			absent_minutes = $7,
			leave_minutes = $8,
			actual_minutes = $9,
			effective_minutes = $10,
			calculated_at = $11,
			updated_at = $12
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		record.ID, record.CheckIn, record.CheckOut, record.Status,
		record.LateMinutes, record.EarlyLeaveMinutes, record.AbsentMinutes, record.LeaveMinutes,
		record.ActualMinutes, record.EffectiveMinutes, record.CalculatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save daily record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrDailyRecordNotFound
	}

	return nil
}

// dateOnly strips the clock so DATE parameters never shift across zones.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func NewDailyRecordRepository(db *database.DB) attendance.DailyRecordRepository {
	return &dailyRecordRepository{db: db}
}
