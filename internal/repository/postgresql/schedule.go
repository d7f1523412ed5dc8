package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// timeOfDay converts a TIME column into a schedule.TimeOfDay.
func timeOfDay(t pgtype.Time) schedule.TimeOfDay {
	return schedule.TimeOfDay(time.Duration(t.Microseconds) * time.Microsecond)
}

func optionalTimeOfDay(t pgtype.Time) *schedule.TimeOfDay {
	if !t.Valid {
		return nil
	}
	v := timeOfDay(t)
	return &v
}

const timePeriodColumns = `tp.id, tp.name, tp.start_time, tp.end_time, tp.rest_start, tp.rest_end, tp.rules, tp.created_at, tp.updated_at`

func scanTimePeriod(row pgx.Row) (schedule.TimePeriod, error) {
	var (
		p                              schedule.TimePeriod
		start, end, restStart, restEnd pgtype.Time
	)
	if err := row.Scan(&p.ID, &p.Name, &start, &end, &restStart, &restEnd, &p.Rules, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return schedule.TimePeriod{}, err
	}
	p.StartTime = timeOfDay(start)
	p.EndTime = timeOfDay(end)
	p.RestStart = optionalTimeOfDay(restStart)
	p.RestEnd = optionalTimeOfDay(restEnd)
	return p, nil
}

type timePeriodRepository struct {
	db *database.DB
}

// GetByID implements schedule.TimePeriodRepository.
func (r *timePeriodRepository) GetByID(ctx context.Context, id string) (schedule.TimePeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + timePeriodColumns + ` FROM time_periods tp WHERE tp.id = $1`

	p, err := scanTimePeriod(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.TimePeriod{}, schedule.ErrTimePeriodNotFound
		}
		return schedule.TimePeriod{}, fmt.Errorf("failed to get time period: %w", err)
	}

	return p, nil
}

func NewTimePeriodRepository(db *database.DB) schedule.TimePeriodRepository {
	return &timePeriodRepository{db: db}
}

type shiftRepository struct {
	db *database.DB
}

// GetByID implements schedule.ShiftRepository.
func (r *shiftRepository) GetByID(ctx context.Context, id string) (schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	var s schedule.Shift
	err := q.QueryRow(ctx, `
		SELECT id, name, cycle_days, created_at, updated_at
		FROM shifts
		WHERE id = $1`, id).Scan(&s.ID, &s.Name, &s.CycleDays, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Shift{}, schedule.ErrShiftNotFound
		}
		return schedule.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT day_of_cycle, array_agg(time_period_id::text ORDER BY time_period_id)
		FROM shift_days
		WHERE shift_id = $1
		GROUP BY day_of_cycle
		ORDER BY day_of_cycle`, id)
	if err != nil {
		return schedule.Shift{}, fmt.Errorf("failed to get shift days: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day schedule.ShiftDay
		if err := rows.Scan(&day.DayOfCycle, &day.TimePeriodIDs); err != nil {
			return schedule.Shift{}, fmt.Errorf("failed to scan shift day: %w", err)
		}
		s.Days = append(s.Days, day)
	}

	return s, rows.Err()
}

// GetPeriodsForDay implements schedule.ShiftRepository.
func (r *shiftRepository) GetPeriodsForDay(ctx context.Context, shiftID string, dayOfCycle int) ([]schedule.TimePeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + timePeriodColumns + `
		FROM shift_days sd
		JOIN time_periods tp ON tp.id = sd.time_period_id
		WHERE sd.shift_id = $1 AND sd.day_of_cycle = $2
		ORDER BY tp.start_time, tp.id`

	rows, err := q.Query(ctx, query, shiftID, dayOfCycle)
	if err != nil {
		return nil, fmt.Errorf("failed to get periods for day: %w", err)
	}
	defer rows.Close()

	var periods []schedule.TimePeriod
	for rows.Next() {
		p, err := scanTimePeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time period: %w", err)
		}
		periods = append(periods, p)
	}

	return periods, rows.Err()
}

func NewShiftRepository(db *database.DB) schedule.ShiftRepository {
	return &shiftRepository{db: db}
}

type employeeScheduleRepository struct {
	db *database.DB
}

// GetActiveSchedule implements schedule.EmployeeScheduleRepository.
func (r *employeeScheduleRepository) GetActiveSchedule(ctx context.Context, employeeID string, date time.Time) (*schedule.EmployeeSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, shift_id, start_date, end_date, created_at, updated_at
		FROM employee_schedules
		WHERE employee_id = $1
		  AND start_date <= $2
		  AND end_date >= $2
		ORDER BY start_date DESC
		LIMIT 1`

	var s schedule.EmployeeSchedule
	err := q.QueryRow(ctx, query, employeeID, dateOnly(date)).Scan(
		&s.ID, &s.EmployeeID, &s.ShiftID, &s.StartDate, &s.EndDate, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active schedule: %w", err)
	}

	return &s, nil
}

func NewEmployeeScheduleRepository(db *database.DB) schedule.EmployeeScheduleRepository {
	return &employeeScheduleRepository{db: db}
}
