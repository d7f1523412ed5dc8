package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/google/uuid"
)

// Provisioner creates placeholder daily records for scheduled work.
type Provisioner struct {
	records   attendance.DailyRecordRepository
	schedules schedule.EmployeeScheduleRepository
	shifts    schedule.ShiftRepository
	now       func() time.Time
}

func NewProvisioner(
	records attendance.DailyRecordRepository,
	schedules schedule.EmployeeScheduleRepository,
	shifts schedule.ShiftRepository,
) *Provisioner {
	return &Provisioner{
		records:   records,
		schedules: schedules,
		shifts:    shifts,
		now:       time.Now,
	}
}

// EnsureDailyRecord creates one shell per time period scheduled for the
// employee on date and returns how many were created. Existing records,
// dates without a schedule, and rest days are no-ops.
func (p *Provisioner) EnsureDailyRecord(ctx context.Context, employeeID string, date time.Time) (int, error) {
	exists, err := p.records.ExistsForEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		return 0, fmt.Errorf("check daily record: %w", err)
	}
	if exists {
		return 0, nil
	}

	sched, err := p.schedules.GetActiveSchedule(ctx, employeeID, date)
	if err != nil {
		return 0, fmt.Errorf("get active schedule: %w", err)
	}
	if sched == nil {
		return 0, nil
	}

	shift, err := p.shifts.GetByID(ctx, sched.ShiftID)
	if err != nil {
		return 0, fmt.Errorf("get shift %s: %w", sched.ShiftID, err)
	}

	day := schedule.DayOfCycle(shift.CycleDays, sched.StartDate, date)
	if day == 0 {
		return 0, schedule.ErrInvalidCycleDays
	}

	periods, err := p.shifts.GetPeriodsForDay(ctx, shift.ID, day)
	if err != nil {
		return 0, fmt.Errorf("get periods for day %d: %w", day, err)
	}

	now := p.now().UTC()
	workDate := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	for _, period := range periods {
		shell := attendance.DailyRecord{
			ID:           uuid.NewString(),
			EmployeeID:   employeeID,
			WorkDate:     workDate,
			TimePeriodID: period.ID,
			Status:       attendance.StatusNormal,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := p.records.CreateShell(ctx, shell); err != nil {
			return 0, fmt.Errorf("create daily record for period %s: %w", period.ID, err)
		}
	}

	return len(periods), nil
}
