package schedule

import (
	"context"
	"time"
)

type TimePeriodRepository interface {
	// GetByID returns ErrTimePeriodNotFound when the period does not exist
	GetByID(ctx context.Context, id string) (TimePeriod, error)
}

type ShiftRepository interface {
	GetByID(ctx context.Context, id string) (Shift, error)

	// GetPeriodsForDay returns the periods assigned to dayOfCycle, ordered by start time.
	// An empty slice means a rest day.
	GetPeriodsForDay(ctx context.Context, shiftID string, dayOfCycle int) ([]TimePeriod, error)
}

type EmployeeScheduleRepository interface {
	// GetActiveSchedule returns nil when no schedule covers date
	GetActiveSchedule(ctx context.Context, employeeID string, date time.Time) (*EmployeeSchedule, error)
}
