package attendance

import (
	"context"
	"time"
)

// DailyRecordRepository defines data access for daily_attendance_records.
type DailyRecordRepository interface {
	// GetByID returns ErrDailyRecordNotFound when missing
	GetByID(ctx context.Context, id string) (DailyRecord, error)

	// ListByEmployeeAndDate returns every record of the employee on the work date
	ListByEmployeeAndDate(ctx context.Context, employeeID string, workDate time.Time) ([]DailyRecord, error)

	// ExistsForEmployeeAndDate is the idempotency check of provisioning
	ExistsForEmployeeAndDate(ctx context.Context, employeeID string, workDate time.Time) (bool, error)

	// CreateShell inserts a placeholder record; an existing
	// (employee, date, period) row is left untouched
	CreateShell(ctx context.Context, record DailyRecord) error

	// SaveResult persists the calculated fields of the record
	SaveResult(ctx context.Context, record DailyRecord) error
}

// ClockEventRepository is the read side of the clock-capture service.
type ClockEventRepository interface {
	// ListByEmployee returns punches with ClockedAt in [from, to), ordered by time
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]ClockEvent, error)
}

// CorrectionRepository defines data access for attendance_corrections.
type CorrectionRepository interface {
	// ListByDailyRecord returns corrections ordered newest first
	ListByDailyRecord(ctx context.Context, dailyRecordID string) ([]Correction, error)
	GetByID(ctx context.Context, id string) (Correction, error)
	Create(ctx context.Context, correction Correction) (Correction, error)
	Update(ctx context.Context, correction Correction) error
	Delete(ctx context.Context, id string) error
}

// BatchRepository stores recalculation batch progress.
type BatchRepository interface {
	Create(ctx context.Context, batch Batch) error

	// GetByID returns ErrBatchNotFound when missing
	GetByID(ctx context.Context, id string) (Batch, error)

	// GetForUpdate locks the batch row for the rest of the transaction
	GetForUpdate(ctx context.Context, id string) (Batch, error)

	UpdateProgress(ctx context.Context, batch Batch) error

	// DeleteExpired removes batches whose expiry is before now
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
