package attendance

import "errors"

// Attendance domain errors
var (
	// Record errors
	ErrDailyRecordNotFound = errors.New("daily attendance record not found")
	ErrCorrectionNotFound  = errors.New("attendance correction not found")

	// Fact inconsistency: the record points at a time period that no longer exists
	ErrTimePeriodMissing = errors.New("daily record references a missing time period")

	// Correction errors
	ErrInvalidDirection       = errors.New("direction must be check_in or check_out")
	ErrCorrectionOutsideRange = errors.New("corrected time is outside the record's work window")

	// Recalculation errors
	ErrSchedulerUnavailable = errors.New("recalculation scheduler unavailable")
	ErrRecalculationTimeout = errors.New("recalculation timed out, please retry")
	ErrBatchNotFound        = errors.New("recalculation batch not found or expired")
	ErrInvalidDateRange     = errors.New("end_date must not be before start_date")
	ErrDateRangeTooLong     = errors.New("date range exceeds the allowed maximum")
)
