package schedule

import "errors"

var (
	// Time Period Errors
	ErrTimePeriodNotFound = errors.New("time period not found")
	ErrInvalidTimeOfDay   = errors.New("invalid time of day, use HH:MM")
	ErrInvalidRules       = errors.New("time period rules must not be negative")

	// Shift Errors
	ErrShiftNotFound    = errors.New("shift not found")
	ErrInvalidCycleDays = errors.New("shift cycle must be at least one day")
)
