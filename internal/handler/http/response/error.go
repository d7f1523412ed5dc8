package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Access errors
	case errors.Is(err, user.ErrManagerAccessRequired):
		Forbidden(w, "Manager access required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrDailyRecordNotFound):
		NotFound(w, "Daily attendance record not found")
	case errors.Is(err, attendance.ErrCorrectionNotFound):
		NotFound(w, "Attendance correction not found")
	case errors.Is(err, attendance.ErrBatchNotFound):
		NotFound(w, "Recalculation batch not found or expired")
	case errors.Is(err, attendance.ErrInvalidDirection),
		errors.Is(err, attendance.ErrCorrectionOutsideRange),
		errors.Is(err, attendance.ErrInvalidDateRange),
		errors.Is(err, attendance.ErrDateRangeTooLong):
		ValidationError(w, map[string]string{"request": err.Error()})
	case errors.Is(err, attendance.ErrSchedulerUnavailable):
		ServiceUnavailable(w, "Recalculation scheduler is unavailable, try again later")
	case errors.Is(err, attendance.ErrRecalculationTimeout):
		ServiceUnavailable(w, "Recalculation timed out, please retry")
	case errors.Is(err, attendance.ErrTimePeriodMissing),
		errors.Is(err, schedule.ErrInvalidCycleDays):
		slog.Error("Inconsistent schedule data", "error", err)
		Conflict(w, "Schedule data is inconsistent for this record")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrLeaveNotApproved):
		Conflict(w, "Only approved leave can be changed")
	case errors.Is(err, leave.ErrInvalidLeaveInterval):
		ValidationError(w, map[string]string{"end_time": err.Error()})

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
