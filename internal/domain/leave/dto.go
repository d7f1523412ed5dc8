package leave

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// UpdateApprovedLeaveRequest moves the window of an already-approved leave.
type UpdateApprovedLeaveRequest struct {
	ID        string `json:"-"`
	StartTime string `json:"start_time"` // RFC3339
	EndTime   string `json:"end_time"`   // RFC3339

	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

func (r *UpdateApprovedLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	start, okStart := validator.IsValidDateTime(r.StartTime)
	if !okStart {
		errs = append(errs, validator.ValidationError{
			Field:   "start_time",
			Message: "start_time must be an RFC3339 timestamp",
		})
	}

	end, okEnd := validator.IsValidDateTime(r.EndTime)
	if !okEnd {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be an RFC3339 timestamp",
		})
	}

	if okStart && okEnd && !end.After(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must be after start_time",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	r.Start = start.UTC()
	r.End = end.UTC()
	return nil
}

// CancelLeaveRequest withdraws an approved leave.
type CancelLeaveRequest struct {
	ID     string  `json:"-"`
	Reason *string `json:"reason,omitempty"`
}

type LeaveResponse struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Type       string `json:"type"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Status     string `json:"status"`
	// Work dates whose attendance was recomputed as part of the change
	RecalculatedDates []string `json:"recalculated_dates"`
}
