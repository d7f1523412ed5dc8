package leave

import (
	"context"
	"time"
)

// LeaveRepository reads and mutates leave_requests.
type LeaveRepository interface {
	GetByID(ctx context.Context, id string) (Interval, error)

	// ListApproved returns approved intervals of the employee overlapping [from, to)
	ListApproved(ctx context.Context, employeeID string, from, to time.Time) ([]Interval, error)

	UpdateTimes(ctx context.Context, id string, start, end time.Time) error
	Cancel(ctx context.Context, id string, cancelledBy *string, reason *string) error
	Delete(ctx context.Context, id string) error
}
