package leave

import "context"

// LeaveService mutates approved leave and keeps attendance in step.
type LeaveService interface {
	UpdateApproved(ctx context.Context, req UpdateApprovedLeaveRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, req CancelLeaveRequest) (LeaveResponse, error)
	Delete(ctx context.Context, id string) (LeaveResponse, error)
}
