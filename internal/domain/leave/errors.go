package leave

import "errors"

var (
	ErrLeaveRequestNotFound = errors.New("leave request not found")
	ErrLeaveNotApproved     = errors.New("only approved leave can be changed here")
	ErrInvalidLeaveInterval = errors.New("leave end_time must be after start_time")
)
