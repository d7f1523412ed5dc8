package leave

import (
	"time"
)

// Type tags an approved absence.
type Type string

const (
	TypeAnnual       Type = "annual"
	TypeSick         Type = "sick"
	TypePersonal     Type = "personal"
	TypeBusinessTrip Type = "business_trip"
)

type RequestStatus string

const (
	RequestStatusWaitingApproval RequestStatus = "waiting_approval"
	RequestStatusApproved        RequestStatus = "approved"
	RequestStatusRejected        RequestStatus = "rejected"
	RequestStatusCancelled       RequestStatus = "cancelled"
)

// Interval is an absence window [StartTime, EndTime). Approved intervals of
// one employee may overlap.
type Interval struct {
	ID         string
	EmployeeID string
	Type       Type
	StartTime  time.Time
	EndTime    time.Time
	Status     RequestStatus
	Reason     *string

	CancelledBy        *string
	CancelledAt        *time.Time
	CancellationReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsBusinessTrip reports whether the interval is a business trip rather than leave.
func (i Interval) IsBusinessTrip() bool {
	return i.Type == TypeBusinessTrip
}
