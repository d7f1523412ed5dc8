package attendance

import (
	"time"
)

// Status is the single authoritative outcome stored on a daily record.
type Status string

const (
	StatusNormal       Status = "normal"
	StatusLate         Status = "late"
	StatusEarlyLeave   Status = "early_leave"
	StatusAbsent       Status = "absent"
	StatusLeave        Status = "leave"
	StatusBusinessTrip Status = "business_trip"
)

var StatusValues = []string{
	string(StatusNormal),
	string(StatusLate),
	string(StatusEarlyLeave),
	string(StatusAbsent),
	string(StatusLeave),
	string(StatusBusinessTrip),
}

// Direction of a punch or a correction.
type Direction string

const (
	DirectionCheckIn  Direction = "check_in"
	DirectionCheckOut Direction = "check_out"
)

var DirectionValues = []string{
	string(DirectionCheckIn),
	string(DirectionCheckOut),
}

// DailyRecord is one row per (employee, work date, time period).
type DailyRecord struct {
	ID           string
	EmployeeID   string
	WorkDate     time.Time // calendar date, time-of-day ignored
	TimePeriodID string

	// Effective instants used by the last calculation (UTC)
	CheckIn  *time.Time
	CheckOut *time.Time

	Status            Status
	LateMinutes       int
	EarlyLeaveMinutes int
	AbsentMinutes     int
	LeaveMinutes      int
	ActualMinutes     int
	EffectiveMinutes  int

	CalculatedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Apply copies a calculation result onto the record.
func (r *DailyRecord) Apply(res CalculationResult, at time.Time) {
	r.CheckIn = res.CheckIn
	r.CheckOut = res.CheckOut
	r.Status = res.Status
	r.LateMinutes = res.LateMinutes
	r.EarlyLeaveMinutes = res.EarlyLeaveMinutes
	r.AbsentMinutes = res.AbsentMinutes
	r.LeaveMinutes = res.LeaveMinutes
	r.ActualMinutes = res.ActualMinutes
	r.EffectiveMinutes = res.EffectiveMinutes
	r.CalculatedAt = &at
}

// ClockEvent is an immutable raw punch from the clock-capture service.
type ClockEvent struct {
	ID         string
	EmployeeID string
	ClockedAt  time.Time
	Direction  Direction
	Source     string
	CreatedAt  time.Time
}

// Correction overrides one direction of a daily record. Append-only;
// the newest correction per direction wins.
type Correction struct {
	ID            string
	DailyRecordID string
	Direction     Direction
	CorrectedAt   time.Time
	Reason        string
	CreatedBy     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CalculationResult is the output of the status calculator.
type CalculationResult struct {
	CheckIn           *time.Time
	CheckOut          *time.Time
	Status            Status
	LateMinutes       int
	EarlyLeaveMinutes int
	AbsentMinutes     int
	LeaveMinutes      int
	ActualMinutes     int
	EffectiveMinutes  int
}

// BatchStatus is the overall state of a recalculation batch.
type BatchStatus string

const (
	BatchStatusProcessing          BatchStatus = "processing"
	BatchStatusCompleted           BatchStatus = "completed"
	BatchStatusCompletedWithErrors BatchStatus = "completed_with_errors"
)

// Batch tracks a group of recompute jobs sharing one identifier.
type Batch struct {
	ID        string
	Total     int
	Completed int
	Failed    int
	Status    BatchStatus
	Message   string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// Done reports whether every job of the batch has reached a terminal state.
func (b Batch) Done() bool {
	return b.Completed+b.Failed >= b.Total
}

// Expired reports whether the batch is past its retention. A batch still
// processing never expires.
func (b Batch) Expired(now time.Time) bool {
	return b.Status != BatchStatusProcessing && !now.Before(b.ExpiresAt)
}

// Touch stamps an update and restarts the retention window from it.
func (b *Batch) Touch(now time.Time, ttl time.Duration) {
	b.UpdatedAt = now
	b.ExpiresAt = now.Add(ttl)
}

// RecordResult counts one finished job and settles the status once the
// batch is complete.
func (b *Batch) RecordResult(succeeded bool, message string) {
	if b.Done() {
		return
	}
	if succeeded {
		b.Completed++
	} else {
		b.Failed++
		if message != "" {
			b.Message = message
		}
	}
	b.settle()
}

func (b *Batch) settle() {
	if !b.Done() {
		b.Status = BatchStatusProcessing
		return
	}
	if b.Failed > 0 {
		b.Status = BatchStatusCompletedWithErrors
		return
	}
	b.Status = BatchStatusCompleted
}

// NewBatch creates a batch in its initial state.
func NewBatch(id string, total int, now time.Time, ttl time.Duration) Batch {
	b := Batch{
		ID:        id,
		Total:     total,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	b.settle()
	return b
}
