package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// ========================================
// RECALCULATION DTOs
// ========================================

// TriggerCalculationRequest asks for an asynchronous recompute of a date range.
// An empty EmployeeIDs list means every active employee.
type TriggerCalculationRequest struct {
	StartDate   string   `json:"start_date"` // YYYY-MM-DD
	EndDate     string   `json:"end_date"`   // YYYY-MM-DD
	EmployeeIDs []string `json:"employee_ids,omitempty"`

	// Provision creates missing record shells before computing
	Provision bool `json:"provision"`

	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
}

func (r *TriggerCalculationRequest) Validate() error {
	var errs validator.ValidationErrors

	start, okStart := validator.IsValidDate(r.StartDate)
	if !okStart {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}

	end, okEnd := validator.IsValidDate(r.EndDate)
	if !okEnd {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}

	if okStart && okEnd && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	for _, id := range r.EmployeeIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{
				Field:   "employee_ids",
				Message: "employee_ids must not contain empty values",
			})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}

	r.Start = start
	r.End = end
	return nil
}

type TriggerCalculationResponse struct {
	BatchID string `json:"batch_id"`
	Total   int    `json:"total"`
}

type BatchStatusResponse struct {
	BatchID         string  `json:"batch_id"`
	Status          string  `json:"status"`
	Total           int     `json:"total"`
	Completed       int     `json:"completed"`
	Failed          int     `json:"failed"`
	ProgressPercent float64 `json:"progress_percent"`
	Message         string  `json:"message,omitempty"`
	ExpiresAt       string  `json:"expires_at"`
}

// RecalculateDayRequest recomputes one employee's records synchronously.
type RecalculateDayRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"` // YYYY-MM-DD

	WorkDate time.Time `json:"-"`
}

func (r *RecalculateDayRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	date, ok := validator.IsValidDate(r.Date)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	r.WorkDate = date
	return nil
}

// ========================================
// DAILY RECORD DTOs
// ========================================

type DailyRecordFilter struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"` // YYYY-MM-DD

	WorkDate time.Time `json:"-"`
}

func (f *DailyRecordFilter) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(f.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	date, ok := validator.IsValidDate(f.Date)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	f.WorkDate = date
	return nil
}

type DailyRecordResponse struct {
	ID                string  `json:"id"`
	EmployeeID        string  `json:"employee_id"`
	WorkDate          string  `json:"work_date"`
	TimePeriodID      string  `json:"time_period_id"`
	CheckIn           *string `json:"check_in,omitempty"`
	CheckOut          *string `json:"check_out,omitempty"`
	Status            string  `json:"status"`
	LateMinutes       int     `json:"late_minutes"`
	EarlyLeaveMinutes int     `json:"early_leave_minutes"`
	AbsentMinutes     int     `json:"absent_minutes"`
	LeaveMinutes      int     `json:"leave_minutes"`
	ActualMinutes     int     `json:"actual_minutes"`
	EffectiveMinutes  int     `json:"effective_minutes"`
	CalculatedAt      *string `json:"calculated_at,omitempty"`
	UpdatedAt         string  `json:"updated_at"`
}

// ========================================
// CORRECTION DTOs
// ========================================

type CreateCorrectionRequest struct {
	DailyRecordID string  `json:"-"`
	Direction     string  `json:"direction"`    // check_in, check_out
	CorrectedAt   string  `json:"corrected_at"` // RFC3339
	Reason        string  `json:"reason"`
	CreatedBy     *string `json:"-"`

	Time time.Time `json:"-"`
}

func (r *CreateCorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsInSlice(strings.ToLower(r.Direction), DirectionValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "direction",
			Message: "direction must be one of: check_in, check_out",
		})
	}

	t, ok := validator.IsValidDateTime(r.CorrectedAt)
	if !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "corrected_at",
			Message: "corrected_at must be an RFC3339 timestamp",
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	r.Direction = strings.ToLower(r.Direction)
	r.Time = t.UTC()
	return nil
}

type UpdateCorrectionRequest struct {
	ID          string  `json:"-"`
	CorrectedAt *string `json:"corrected_at,omitempty"` // RFC3339
	Reason      *string `json:"reason,omitempty"`

	Time *time.Time `json:"-"`
}

func (r *UpdateCorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.CorrectedAt == nil && r.Reason == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "corrected_at",
			Message: "at least one of corrected_at or reason is required",
		})
	}

	if r.CorrectedAt != nil {
		t, ok := validator.IsValidDateTime(*r.CorrectedAt)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "corrected_at",
				Message: "corrected_at must be an RFC3339 timestamp",
			})
		} else {
			utc := t.UTC()
			r.Time = &utc
		}
	}

	if r.Reason != nil && validator.IsEmpty(*r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not be empty",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CorrectionResponse struct {
	ID            string  `json:"id"`
	DailyRecordID string  `json:"daily_record_id"`
	Direction     string  `json:"direction"`
	CorrectedAt   string  `json:"corrected_at"`
	Reason        string  `json:"reason"`
	CreatedBy     *string `json:"created_by,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// CorrectionResultResponse carries the correction together with the record
// recomputed in the same transaction.
type CorrectionResultResponse struct {
	Correction *CorrectionResponse `json:"correction,omitempty"`
	Record     DailyRecordResponse `json:"record"`
}

// ========================================
// MAPPERS
// ========================================

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func ToDailyRecordResponse(r DailyRecord) DailyRecordResponse {
	return DailyRecordResponse{
		ID:                r.ID,
		EmployeeID:        r.EmployeeID,
		WorkDate:          r.WorkDate.Format("2006-01-02"),
		TimePeriodID:      r.TimePeriodID,
		CheckIn:           timePtrToString(r.CheckIn),
		CheckOut:          timePtrToString(r.CheckOut),
		Status:            string(r.Status),
		LateMinutes:       r.LateMinutes,
		EarlyLeaveMinutes: r.EarlyLeaveMinutes,
		AbsentMinutes:     r.AbsentMinutes,
		LeaveMinutes:      r.LeaveMinutes,
		ActualMinutes:     r.ActualMinutes,
		EffectiveMinutes:  r.EffectiveMinutes,
		CalculatedAt:      timePtrToString(r.CalculatedAt),
		UpdatedAt:         r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func ToDailyRecordResponses(records []DailyRecord) []DailyRecordResponse {
	out := make([]DailyRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, ToDailyRecordResponse(r))
	}
	return out
}

func ToCorrectionResponse(c Correction) CorrectionResponse {
	return CorrectionResponse{
		ID:            c.ID,
		DailyRecordID: c.DailyRecordID,
		Direction:     string(c.Direction),
		CorrectedAt:   c.CorrectedAt.UTC().Format(time.RFC3339),
		Reason:        c.Reason,
		CreatedBy:     c.CreatedBy,
		CreatedAt:     c.CreatedAt.UTC().Format(time.RFC3339),
	}
}
