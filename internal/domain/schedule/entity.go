package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock offset from local midnight.
type TimeOfDay time.Duration

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return NewTimeOfDay(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
}

func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second)
}

func (t TimeOfDay) Hour() int   { return int(time.Duration(t) / time.Hour) }
func (t TimeOfDay) Minute() int { return int(time.Duration(t)%time.Hour) / int(time.Minute) }
func (t TimeOfDay) Second() int { return int(time.Duration(t)%time.Minute) / int(time.Second) }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On resolves the time of day against a calendar date in loc. Only the
// year/month/day of date are used, so the date may come from any frame.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

// Rules are the grace and threshold settings of a time period.
// Stored as JSONB; absent keys default to zero.
type Rules struct {
	LateGraceMinutes       int `json:"late_grace_minutes"`
	EarlyLeaveGraceMinutes int `json:"early_leave_grace_minutes"`
	AbsentThresholdMinutes int `json:"absent_threshold_minutes"`
}

// Validate rejects negative minute values.
func (r Rules) Validate() error {
	if r.LateGraceMinutes < 0 || r.EarlyLeaveGraceMinutes < 0 || r.AbsentThresholdMinutes < 0 {
		return ErrInvalidRules
	}
	return nil
}

// Value implements driver.Valuer for database storage
func (r Rules) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for database retrieval
func (r *Rules) Scan(value interface{}) error {
	if value == nil {
		*r = Rules{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan Rules: invalid type")
	}

	var decoded Rules
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("failed to scan Rules: %w", err)
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*r = decoded
	return nil
}

// TimePeriod is a named daily work window.
type TimePeriod struct {
	ID        string
	Name      string
	StartTime TimeOfDay
	EndTime   TimeOfDay
	RestStart *TimeOfDay
	RestEnd   *TimeOfDay
	Rules     Rules
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CrossesMidnight reports whether the period ends on the following day.
func (p TimePeriod) CrossesMidnight() bool {
	return p.EndTime < p.StartTime
}

// Window resolves the period against a work date. A period whose end is
// before its start finishes on the next day; equal start and end yield a
// zero-length window.
func (p TimePeriod) Window(workDate time.Time, loc *time.Location) (start, end time.Time) {
	start = p.StartTime.On(workDate, loc)
	end = p.EndTime.On(workDate, loc)
	if end.Before(start) {
		end = p.EndTime.On(workDate.AddDate(0, 0, 1), loc)
	}
	return start, end
}

// Shift assigns time periods to the days of a rotation cycle.
type Shift struct {
	ID        string
	Name      string
	CycleDays int
	Days      []ShiftDay
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShiftDay lists the periods worked on one day of the cycle (1-based).
type ShiftDay struct {
	DayOfCycle    int
	TimePeriodIDs []string
}

// WeeklyCycle is the cycle length that maps directly onto ISO weekdays.
const WeeklyCycle = 7

// DayOfCycle returns the 1-based position of date within the rotation.
// Weekly cycles follow the calendar (Monday=1 ... Sunday=7); other lengths
// count days from the schedule start.
func DayOfCycle(cycleDays int, scheduleStart, date time.Time) int {
	if cycleDays <= 0 {
		return 0
	}
	if cycleDays == WeeklyCycle {
		wd := int(date.Weekday())
		if wd == 0 {
			return 7
		}
		return wd
	}
	days := daysBetween(scheduleStart, date)
	mod := days % cycleDays
	if mod < 0 {
		mod += cycleDays
	}
	return mod + 1
}

// daysBetween counts calendar days from a to b using only their dates.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// EmployeeSchedule binds an employee to a shift for a closed date range.
type EmployeeSchedule struct {
	ID         string
	EmployeeID string
	ShiftID    string
	StartDate  time.Time
	EndDate    time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Covers reports whether date falls inside [StartDate, EndDate].
func (s EmployeeSchedule) Covers(date time.Time) bool {
	d := daysBetween(s.StartDate, date)
	return d >= 0 && daysBetween(date, s.EndDate) >= 0
}
