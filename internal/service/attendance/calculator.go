package attendance

import (
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
)

// fullCoverageTolerance absorbs rounding when deciding a whole shift is on leave.
const fullCoverageTolerance = time.Minute

// Facts are the source inputs of one recompute.
type Facts struct {
	ClockEvents []attendance.ClockEvent
	Corrections []attendance.Correction
	Leaves      []leave.Interval
}

// Punches are the effective check-in and check-out instants of a record.
type Punches struct {
	CheckIn  *time.Time
	CheckOut *time.Time
}

// Calculator derives a daily record's status from source facts. All wall-clock
// arithmetic happens in a single deployment-wide location.
type Calculator struct {
	loc       *time.Location
	tolerance time.Duration
}

func NewCalculator(loc *time.Location, tolerance time.Duration) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{loc: loc, tolerance: tolerance}
}

// Location returns the calendar frame used to resolve work dates.
func (c *Calculator) Location() *time.Location {
	return c.loc
}

// ShiftWindow resolves the period against the work date.
func (c *Calculator) ShiftWindow(workDate time.Time, period schedule.TimePeriod) (start, end time.Time) {
	return period.Window(workDate, c.loc)
}

// FactWindow is the span searched for punches and leave: the calendar day,
// extended to the shift end for overnight periods, padded by the tolerance
// on both sides. For back-to-back overnight periods the window also reaches
// the previous night's sign-in, which then wins as the earliest check-in.
func (c *Calculator) FactWindow(workDate time.Time, period schedule.TimePeriod) (from, to time.Time) {
	dayStart := time.Date(workDate.Year(), workDate.Month(), workDate.Day(), 0, 0, 0, 0, c.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	_, shiftEnd := c.ShiftWindow(workDate, period)
	if shiftEnd.After(dayEnd) {
		dayEnd = shiftEnd
	}
	return dayStart.Add(-c.tolerance), dayEnd.Add(c.tolerance)
}

// ResolvePunches picks the effective check-in and check-out. A correction of
// a direction supersedes every clock event of that direction; among
// corrections the newest wins. Otherwise the earliest check-in and the latest
// check-out inside [from, to) are used.
func ResolvePunches(events []attendance.ClockEvent, corrections []attendance.Correction, from, to time.Time) Punches {
	var p Punches

	var inCorr, outCorr *attendance.Correction
	for i := range corrections {
		corr := &corrections[i]
		switch corr.Direction {
		case attendance.DirectionCheckIn:
			if inCorr == nil || corr.CreatedAt.After(inCorr.CreatedAt) {
				inCorr = corr
			}
		case attendance.DirectionCheckOut:
			if outCorr == nil || corr.CreatedAt.After(outCorr.CreatedAt) {
				outCorr = corr
			}
		}
	}

	for i := range events {
		ev := events[i]
		if ev.ClockedAt.Before(from) || !ev.ClockedAt.Before(to) {
			continue
		}
		at := ev.ClockedAt.UTC()
		switch ev.Direction {
		case attendance.DirectionCheckIn:
			if p.CheckIn == nil || at.Before(*p.CheckIn) {
				p.CheckIn = &at
			}
		case attendance.DirectionCheckOut:
			if p.CheckOut == nil || at.After(*p.CheckOut) {
				p.CheckOut = &at
			}
		}
	}

	if inCorr != nil {
		at := inCorr.CorrectedAt.UTC()
		p.CheckIn = &at
	}
	if outCorr != nil {
		at := outCorr.CorrectedAt.UTC()
		p.CheckOut = &at
	}

	return p
}

// Calculate recomputes a record from scratch. The record's stored status and
// times are never read; only its work date matters.
func (c *Calculator) Calculate(record attendance.DailyRecord, period schedule.TimePeriod, facts Facts) attendance.CalculationResult {
	shiftStart, shiftEnd := c.ShiftWindow(record.WorkDate, period)
	shiftDuration := shiftEnd.Sub(shiftStart)

	leaves := leaveIntervals(facts.Leaves)
	covered := CoverageWithin(leaves, shiftStart, shiftEnd)

	if primary, ok := fullCoverage(leaves, covered, shiftStart, shiftDuration); ok {
		status := attendance.StatusLeave
		if primary == string(leave.TypeBusinessTrip) {
			status = attendance.StatusBusinessTrip
		}
		return attendance.CalculationResult{
			Status:       status,
			LeaveMinutes: covered.Minutes(),
		}
	}

	from, to := c.FactWindow(record.WorkDate, period)
	punches := ResolvePunches(facts.ClockEvents, facts.Corrections, from, to)

	res := attendance.CalculationResult{
		CheckIn:      punches.CheckIn,
		CheckOut:     punches.CheckOut,
		Status:       attendance.StatusNormal,
		LeaveMinutes: covered.Minutes(),
	}

	// A single punch cannot tell lateness from early leave
	if punches.CheckIn == nil || punches.CheckOut == nil {
		res.Status = attendance.StatusAbsent
		res.AbsentMinutes = minutes(shiftDuration - covered.Duration)
		return res
	}

	checkIn, checkOut := *punches.CheckIn, *punches.CheckOut
	res.ActualMinutes = minutes(checkOut.Sub(checkIn))
	res.EffectiveMinutes = res.ActualMinutes

	rules := period.Rules

	if checkIn.After(shiftStart) {
		late := checkIn.Sub(shiftStart) - CoverageWithin(leaves, shiftStart, checkIn).Duration
		if lateMinutes := minutes(late); lateMinutes > rules.LateGraceMinutes {
			res.LateMinutes = lateMinutes
			res.Status = attendance.StatusLate
		}
	}

	if checkOut.Before(shiftEnd) {
		early := shiftEnd.Sub(checkOut) - CoverageWithin(leaves, checkOut, shiftEnd).Duration
		if earlyMinutes := minutes(early); earlyMinutes > rules.EarlyLeaveGraceMinutes {
			res.EarlyLeaveMinutes = earlyMinutes
			if res.Status == attendance.StatusNormal {
				res.Status = attendance.StatusEarlyLeave
			}
		}
	}

	if rules.AbsentThresholdMinutes > 0 && res.LateMinutes > rules.AbsentThresholdMinutes {
		res.Status = attendance.StatusAbsent
		res.AbsentMinutes = res.LateMinutes
	}

	return res
}

// fullCoverage applies the one-minute tolerance and returns the primary leave
// tag. A zero-length shift counts as covered by any leave touching its instant.
func fullCoverage(leaves []Interval, covered Coverage, shiftStart time.Time, shiftDuration time.Duration) (string, bool) {
	if shiftDuration <= 0 {
		var touching []Interval
		for _, iv := range leaves {
			if !iv.Start.After(shiftStart) && !iv.End.Before(shiftStart) {
				touching = append(touching, iv)
			}
		}
		if len(touching) == 0 {
			return "", false
		}
		slices.SortStableFunc(touching, func(a, b Interval) int {
			return a.Start.Compare(b.Start)
		})
		return touching[0].Tag, true
	}
	if covered.Duration > 0 && covered.Duration >= shiftDuration-fullCoverageTolerance {
		return covered.Primary, true
	}
	return "", false
}

func leaveIntervals(leaves []leave.Interval) []Interval {
	out := make([]Interval, 0, len(leaves))
	for _, l := range leaves {
		out = append(out, Interval{Start: l.StartTime, End: l.EndTime, Tag: string(l.Type)})
	}
	return out
}
