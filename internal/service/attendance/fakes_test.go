package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/queue"
)

func sameDate(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

type fakeRecords struct {
	mu      sync.Mutex
	records map[string]attendance.DailyRecord
	saves   int
	saveErr error
}

func newFakeRecords(records ...attendance.DailyRecord) *fakeRecords {
	f := &fakeRecords{records: make(map[string]attendance.DailyRecord)}
	for _, r := range records {
		f.records[r.ID] = r
	}
	return f
}

func (f *fakeRecords) GetByID(ctx context.Context, id string) (attendance.DailyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok {
		return attendance.DailyRecord{}, attendance.ErrDailyRecordNotFound
	}
	return r, nil
}

func (f *fakeRecords) ListByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) ([]attendance.DailyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.DailyRecord
	for _, r := range f.records {
		if r.EmployeeID == employeeID && sameDate(r.WorkDate, date) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimePeriodID < out[j].TimePeriodID })
	return out, nil
}

func (f *fakeRecords) ExistsForEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	list, _ := f.ListByEmployeeAndDate(ctx, employeeID, date)
	return len(list) > 0, nil
}

func (f *fakeRecords) CreateShell(ctx context.Context, record attendance.DailyRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.EmployeeID == record.EmployeeID && sameDate(r.WorkDate, record.WorkDate) && r.TimePeriodID == record.TimePeriodID {
			return nil
		}
	}
	f.records[record.ID] = record
	return nil
}

func (f *fakeRecords) SaveResult(ctx context.Context, record attendance.DailyRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records[record.ID] = record
	f.saves++
	return nil
}

func (f *fakeRecords) all() []attendance.DailyRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]attendance.DailyRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	return out
}

type fakeClockEvents struct {
	events []attendance.ClockEvent
}

func (f *fakeClockEvents) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.ClockEvent, error) {
	var out []attendance.ClockEvent
	for _, e := range f.events {
		if e.EmployeeID == employeeID && !e.ClockedAt.Before(from) && e.ClockedAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeCorrections struct {
	mu          sync.Mutex
	corrections []attendance.Correction
}

func (f *fakeCorrections) ListByDailyRecord(ctx context.Context, dailyRecordID string) ([]attendance.Correction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Correction
	for _, c := range f.corrections {
		if c.DailyRecordID == dailyRecordID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeCorrections) GetByID(ctx context.Context, id string) (attendance.Correction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.corrections {
		if c.ID == id {
			return c, nil
		}
	}
	return attendance.Correction{}, attendance.ErrCorrectionNotFound
}

func (f *fakeCorrections) Create(ctx context.Context, c attendance.Correction) (attendance.Correction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.corrections = append(f.corrections, c)
	return c, nil
}

func (f *fakeCorrections) Update(ctx context.Context, c attendance.Correction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.corrections {
		if f.corrections[i].ID == c.ID {
			f.corrections[i] = c
			return nil
		}
	}
	return attendance.ErrCorrectionNotFound
}

func (f *fakeCorrections) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.corrections {
		if f.corrections[i].ID == id {
			f.corrections = append(f.corrections[:i], f.corrections[i+1:]...)
			return nil
		}
	}
	return attendance.ErrCorrectionNotFound
}

type fakeLeaves struct {
	leaves []leave.Interval
}

func (f *fakeLeaves) GetByID(ctx context.Context, id string) (leave.Interval, error) {
	for _, l := range f.leaves {
		if l.ID == id {
			return l, nil
		}
	}
	return leave.Interval{}, leave.ErrLeaveRequestNotFound
}

func (f *fakeLeaves) ListApproved(ctx context.Context, employeeID string, from, to time.Time) ([]leave.Interval, error) {
	var out []leave.Interval
	for _, l := range f.leaves {
		if l.EmployeeID == employeeID && l.Status == leave.RequestStatusApproved && l.StartTime.Before(to) && l.EndTime.After(from) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLeaves) UpdateTimes(ctx context.Context, id string, start, end time.Time) error {
	for i := range f.leaves {
		if f.leaves[i].ID == id {
			f.leaves[i].StartTime, f.leaves[i].EndTime = start, end
			return nil
		}
	}
	return leave.ErrLeaveRequestNotFound
}

func (f *fakeLeaves) Cancel(ctx context.Context, id string, cancelledBy *string, reason *string) error {
	for i := range f.leaves {
		if f.leaves[i].ID == id {
			f.leaves[i].Status = leave.RequestStatusCancelled
			f.leaves[i].CancelledBy = cancelledBy
			f.leaves[i].CancellationReason = reason
			return nil
		}
	}
	return leave.ErrLeaveRequestNotFound
}

func (f *fakeLeaves) Delete(ctx context.Context, id string) error {
	for i := range f.leaves {
		if f.leaves[i].ID == id {
			f.leaves = append(f.leaves[:i], f.leaves[i+1:]...)
			return nil
		}
	}
	return leave.ErrLeaveRequestNotFound
}

type fakeTimePeriods struct {
	periods map[string]schedule.TimePeriod
}

func (f *fakeTimePeriods) GetByID(ctx context.Context, id string) (schedule.TimePeriod, error) {
	p, ok := f.periods[id]
	if !ok {
		return schedule.TimePeriod{}, schedule.ErrTimePeriodNotFound
	}
	return p, nil
}

type fakeShifts struct {
	shift schedule.Shift
	days  map[int][]schedule.TimePeriod
}

func (f *fakeShifts) GetByID(ctx context.Context, id string) (schedule.Shift, error) {
	if id != f.shift.ID {
		return schedule.Shift{}, schedule.ErrShiftNotFound
	}
	return f.shift, nil
}

func (f *fakeShifts) GetPeriodsForDay(ctx context.Context, shiftID string, dayOfCycle int) ([]schedule.TimePeriod, error) {
	return f.days[dayOfCycle], nil
}

type fakeSchedules struct {
	schedules []schedule.EmployeeSchedule
}

func (f *fakeSchedules) GetActiveSchedule(ctx context.Context, employeeID string, date time.Time) (*schedule.EmployeeSchedule, error) {
	for _, s := range f.schedules {
		if s.EmployeeID == employeeID && s.Covers(date) {
			return &s, nil
		}
	}
	return nil, nil
}

type fakeEmployees struct {
	ids []string
}

func (f *fakeEmployees) Exists(ctx context.Context, id string) (bool, error) {
	for _, e := range f.ids {
		if e == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEmployees) ListActiveIDs(ctx context.Context) ([]string, error) {
	return f.ids, nil
}

type fakeBatches struct {
	mu      sync.Mutex
	batches map[string]attendance.Batch
}

func newFakeBatches() *fakeBatches {
	return &fakeBatches{batches: make(map[string]attendance.Batch)}
}

func (f *fakeBatches) Create(ctx context.Context, b attendance.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches[b.ID] = b
	return nil
}

func (f *fakeBatches) GetByID(ctx context.Context, id string) (attendance.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return attendance.Batch{}, attendance.ErrBatchNotFound
	}
	return b, nil
}

func (f *fakeBatches) GetForUpdate(ctx context.Context, id string) (attendance.Batch, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeBatches) UpdateProgress(ctx context.Context, b attendance.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches[b.ID] = b
	return nil
}

func (f *fakeBatches) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, b := range f.batches {
		if b.Expired(now) {
			delete(f.batches, id)
			n++
		}
	}
	return n, nil
}

type fakeQueue struct {
	jobs []queue.Job
	err  error
}

func (f *fakeQueue) Enqueue(ctx context.Context, jobs ...queue.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, jobs...)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}
