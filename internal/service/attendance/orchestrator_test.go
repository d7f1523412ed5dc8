package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/queue"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	leavesvc "github.com/cmlabs-hris/attendance-engine/internal/service/leave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orchestratorFixture struct {
	orch        *Orchestrator
	records     *fakeRecords
	events      *fakeClockEvents
	corrections *fakeCorrections
	leaves      *fakeLeaves
	periods     *fakeTimePeriods
	batches     *fakeBatches
	queue       *fakeQueue
}

func newOrchestratorFixture(withQueue bool) *orchestratorFixture {
	office := officePeriod()
	f := &orchestratorFixture{
		records:     newFakeRecords(),
		events:      &fakeClockEvents{},
		corrections: &fakeCorrections{},
		leaves:      &fakeLeaves{},
		periods:     &fakeTimePeriods{periods: map[string]schedule.TimePeriod{office.ID: office}},
		batches:     newFakeBatches(),
		queue:       &fakeQueue{},
	}

	shifts := &fakeShifts{
		shift: schedule.Shift{ID: "shift-office", CycleDays: schedule.WeeklyCycle},
		days: map[int][]schedule.TimePeriod{
			1: {office}, 2: {office}, 3: {office}, 4: {office}, 5: {office},
		},
	}
	schedules := &fakeSchedules{}
	for _, id := range []string{"emp-1", "emp-2"} {
		schedules.schedules = append(schedules.schedules, schedule.EmployeeSchedule{
			EmployeeID: id,
			ShiftID:    "shift-office",
			StartDate:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		})
	}

	deps := Dependencies{
		Tx:          passthroughTx{},
		Calculator:  newTestCalculator(),
		Provisioner: NewProvisioner(f.records, schedules, shifts),
		Batches:     NewBatchTracker(f.batches, passthroughTx{}, time.Hour),
		Records:     f.records,
		ClockEvents: f.events,
		Corrections: f.corrections,
		Leaves:      f.leaves,
		TimePeriods: f.periods,
		Employees:   &fakeEmployees{ids: []string{"emp-1", "emp-2"}},
	}
	if withQueue {
		deps.Queue = f.queue
	}

	f.orch = NewOrchestrator(deps, Config{SyncTimeout: time.Second, MaxRangeDays: 31})
	return f
}

// drain delivers every enqueued job the way the queue would.
func (f *orchestratorFixture) drain(t *testing.T) {
	t.Helper()
	for _, job := range f.queue.jobs {
		err := f.orch.HandleJob(context.Background(), job)
		require.NoError(t, f.orch.FinishJob(context.Background(), job, err))
	}
	f.queue.jobs = nil
}

func TestRecalculateDay_ProvisionsAndComputes(t *testing.T) {
	f := newOrchestratorFixture(false)
	f.events.events = []attendance.ClockEvent{
		punch(attendance.DirectionCheckIn, 9, 15),
		punch(attendance.DirectionCheckOut, 18, 0),
	}

	out, err := f.orch.RecalculateDay(context.Background(), attendance.RecalculateDayRequest{
		EmployeeID: "emp-1",
		Date:       "2026-03-02",
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "late", out[0].Status)
	assert.Equal(t, 15, out[0].LateMinutes)
	assert.NotNil(t, out[0].CalculatedAt)

	// repeated runs with unchanged facts converge to the same record
	again, err := f.orch.RecalculateDay(context.Background(), attendance.RecalculateDayRequest{
		EmployeeID: "emp-1",
		Date:       "2026-03-02",
	})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, out[0].ID, again[0].ID)
	assert.Equal(t, out[0].Status, again[0].Status)
	assert.Equal(t, out[0].LateMinutes, again[0].LateMinutes)
	assert.Len(t, f.records.all(), 1)
}

func TestRecalculateDay_Errors(t *testing.T) {
	f := newOrchestratorFixture(false)

	_, err := f.orch.RecalculateDay(context.Background(), attendance.RecalculateDayRequest{EmployeeID: "emp-1", Date: "02-03-2026"})
	var verr validator.ValidationErrors
	assert.True(t, errors.As(err, &verr))

	_, err = f.orch.RecalculateDay(context.Background(), attendance.RecalculateDayRequest{EmployeeID: "ghost", Date: "2026-03-02"})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestRecalculateDay_RestDayReturnsNothing(t *testing.T) {
	f := newOrchestratorFixture(false)

	out, err := f.orch.RecalculateDay(context.Background(), attendance.RecalculateDayRequest{EmployeeID: "emp-1", Date: "2026-03-08"})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRecalculateRecord_MissingPeriod(t *testing.T) {
	f := newOrchestratorFixture(false)
	orphan := record()
	orphan.TimePeriodID = "deleted-period"

	_, err := f.orch.RecalculateRecord(context.Background(), orphan)
	assert.ErrorIs(t, err, attendance.ErrTimePeriodMissing)
}

func TestRecalculateRecord_UsesApprovedLeaveOnly(t *testing.T) {
	f := newOrchestratorFixture(false)
	cancelled := approved(leave.TypeAnnual, workDate, workDate.AddDate(0, 0, 1))
	cancelled.Status = leave.RequestStatusCancelled
	f.leaves.leaves = []leave.Interval{cancelled}

	got, err := f.orch.RecalculateRecord(context.Background(), record())
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, got.Status)
	assert.Equal(t, 540, got.AbsentMinutes)
}

func TestLeaveDelete_RestoresPunchBasedStatus(t *testing.T) {
	f := newOrchestratorFixture(false)
	ctx := context.Background()

	dayOff := approved(leave.TypeAnnual, workDate, workDate.AddDate(0, 0, 1))
	dayOff.ID = "leave-1"
	f.leaves.leaves = []leave.Interval{dayOff}
	f.events.events = []attendance.ClockEvent{
		punch(attendance.DirectionCheckIn, 9, 30),
		punch(attendance.DirectionCheckOut, 18, 0),
	}
	require.NoError(t, f.records.CreateShell(ctx, record()))

	got, err := f.orch.RecalculateRecord(ctx, record())
	require.NoError(t, err)
	require.Equal(t, attendance.StatusLeave, got.Status)

	svc := leavesvc.NewLeaveService(f.leaves, f.orch)
	resp, err := svc.Delete(ctx, "leave-1")
	require.NoError(t, err)
	assert.Contains(t, resp.RecalculatedDates, "2026-03-02")

	got, err = f.records.GetByID(ctx, "record-1")
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, got.Status)
	assert.Equal(t, 30, got.LateMinutes)
	assert.Zero(t, got.LeaveMinutes)

	// without punches the day falls back to absent
	f.leaves.leaves = []leave.Interval{dayOff}
	f.events.events = nil
	_, err = svc.Delete(ctx, "leave-1")
	require.NoError(t, err)

	got, err = f.records.GetByID(ctx, "record-1")
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, got.Status)
	assert.Equal(t, 540, got.AbsentMinutes)
}

func TestWithinSyncTransaction_Timeout(t *testing.T) {
	f := newOrchestratorFixture(false)
	f.orch.cfg.SyncTimeout = 10 * time.Millisecond

	err := f.orch.WithinSyncTransaction(context.Background(), func(txCtx context.Context) error {
		<-txCtx.Done()
		return txCtx.Err()
	})
	assert.ErrorIs(t, err, attendance.ErrRecalculationTimeout)
}

func TestTriggerCalculation_SchedulerUnavailable(t *testing.T) {
	f := newOrchestratorFixture(false)

	_, err := f.orch.TriggerCalculation(context.Background(), attendance.TriggerCalculationRequest{
		StartDate: "2026-03-02",
		EndDate:   "2026-03-03",
	})
	assert.ErrorIs(t, err, attendance.ErrSchedulerUnavailable)
}

func TestTriggerCalculation_BatchCompletes(t *testing.T) {
	f := newOrchestratorFixture(true)
	ctx := context.Background()

	resp, err := f.orch.TriggerCalculation(ctx, attendance.TriggerCalculationRequest{
		StartDate: "2026-03-02",
		EndDate:   "2026-03-04",
		Provision: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, resp.Total)
	require.Len(t, f.queue.jobs, 6)
	for _, job := range f.queue.jobs {
		assert.Equal(t, JobKindRecalculate, job.Kind)
		assert.Equal(t, resp.BatchID, job.BatchID)
	}

	status, err := f.orch.GetBatchStatus(ctx, resp.BatchID)
	require.NoError(t, err)
	assert.Equal(t, "processing", status.Status)
	assert.Zero(t, status.ProgressPercent)

	f.drain(t)

	status, err = f.orch.GetBatchStatus(ctx, resp.BatchID)
	require.NoError(t, err)
	assert.Equal(t, "completed", status.Status)
	assert.Equal(t, 6, status.Completed)
	assert.Equal(t, 6, status.Total)
	assert.Equal(t, 100.0, status.ProgressPercent)

	// no punches anywhere: every provisioned day is a full absence
	records := f.records.all()
	require.Len(t, records, 6)
	for _, r := range records {
		assert.Equal(t, attendance.StatusAbsent, r.Status)
		assert.Equal(t, 540, r.AbsentMinutes)
	}
}

func TestTriggerCalculation_FailuresAreCounted(t *testing.T) {
	f := newOrchestratorFixture(true)
	ctx := context.Background()

	orphan := record()
	orphan.ID = "record-orphan"
	orphan.EmployeeID = "emp-2"
	orphan.TimePeriodID = "deleted-period"
	f.records.records[orphan.ID] = orphan

	resp, err := f.orch.TriggerCalculation(ctx, attendance.TriggerCalculationRequest{
		StartDate:   "2026-03-02",
		EndDate:     "2026-03-02",
		EmployeeIDs: []string{"emp-1", "emp-2", "emp-1"},
		Provision:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)

	var permanent int
	for _, job := range f.queue.jobs {
		if err := f.orch.HandleJob(ctx, job); err != nil {
			assert.True(t, queue.IsPermanent(err))
			assert.ErrorIs(t, err, attendance.ErrTimePeriodMissing)
			permanent++
		}
	}
	assert.Equal(t, 1, permanent)

	f.drain(t)

	status, err := f.orch.GetBatchStatus(ctx, resp.BatchID)
	require.NoError(t, err)
	assert.Equal(t, "completed_with_errors", status.Status)
	assert.Equal(t, 1, status.Completed)
	assert.Equal(t, 1, status.Failed)
	assert.Contains(t, status.Message, "missing time period")
}

func TestTriggerCalculation_Validation(t *testing.T) {
	f := newOrchestratorFixture(true)

	_, err := f.orch.TriggerCalculation(context.Background(), attendance.TriggerCalculationRequest{
		StartDate: "2026-03-05",
		EndDate:   "2026-03-01",
	})
	var verr validator.ValidationErrors
	assert.True(t, errors.As(err, &verr))

	_, err = f.orch.TriggerCalculation(context.Background(), attendance.TriggerCalculationRequest{
		StartDate: "2026-01-01",
		EndDate:   "2026-03-01",
	})
	assert.ErrorIs(t, err, attendance.ErrDateRangeTooLong)

	_, err = f.orch.TriggerCalculation(context.Background(), attendance.TriggerCalculationRequest{
		StartDate:   "2026-03-01",
		EndDate:     "2026-03-01",
		EmployeeIDs: []string{"ghost"},
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	assert.Empty(t, f.queue.jobs)
}

func TestTriggerNightly_AllEmployees(t *testing.T) {
	f := newOrchestratorFixture(true)

	resp, err := f.orch.TriggerNightly(context.Background(), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)

	var payload RecalculationPayload
	require.NoError(t, f.queue.jobs[0].Decode(&payload))
	assert.True(t, payload.Provision)
	assert.Equal(t, "2026-03-02", payload.WorkDate)
}

func TestHandleJob_BadPayloadIsPermanent(t *testing.T) {
	f := newOrchestratorFixture(true)

	err := f.orch.HandleJob(context.Background(), queue.Job{Kind: JobKindRecalculate, Payload: []byte(`{"work_date":"yesterday"}`)})
	assert.True(t, queue.IsPermanent(err))
}
