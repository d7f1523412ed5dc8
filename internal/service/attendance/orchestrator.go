package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/queue"
)

// JobKindRecalculate is the queue kind of a single (employee, date) recompute.
const JobKindRecalculate = "attendance.recalculate"

// RecalculationPayload is the body of a recompute job.
type RecalculationPayload struct {
	EmployeeID string `json:"employee_id"`
	WorkDate   string `json:"work_date"` // YYYY-MM-DD
	Provision  bool   `json:"provision"`
}

// JobQueue is the part of the queue the orchestrator enqueues onto.
type JobQueue interface {
	Enqueue(ctx context.Context, jobs ...queue.Job) error
}

type Config struct {
	SyncTimeout  time.Duration
	MaxRangeDays int
}

// Dependencies wires the orchestrator. Queue is nil when the asynchronous
// path is disabled.
type Dependencies struct {
	Tx          database.Transactor
	Calculator  *Calculator
	Provisioner *Provisioner
	Batches     *BatchTracker
	Queue       JobQueue

	Records     attendance.DailyRecordRepository
	ClockEvents attendance.ClockEventRepository
	Corrections attendance.CorrectionRepository
	Leaves      leave.LeaveRepository
	TimePeriods schedule.TimePeriodRepository
	Employees   employee.EmployeeRepository
}

// Orchestrator decides when records are recomputed and runs the recompute.
type Orchestrator struct {
	Dependencies
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

func NewOrchestrator(deps Dependencies, cfg Config) *Orchestrator {
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = 10 * time.Second
	}
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = 92
	}
	return &Orchestrator{
		Dependencies: deps,
		cfg:          cfg,
		logger:       slog.Default().With("component", "recalculation"),
		now:          time.Now,
	}
}

var _ attendance.RecalculationService = (*Orchestrator)(nil)

// AsyncEnabled reports whether jobs can be enqueued.
func (o *Orchestrator) AsyncEnabled() bool {
	return o.Queue != nil
}

// ========================================
// RECOMPUTE ROUTINE
// ========================================

// RecalculateRecord recomputes one record from its source facts and saves
// it. It runs in whatever transaction ctx carries.
func (o *Orchestrator) RecalculateRecord(ctx context.Context, record attendance.DailyRecord) (attendance.DailyRecord, error) {
	period, err := o.TimePeriods.GetByID(ctx, record.TimePeriodID)
	if err != nil {
		if errors.Is(err, schedule.ErrTimePeriodNotFound) {
			return attendance.DailyRecord{}, fmt.Errorf("record %s period %s: %w", record.ID, record.TimePeriodID, attendance.ErrTimePeriodMissing)
		}
		return attendance.DailyRecord{}, fmt.Errorf("get time period: %w", err)
	}

	from, to := o.Calculator.FactWindow(record.WorkDate, period)

	events, err := o.ClockEvents.ListByEmployee(ctx, record.EmployeeID, from, to)
	if err != nil {
		return attendance.DailyRecord{}, fmt.Errorf("list clock events: %w", err)
	}

	corrections, err := o.Corrections.ListByDailyRecord(ctx, record.ID)
	if err != nil {
		return attendance.DailyRecord{}, fmt.Errorf("list corrections: %w", err)
	}

	leaves, err := o.Leaves.ListApproved(ctx, record.EmployeeID, from, to)
	if err != nil {
		return attendance.DailyRecord{}, fmt.Errorf("list approved leaves: %w", err)
	}

	res := o.Calculator.Calculate(record, period, Facts{
		ClockEvents: events,
		Corrections: corrections,
		Leaves:      leaves,
	})

	now := o.now().UTC()
	record.Apply(res, now)
	record.UpdatedAt = now

	if err := o.Records.SaveResult(ctx, record); err != nil {
		return attendance.DailyRecord{}, fmt.Errorf("save daily record %s: %w", record.ID, err)
	}

	return record, nil
}

// RecordWindow returns the span searched for the record's punches.
func (o *Orchestrator) RecordWindow(ctx context.Context, record attendance.DailyRecord) (from, to time.Time, err error) {
	period, err := o.TimePeriods.GetByID(ctx, record.TimePeriodID)
	if err != nil {
		if errors.Is(err, schedule.ErrTimePeriodNotFound) {
			return time.Time{}, time.Time{}, attendance.ErrTimePeriodMissing
		}
		return time.Time{}, time.Time{}, fmt.Errorf("get time period: %w", err)
	}
	from, to = o.Calculator.FactWindow(record.WorkDate, period)
	return from, to, nil
}

// Location is the deployment calendar frame.
func (o *Orchestrator) Location() *time.Location {
	return o.Calculator.Location()
}

// RecalculateEmployeeDate recomputes every record of the employee on date,
// provisioning shells first when asked.
func (o *Orchestrator) RecalculateEmployeeDate(ctx context.Context, employeeID string, date time.Time, provision bool) ([]attendance.DailyRecord, error) {
	if provision {
		if _, err := o.Provisioner.EnsureDailyRecord(ctx, employeeID, date); err != nil {
			return nil, fmt.Errorf("provision daily record: %w", err)
		}
	}

	records, err := o.Records.ListByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("list daily records: %w", err)
	}

	out := make([]attendance.DailyRecord, 0, len(records))
	for _, record := range records {
		updated, err := o.RecalculateRecord(ctx, record)
		if err != nil {
			return nil, err
		}
		out = append(out, updated)
	}
	return out, nil
}

// WithinSyncTransaction runs fn in a transaction bounded by the sync
// timeout. A deadline surfaces as ErrRecalculationTimeout and the
// transaction is rolled back.
func (o *Orchestrator) WithinSyncTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, o.cfg.SyncTimeout)
	defer cancel()

	err := o.Tx.WithinTransaction(timeoutCtx, fn)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(timeoutCtx.Err(), context.DeadlineExceeded)) {
		return fmt.Errorf("%w: %w", attendance.ErrRecalculationTimeout, err)
	}
	return err
}

// ========================================
// SYNCHRONOUS ENTRY POINTS
// ========================================

// RecalculateDay implements attendance.RecalculationService.
func (o *Orchestrator) RecalculateDay(ctx context.Context, req attendance.RecalculateDayRequest) ([]attendance.DailyRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := o.ensureEmployee(ctx, req.EmployeeID); err != nil {
		return nil, err
	}

	var records []attendance.DailyRecord
	err := o.WithinSyncTransaction(ctx, func(txCtx context.Context) error {
		var err error
		records, err = o.RecalculateEmployeeDate(txCtx, req.EmployeeID, req.WorkDate, true)
		return err
	})
	if err != nil {
		o.logger.Error("Synchronous recalculation failed",
			"employee_id", req.EmployeeID,
			"work_date", req.Date,
			"error", err,
		)
		return nil, err
	}

	return attendance.ToDailyRecordResponses(records), nil
}

// ListDailyRecords implements attendance.RecalculationService.
func (o *Orchestrator) ListDailyRecords(ctx context.Context, filter attendance.DailyRecordFilter) ([]attendance.DailyRecordResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	records, err := o.Records.ListByEmployeeAndDate(ctx, filter.EmployeeID, filter.WorkDate)
	if err != nil {
		return nil, fmt.Errorf("list daily records: %w", err)
	}
	return attendance.ToDailyRecordResponses(records), nil
}

// ========================================
// ASYNCHRONOUS ENTRY POINTS
// ========================================

// TriggerCalculation implements attendance.RecalculationService. One job is
// enqueued per (employee, date) under a shared batch.
func (o *Orchestrator) TriggerCalculation(ctx context.Context, req attendance.TriggerCalculationRequest) (attendance.TriggerCalculationResponse, error) {
	if !o.AsyncEnabled() {
		return attendance.TriggerCalculationResponse{}, attendance.ErrSchedulerUnavailable
	}

	if err := req.Validate(); err != nil {
		return attendance.TriggerCalculationResponse{}, err
	}

	days := int(req.End.Sub(req.Start).Hours()/24) + 1
	if days > o.cfg.MaxRangeDays {
		return attendance.TriggerCalculationResponse{}, fmt.Errorf("%w: %d days requested, at most %d allowed", attendance.ErrDateRangeTooLong, days, o.cfg.MaxRangeDays)
	}

	employeeIDs, err := o.resolveEmployees(ctx, req.EmployeeIDs)
	if err != nil {
		return attendance.TriggerCalculationResponse{}, err
	}

	jobs := make([]queue.Job, 0, days*len(employeeIDs))
	var batch attendance.Batch

	err = o.Tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		batch, err = o.Batches.Start(txCtx, days*len(employeeIDs))
		if err != nil {
			return err
		}

		for d := 0; d < days; d++ {
			date := req.Start.AddDate(0, 0, d).Format("2006-01-02")
			for _, employeeID := range employeeIDs {
				job, err := queue.NewJob(JobKindRecalculate, batch.ID, RecalculationPayload{
					EmployeeID: employeeID,
					WorkDate:   date,
					Provision:  req.Provision,
				})
				if err != nil {
					return err
				}
				jobs = append(jobs, job)
			}
		}

		return o.Queue.Enqueue(txCtx, jobs...)
	})
	if err != nil {
		return attendance.TriggerCalculationResponse{}, fmt.Errorf("trigger calculation: %w", err)
	}

	o.logger.Info("Recalculation batch enqueued",
		"batch_id", batch.ID,
		"start_date", req.StartDate,
		"end_date", req.EndDate,
		"employees", len(employeeIDs),
		"total", batch.Total,
	)

	return attendance.TriggerCalculationResponse{BatchID: batch.ID, Total: batch.Total}, nil
}

// TriggerNightly recomputes date for every active employee, provisioning
// shells first since no correction guarantees they exist.
func (o *Orchestrator) TriggerNightly(ctx context.Context, date time.Time) (attendance.TriggerCalculationResponse, error) {
	day := date.Format("2006-01-02")
	return o.TriggerCalculation(ctx, attendance.TriggerCalculationRequest{
		StartDate: day,
		EndDate:   day,
		Provision: true,
	})
}

// GetBatchStatus implements attendance.RecalculationService.
func (o *Orchestrator) GetBatchStatus(ctx context.Context, batchID string) (attendance.BatchStatusResponse, error) {
	return o.Batches.Status(ctx, batchID)
}

// HandleJob is the queue handler for JobKindRecalculate.
func (o *Orchestrator) HandleJob(ctx context.Context, job queue.Job) error {
	var payload RecalculationPayload
	if err := job.Decode(&payload); err != nil {
		return err
	}

	date, err := time.Parse("2006-01-02", payload.WorkDate)
	if err != nil {
		return queue.Permanent(fmt.Errorf("invalid work date %q: %w", payload.WorkDate, err))
	}

	err = o.Tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		_, err := o.RecalculateEmployeeDate(txCtx, payload.EmployeeID, date, payload.Provision)
		return err
	})
	if err != nil {
		o.logger.Error("Recalculation job failed",
			"employee_id", payload.EmployeeID,
			"work_date", payload.WorkDate,
			"batch_id", job.BatchID,
			"attempt", job.Attempts,
			"error", err,
		)
		if errors.Is(err, attendance.ErrTimePeriodMissing) || errors.Is(err, schedule.ErrInvalidCycleDays) {
			return queue.Permanent(err)
		}
		return err
	}
	return nil
}

// FinishJob is the queue finish hook: it counts the job against its batch.
func (o *Orchestrator) FinishJob(ctx context.Context, job queue.Job, jobErr error) error {
	if job.BatchID == "" {
		return nil
	}
	message := ""
	if jobErr != nil {
		message = jobErr.Error()
	}
	return o.Batches.Record(ctx, job.BatchID, jobErr == nil, message)
}

// PurgeExpiredBatches removes batches past their retention.
func (o *Orchestrator) PurgeExpiredBatches(ctx context.Context) (int64, error) {
	return o.Batches.Purge(ctx)
}

func (o *Orchestrator) ensureEmployee(ctx context.Context, employeeID string) error {
	exists, err := o.Employees.Exists(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("check employee %s: %w", employeeID, err)
	}
	if !exists {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

func (o *Orchestrator) resolveEmployees(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) == 0 {
		ids, err := o.Employees.ListActiveIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list active employees: %w", err)
		}
		return ids, nil
	}

	seen := make(map[string]struct{}, len(requested))
	ids := make([]string, 0, len(requested))
	for _, id := range requested {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if err := o.ensureEmployee(ctx, id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
