package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/setting"
)

// Recalculator is the part of the orchestrator the attendance jobs drive.
type Recalculator interface {
	AsyncEnabled() bool
	TriggerNightly(ctx context.Context, date time.Time) (attendance.TriggerCalculationResponse, error)
	PurgeExpiredBatches(ctx context.Context) (int64, error)
}

type AttendanceJobs struct {
	recalc          Recalculator
	settings        setting.SettingRepository
	loc             *time.Location
	defaultCalcTime schedule.TimeOfDay
	now             func() time.Time

	mu        sync.Mutex
	lastFired string // work date of the last nightly run, "2006-01-02" in loc
}

func NewAttendanceJobs(recalc Recalculator, settings setting.SettingRepository, loc *time.Location, defaultCalcTime string) (*AttendanceJobs, error) {
	def, err := schedule.ParseTimeOfDay(defaultCalcTime)
	if err != nil {
		return nil, fmt.Errorf("default auto calc time: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceJobs{
		recalc:          recalc,
		settings:        settings,
		loc:             loc,
		defaultCalcTime: def,
		now:             time.Now,
	}, nil
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	if j.recalc.AsyncEnabled() {
		scheduler.AddJob("nightly_attendance_recalculation", time.Minute, j.NightlyRecalculation)
	} else {
		slog.Warn("Cron: nightly attendance recalculation disabled, job queue unavailable")
	}
	scheduler.AddJob("purge_expired_recalculation_batches", time.Hour, j.PurgeExpiredBatches)
}

// NightlyRecalculation recomputes yesterday for every active employee once
// the local clock has passed the configured auto calc time. It fires at most
// once per local day; late ticks catch up and failed runs are retried on the
// next tick.
func (j *AttendanceJobs) NightlyRecalculation(ctx context.Context) error {
	now := j.now().In(j.loc)
	if now.Before(j.autoCalcTime(ctx).On(now, j.loc)) {
		return nil
	}

	today := now.Format("2006-01-02")
	j.mu.Lock()
	if j.lastFired == today {
		j.mu.Unlock()
		return nil
	}
	j.lastFired = today
	j.mu.Unlock()

	yesterday := now.AddDate(0, 0, -1)
	slog.Info("Cron: Starting nightly attendance recalculation", "work_date", yesterday.Format("2006-01-02"))

	resp, err := j.recalc.TriggerNightly(ctx, yesterday)
	if err != nil {
		// retried on the next tick
		j.mu.Lock()
		j.lastFired = ""
		j.mu.Unlock()
		return fmt.Errorf("trigger nightly recalculation: %w", err)
	}

	slog.Info("Cron: Nightly attendance recalculation enqueued", "batch_id", resp.BatchID, "total", resp.Total)
	return nil
}

// autoCalcTime falls back to the configured default when the setting is
// missing or malformed.
func (j *AttendanceJobs) autoCalcTime(ctx context.Context) schedule.TimeOfDay {
	raw, err := j.settings.Get(ctx, setting.KeyAutoCalcTime)
	if err != nil {
		if !errors.Is(err, setting.ErrSettingNotFound) {
			slog.Warn("Cron: Failed to read auto calc time, using default", "error", err)
		}
		return j.defaultCalcTime
	}

	at, err := schedule.ParseTimeOfDay(raw)
	if err != nil {
		slog.Warn("Cron: Malformed auto calc time, using default", "value", raw)
		return j.defaultCalcTime
	}
	return at
}

func (j *AttendanceJobs) PurgeExpiredBatches(ctx context.Context) error {
	deleted, err := j.recalc.PurgeExpiredBatches(ctx)
	if err != nil {
		return fmt.Errorf("purge expired batches: %w", err)
	}
	if deleted > 0 {
		slog.Info("Cron: Purged expired recalculation batches", "count", deleted)
	}
	return nil
}
