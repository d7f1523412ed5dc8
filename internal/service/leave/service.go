package leave

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/go-chi/jwtauth/v5"
)

// Recalculator is the synchronous side of the recalculation orchestrator.
type Recalculator interface {
	WithinSyncTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
	RecalculateEmployeeDate(ctx context.Context, employeeID string, date time.Time, provision bool) ([]attendance.DailyRecord, error)
	Location() *time.Location
}

type LeaveServiceImpl struct {
	leave.LeaveRepository
	recalculator Recalculator
}

func NewLeaveService(leaveRepository leave.LeaveRepository, recalculator Recalculator) leave.LeaveService {
	return &LeaveServiceImpl{
		LeaveRepository: leaveRepository,
		recalculator:    recalculator,
	}
}

// UpdateApproved implements leave.LeaveService. Every work date touched by
// the old or the new window is recomputed in the same transaction.
func (s *LeaveServiceImpl) UpdateApproved(ctx context.Context, req leave.UpdateApprovedLeaveRequest) (leave.LeaveResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveResponse{}, err
	}

	var (
		updated leave.Interval
		dates   []time.Time
	)
	err := s.recalculator.WithinSyncTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.LeaveRepository.GetByID(txCtx, req.ID)
		if err != nil {
			return err
		}
		if current.Status != leave.RequestStatusApproved {
			return leave.ErrLeaveNotApproved
		}

		if err := s.LeaveRepository.UpdateTimes(txCtx, current.ID, req.Start, req.End); err != nil {
			return fmt.Errorf("update leave times: %w", err)
		}

		updated = current
		updated.StartTime, updated.EndTime = req.Start, req.End

		dates = unionDates(
			AffectedWorkDates(current.StartTime, current.EndTime, s.recalculator.Location()),
			AffectedWorkDates(updated.StartTime, updated.EndTime, s.recalculator.Location()),
		)
		return s.recalculate(txCtx, current.EmployeeID, dates)
	})
	if err != nil {
		slog.Error("Approved leave update failed", "leave_id", req.ID, "error", err)
		return leave.LeaveResponse{}, err
	}

	return toLeaveResponse(updated, dates), nil
}

// Cancel implements leave.LeaveService.
func (s *LeaveServiceImpl) Cancel(ctx context.Context, req leave.CancelLeaveRequest) (leave.LeaveResponse, error) {
	cancelledBy := actorID(ctx)

	var (
		cancelled leave.Interval
		dates     []time.Time
	)
	err := s.recalculator.WithinSyncTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.LeaveRepository.GetByID(txCtx, req.ID)
		if err != nil {
			return err
		}
		if current.Status != leave.RequestStatusApproved {
			return leave.ErrLeaveNotApproved
		}

		if err := s.LeaveRepository.Cancel(txCtx, current.ID, cancelledBy, req.Reason); err != nil {
			return fmt.Errorf("cancel leave: %w", err)
		}

		cancelled = current
		cancelled.Status = leave.RequestStatusCancelled

		dates = AffectedWorkDates(current.StartTime, current.EndTime, s.recalculator.Location())
		return s.recalculate(txCtx, current.EmployeeID, dates)
	})
	if err != nil {
		slog.Error("Approved leave cancel failed", "leave_id", req.ID, "error", err)
		return leave.LeaveResponse{}, err
	}

	return toLeaveResponse(cancelled, dates), nil
}

// Delete implements leave.LeaveService. The response describes the leave as
// it was before removal.
func (s *LeaveServiceImpl) Delete(ctx context.Context, id string) (leave.LeaveResponse, error) {
	var (
		deleted leave.Interval
		dates   []time.Time
	)
	err := s.recalculator.WithinSyncTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.LeaveRepository.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if current.Status != leave.RequestStatusApproved {
			return leave.ErrLeaveNotApproved
		}

		if err := s.LeaveRepository.Delete(txCtx, current.ID); err != nil {
			return fmt.Errorf("delete leave: %w", err)
		}

		deleted = current
		dates = AffectedWorkDates(current.StartTime, current.EndTime, s.recalculator.Location())
		return s.recalculate(txCtx, current.EmployeeID, dates)
	})
	if err != nil {
		slog.Error("Approved leave delete failed", "leave_id", id, "error", err)
		return leave.LeaveResponse{}, err
	}

	return toLeaveResponse(deleted, dates), nil
}

// recalculate refreshes existing records only; dates not yet provisioned are
// picked up by the nightly sweep.
func (s *LeaveServiceImpl) recalculate(ctx context.Context, employeeID string, dates []time.Time) error {
	for _, date := range dates {
		if _, err := s.recalculator.RecalculateEmployeeDate(ctx, employeeID, date, false); err != nil {
			return fmt.Errorf("recalculate %s: %w", date.Format("2006-01-02"), err)
		}
	}
	return nil
}

// AffectedWorkDates lists the work dates whose shifts may overlap
// [start, end) in loc. The day before start is included because an
// overnight period of that date can reach into the interval.
func AffectedWorkDates(start, end time.Time, loc *time.Location) []time.Time {
	if !end.After(start) {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	first := start.In(loc).AddDate(0, 0, -1)
	last := end.Add(-time.Nanosecond).In(loc)

	day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC)
	stop := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)

	var dates []time.Time
	for !day.After(stop) {
		dates = append(dates, day)
		day = day.AddDate(0, 0, 1)
	}
	return dates
}

func unionDates(a, b []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(a)+len(b))
	var out []time.Time
	for _, list := range [][]time.Time{a, b} {
		for _, d := range list {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(x, y time.Time) int { return x.Compare(y) })
	return out
}

func toLeaveResponse(l leave.Interval, dates []time.Time) leave.LeaveResponse {
	formatted := make([]string, 0, len(dates))
	for _, d := range dates {
		formatted = append(formatted, d.Format("2006-01-02"))
	}
	return leave.LeaveResponse{
		ID:                l.ID,
		EmployeeID:        l.EmployeeID,
		Type:              string(l.Type),
		StartTime:         l.StartTime.UTC().Format(time.RFC3339),
		EndTime:           l.EndTime.UTC().Format(time.RFC3339),
		Status:            string(l.Status),
		RecalculatedDates: formatted,
	}
}

func actorID(ctx context.Context) *string {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return nil
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil
	}
	return &userID
}
