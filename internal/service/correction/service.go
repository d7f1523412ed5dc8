package correction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

// Recalculator is the synchronous side of the recalculation orchestrator.
type Recalculator interface {
	WithinSyncTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
	RecalculateRecord(ctx context.Context, record attendance.DailyRecord) (attendance.DailyRecord, error)
	RecordWindow(ctx context.Context, record attendance.DailyRecord) (from, to time.Time, err error)
}

type CorrectionServiceImpl struct {
	attendance.DailyRecordRepository
	attendance.CorrectionRepository
	recalculator Recalculator
	now          func() time.Time
}

func NewCorrectionService(
	dailyRecordRepository attendance.DailyRecordRepository,
	correctionRepository attendance.CorrectionRepository,
	recalculator Recalculator,
) attendance.CorrectionService {
	return &CorrectionServiceImpl{
		DailyRecordRepository: dailyRecordRepository,
		CorrectionRepository:  correctionRepository,
		recalculator:          recalculator,
		now:                   time.Now,
	}
}

// Create implements attendance.CorrectionService.
func (s *CorrectionServiceImpl) Create(ctx context.Context, req attendance.CreateCorrectionRequest) (attendance.CorrectionResultResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CorrectionResultResponse{}, err
	}
	if req.CreatedBy == nil {
		req.CreatedBy = actorID(ctx)
	}

	var (
		created attendance.Correction
		updated attendance.DailyRecord
	)
	err := s.recalculator.WithinSyncTransaction(ctx, func(txCtx context.Context) error {
		record, err := s.DailyRecordRepository.GetByID(txCtx, req.DailyRecordID)
		if err != nil {
			return err
		}

		if err := s.checkWindow(txCtx, record, req.Time); err != nil {
			return err
		}

		now := s.now().UTC()
		created, err = s.CorrectionRepository.Create(txCtx, attendance.Correction{
			ID:            uuid.NewString(),
			DailyRecordID: record.ID,
			Direction:     attendance.Direction(req.Direction),
			CorrectedAt:   req.Time,
			Reason:        req.Reason,
			CreatedBy:     req.CreatedBy,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			return fmt.Errorf("create correction: %w", err)
		}

		updated, err = s.recalculator.RecalculateRecord(txCtx, record)
		return err
	})
	if err != nil {
		slog.Error("Correction create failed", "daily_record_id", req.DailyRecordID, "error", err)
		return attendance.CorrectionResultResponse{}, err
	}

	resp := attendance.ToCorrectionResponse(created)
	return attendance.CorrectionResultResponse{
		Correction: &resp,
		Record:     attendance.ToDailyRecordResponse(updated),
	}, nil
}

// Update implements attendance.CorrectionService.
func (s *CorrectionServiceImpl) Update(ctx context.Context, req attendance.UpdateCorrectionRequest) (attendance.CorrectionResultResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CorrectionResultResponse{}, err
	}

	var (
		corr    attendance.Correction
		updated attendance.DailyRecord
	)
	err := s.recalculator.WithinSyncTransaction(ctx, func(txCtx context.Context) error {
		var err error
		corr, err = s.CorrectionRepository.GetByID(txCtx, req.ID)
		if err != nil {
			return err
		}

		record, err := s.DailyRecordRepository.GetByID(txCtx, corr.DailyRecordID)
		if err != nil {
			return err
		}

		if req.Time != nil {
			if err := s.checkWindow(txCtx, record, *req.Time); err != nil {
				return err
			}
			corr.CorrectedAt = *req.Time
		}
		if req.Reason != nil {
			corr.Reason = *req.Reason
		}
		corr.UpdatedAt = s.now().UTC()

		if err := s.CorrectionRepository.Update(txCtx, corr); err != nil {
			return fmt.Errorf("update correction: %w", err)
		}

		updated, err = s.recalculator.RecalculateRecord(txCtx, record)
		return err
	})
	if err != nil {
		slog.Error("Correction update failed", "correction_id", req.ID, "error", err)
		return attendance.CorrectionResultResponse{}, err
	}

	resp := attendance.ToCorrectionResponse(corr)
	return attendance.CorrectionResultResponse{
		Correction: &resp,
		Record:     attendance.ToDailyRecordResponse(updated),
	}, nil
}

// Delete implements attendance.CorrectionService. The record falls back to
// older corrections or raw punches.
func (s *CorrectionServiceImpl) Delete(ctx context.Context, id string) (attendance.CorrectionResultResponse, error) {
	var updated attendance.DailyRecord
	err := s.recalculator.WithinSyncTransaction(ctx, func(txCtx context.Context) error {
		corr, err := s.CorrectionRepository.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		record, err := s.DailyRecordRepository.GetByID(txCtx, corr.DailyRecordID)
		if err != nil {
			return err
		}

		if err := s.CorrectionRepository.Delete(txCtx, corr.ID); err != nil {
			return fmt.Errorf("delete correction: %w", err)
		}

		updated, err = s.recalculator.RecalculateRecord(txCtx, record)
		return err
	})
	if err != nil {
		slog.Error("Correction delete failed", "correction_id", id, "error", err)
		return attendance.CorrectionResultResponse{}, err
	}

	return attendance.CorrectionResultResponse{
		Record: attendance.ToDailyRecordResponse(updated),
	}, nil
}

func (s *CorrectionServiceImpl) checkWindow(ctx context.Context, record attendance.DailyRecord, at time.Time) error {
	from, to, err := s.recalculator.RecordWindow(ctx, record)
	if err != nil {
		return err
	}
	if at.Before(from) || !at.Before(to) {
		return attendance.ErrCorrectionOutsideRange
	}
	return nil
}

// actorID reads the authenticated user from the request claims, if any.
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
