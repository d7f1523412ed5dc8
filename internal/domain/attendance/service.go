package attendance

import (
	"context"
)

// RecalculationService is the operator-facing side of the orchestrator.
type RecalculationService interface {
	// TriggerCalculation enqueues the range and returns the batch id.
	// Fails with ErrSchedulerUnavailable when the async path is disabled.
	TriggerCalculation(ctx context.Context, req TriggerCalculationRequest) (TriggerCalculationResponse, error)

	// GetBatchStatus returns ErrBatchNotFound for unknown or expired batches
	GetBatchStatus(ctx context.Context, batchID string) (BatchStatusResponse, error)

	// RecalculateDay provisions and recomputes one employee's work date synchronously
	RecalculateDay(ctx context.Context, req RecalculateDayRequest) ([]DailyRecordResponse, error)

	// ListDailyRecords returns stored records without recomputing
	ListDailyRecords(ctx context.Context, filter DailyRecordFilter) ([]DailyRecordResponse, error)
}

// CorrectionService writes corrections and recomputes the owning record
// in the same transaction.
type CorrectionService interface {
	Create(ctx context.Context, req CreateCorrectionRequest) (CorrectionResultResponse, error)
	Update(ctx context.Context, req UpdateCorrectionRequest) (CorrectionResultResponse, error)
	Delete(ctx context.Context, id string) (CorrectionResultResponse, error)
}
