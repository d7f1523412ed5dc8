package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchTracker keeps total/completed/failed counters per batch id.
type BatchTracker struct {
	repo attendance.BatchRepository
	tx   database.Transactor
	ttl  time.Duration
	now  func() time.Time
}

func NewBatchTracker(repo attendance.BatchRepository, tx database.Transactor, ttl time.Duration) *BatchTracker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &BatchTracker{repo: repo, tx: tx, ttl: ttl, now: time.Now}
}

// Start creates a batch expecting total results.
func (t *BatchTracker) Start(ctx context.Context, total int) (attendance.Batch, error) {
	batch := attendance.NewBatch(uuid.NewString(), total, t.now().UTC(), t.ttl)
	if err := t.repo.Create(ctx, batch); err != nil {
		return attendance.Batch{}, fmt.Errorf("create batch: %w", err)
	}
	return batch, nil
}

// Record counts one finished job. Counting after the batch is done is a no-op.
func (t *BatchTracker) Record(ctx context.Context, batchID string, succeeded bool, message string) error {
	return t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		batch, err := t.repo.GetForUpdate(txCtx, batchID)
		if err != nil {
			if errors.Is(err, attendance.ErrBatchNotFound) {
				// purged while jobs were still running
				return nil
			}
			return fmt.Errorf("lock batch %s: %w", batchID, err)
		}
		if batch.Done() {
			return nil
		}

		batch.RecordResult(succeeded, message)
		batch.Touch(t.now().UTC(), t.ttl)
		if err := t.repo.UpdateProgress(txCtx, batch); err != nil {
			return fmt.Errorf("update batch %s: %w", batchID, err)
		}
		return nil
	})
}

// Status returns ErrBatchNotFound for unknown and expired batches.
func (t *BatchTracker) Status(ctx context.Context, batchID string) (attendance.BatchStatusResponse, error) {
	if _, err := uuid.Parse(batchID); err != nil {
		return attendance.BatchStatusResponse{}, attendance.ErrBatchNotFound
	}

	batch, err := t.repo.GetByID(ctx, batchID)
	if err != nil {
		return attendance.BatchStatusResponse{}, err
	}
	if batch.Expired(t.now()) {
		return attendance.BatchStatusResponse{}, attendance.ErrBatchNotFound
	}

	return attendance.BatchStatusResponse{
		BatchID:         batch.ID,
		Status:          string(batch.Status),
		Total:           batch.Total,
		Completed:       batch.Completed,
		Failed:          batch.Failed,
		ProgressPercent: ProgressPercent(batch),
		Message:         batch.Message,
		ExpiresAt:       batch.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// Purge deletes expired batches.
func (t *BatchTracker) Purge(ctx context.Context) (int64, error) {
	return t.repo.DeleteExpired(ctx, t.now().UTC())
}

// ProgressPercent is (completed + failed) / total as a percentage with one
// decimal. An empty batch is complete.
func ProgressPercent(b attendance.Batch) float64 {
	if b.Total <= 0 {
		return 100
	}
	done := decimal.NewFromInt(int64(b.Completed + b.Failed))
	pct := done.Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(b.Total))).Round(1)
	f, _ := pct.Float64()
	return f
}
