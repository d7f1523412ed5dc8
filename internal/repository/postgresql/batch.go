package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type batchRepository struct {
	db *database.DB
}

// Create implements attendance.BatchRepository.
func (r *batchRepository) Create(ctx context.Context, b attendance.Batch) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		INSERT INTO recalculation_batches (
			id, total, completed, failed, status, message, created_at, updated_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.Total, b.Completed, b.Failed, b.Status, b.Message, b.CreatedAt, b.UpdatedAt, b.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create recalculation batch: %w", err)
	}

	return nil
}

// GetByID implements attendance.BatchRepository.
func (r *batchRepository) GetByID(ctx context.Context, id string) (attendance.Batch, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate implements attendance.BatchRepository.
func (r *batchRepository) GetForUpdate(ctx context.Context, id string) (attendance.Batch, error) {
	return r.get(ctx, id, true)
}

func (r *batchRepository) get(ctx context.Context, id string, lock bool) (attendance.Batch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, total, completed, failed, status, message, created_at, updated_at, expires_at
		FROM recalculation_batches
		WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var b attendance.Batch
	err := q.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.Total, &b.Completed, &b.Failed, &b.Status, &b.Message, &b.CreatedAt, &b.UpdatedAt, &b.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Batch{}, attendance.ErrBatchNotFound
		}
		return attendance.Batch{}, fmt.Errorf("failed to get recalculation batch: %w", err)
	}

	return b, nil
}

// UpdateProgress implements attendance.BatchRepository.
func (r *batchRepository) UpdateProgress(ctx context.Context, b attendance.Batch) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE recalculation_batches
		SET completed = $2, failed = $3, status = $4, message = $5, updated_at = $6, expires_at = $7
		WHERE id = $1`,
		b.ID, b.Completed, b.Failed, b.Status, b.Message, b.UpdatedAt, b.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update recalculation batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrBatchNotFound
	}

	return nil
}

// DeleteExpired implements attendance.BatchRepository.
func (r *batchRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		DELETE FROM recalculation_batches
		WHERE status <> 'processing' AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired batches: %w", err)
	}

	return tag.RowsAffected(), nil
}

func NewBatchRepository(db *database.DB) attendance.BatchRepository {
	return &batchRepository{db: db}
}
