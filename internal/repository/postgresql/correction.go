package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type correctionRepository struct {
	db *database.DB
}

// ListByDailyRecord implements attendance.CorrectionRepository.
func (r *correctionRepository) ListByDailyRecord(ctx context.Context, dailyRecordID string) ([]attendance.Correction, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, daily_record_id, direction, corrected_at, reason, created_by, created_at, updated_at
		FROM attendance_corrections
		WHERE daily_record_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := q.Query(ctx, query, dailyRecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list corrections: %w", err)
	}
	defer rows.Close()

	var corrections []attendance.Correction
	for rows.Next() {
		var c attendance.Correction
		if err := rows.Scan(&c.ID, &c.DailyRecordID, &c.Direction, &c.CorrectedAt, &c.Reason, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}
		corrections = append(corrections, c)
	}

	return corrections, rows.Err()
}

// GetByID implements attendance.CorrectionRepository.
func (r *correctionRepository) GetByID(ctx context.Context, id string) (attendance.Correction, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, daily_record_id, direction, corrected_at, reason, created_by, created_at, updated_at
		FROM attendance_corrections
		WHERE id = $1`

	var c attendance.Correction
	err := q.QueryRow(ctx, query, id).Scan(&c.ID, &c.DailyRecordID, &c.Direction, &c.CorrectedAt, &c.Reason, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Correction{}, attendance.ErrCorrectionNotFound
		}
		return attendance.Correction{}, fmt.Errorf("failed to get correction: %w", err)
	}

	return c, nil
}

// Create implements attendance.CorrectionRepository.
func (r *correctionRepository) Create(ctx context.Context, c attendance.Correction) (attendance.Correction, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_corrections (
			id, daily_record_id, direction, corrected_at, reason, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := q.QueryRow(ctx, query,
		c.ID, c.DailyRecordID, c.Direction, c.CorrectedAt, c.Reason, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return attendance.Correction{}, fmt.Errorf("failed to create correction: %w", err)
	}

	return c, nil
}

// Update implements attendance.CorrectionRepository.
func (r *correctionRepository) Update(ctx context.Context, c attendance.Correction) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE attendance_corrections
		SET corrected_at = $2, reason = $3, updated_at = $4
		WHERE id = $1`,
		c.ID, c.CorrectedAt, c.Reason, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update correction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrCorrectionNotFound
	}

	return nil
}

// Delete implements attendance.CorrectionRepository.
func (r *correctionRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM attendance_corrections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete correction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrCorrectionNotFound
	}

	return nil
}

func NewCorrectionRepository(db *database.DB) attendance.CorrectionRepository {
	return &correctionRepository{db: db}
}
