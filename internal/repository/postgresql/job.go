package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/queue"
	"github.com/jackc/pgx/v5"
)

// jobStore is the recalculation_jobs implementation of queue.Store.
type jobStore struct {
	db *database.DB
}

// Insert implements queue.Store with one round trip per call.
func (s *jobStore) Insert(ctx context.Context, jobs []queue.Job) error {
	q := GetQuerier(ctx, s.db)

	batch := &pgx.Batch{}
	for _, j := range jobs {
		var batchID *string
		if j.BatchID != "" {
			batchID = &j.BatchID
		}
		batch.Queue(`
			INSERT INTO recalculation_jobs (
				id, kind, batch_id, payload, status, attempts, max_attempts, run_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8, $9)`,
			j.ID, j.Kind, batchID, []byte(j.Payload), j.Status, j.MaxAttempts, j.RunAt, j.CreatedAt, j.UpdatedAt,
		)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for range jobs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert job: %w", err)
		}
	}

	return nil
}

// Claim implements queue.Store. SKIP LOCKED lets concurrent workers pass
// over rows another worker is claiming; an expired lease makes a running
// job claimable again.
func (s *jobStore) Claim(ctx context.Context, kinds []string, now time.Time, lease time.Duration) (*queue.Job, error) {
	q := GetQuerier(ctx, s.db)

	query := `
		UPDATE recalculation_jobs
		SET status = 'running',
			attempts = attempts + 1,
			locked_until = $3,
			updated_at = $2
		WHERE id = (
			SELECT id FROM recalculation_jobs
			WHERE kind = ANY($1)
			  AND (
				(status = 'pending' AND run_at <= $2)
				OR (status = 'running' AND locked_until < $2)
			  )
			ORDER BY run_at, created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, kind, COALESCE(batch_id::text, ''), payload, status, attempts, max_attempts,
			last_error, run_at, locked_until, created_at, updated_at`

	var (
		j       queue.Job
		payload []byte
	)
	err := q.QueryRow(ctx, query, kinds, now, now.Add(lease)).Scan(
		&j.ID, &j.Kind, &j.BatchID, &payload, &j.Status, &j.Attempts, &j.MaxAttempts,
		&j.LastError, &j.RunAt, &j.LockedUntil, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	j.Payload = payload

	return &j, nil
}

// Complete implements queue.Store.
func (s *jobStore) Complete(ctx context.Context, id string) (bool, error) {
	return s.finish(ctx, id, queue.StatusDone, nil)
}

// Fail implements queue.Store.
func (s *jobStore) Fail(ctx context.Context, id string, message string) (bool, error) {
	return s.finish(ctx, id, queue.StatusFailed, &message)
}

func (s *jobStore) finish(ctx context.Context, id string, status queue.Status, message *string) (bool, error) {
	q := GetQuerier(ctx, s.db)

	tag, err := q.Exec(ctx, `
		UPDATE recalculation_jobs
		SET status = $2, last_error = COALESCE($3, last_error), locked_until = NULL, updated_at = now()
		WHERE id = $1 AND status = 'running'`,
		id, status, message,
	)
	if err != nil {
		return false, fmt.Errorf("failed to finish job: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Retry implements queue.Store.
func (s *jobStore) Retry(ctx context.Context, id string, runAt time.Time, message string) error {
	q := GetQuerier(ctx, s.db)

	_, err := q.Exec(ctx, `
		UPDATE recalculation_jobs
		SET status = 'pending', run_at = $2, last_error = $3, locked_until = NULL, updated_at = now()
		WHERE id = $1 AND status = 'running'`,
		id, runAt, message,
	)
	if err != nil {
		return fmt.Errorf("failed to reschedule job: %w", err)
	}

	return nil
}

// Ping implements queue.Store.
func (s *jobStore) Ping(ctx context.Context) error {
	q := GetQuerier(ctx, s.db)

	var n int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM (SELECT 1 FROM recalculation_jobs LIMIT 1) t`).Scan(&n); err != nil {
		return fmt.Errorf("failed to reach job table: %w", err)
	}

	return nil
}

func NewJobStore(db *database.DB) queue.Store {
	return &jobStore{db: db}
}
