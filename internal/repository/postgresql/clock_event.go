package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

type clockEventRepository struct {
	db *database.DB
}

// ListByEmployee implements attendance.ClockEventRepository.
func (r *clockEventRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.ClockEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, clocked_at, direction, source, created_at
		FROM clock_events
		WHERE employee_id = $1
		  AND clocked_at >= $2
		  AND clocked_at < $3
		ORDER BY clocked_at`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list clock events: %w", err)
	}
	defer rows.Close()

	var events []attendance.ClockEvent
	for rows.Next() {
		var e attendance.ClockEvent
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.ClockedAt, &e.Direction, &e.Source, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan clock event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func NewClockEventRepository(db *database.DB) attendance.ClockEventRepository {
	return &clockEventRepository{db: db}
}
