package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newTestDB connects to TEST_DATABASE_URL, applies migrations and empties
// every table. Tests are skipped when no database is configured.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 5, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, truncateAllTables(ctx, db))

	return db
}

func truncateAllTables(ctx context.Context, db *database.DB) error {
	tables := []string{
		"recalculation_jobs",
		"recalculation_batches",
		"attendance_corrections",
		"daily_attendance_records",
		"clock_events",
		"leave_requests",
		"employee_schedules",
		"shift_days",
		"shifts",
		"time_periods",
		"employees",
	}

	for _, table := range tables {
		if _, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

func createTestEmployee(t *testing.T, ctx context.Context, db *database.DB, status string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := db.Exec(ctx, `
		INSERT INTO employees (id, employee_code, full_name, employment_status)
		VALUES ($1, $2, 'Test Employee', $3)`,
		id, "EMP-"+id[:8], status,
	)
	require.NoError(t, err)
	return id
}

func createTestTimePeriod(t *testing.T, ctx context.Context, db *database.DB, name, start, end string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := db.Exec(ctx, `
		INSERT INTO time_periods (id, name, start_time, end_time, rules)
		VALUES ($1, $2, $3::time, $4::time, '{"late_grace_minutes": 5}'::jsonb)`,
		id, name, start, end,
	)
	require.NoError(t, err)
	return id
}
