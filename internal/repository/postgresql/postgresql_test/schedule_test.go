package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimePeriodRepository_GetByID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewTimePeriodRepository(db)

	id := createTestTimePeriod(t, ctx, db, "Night", "22:00", "06:00")

	p, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, schedule.NewTimeOfDay(22, 0, 0), p.StartTime)
	assert.Equal(t, schedule.NewTimeOfDay(6, 0, 0), p.EndTime)
	assert.True(t, p.CrossesMidnight())
	assert.Equal(t, 5, p.Rules.LateGraceMinutes)
	assert.Zero(t, p.Rules.AbsentThresholdMinutes)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, schedule.ErrTimePeriodNotFound)
}

func TestShiftRepository_PeriodsForDay(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewShiftRepository(db)

	morning := createTestTimePeriod(t, ctx, db, "Morning", "08:00", "12:00")
	afternoon := createTestTimePeriod(t, ctx, db, "Afternoon", "13:00", "17:00")

	shiftID := uuid.NewString()
	_, err := db.Exec(ctx, `INSERT INTO shifts (id, name, cycle_days) VALUES ($1, 'Split', 7)`, shiftID)
	require.NoError(t, err)
	_, err = db.Exec(ctx, `
		INSERT INTO shift_days (shift_id, day_of_cycle, time_period_id)
		VALUES ($1, 1, $2), ($1, 1, $3), ($1, 2, $2)`, shiftID, afternoon, morning)
	require.NoError(t, err)

	periods, err := repo.GetPeriodsForDay(ctx, shiftID, 1)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, morning, periods[0].ID)
	assert.Equal(t, afternoon, periods[1].ID)

	shift, err := repo.GetByID(ctx, shiftID)
	require.NoError(t, err)
	assert.Equal(t, 7, shift.CycleDays)
	assert.Len(t, shift.Days, 2)

	rest, err := repo.GetPeriodsForDay(ctx, shiftID, 6)
	require.NoError(t, err)
	assert.Empty(t, rest)
}

func TestLeaveRequestRepository_ListApprovedOverlap(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewLeaveRequestRepository(db)

	employeeID := createTestEmployee(t, ctx, db, "active")
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	insert := func(status string, start, end time.Time) string {
		id := uuid.NewString()
		_, err := db.Exec(ctx, `
			INSERT INTO leave_requests (id, employee_id, leave_type, start_time, end_time, status)
			VALUES ($1, $2, 'annual', $3, $4, $5)`, id, employeeID, start, end, status)
		require.NoError(t, err)
		return id
	}

	overlapping := insert("approved", day.Add(10*time.Hour), day.Add(14*time.Hour))
	insert("approved", day.Add(-24*time.Hour), day) // ends exactly at window start
	insert("waiting_approval", day.Add(9*time.Hour), day.Add(17*time.Hour))

	leaves, err := repo.ListApproved(ctx, employeeID, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	assert.Equal(t, overlapping, leaves[0].ID)

	require.NoError(t, repo.Cancel(ctx, overlapping, nil, nil))
	got, err := repo.GetByID(ctx, overlapping)
	require.NoError(t, err)
	assert.Equal(t, leave.RequestStatusCancelled, got.Status)

	require.NoError(t, repo.Delete(ctx, overlapping))
	_, err = repo.GetByID(ctx, overlapping)
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, overlapping), leave.ErrLeaveRequestNotFound)
}
