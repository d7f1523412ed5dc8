package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyRecordRepository_CreateShell_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewDailyRecordRepository(db)

	employeeID := createTestEmployee(t, ctx, db, "active")
	periodID := createTestTimePeriod(t, ctx, db, "Office", "09:00", "17:00")
	workDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	for i := 0; i < 2; i++ {
		err := repo.CreateShell(ctx, attendance.DailyRecord{
			ID:           uuid.NewString(),
			EmployeeID:   employeeID,
			WorkDate:     workDate,
			TimePeriodID: periodID,
			Status:       attendance.StatusNormal,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		require.NoError(t, err)
	}

	records, err := repo.ListByEmployeeAndDate(ctx, employeeID, workDate)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	exists, err := repo.ExistsForEmployeeAndDate(ctx, employeeID, workDate)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsForEmployeeAndDate(ctx, employeeID, workDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDailyRecordRepository_ListOrdersByPeriodStart(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewDailyRecordRepository(db)

	employeeID := createTestEmployee(t, ctx, db, "active")
	afternoon := createTestTimePeriod(t, ctx, db, "Afternoon", "13:00", "17:00")
	morning := createTestTimePeriod(t, ctx, db, "Morning", "08:00", "12:00")
	workDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	for _, periodID := range []string{afternoon, morning} {
		require.NoError(t, repo.CreateShell(ctx, attendance.DailyRecord{
			ID: uuid.NewString(), EmployeeID: employeeID, WorkDate: workDate,
			TimePeriodID: periodID, Status: attendance.StatusNormal, CreatedAt: now, UpdatedAt: now,
		}))
	}

	records, err := repo.ListByEmployeeAndDate(ctx, employeeID, workDate)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, morning, records[0].TimePeriodID)
	assert.Equal(t, afternoon, records[1].TimePeriodID)
}

func TestDailyRecordRepository_SaveResult(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewDailyRecordRepository(db)

	employeeID := createTestEmployee(t, ctx, db, "active")
	periodID := createTestTimePeriod(t, ctx, db, "Office", "09:00", "17:00")
	workDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC().Truncate(time.Second)

	record := attendance.DailyRecord{
		ID: uuid.NewString(), EmployeeID: employeeID, WorkDate: workDate,
		TimePeriodID: periodID, Status: attendance.StatusNormal, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.CreateShell(ctx, record))

	in := time.Date(2025, 3, 10, 9, 20, 0, 0, time.UTC)
	record.Apply(attendance.CalculationResult{
		CheckIn:          &in,
		Status:           attendance.StatusLate,
		LateMinutes:      20,
		ActualMinutes:    400,
		EffectiveMinutes: 400,
	}, now)
	require.NoError(t, repo.SaveResult(ctx, record))

	got, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, got.Status)
	assert.Equal(t, 20, got.LateMinutes)
	require.NotNil(t, got.CheckIn)
	assert.True(t, in.Equal(*got.CheckIn))
	assert.Nil(t, got.CheckOut)
	require.NotNil(t, got.CalculatedAt)
}

func TestDailyRecordRepository_NotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := postgresql.NewDailyRecordRepository(db)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, attendance.ErrDailyRecordNotFound)

	err = repo.SaveResult(ctx, attendance.DailyRecord{ID: uuid.NewString(), Status: attendance.StatusNormal})
	assert.ErrorIs(t, err, attendance.ErrDailyRecordNotFound)
}
