package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"healthcare-portal-server/internal/models"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestScheduleRepository_ClaimSchedule(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewScheduleRepository(db)

	mock.ExpectExec("UPDATE `doctor_schedules` SET `is_available`=\\?").
		WithArgs(false, sqlmock.AnyArg(), "sched-1", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := repo.ClaimSchedule(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepository_ClaimScheduleAlreadyBooked(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewScheduleRepository(db)

	mock.ExpectExec("UPDATE `doctor_schedules` SET `is_available`=\\?").
		WithArgs(false, sqlmock.AnyArg(), "sched-1", true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.ClaimSchedule(context.Background(), "sched-1")
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepository_GetScheduleNotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewScheduleRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `doctor_schedules`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetSchedule(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_BookedTimes(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAppointmentRepository(db)

	rows := sqlmock.NewRows([]string{"schedule_id", "appointment_time"}).
		AddRow("sched-1", "09:30").
		AddRow("sched-1", "09:00").
		AddRow("sched-2", "14:00")
	mock.ExpectQuery("SELECT DISTINCT `schedule_id`,`appointment_time` FROM `appointments`").
		WillReturnRows(rows)

	booked, err := repo.BookedTimes(context.Background(), []string{"sched-1", "sched-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30"}, booked["sched-1"])
	assert.Equal(t, []string{"14:00"}, booked["sched-2"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_BookedTimesEmpty(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewAppointmentRepository(db)

	booked, err := repo.BookedTimes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, booked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOtpRepository_InvalidateOtpsSoftDeletes(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewOtpRepository(db)

	mock.ExpectExec("UPDATE `otps` SET `deleted_at`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.InvalidateOtps(context.Background(), "a@x.com", models.OtpTypeSignup)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOtpRepository_CountOtpsSinceIncludesInvalidated(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewOtpRepository(db)

	// An unscoped count carries no deleted_at predicate.
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `otps` WHERE .*created_at >= \\?\\)?$").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountOtpsSince(context.Background(), "a@x.com", models.OtpTypeSignup, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOtpRepository_MarkOtpUsedIsOneShot(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewOtpRepository(db)

	mock.ExpectExec("UPDATE `otps` SET `used`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 0))

	marked, err := repo.MarkOtpUsed(context.Background(), "otp-1")
	require.NoError(t, err)
	assert.False(t, marked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_CommitsAndJoinsNestedCalls(t *testing.T) {
	db, mock := setupTestDB(t)
	tx := NewTransactor(db)
	schedules := NewScheduleRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `doctor_schedules` SET `is_available`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `doctor_schedules` SET `is_available`=\\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		if _, err := schedules.ClaimSchedule(ctx, "new"); err != nil {
			return err
		}
		return tx.WithinTx(ctx, func(ctx context.Context) error {
			return schedules.ReleaseSchedule(ctx, "old")
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db, mock := setupTestDB(t)
	tx := NewTransactor(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DeleteUserRemovesRecordsFirst(t *testing.T) {
	db, mock := setupTestDB(t)
	users := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `medical_records` WHERE").
		WithArgs("u1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM `users` WHERE").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, users.DeleteUser(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DeleteUserNotFoundRollsBack(t *testing.T) {
	db, mock := setupTestDB(t)
	users := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `medical_records` WHERE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM `users` WHERE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := users.DeleteUser(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
