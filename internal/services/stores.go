package services

import (
	"context"
	"time"

	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/repository"
)

// Transactor runs fn atomically. Store calls made with the ctx passed to fn
// join the transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserStore persists users. Lookups return repository.ErrNotFound when absent.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

// RefreshTokenStore persists issued refresh tokens.
type RefreshTokenStore interface {
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindActiveRefreshToken(ctx context.Context, token, userID string, now time.Time) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string, now time.Time) (bool, error)
	RevokeUserTokens(ctx context.Context, userID string) error
}

// DepartmentStore persists departments.
type DepartmentStore interface {
	CreateDepartment(ctx context.Context, dept *models.Department) error
	GetDepartment(ctx context.Context, id string) (*models.Department, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
	DepartmentNameTaken(ctx context.Context, name, excludeID string) (bool, error)
	UpdateDepartment(ctx context.Context, dept *models.Department) error
	DeleteDepartment(ctx context.Context, id string) error
}

// ScheduleStore persists doctor schedules. ClaimSchedule must be a single
// conditional write so concurrent claims cannot both succeed.
type ScheduleStore interface {
	CreateSchedule(ctx context.Context, schedule *models.DoctorSchedule) error
	GetSchedule(ctx context.Context, id string) (*models.DoctorSchedule, error)
	ListSchedules(ctx context.Context, filter repository.ScheduleFilter) ([]models.DoctorSchedule, error)
	UpdateScheduleWindow(ctx context.Context, schedule *models.DoctorSchedule) error
	DeleteSchedule(ctx context.Context, id string) error
	ClaimSchedule(ctx context.Context, id string) (bool, error)
	ReleaseSchedule(ctx context.Context, id string) error
}

// AppointmentStore persists appointments.
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	ListAppointments(ctx context.Context, filter repository.AppointmentFilter) ([]models.Appointment, error)
	UpdateAppointment(ctx context.Context, appt *models.Appointment) error
	DeleteAppointment(ctx context.Context, id string) error
	HasActiveAppointment(ctx context.Context, scheduleID, excludeID string) (bool, error)
	BookedTimes(ctx context.Context, scheduleIDs []string) (map[string][]string, error)
}

// MedicalRecordStore persists medical records.
type MedicalRecordStore interface {
	CreateMedicalRecord(ctx context.Context, record *models.MedicalRecord) error
	GetMedicalRecord(ctx context.Context, id string) (*models.MedicalRecord, error)
	ListMedicalRecords(ctx context.Context, filter repository.MedicalRecordFilter) ([]models.MedicalRecord, error)
	RecordExistsForAppointment(ctx context.Context, appointmentID string) (bool, error)
	UpdateMedicalRecord(ctx context.Context, record *models.MedicalRecord) error
	DeleteMedicalRecord(ctx context.Context, id string) error
}

// FeedbackStore persists feedback.
type FeedbackStore interface {
	CreateFeedback(ctx context.Context, feedback *models.Feedback) error
	GetFeedback(ctx context.Context, id string) (*models.Feedback, error)
	ListFeedback(ctx context.Context, filter repository.FeedbackFilter) ([]models.Feedback, error)
	UpdateFeedback(ctx context.Context, feedback *models.Feedback) error
	DeleteFeedback(ctx context.Context, id string) error
}

// OtpStore persists one-time codes. InvalidateOtps hides codes from
// LatestActiveOtp but CountOtpsSince keeps counting them.
type OtpStore interface {
	CreateOtp(ctx context.Context, otp *models.Otp) error
	InvalidateOtps(ctx context.Context, email string, otpType models.OtpType) error
	CountOtpsSince(ctx context.Context, email string, otpType models.OtpType, since time.Time) (int64, error)
	LatestActiveOtp(ctx context.Context, email string, otpType models.OtpType, now time.Time) (*models.Otp, error)
	MarkOtpUsed(ctx context.Context, id string) (bool, error)
	IncrementOtpAttempts(ctx context.Context, id string) error
	HasUsedOtp(ctx context.Context, email string, otpType models.OtpType) (bool, error)
	PurgeOtps(ctx context.Context, cutoff time.Time) (int64, error)
}
