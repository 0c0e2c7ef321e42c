package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"healthcare-portal-server/internal/apperrors"
	"healthcare-portal-server/internal/config"
	"healthcare-portal-server/internal/logger"
	"healthcare-portal-server/internal/mailer"
	"healthcare-portal-server/internal/metrics"
	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/policy"
	"healthcare-portal-server/internal/storetest"
	"healthcare-portal-server/internal/utils"
)

// testClock is a settable clock shared by the store and the services.
type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time           { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	ctx     context.Context
	store   *storetest.Store
	clock   *testClock
	mail    *mailer.Recorder
	metrics *metrics.Collector

	schedules    *ScheduleService
	appointments *AppointmentService
	otps         *OtpService
	auth         *AuthService
	users        *UserService
	departments  *DepartmentService
	records      *MedicalRecordService
	feedback     *FeedbackService

	admin    policy.Identity
	doctor   policy.Identity
	doctor2  policy.Identity
	patient  policy.Identity
	patient2 policy.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:     context.Background(),
		store:   storetest.New(),
		clock:   &testClock{t: time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local)},
		mail:    mailer.NewRecorder(),
		metrics: metrics.NewCollector(),
	}
	f.store.SetClock(f.clock.Now)
	log := logger.Discard()

	f.schedules = NewScheduleService(f.store, f.store, f.store, f.store, log, f.metrics)
	f.appointments = NewAppointmentService(f.store, f.store, f.store, f.store, f.store, log, f.metrics)
	f.otps = NewOtpService(f.store, f.store, f.store, f.mail, config.OtpConfig{
		Length:             6,
		Expiry:             10 * time.Minute,
		MaxRequestsPerHour: 3,
		MaxAttempts:        3,
	}, "Healthcare Portal", log, f.metrics,
		WithClock(f.clock.Now),
		WithDispatcher(func(fn func()) { fn() }),
	)
	f.auth = NewAuthService(f.store, f.store, f.store, f.store, f.otps, utils.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	}, log)
	f.users = NewUserService(f.store, f.store, f.store, log)
	f.departments = NewDepartmentService(f.store, f.store, log)
	f.records = NewMedicalRecordService(f.store, f.store, f.store, f.store, log)
	f.records.now = f.clock.Now
	f.feedback = NewFeedbackService(f.store, f.store, log)
	f.feedback.now = f.clock.Now

	f.admin = f.seedUser(t, models.RoleAdmin, "admin@example.com", "Ada", "Admin")
	f.doctor = f.seedUser(t, models.RoleDoctor, "house@example.com", "Gregory", "House")
	f.doctor2 = f.seedUser(t, models.RoleDoctor, "wilson@example.com", "James", "Wilson")
	f.patient = f.seedUser(t, models.RolePatient, "pat@example.com", "Pat", "Doe")
	f.patient2 = f.seedUser(t, models.RolePatient, "sam@example.com", "Sam", "Roe")
	return f
}

func (f *fixture) seedUser(t *testing.T, role models.Role, email, first, last string) policy.Identity {
	t.Helper()
	user := models.User{Email: email, FirstName: first, LastName: last, Role: role, IsVerified: true}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, f.store.CreateUser(f.ctx, &user))
	return policy.Identity{UserID: user.ID, Role: role}
}

func (f *fixture) createSchedule(t *testing.T, doctor policy.Identity, date, start, end string) *ScheduleView {
	t.Helper()
	schedule, err := f.schedules.CreateSchedule(f.ctx, doctor, ScheduleInput{
		DoctorID:  doctor.UserID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
	})
	require.NoError(t, err)
	return schedule
}

func (f *fixture) book(patient policy.Identity, schedule *ScheduleView, clock string) (*AppointmentView, error) {
	return f.appointments.CreateAppointment(f.ctx, patient, AppointmentInput{
		PatientID:  patient.UserID,
		DoctorID:   schedule.DoctorID,
		ScheduleID: schedule.ID,
		Date:       schedule.Date,
		Time:       clock,
		Reason:     "Checkup",
	})
}

func (f *fixture) scheduleAvailable(t *testing.T, id string) bool {
	t.Helper()
	schedule, err := f.store.GetSchedule(f.ctx, id)
	require.NoError(t, err)
	return schedule.IsAvailable
}

func requireKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperrors.KindOf(err), "unexpected error: %v", err)
}
