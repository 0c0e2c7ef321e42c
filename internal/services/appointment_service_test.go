package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-portal-server/internal/apperrors"
	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/policy"
)

func TestCreateAppointment_ClaimsSchedule(t *testing.T) {
	f := newFixture(t)
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")

	appt, err := f.book(f.patient, schedule, "09:00")
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, appt.Status)
	assert.Equal(t, "Pat Doe", appt.PatientName)
	assert.Equal(t, "Gregory House", appt.DoctorName)
	assert.False(t, f.scheduleAvailable(t, schedule.ID))
}

func TestCreateAppointment_AlreadyBooked(t *testing.T) {
	f := newFixture(t)
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
	_, err := f.book(f.patient, schedule, "09:00")
	require.NoError(t, err)

	_, err = f.book(f.patient2, schedule, "09:30")
	requireKind(t, err, apperrors.KindAlreadyBooked)
}

func TestCreateAppointment_ActiveAppointmentBlocksEvenWhenFlagIsSet(t *testing.T) {
	f := newFixture(t)
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
	_, err := f.book(f.patient, schedule, "09:00")
	require.NoError(t, err)

	require.NoError(t, f.store.ReleaseSchedule(f.ctx, schedule.ID))

	_, err = f.book(f.patient2, schedule, "09:30")
	requireKind(t, err, apperrors.KindAlreadyBooked)
}

func TestCreateAppointment_Validation(t *testing.T) {
	f := newFixture(t)
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")

	valid := AppointmentInput{
		PatientID:  f.patient.UserID,
		DoctorID:   f.doctor.UserID,
		ScheduleID: schedule.ID,
		Date:       "2024-06-01",
		Time:       "09:00",
	}

	tests := []struct {
		name   string
		id     policy.Identity
		mutate func(in *AppointmentInput)
		kind   apperrors.Kind
	}{
		{"time at window end", f.patient, func(in *AppointmentInput) { in.Time = "10:00" }, apperrors.KindInvalidInput},
		{"time before window", f.patient, func(in *AppointmentInput) { in.Time = "08:59" }, apperrors.KindInvalidInput},
		{"date mismatch", f.patient, func(in *AppointmentInput) { in.Date = "2024-06-02" }, apperrors.KindInvalidInput},
		{"wrong doctor", f.patient, func(in *AppointmentInput) { in.DoctorID = f.doctor2.UserID }, apperrors.KindInvalidInput},
		{"completed at creation", f.patient, func(in *AppointmentInput) { in.Status = models.StatusCompleted }, apperrors.KindInvalidInput},
		{"unknown status", f.patient, func(in *AppointmentInput) { in.Status = "LATE" }, apperrors.KindInvalidInput},
		{"unknown schedule", f.patient, func(in *AppointmentInput) { in.ScheduleID = "missing" }, apperrors.KindNotFound},
		{"doctor as patient", f.admin, func(in *AppointmentInput) { in.PatientID = f.doctor2.UserID }, apperrors.KindNotFound},
		{"booking for someone else", f.patient2, func(in *AppointmentInput) {}, apperrors.KindForbidden},
		{"doctor booking", f.doctor, func(in *AppointmentInput) {}, apperrors.KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := f.appointments.CreateAppointment(f.ctx, tt.id, in)
			requireKind(t, err, tt.kind)
			assert.True(t, f.scheduleAvailable(t, schedule.ID), "failed booking must not claim the schedule")
		})
	}
}

func TestCreateAppointment_ConfirmedByAdmin(t *testing.T) {
	f := newFixture(t)
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")

	appt, err := f.appointments.CreateAppointment(f.ctx, f.admin, AppointmentInput{
		PatientID:  f.patient.UserID,
		DoctorID:   f.doctor.UserID,
		ScheduleID: schedule.ID,
		Date:       "2024-06-01",
		Time:       "09:15:00",
		Status:     models.StatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, appt.Status)
	assert.Equal(t, "09:15", appt.AppointmentTime)
}

func TestCreateAppointment_ConcurrentBookingsClaimOnce(t *testing.T) {
	f := newFixture(t)
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")

	patients := make([]policy.Identity, 8)
	for i := range patients {
		patients[i] = f.seedUser(t, models.RolePatient, "p"+string(rune('a'+i))+"@example.com", "P", string(rune('A'+i)))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		booked  int
		refused int
	)
	for _, p := range patients {
		wg.Add(1)
		go func(p policy.Identity) {
			defer wg.Done()
			_, err := f.book(p, schedule, "09:00")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				booked++
			} else if apperrors.KindOf(err) == apperrors.KindAlreadyBooked {
				refused++
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, 1, booked)
	assert.Equal(t, len(patients)-1, refused)
}

func TestCancelAppointment_ReleasesSchedule(t *testing.T) {
	f := newFixture(t)
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
	appt, err := f.book(f.patient, schedule, "09:00")
	require.NoError(t, err)

	cancelled, err := f.appointments.CancelAppointment(f.ctx, f.patient, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.True(t, f.scheduleAvailable(t, schedule.ID))

	view, err := f.schedules.GetSchedule(f.ctx, f.patient, schedule.ID)
	require.NoError(t, err)
	assert.Empty(t, view.BookedTimes)
}

func TestCancelAppointment_RepeatDoesNotReleaseAgain(t *testing.T) {
	f := newFixture(t)
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
	first, err := f.book(f.patient, schedule, "09:00")
	require.NoError(t, err)
	_, err = f.appointments.CancelAppointment(f.ctx, f.patient, first.ID)
	require.NoError(t, err)

	_, err = f.book(f.patient2, schedule, "09:30")
	require.NoError(t, err)

	_, err = f.appointments.CancelAppointment(f.ctx, f.patient, first.ID)
	require.NoError(t, err)
	assert.False(t, f.scheduleAvailable(t, schedule.ID))
}

func TestCancelAppointment_Authorization(t *testing.T) {
	f := newFixture(t)
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
	appt, err := f.book(f.patient, schedule, "09:00")
	require.NoError(t, err)

	_, err = f.appointments.CancelAppointment(f.ctx, f.patient2, appt.ID)
	requireKind(t, err, apperrors.KindForbidden)
	_, err = f.appointments.CancelAppointment(f.ctx, f.doctor2, appt.ID)
	requireKind(t, err, apperrors.KindForbidden)

	_, err = f.appointments.CancelAppointment(f.ctx, f.doctor, appt.ID)
	require.NoError(t, err)

	_, err = f.appointments.CancelAppointment(f.ctx, f.admin, "missing")
	requireKind(t, err, apperrors.KindNotFound)
}

func TestAppointmentStatusMachine(t *testing.T) {
	tests := []struct {
		name  string
		path  []models.AppointmentStatus
		final models.AppointmentStatus
		ok    bool
	}{
		{"pending to confirmed", nil, models.StatusConfirmed, true},
		{"pending to cancelled", nil, models.StatusCancelled, true},
		{"pending to completed", nil, models.StatusCompleted, false},
		{"confirmed to completed", []models.AppointmentStatus{models.StatusConfirmed}, models.StatusCompleted, true},
		{"confirmed to pending", []models.AppointmentStatus{models.StatusConfirmed}, models.StatusPending, false},
		{"completed to cancelled", []models.AppointmentStatus{models.StatusConfirmed, models.StatusCompleted}, models.StatusCancelled, false},
		{"cancelled to confirmed", []models.AppointmentStatus{models.StatusCancelled}, models.StatusConfirmed, false},
		{"same status", []models.AppointmentStatus{models.StatusConfirmed}, models.StatusConfirmed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
			appt, err := f.book(f.patient, schedule, "09:00")
			require.NoError(t, err)

			for _, status := range tt.path {
				_, err := f.appointments.UpdateAppointmentStatus(f.ctx, f.doctor, appt.ID, status)
				require.NoError(t, err)
			}

			updated, err := f.appointments.UpdateAppointmentStatus(f.ctx, f.doctor, appt.ID, tt.final)
			if !tt.ok {
				requireKind(t, err, apperrors.KindInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.final, updated.Status)
		})
	}
}

func TestUpdateAppointmentStatus_CancelReleasesSchedule(t *testing.T) {
	f := newFixture(t)
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
	appt, err := f.book(f.patient, schedule, "09:00")
	require.NoError(t, err)

	_, err = f.appointments.UpdateAppointmentStatus(f.ctx, f.doctor, appt.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.True(t, f.scheduleAvailable(t, schedule.ID))

	_, err = f.appointments.UpdateAppointmentStatus(f.ctx, f.patient, appt.ID, models.StatusConfirmed)
	requireKind(t, err, apperrors.KindForbidden)

	_, err = f.appointments.UpdateAppointmentStatus(f.ctx, f.doctor, appt.ID, "DONE")
	requireKind(t, err, apperrors.KindInvalidInput)
}

func TestCompleteAppointment(t *testing.T) {
	f := newFixture(t)
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
	appt, err := f.book(f.patient, schedule, "09:00")
	require.NoError(t, err)

	_, err = f.appointments.CompleteAppointment(f.ctx, f.doctor, appt.ID)
	requireKind(t, err, apperrors.KindInvalidInput)

	_, err = f.appointments.UpdateAppointmentStatus(f.ctx, f.doctor, appt.ID, models.StatusConfirmed)
	require.NoError(t, err)
	completed, err := f.appointments.CompleteAppointment(f.ctx, f.doctor, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
	assert.False(t, f.scheduleAvailable(t, schedule.ID))
}

func TestDeleteAppointment(t *testing.T) {
	f := newFixture(t)
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
	appt, err := f.book(f.patient, schedule, "09:00")
	require.NoError(t, err)

	requireKind(t, f.appointments.DeleteAppointment(f.ctx, f.patient, appt.ID), apperrors.KindForbidden)

	require.NoError(t, f.appointments.DeleteAppointment(f.ctx, f.admin, appt.ID))
	assert.True(t, f.scheduleAvailable(t, schedule.ID))

	_, err = f.appointments.GetAppointment(f.ctx, f.admin, appt.ID)
	requireKind(t, err, apperrors.KindNotFound)
}

func TestDeleteAppointment_CancelledDoesNotReleaseNewBooking(t *testing.T) {
	f := newFixture(t)
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
	first, err := f.book(f.patient, schedule, "09:00")
	require.NoError(t, err)
	_, err = f.appointments.CancelAppointment(f.ctx, f.patient, first.ID)
	require.NoError(t, err)
	_, err = f.book(f.patient2, schedule, "09:00")
	require.NoError(t, err)

	require.NoError(t, f.appointments.DeleteAppointment(f.ctx, f.admin, first.ID))
	assert.False(t, f.scheduleAvailable(t, schedule.ID))
}

func TestRescheduleAppointment(t *testing.T) {
	f := newFixture(t)
	morning := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
	afternoon := f.createSchedule(t, f.doctor2, "2024-06-01", "14:00", "15:00")
	taken := f.createSchedule(t, f.doctor, "2024-06-02", "09:00", "10:00")
	appt, err := f.book(f.patient, morning, "09:00")
	require.NoError(t, err)
	_, err = f.book(f.patient2, taken, "09:00")
	require.NoError(t, err)

	_, err = f.appointments.RescheduleAppointment(f.ctx, f.patient, appt.ID, RescheduleInput{
		ScheduleID: taken.ID, Date: "2024-06-02", Time: "09:30",
	})
	requireKind(t, err, apperrors.KindAlreadyBooked)
	assert.False(t, f.scheduleAvailable(t, morning.ID))

	moved, err := f.appointments.RescheduleAppointment(f.ctx, f.patient, appt.ID, RescheduleInput{
		ScheduleID: afternoon.ID, Date: "2024-06-01", Time: "14:30",
	})
	require.NoError(t, err)
	assert.Equal(t, afternoon.ID, moved.ScheduleID)
	assert.Equal(t, f.doctor2.UserID, moved.DoctorID)
	assert.Equal(t, "14:30", moved.AppointmentTime)
	assert.True(t, f.scheduleAvailable(t, morning.ID))
	assert.False(t, f.scheduleAvailable(t, afternoon.ID))

	sameWindow, err := f.appointments.RescheduleAppointment(f.ctx, f.patient, appt.ID, RescheduleInput{
		Date: "2024-06-01", Time: "14:45",
	})
	require.NoError(t, err)
	assert.Equal(t, "14:45", sameWindow.AppointmentTime)

	_, err = f.appointments.CancelAppointment(f.ctx, f.patient, appt.ID)
	require.NoError(t, err)
	_, err = f.appointments.RescheduleAppointment(f.ctx, f.patient, appt.ID, RescheduleInput{
		ScheduleID: morning.ID, Date: "2024-06-01", Time: "09:00",
	})
	requireKind(t, err, apperrors.KindInvalidInput)
}

func TestIsOwnAppointment(t *testing.T) {
	f := newFixture(t)
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
	appt, err := f.book(f.patient, schedule, "09:00")
	require.NoError(t, err)

	tests := []struct {
		name  string
		id    policy.Identity
		appt  string
		owned bool
	}{
		{"admin", f.admin, appt.ID, true},
		{"booking patient", f.patient, appt.ID, true},
		{"other patient", f.patient2, appt.ID, false},
		{"treating doctor", f.doctor, appt.ID, true},
		{"other doctor", f.doctor2, appt.ID, false},
		{"unknown appointment", f.patient, "missing", false},
		{"unknown user", policy.Identity{UserID: "ghost", Role: models.RolePatient}, appt.ID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.owned, f.appointments.IsOwnAppointment(f.ctx, tt.appt, tt.id))
		})
	}
}

func TestAppointmentListings(t *testing.T) {
	f := newFixture(t)
	s1 := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
	s2 := f.createSchedule(t, f.doctor2, "2024-06-01", "09:00", "10:00")
	s3 := f.createSchedule(t, f.doctor, "2024-06-02", "09:00", "10:00")
	a1, err := f.book(f.patient, s1, "09:00")
	require.NoError(t, err)
	_, err = f.book(f.patient2, s2, "09:00")
	require.NoError(t, err)
	_, err = f.book(f.patient, s3, "09:00")
	require.NoError(t, err)
	_, err = f.appointments.CancelAppointment(f.ctx, f.patient, a1.ID)
	require.NoError(t, err)

	all, err := f.appointments.ListAppointments(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	_, err = f.appointments.ListAppointments(f.ctx, f.doctor)
	requireKind(t, err, apperrors.KindForbidden)

	mine, err := f.appointments.ListMine(f.ctx, f.patient)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	doctorMine, err := f.appointments.ListMine(f.ctx, f.doctor)
	require.NoError(t, err)
	assert.Len(t, doctorMine, 2)

	byDate, err := f.appointments.ListByDate(f.ctx, f.doctor, "2024-06-01")
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, f.doctor.UserID, byDate[0].DoctorID)

	adminByDate, err := f.appointments.ListByDate(f.ctx, f.admin, "2024-06-01")
	require.NoError(t, err)
	assert.Len(t, adminByDate, 2)

	cancelled, err := f.appointments.ListByStatus(f.ctx, f.admin, models.StatusCancelled)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, a1.ID, cancelled[0].ID)

	_, err = f.appointments.ListByPatient(f.ctx, f.patient2, f.patient.UserID)
	requireKind(t, err, apperrors.KindForbidden)
	byPatient, err := f.appointments.ListByPatient(f.ctx, f.doctor2, f.patient.UserID)
	require.NoError(t, err)
	assert.Len(t, byPatient, 2)

	byDoctor, err := f.appointments.ListByDoctor(f.ctx, f.doctor2, f.doctor2.UserID)
	require.NoError(t, err)
	assert.Len(t, byDoctor, 1)
}

func TestBookingScenario_CancelFreesScheduleForNextPatient(t *testing.T) {
	f := newFixture(t)

	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
	appt, err := f.book(f.patient, schedule, "09:00")
	require.NoError(t, err)
	assert.False(t, f.scheduleAvailable(t, schedule.ID))

	_, err = f.appointments.CancelAppointment(f.ctx, f.patient, appt.ID)
	require.NoError(t, err)
	assert.True(t, f.scheduleAvailable(t, schedule.ID))

	second, err := f.book(f.patient2, schedule, "09:00")
	require.NoError(t, err)
	assert.Equal(t, f.patient2.UserID, second.PatientID)
	assert.False(t, f.scheduleAvailable(t, schedule.ID))
}
