package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"healthcare-portal-server/internal/apperrors"
	"healthcare-portal-server/internal/models"
)

// confirmedVisit books patient with doctor at 09:00 on the fixture's first
// day and confirms it.
func (f *fixture) confirmedVisit(t *testing.T) *AppointmentView {
	t.Helper()
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
	appt, err := f.book(f.patient, schedule, "09:00")
	require.NoError(t, err)
	appt, err = f.appointments.UpdateAppointmentStatus(f.ctx, f.doctor, appt.ID, models.StatusConfirmed)
	require.NoError(t, err)
	return appt
}

func (f *fixture) recordInput(appt *AppointmentView) MedicalRecordInput {
	return MedicalRecordInput{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		Diagnosis:     "Seasonal allergy",
		Prescription:  "Cetirizine 10mg",
		Attachments:   datatypes.JSON(`["scan.png"]`),
	}
}

func TestCreateMedicalRecord_CompletesAppointment(t *testing.T) {
	f := newFixture(t)
	appt := f.confirmedVisit(t)
	f.clock.Advance(90 * time.Minute)

	record, err := f.records.CreateMedicalRecord(f.ctx, f.doctor, f.recordInput(appt))
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", record.RecordDate)
	assert.Equal(t, "Gregory House", record.DoctorName)
	assert.Equal(t, "Pat Doe", record.PatientName)

	completed, err := f.appointments.GetAppointment(f.ctx, f.patient, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)

	_, err = f.records.CreateMedicalRecord(f.ctx, f.doctor, f.recordInput(appt))
	requireKind(t, err, apperrors.KindInvalidInput)
}

func TestCreateMedicalRecord_BeforeAppointmentStarts(t *testing.T) {
	f := newFixture(t)
	appt := f.confirmedVisit(t)

	_, err := f.records.CreateMedicalRecord(f.ctx, f.doctor, f.recordInput(appt))
	requireKind(t, err, apperrors.KindInvalidInput)

	f.clock.Advance(time.Hour)
	_, err = f.records.CreateMedicalRecord(f.ctx, f.doctor, f.recordInput(appt))
	require.NoError(t, err)
}

func TestCreateMedicalRecord_Validation(t *testing.T) {
	f := newFixture(t)
	appt := f.confirmedVisit(t)
	pending := f.createSchedule(t, f.doctor, "2024-06-01", "10:00", "11:00")
	pendingAppt, err := f.book(f.patient2, pending, "10:00")
	require.NoError(t, err)
	f.clock.Advance(4 * time.Hour)

	tests := []struct {
		name   string
		mutate func(in *MedicalRecordInput)
		kind   apperrors.Kind
	}{
		{"record date mismatch", func(in *MedicalRecordInput) { in.RecordDate = "2024-06-02" }, apperrors.KindInvalidInput},
		{"bad record date", func(in *MedicalRecordInput) { in.RecordDate = "June 1" }, apperrors.KindInvalidInput},
		{"wrong patient", func(in *MedicalRecordInput) { in.PatientID = f.patient2.UserID }, apperrors.KindInvalidInput},
		{"pending appointment", func(in *MedicalRecordInput) {
			in.AppointmentID = pendingAppt.ID
			in.PatientID = f.patient2.UserID
		}, apperrors.KindInvalidInput},
		{"unknown appointment", func(in *MedicalRecordInput) { in.AppointmentID = "missing" }, apperrors.KindNotFound},
		{"unknown patient", func(in *MedicalRecordInput) { in.PatientID = "missing" }, apperrors.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.recordInput(appt)
			tt.mutate(&in)
			_, err := f.records.CreateMedicalRecord(f.ctx, f.doctor, in)
			requireKind(t, err, tt.kind)
		})
	}

	in := f.recordInput(appt)
	in.DoctorID = f.doctor2.UserID
	_, err = f.records.CreateMedicalRecord(f.ctx, f.doctor2, in)
	requireKind(t, err, apperrors.KindInvalidInput)

	_, err = f.records.CreateMedicalRecord(f.ctx, f.doctor2, f.recordInput(appt))
	requireKind(t, err, apperrors.KindForbidden)
	_, err = f.records.CreateMedicalRecord(f.ctx, f.patient, f.recordInput(appt))
	requireKind(t, err, apperrors.KindForbidden)

	current, err := f.appointments.GetAppointment(f.ctx, f.admin, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, current.Status)
}

func TestCreateMedicalRecord_OnePerAppointment(t *testing.T) {
	f := newFixture(t)
	appt := f.confirmedVisit(t)
	f.clock.Advance(2 * time.Hour)

	require.NoError(t, f.store.CreateMedicalRecord(f.ctx, &models.MedicalRecord{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		RecordDate:    appt.AppointmentDate,
		Diagnosis:     "Imported",
	}))

	_, err := f.records.CreateMedicalRecord(f.ctx, f.doctor, f.recordInput(appt))
	requireKind(t, err, apperrors.KindAlreadyExists)
}

func TestMedicalRecordAccess(t *testing.T) {
	f := newFixture(t)
	appt := f.confirmedVisit(t)
	f.clock.Advance(2 * time.Hour)
	record, err := f.records.CreateMedicalRecord(f.ctx, f.doctor, f.recordInput(appt))
	require.NoError(t, err)

	_, err = f.records.GetMedicalRecord(f.ctx, f.patient, record.ID)
	require.NoError(t, err)
	_, err = f.records.GetMedicalRecord(f.ctx, f.patient2, record.ID)
	requireKind(t, err, apperrors.KindForbidden)
	_, err = f.records.GetMedicalRecord(f.ctx, f.doctor2, record.ID)
	requireKind(t, err, apperrors.KindForbidden)

	notes := "Follow up in two weeks"
	updated, err := f.records.UpdateMedicalRecord(f.ctx, f.doctor, record.ID, MedicalRecordUpdate{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	assert.Equal(t, "Seasonal allergy", updated.Diagnosis)

	_, err = f.records.UpdateMedicalRecord(f.ctx, f.patient, record.ID, MedicalRecordUpdate{Notes: &notes})
	requireKind(t, err, apperrors.KindForbidden)

	mine, err := f.records.ListMine(f.ctx, f.patient)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	none, err := f.records.ListMine(f.ctx, f.patient2)
	require.NoError(t, err)
	assert.Empty(t, none)

	byPatient, err := f.records.ListByPatient(f.ctx, f.doctor2, f.patient.UserID)
	require.NoError(t, err)
	assert.Len(t, byPatient, 1)
	_, err = f.records.ListByDoctor(f.ctx, f.doctor2, f.doctor.UserID)
	requireKind(t, err, apperrors.KindForbidden)
	_, err = f.records.ListMedicalRecords(f.ctx, f.doctor)
	requireKind(t, err, apperrors.KindForbidden)

	requireKind(t, f.records.DeleteMedicalRecord(f.ctx, f.doctor2, record.ID), apperrors.KindForbidden)
	require.NoError(t, f.records.DeleteMedicalRecord(f.ctx, f.doctor, record.ID))

	all, err := f.records.ListMedicalRecords(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Empty(t, all)

	current, err := f.appointments.GetAppointment(f.ctx, f.admin, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, current.Status)
}

func TestDeleteAppointment_DocumentedVisitIsKept(t *testing.T) {
	f := newFixture(t)
	appt := f.confirmedVisit(t)
	f.clock.Advance(90 * time.Minute)
	record, err := f.records.CreateMedicalRecord(f.ctx, f.doctor, f.recordInput(appt))
	require.NoError(t, err)

	requireKind(t, f.appointments.DeleteAppointment(f.ctx, f.admin, appt.ID), apperrors.KindInvalidInput)

	_, err = f.appointments.GetAppointment(f.ctx, f.admin, appt.ID)
	require.NoError(t, err)
	_, err = f.records.GetMedicalRecord(f.ctx, f.patient, record.ID)
	require.NoError(t, err)
}

func TestDeleteUser_RemovesDocumentedVisits(t *testing.T) {
	f := newFixture(t)
	appt := f.confirmedVisit(t)
	f.clock.Advance(90 * time.Minute)
	record, err := f.records.CreateMedicalRecord(f.ctx, f.doctor, f.recordInput(appt))
	require.NoError(t, err)

	require.NoError(t, f.users.DeleteUser(f.ctx, f.admin, f.patient.UserID))

	_, err = f.records.GetMedicalRecord(f.ctx, f.admin, record.ID)
	requireKind(t, err, apperrors.KindNotFound)
	_, err = f.appointments.GetAppointment(f.ctx, f.admin, appt.ID)
	requireKind(t, err, apperrors.KindNotFound)
}
