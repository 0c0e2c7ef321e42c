package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"healthcare-portal-server/internal/apperrors"
	"healthcare-portal-server/internal/models"
)

var (
	adminID   = Identity{UserID: "admin-1", Role: models.RoleAdmin}
	doctorID  = Identity{UserID: "doctor-1", Role: models.RoleDoctor}
	otherDoc  = Identity{UserID: "doctor-2", Role: models.RoleDoctor}
	patientID = Identity{UserID: "patient-1", Role: models.RolePatient}
	otherPat  = Identity{UserID: "patient-2", Role: models.RolePatient}
)

func TestAuthorize(t *testing.T) {
	own := Resource{PatientID: "patient-1", DoctorID: "doctor-1"}

	tests := []struct {
		name    string
		id      Identity
		action  Action
		res     Resource
		allowed bool
	}{
		{"admin manages users", adminID, ActionManageUsers, Resource{}, true},
		{"doctor cannot manage users", doctorID, ActionManageUsers, Resource{}, false},
		{"patient lists doctors", patientID, ActionListDoctors, Resource{}, true},
		{"patient cannot list patients", patientID, ActionListPatients, Resource{}, false},

		{"doctor creates own schedule", doctorID, ActionCreateSchedule, Resource{DoctorID: "doctor-1"}, true},
		{"doctor cannot create schedule for another doctor", otherDoc, ActionCreateSchedule, Resource{DoctorID: "doctor-1"}, false},
		{"admin creates schedule for any doctor", adminID, ActionCreateSchedule, Resource{DoctorID: "doctor-1"}, true},
		{"patient cannot create schedule", patientID, ActionCreateSchedule, Resource{DoctorID: "patient-1"}, false},
		{"patient books schedule", patientID, ActionBookSchedule, Resource{}, true},
		{"doctor cannot book schedule", doctorID, ActionBookSchedule, Resource{}, false},
		{"only admin deletes any schedule", doctorID, ActionDeleteSchedule, own, false},
		{"doctor deletes via own route", doctorID, ActionDeleteMySchedule, Resource{}, true},

		{"patient books for self", patientID, ActionCreateAppointment, Resource{PatientID: "patient-1"}, true},
		{"patient cannot book for someone else", otherPat, ActionCreateAppointment, Resource{PatientID: "patient-1"}, false},
		{"owning patient views appointment", patientID, ActionViewAppointment, own, true},
		{"owning doctor views appointment", doctorID, ActionViewAppointment, own, true},
		{"other doctor cannot view appointment", otherDoc, ActionViewAppointment, own, false},
		{"owning patient cancels", patientID, ActionCancelAppointment, own, true},
		{"other patient cannot cancel", otherPat, ActionCancelAppointment, own, false},
		{"patient cannot complete", patientID, ActionCompleteAppointment, own, false},
		{"owning doctor completes", doctorID, ActionCompleteAppointment, own, true},
		{"doctor cannot delete appointment", doctorID, ActionDeleteAppointment, own, false},
		{"doctor lists any patient appointments", otherDoc, ActionListPatientAppts, own, true},
		{"patient lists own appointments", patientID, ActionListPatientAppts, Resource{PatientID: "patient-1"}, true},
		{"patient cannot list others appointments", otherPat, ActionListPatientAppts, Resource{PatientID: "patient-1"}, false},

		{"patient reads own record", patientID, ActionViewMedicalRecord, own, true},
		{"other doctor cannot update record", otherDoc, ActionUpdateMedicalRecord, own, false},
		{"authoring doctor deletes record", doctorID, ActionDeleteMedicalRecord, own, true},

		{"patient submits own feedback", patientID, ActionCreateFeedback, Resource{PatientID: "patient-1"}, true},
		{"doctor cannot submit feedback", doctorID, ActionCreateFeedback, Resource{PatientID: "doctor-1"}, false},
		{"admin deletes feedback", adminID, ActionDeleteFeedback, own, true},
		{"admin cannot update patient feedback", adminID, ActionUpdateFeedback, own, false},
		{"targeted doctor views feedback", doctorID, ActionViewFeedback, own, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.id, tt.action, tt.res)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperrors.ErrForbidden)
			}
		})
	}
}

func TestAuthorizeRejectsAnonymous(t *testing.T) {
	err := Authorize(Identity{}, ActionListDoctors, Resource{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	err = Authorize(Identity{UserID: "u", Role: "NURSE"}, ActionListDoctors, Resource{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthorizeUnknownAction(t *testing.T) {
	err := Authorize(adminID, Action("launch rockets"), Resource{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestEmptyOwnerNeverMatches(t *testing.T) {
	assert.False(t, Can(Identity{UserID: "", Role: models.RolePatient}, ActionCreateFeedback, Resource{}))
	assert.False(t, Can(patientID, ActionCreateFeedback, Resource{}))
}
