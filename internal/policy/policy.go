// Package policy decides whether an authenticated caller may perform an
// action on a resource. Authorize is pure: it never touches storage, so
// callers load the resource first and describe its owners in a Resource.
package policy

import (
	"healthcare-portal-server/internal/apperrors"
	"healthcare-portal-server/internal/models"
)

// Identity is the authenticated caller, passed explicitly to every service call.
type Identity struct {
	UserID string
	Role   models.Role
}

// IsAdmin reports whether the caller is an administrator.
func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

// IsDoctor reports whether the caller is a doctor.
func (i Identity) IsDoctor() bool { return i.Role == models.RoleDoctor }

// IsPatient reports whether the caller is a patient.
func (i Identity) IsPatient() bool { return i.Role == models.RolePatient }

// Resource names the owners of the object being acted on. Empty fields mean
// "not applicable" and never match a caller.
type Resource struct {
	PatientID string
	DoctorID  string
}

// Action is an operation guarded by Authorize.
type Action string

const (
	ActionListDoctors       Action = "list doctors"
	ActionListPatients      Action = "list patients"
	ActionManageUsers       Action = "manage users"
	ActionManageProfile     Action = "manage own profile"
	ActionViewDepartments   Action = "view departments"
	ActionManageDepartments Action = "manage departments"

	ActionCreateSchedule        Action = "create schedule"
	ActionUpdateSchedule        Action = "update schedule"
	ActionViewSchedules         Action = "view schedules"
	ActionListMySchedules       Action = "list own schedules"
	ActionListDoctorSchedules   Action = "list doctor schedules"
	ActionBookSchedule          Action = "book schedule"
	ActionDeleteSchedule        Action = "delete schedule"
	ActionDeleteMySchedule      Action = "delete own schedule"
	ActionCreateAppointment     Action = "create appointment"
	ActionViewAppointment       Action = "view appointment"
	ActionListAllAppointments   Action = "list all appointments"
	ActionListPatientAppts      Action = "list patient appointments"
	ActionListDoctorAppts       Action = "list doctor appointments"
	ActionListApptsByStatus     Action = "list appointments by status"
	ActionListApptsByDate       Action = "list appointments by date"
	ActionListMyAppointments    Action = "list own appointments"
	ActionRescheduleAppointment Action = "reschedule appointment"
	ActionCancelAppointment     Action = "cancel appointment"
	ActionCompleteAppointment   Action = "complete appointment"
	ActionUpdateApptStatus      Action = "update appointment status"
	ActionDeleteAppointment     Action = "delete appointment"

	ActionCreateMedicalRecord   Action = "create medical record"
	ActionUpdateMedicalRecord   Action = "update medical record"
	ActionViewMedicalRecord     Action = "view medical record"
	ActionDeleteMedicalRecord   Action = "delete medical record"
	ActionListAllMedicalRecords Action = "list all medical records"
	ActionListPatientRecords    Action = "list patient medical records"
	ActionListDoctorRecords     Action = "list doctor medical records"
	ActionListMyMedicalRecords  Action = "list own medical records"
	ActionCreateFeedback        Action = "submit feedback"
	ActionUpdateFeedback        Action = "update feedback"
	ActionViewFeedback          Action = "view feedback"
	ActionDeleteFeedback        Action = "delete feedback"
	ActionListAllFeedback       Action = "list all feedback"
	ActionListGeneralFeedback   Action = "list general feedback"
	ActionListDoctorFeedback    Action = "list doctor feedback"
	ActionListPatientFeedback   Action = "list patient feedback"
	ActionListFeedbackByRating  Action = "list feedback by rating"
	ActionListMyFeedback        Action = "list own feedback"
)

type rule func(id Identity, res Resource) bool

func anyone(Identity, Resource) bool { return true }

func role(roles ...models.Role) rule {
	return func(id Identity, _ Resource) bool {
		for _, r := range roles {
			if id.Role == r {
				return true
			}
		}
		return false
	}
}

func patientOwner(id Identity, res Resource) bool {
	return id.IsPatient() && res.PatientID != "" && res.PatientID == id.UserID
}

func doctorOwner(id Identity, res Resource) bool {
	return id.IsDoctor() && res.DoctorID != "" && res.DoctorID == id.UserID
}

func anyOf(rules ...rule) rule {
	return func(id Identity, res Resource) bool {
		for _, r := range rules {
			if r(id, res) {
				return true
			}
		}
		return false
	}
}

var (
	admin        = role(models.RoleAdmin)
	adminDoctor  = role(models.RoleAdmin, models.RoleDoctor)
	adminOrOwner = anyOf(admin, patientOwner, doctorOwner)
)

var rules = map[Action]rule{
	ActionListDoctors:       anyone,
	ActionListPatients:      adminDoctor,
	ActionManageUsers:       admin,
	ActionManageProfile:     anyone,
	ActionViewDepartments:   anyone,
	ActionManageDepartments: admin,

	ActionCreateSchedule:      anyOf(admin, doctorOwner),
	ActionUpdateSchedule:      anyOf(admin, doctorOwner),
	ActionViewSchedules:       anyone,
	ActionListMySchedules:     role(models.RoleDoctor),
	ActionListDoctorSchedules: anyOf(admin, doctorOwner),
	ActionBookSchedule:        role(models.RolePatient),
	ActionDeleteSchedule:      admin,
	ActionDeleteMySchedule:    role(models.RoleDoctor),

	ActionCreateAppointment:     anyOf(admin, patientOwner),
	ActionViewAppointment:       adminOrOwner,
	ActionListAllAppointments:   admin,
	ActionListPatientAppts:      anyOf(adminDoctor, patientOwner),
	ActionListDoctorAppts:       anyOf(admin, doctorOwner),
	ActionListApptsByStatus:     admin,
	ActionListApptsByDate:       adminDoctor,
	ActionListMyAppointments:    anyone,
	ActionRescheduleAppointment: anyOf(admin, patientOwner),
	ActionCancelAppointment:     adminOrOwner,
	ActionCompleteAppointment:   anyOf(admin, doctorOwner),
	ActionUpdateApptStatus:      anyOf(admin, doctorOwner),
	ActionDeleteAppointment:     admin,

	ActionCreateMedicalRecord:   anyOf(admin, doctorOwner),
	ActionUpdateMedicalRecord:   anyOf(admin, doctorOwner),
	ActionViewMedicalRecord:     adminOrOwner,
	ActionDeleteMedicalRecord:   anyOf(admin, doctorOwner),
	ActionListAllMedicalRecords: admin,
	ActionListPatientRecords:    anyOf(adminDoctor, patientOwner),
	ActionListDoctorRecords:     anyOf(admin, doctorOwner),
	ActionListMyMedicalRecords:  anyone,

	ActionCreateFeedback:       patientOwner,
	ActionUpdateFeedback:       patientOwner,
	ActionViewFeedback:         adminOrOwner,
	ActionDeleteFeedback:       anyOf(admin, patientOwner),
	ActionListAllFeedback:      admin,
	ActionListGeneralFeedback:  anyone,
	ActionListDoctorFeedback:   anyOf(admin, doctorOwner),
	ActionListPatientFeedback:  anyOf(admin, patientOwner),
	ActionListFeedbackByRating: adminDoctor,
	ActionListMyFeedback:       anyone,
}

// Authorize returns nil when id may perform action on res. An anonymous or
// unknown-role caller gets Unauthorized; any other denial is Forbidden.
func Authorize(id Identity, action Action, res Resource) error {
	if id.UserID == "" || !id.Role.Valid() {
		return apperrors.Unauthorized("authentication required")
	}
	allow, ok := rules[action]
	if !ok || !allow(id, res) {
		return apperrors.Forbidden("you are not allowed to %s", action)
	}
	return nil
}

// Can is Authorize as a predicate.
func Can(id Identity, action Action, res Resource) bool {
	return Authorize(id, action, res) == nil
}
