package services

import (
	"healthcare-portal-server/internal/models"
)

// ScheduleView is a schedule as returned to clients. BookedTimes lists the
// HH:MM times already taken by non-cancelled appointments.
type ScheduleView struct {
	models.DoctorSchedule
	DoctorName  string   `json:"doctorName,omitempty"`
	BookedTimes []string `json:"bookedTimes"`
}

// AppointmentView is an appointment with participant names.
type AppointmentView struct {
	models.Appointment
	PatientName string `json:"patientName,omitempty"`
	DoctorName  string `json:"doctorName,omitempty"`
}

// MedicalRecordView is a medical record with participant names.
type MedicalRecordView struct {
	models.MedicalRecord
	PatientName string `json:"patientName,omitempty"`
	DoctorName  string `json:"doctorName,omitempty"`
}

// FeedbackView is feedback with participant names.
type FeedbackView struct {
	models.Feedback
	PatientName string `json:"patientName,omitempty"`
	DoctorName  string `json:"doctorName,omitempty"`
	General     bool   `json:"general"`
}
