package models

import (
	"gorm.io/datatypes"
)

// MedicalRecord holds clinical notes for exactly one appointment.
// Attachments is an opaque JSON document (typically a list of file references).
type MedicalRecord struct {
	BaseModel
	PatientID     string         `gorm:"size:36;not null;index" json:"patientId"`
	DoctorID      string         `gorm:"size:36;not null;index" json:"doctorId"`
	AppointmentID string         `gorm:"size:36;not null;uniqueIndex" json:"appointmentId"`
	RecordDate    string         `gorm:"size:10;not null;index" json:"recordDate"`
	Diagnosis     string         `gorm:"type:text" json:"diagnosis"`
	Prescription  string         `gorm:"type:text" json:"prescription"`
	Notes         string         `gorm:"type:text" json:"notes"`
	Attachments   datatypes.JSON `json:"attachments,omitempty"`

	Patient     User        `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"-"`
	Doctor      User        `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"-"`
	Appointment Appointment `gorm:"foreignKey:AppointmentID;constraint:OnDelete:RESTRICT" json:"-"`
}
