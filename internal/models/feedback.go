package models

import "time"

// Feedback is a patient rating. A nil DoctorID marks general feedback
// about the clinic rather than a specific doctor.
type Feedback struct {
	BaseModel
	PatientID   string    `gorm:"size:36;not null;index" json:"patientId"`
	DoctorID    *string   `gorm:"size:36;index" json:"doctorId,omitempty"`
	Rating      int       `gorm:"not null;index" json:"rating"`
	Comments    string    `gorm:"type:text" json:"comments"`
	SubmittedAt time.Time `gorm:"not null" json:"submittedAt"`

	Patient User  `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"-"`
	Doctor  *User `gorm:"foreignKey:DoctorID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName keeps the singular table name used by the portal.
func (Feedback) TableName() string {
	return "feedback"
}

// IsGeneral reports whether the feedback targets no doctor.
func (f *Feedback) IsGeneral() bool {
	return f.DoctorID == nil || *f.DoctorID == ""
}
