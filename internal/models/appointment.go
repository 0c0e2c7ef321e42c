package models

// AppointmentStatus enum
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// Valid reports whether s is one of the four known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether an appointment may move from one status to another.
func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Appointment represents a patient booking against a doctor schedule.
// AppointmentDate is YYYY-MM-DD and AppointmentTime is HH:MM.
type Appointment struct {
	BaseModel
	PatientID       string            `gorm:"size:36;not null;index" json:"patientId"`
	DoctorID        string            `gorm:"size:36;not null;index" json:"doctorId"`
	ScheduleID      string            `gorm:"size:36;not null;index" json:"scheduleId"`
	AppointmentDate string            `gorm:"size:10;not null;index" json:"appointmentDate"`
	AppointmentTime string            `gorm:"size:5;not null" json:"appointmentTime"`
	Reason          string            `gorm:"type:text" json:"reason"`
	Status          AppointmentStatus `gorm:"size:20;not null;default:'PENDING';index" json:"status"`

	Patient  User           `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"-"`
	Doctor   User           `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"-"`
	Schedule DoctorSchedule `gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE" json:"-"`
}

// HoldsSchedule reports whether the appointment still claims its schedule window.
func (a *Appointment) HoldsSchedule() bool {
	return a.Status != StatusCancelled
}
