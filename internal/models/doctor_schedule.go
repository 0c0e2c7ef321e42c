package models

// DoctorSchedule is one availability window of a doctor on a single date.
// Date is YYYY-MM-DD, StartTime and EndTime are HH:MM with StartTime < EndTime.
type DoctorSchedule struct {
	BaseModel
	DoctorID    string `gorm:"size:36;not null;index:idx_schedule_doctor_date" json:"doctorId"`
	Date        string `gorm:"size:10;not null;index:idx_schedule_doctor_date;index" json:"date"`
	StartTime   string `gorm:"size:5;not null" json:"startTime"`
	EndTime     string `gorm:"size:5;not null" json:"endTime"`
	IsAvailable bool   `gorm:"not null;default:true;index" json:"isAvailable"`

	Doctor User `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"-"`
}

// Overlaps reports whether [startA,endA) and [startB,endB) intersect.
// Touching endpoints do not overlap. Times must be normalized HH:MM.
func Overlaps(startA, endA, startB, endB string) bool {
	return startA < endB && endA > startB
}

// Contains reports whether the HH:MM time t lies within [StartTime, EndTime).
func (s *DoctorSchedule) Contains(t string) bool {
	return t >= s.StartTime && t < s.EndTime
}
