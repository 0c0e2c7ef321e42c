package repository

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"healthcare-portal-server/internal/models"
)

// AppointmentFilter narrows ListAppointments. Zero fields are ignored.
type AppointmentFilter struct {
	PatientID  string
	DoctorID   string
	ScheduleID string
	Date       string
	Status     models.AppointmentStatus
}

// AppointmentRepository persists appointments.
type AppointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new AppointmentRepository.
func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	return conn(ctx, r.db).Omit("Patient", "Doctor", "Schedule").Create(appt).Error
}

func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := conn(ctx, r.db).First(&appt, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &appt, nil
}

// ListAppointments returns matching appointments ordered by date and time.
func (r *AppointmentRepository) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, error) {
	query := conn(ctx, r.db).Order("appointment_date asc, appointment_time asc")
	if filter.PatientID != "" {
		query = query.Where("patient_id = ?", filter.PatientID)
	}
	if filter.DoctorID != "" {
		query = query.Where("doctor_id = ?", filter.DoctorID)
	}
	if filter.ScheduleID != "" {
		query = query.Where("schedule_id = ?", filter.ScheduleID)
	}
	if filter.Date != "" {
		query = query.Where("appointment_date = ?", filter.Date)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var appts []models.Appointment
	if err := query.Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, appt *models.Appointment) error {
	return conn(ctx, r.db).Omit("Patient", "Doctor", "Schedule").Save(appt).Error
}

func (r *AppointmentRepository) DeleteAppointment(ctx context.Context, id string) error {
	result := conn(ctx, r.db).Delete(&models.Appointment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HasActiveAppointment reports whether a non-cancelled appointment other
// than excludeID references the schedule.
func (r *AppointmentRepository) HasActiveAppointment(ctx context.Context, scheduleID, excludeID string) (bool, error) {
	var count int64
	query := conn(ctx, r.db).Model(&models.Appointment{}).
		Where("schedule_id = ? AND status <> ?", scheduleID, models.StatusCancelled)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// BookedTimes maps each schedule id to the sorted distinct HH:MM times of
// its non-cancelled appointments.
func (r *AppointmentRepository) BookedTimes(ctx context.Context, scheduleIDs []string) (map[string][]string, error) {
	booked := make(map[string][]string, len(scheduleIDs))
	if len(scheduleIDs) == 0 {
		return booked, nil
	}

	var rows []struct {
		ScheduleID      string
		AppointmentTime string
	}
	err := conn(ctx, r.db).Model(&models.Appointment{}).
		Distinct("schedule_id", "appointment_time").
		Where("schedule_id IN ? AND status <> ?", scheduleIDs, models.StatusCancelled).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		booked[row.ScheduleID] = append(booked[row.ScheduleID], row.AppointmentTime)
	}
	for id := range booked {
		sort.Strings(booked[id])
	}
	return booked, nil
}
