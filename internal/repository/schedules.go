package repository

import (
	"context"

	"gorm.io/gorm"

	"healthcare-portal-server/internal/models"
)

// ScheduleFilter narrows ListSchedules. Zero fields are ignored.
type ScheduleFilter struct {
	DoctorID      string
	Date          string
	ExcludeID     string
	AvailableOnly bool
}

// ScheduleRepository persists doctor schedules.
type ScheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule *models.DoctorSchedule) error {
	return conn(ctx, r.db).Create(schedule).Error
}

func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (*models.DoctorSchedule, error) {
	var schedule models.DoctorSchedule
	if err := conn(ctx, r.db).First(&schedule, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &schedule, nil
}

// ListSchedules returns matching schedules ordered by date and start time.
func (r *ScheduleRepository) ListSchedules(ctx context.Context, filter ScheduleFilter) ([]models.DoctorSchedule, error) {
	query := conn(ctx, r.db).Order("date asc, start_time asc")
	if filter.DoctorID != "" {
		query = query.Where("doctor_id = ?", filter.DoctorID)
	}
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}
	if filter.ExcludeID != "" {
		query = query.Where("id <> ?", filter.ExcludeID)
	}
	if filter.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}

	var schedules []models.DoctorSchedule
	if err := query.Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// UpdateScheduleWindow rewrites doctor, date and times without touching availability.
func (r *ScheduleRepository) UpdateScheduleWindow(ctx context.Context, schedule *models.DoctorSchedule) error {
	result := conn(ctx, r.db).Model(&models.DoctorSchedule{}).
		Where("id = ?", schedule.ID).
		Updates(map[string]any{
			"doctor_id":  schedule.DoctorID,
			"date":       schedule.Date,
			"start_time": schedule.StartTime,
			"end_time":   schedule.EndTime,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id string) error {
	result := conn(ctx, r.db).Delete(&models.DoctorSchedule{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimSchedule flips an available schedule to booked in one statement.
// It reports false when the schedule was already booked or does not exist.
func (r *ScheduleRepository) ClaimSchedule(ctx context.Context, id string) (bool, error) {
	result := conn(ctx, r.db).Model(&models.DoctorSchedule{}).
		Where("id = ? AND is_available = ?", id, true).
		Update("is_available", false)
	return result.RowsAffected == 1, result.Error
}

// ReleaseSchedule marks a schedule available again.
func (r *ScheduleRepository) ReleaseSchedule(ctx context.Context, id string) error {
	return conn(ctx, r.db).Model(&models.DoctorSchedule{}).
		Where("id = ?", id).
		Update("is_available", true).Error
}
