package repository

import (
	"context"

	"gorm.io/gorm"

	"healthcare-portal-server/internal/models"
)

// FeedbackFilter narrows ListFeedback. Zero fields are ignored.
type FeedbackFilter struct {
	PatientID   string
	DoctorID    string
	GeneralOnly bool
	Rating      int
}

// FeedbackRepository persists feedback.
type FeedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository creates a new FeedbackRepository.
func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) CreateFeedback(ctx context.Context, feedback *models.Feedback) error {
	return conn(ctx, r.db).Omit("Patient", "Doctor").Create(feedback).Error
}

func (r *FeedbackRepository) GetFeedback(ctx context.Context, id string) (*models.Feedback, error) {
	var feedback models.Feedback
	if err := conn(ctx, r.db).First(&feedback, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &feedback, nil
}

// ListFeedback returns matching feedback, newest first.
func (r *FeedbackRepository) ListFeedback(ctx context.Context, filter FeedbackFilter) ([]models.Feedback, error) {
	query := conn(ctx, r.db).Order("submitted_at desc")
	if filter.PatientID != "" {
		query = query.Where("patient_id = ?", filter.PatientID)
	}
	if filter.DoctorID != "" {
		query = query.Where("doctor_id = ?", filter.DoctorID)
	}
	if filter.GeneralOnly {
		query = query.Where("doctor_id IS NULL")
	}
	if filter.Rating != 0 {
		query = query.Where("rating = ?", filter.Rating)
	}

	var feedback []models.Feedback
	if err := query.Find(&feedback).Error; err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *FeedbackRepository) UpdateFeedback(ctx context.Context, feedback *models.Feedback) error {
	return conn(ctx, r.db).Omit("Patient", "Doctor").Save(feedback).Error
}

func (r *FeedbackRepository) DeleteFeedback(ctx context.Context, id string) error {
	result := conn(ctx, r.db).Delete(&models.Feedback{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
