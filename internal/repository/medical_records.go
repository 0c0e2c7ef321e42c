package repository

import (
	"context"

	"gorm.io/gorm"

	"healthcare-portal-server/internal/models"
)

// MedicalRecordFilter narrows ListMedicalRecords. Zero fields are ignored.
type MedicalRecordFilter struct {
	PatientID string
	DoctorID  string
}

// MedicalRecordRepository persists medical records.
type MedicalRecordRepository struct {
	db *gorm.DB
}

// NewMedicalRecordRepository creates a new MedicalRecordRepository.
func NewMedicalRecordRepository(db *gorm.DB) *MedicalRecordRepository {
	return &MedicalRecordRepository{db: db}
}

func (r *MedicalRecordRepository) CreateMedicalRecord(ctx context.Context, record *models.MedicalRecord) error {
	return translate(conn(ctx, r.db).Omit("Patient", "Doctor", "Appointment").Create(record).Error)
}

func (r *MedicalRecordRepository) GetMedicalRecord(ctx context.Context, id string) (*models.MedicalRecord, error) {
	var record models.MedicalRecord
	if err := conn(ctx, r.db).First(&record, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &record, nil
}

func (r *MedicalRecordRepository) ListMedicalRecords(ctx context.Context, filter MedicalRecordFilter) ([]models.MedicalRecord, error) {
	query := conn(ctx, r.db).Order("record_date desc, created_at desc")
	if filter.PatientID != "" {
		query = query.Where("patient_id = ?", filter.PatientID)
	}
	if filter.DoctorID != "" {
		query = query.Where("doctor_id = ?", filter.DoctorID)
	}

	var records []models.MedicalRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// RecordExistsForAppointment reports whether the appointment already has a record.
func (r *MedicalRecordRepository) RecordExistsForAppointment(ctx context.Context, appointmentID string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.MedicalRecord{}).
		Where("appointment_id = ?", appointmentID).
		Count(&count).Error
	return count > 0, err
}

func (r *MedicalRecordRepository) UpdateMedicalRecord(ctx context.Context, record *models.MedicalRecord) error {
	return conn(ctx, r.db).Omit("Patient", "Doctor", "Appointment").Save(record).Error
}

func (r *MedicalRecordRepository) DeleteMedicalRecord(ctx context.Context, id string) error {
	result := conn(ctx, r.db).Delete(&models.MedicalRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
