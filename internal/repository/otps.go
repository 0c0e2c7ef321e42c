package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"healthcare-portal-server/internal/models"
)

// OtpRepository persists one-time codes.
type OtpRepository struct {
	db *gorm.DB
}

// NewOtpRepository creates a new OtpRepository.
func NewOtpRepository(db *gorm.DB) *OtpRepository {
	return &OtpRepository{db: db}
}

func (r *OtpRepository) CreateOtp(ctx context.Context, otp *models.Otp) error {
	return conn(ctx, r.db).Create(otp).Error
}

// InvalidateOtps soft deletes every code for (email, type).
func (r *OtpRepository) InvalidateOtps(ctx context.Context, email string, otpType models.OtpType) error {
	return conn(ctx, r.db).
		Where("email = ? AND type = ?", email, otpType).
		Delete(&models.Otp{}).Error
}

// CountOtpsSince counts codes created at or after since, including invalidated ones.
func (r *OtpRepository) CountOtpsSince(ctx context.Context, email string, otpType models.OtpType, since time.Time) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Unscoped().Model(&models.Otp{}).
		Where("email = ? AND type = ? AND created_at >= ?", email, otpType, since).
		Count(&count).Error
	return count, err
}

// LatestActiveOtp returns the newest unused code that has not expired at now.
func (r *OtpRepository) LatestActiveOtp(ctx context.Context, email string, otpType models.OtpType, now time.Time) (*models.Otp, error) {
	var otp models.Otp
	err := conn(ctx, r.db).
		Where("email = ? AND type = ? AND used = ? AND expires_at > ?", email, otpType, false, now).
		Order("created_at desc").
		First(&otp).Error
	if err != nil {
		return nil, translate(err)
	}
	return &otp, nil
}

// MarkOtpUsed consumes a code. It reports false if it was already used.
func (r *OtpRepository) MarkOtpUsed(ctx context.Context, id string) (bool, error) {
	result := conn(ctx, r.db).Model(&models.Otp{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	return result.RowsAffected == 1, result.Error
}

func (r *OtpRepository) IncrementOtpAttempts(ctx context.Context, id string) error {
	return conn(ctx, r.db).Model(&models.Otp{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + ?", 1)).Error
}

// HasUsedOtp reports whether email has a consumed code of the given type.
func (r *OtpRepository) HasUsedOtp(ctx context.Context, email string, otpType models.OtpType) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Unscoped().Model(&models.Otp{}).
		Where("email = ? AND type = ? AND used = ?", email, otpType, true).
		Count(&count).Error
	return count > 0, err
}

// PurgeOtps permanently removes codes created before cutoff.
func (r *OtpRepository) PurgeOtps(ctx context.Context, cutoff time.Time) (int64, error) {
	result := conn(ctx, r.db).Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&models.Otp{})
	return result.RowsAffected, result.Error
}
