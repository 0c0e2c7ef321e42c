package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"healthcare-portal-server/internal/models"
)

// RefreshTokenRepository persists issued refresh tokens for rotation and logout.
type RefreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository.
func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return conn(ctx, r.db).Create(token).Error
}

// FindActiveRefreshToken returns a token of userID that is neither revoked nor expired at now.
func (r *RefreshTokenRepository) FindActiveRefreshToken(ctx context.Context, token, userID string, now time.Time) (*models.RefreshToken, error) {
	var stored models.RefreshToken
	err := conn(ctx, r.db).
		Where("token = ? AND user_id = ? AND is_revoked = ? AND expires_at > ?", token, userID, false, now).
		First(&stored).Error
	if err != nil {
		return nil, translate(err)
	}
	return &stored, nil
}

// RevokeRefreshToken revokes an active token and reports whether one was found.
func (r *RefreshTokenRepository) RevokeRefreshToken(ctx context.Context, token string, now time.Time) (bool, error) {
	result := conn(ctx, r.db).Model(&models.RefreshToken{}).
		Where("token = ? AND is_revoked = ?", token, false).
		Updates(map[string]any{"is_revoked": true, "expires_at": now})
	return result.RowsAffected > 0, result.Error
}

// RevokeUserTokens revokes every active token of a user.
func (r *RefreshTokenRepository) RevokeUserTokens(ctx context.Context, userID string) error {
	return conn(ctx, r.db).Model(&models.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Update("is_revoked", true).Error
}
