package models

import (
	"time"

	"gorm.io/gorm"
)

// OtpType distinguishes the flows an OTP can verify.
type OtpType string

const (
	OtpTypeSignup         OtpType = "SIGNUP"
	OtpTypeForgotPassword OtpType = "FORGOT_PASSWORD"
)

// Otp is a one-time verification code. Replaced codes are soft deleted so
// they still count toward the hourly request quota.
type Otp struct {
	BaseModel
	Email     string         `gorm:"size:100;not null;index:idx_otp_email_type" json:"email"`
	Code      string         `gorm:"size:10;not null" json:"-"`
	Type      OtpType        `gorm:"size:20;not null;index:idx_otp_email_type" json:"type"`
	ExpiresAt time.Time      `gorm:"not null" json:"expiresAt"`
	Used      bool           `gorm:"not null;default:false" json:"used"`
	Attempts  int            `gorm:"not null;default:0" json:"attempts"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsExpired reports whether the code has expired at now.
func (o *Otp) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// CanAttempt reports whether the code may still be checked.
func (o *Otp) CanAttempt(now time.Time, maxAttempts int) bool {
	return !o.Used && !o.IsExpired(now) && o.Attempts < maxAttempts
}
