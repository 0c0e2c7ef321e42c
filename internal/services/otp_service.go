package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"healthcare-portal-server/internal/apperrors"
	"healthcare-portal-server/internal/config"
	"healthcare-portal-server/internal/logger"
	"healthcare-portal-server/internal/mailer"
	"healthcare-portal-server/internal/metrics"
	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/repository"
)

const (
	otpQuotaWindow  = time.Hour
	otpRetention    = 24 * time.Hour
	mailSendTimeout = 30 * time.Second
)

// OtpService issues and verifies one-time codes for signup and password
// reset.
type OtpService struct {
	otps    OtpStore
	users   UserStore
	tx      Transactor
	mail    mailer.Mailer
	cfg     config.OtpConfig
	appName string
	log     *logger.Logger
	metrics *metrics.Collector

	now      func() time.Time
	dispatch func(fn func())
}

// OtpOption customizes an OtpService.
type OtpOption func(*OtpService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) OtpOption {
	return func(s *OtpService) { s.now = now }
}

// WithDispatcher replaces the goroutine used to send mail. Tests pass a
// synchronous dispatcher.
func WithDispatcher(dispatch func(fn func())) OtpOption {
	return func(s *OtpService) { s.dispatch = dispatch }
}

// NewOtpService creates a new OtpService.
func NewOtpService(tx Transactor, otps OtpStore, users UserStore, mail mailer.Mailer, cfg config.OtpConfig, appName string, log *logger.Logger, m *metrics.Collector, opts ...OtpOption) *OtpService {
	s := &OtpService{
		otps:     otps,
		users:    users,
		tx:       tx,
		mail:     mail,
		cfg:      cfg,
		appName:  appName,
		log:      log,
		metrics:  m,
		now:      time.Now,
		dispatch: func(fn func()) { go fn() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.Length <= 0 {
		s.cfg.Length = 6
	}
	if s.cfg.Expiry <= 0 {
		s.cfg.Expiry = 10 * time.Minute
	}
	if s.cfg.MaxRequestsPerHour <= 0 {
		s.cfg.MaxRequestsPerHour = 3
	}
	if s.cfg.MaxAttempts <= 0 {
		s.cfg.MaxAttempts = 3
	}
	return s
}

// GenerateOtp returns a code of the configured length. Each digit is drawn
// uniformly from 0-9 and leading zeros are kept.
func (s *OtpService) GenerateOtp() (string, error) {
	return generateDigits(s.cfg.Length)
}

func generateDigits(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

// SendSignupOtp issues a signup code. The email must not belong to a user.
func (s *OtpService) SendSignupOtp(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return storeErr(err, "check email")
	}
	if exists {
		return apperrors.AlreadyExists("Email is already registered")
	}
	return s.issue(ctx, email, models.OtpTypeSignup, mailer.PurposeSignup)
}

// SendPasswordResetOtp issues a password reset code for an existing user.
func (s *OtpService) SendPasswordResetOtp(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return storeErr(err, "check email")
	}
	if !exists {
		return apperrors.NotFound("User not found with email: %s", email)
	}
	return s.issue(ctx, email, models.OtpTypeForgotPassword, mailer.PurposePasswordReset)
}

// CanRequestOtp reports whether email is still under the hourly quota for
// otpType. Replaced codes count toward the quota.
func (s *OtpService) CanRequestOtp(ctx context.Context, email string, otpType models.OtpType) (bool, error) {
	since := s.now().Add(-otpQuotaWindow)
	n, err := s.otps.CountOtpsSince(ctx, normalizeEmail(email), otpType, since)
	if err != nil {
		return false, storeErr(err, "count otp requests")
	}
	return n < int64(s.cfg.MaxRequestsPerHour), nil
}

// VerifySignupOtp checks a signup code. A wrong code is not an error.
func (s *OtpService) VerifySignupOtp(ctx context.Context, email, code string) (bool, error) {
	return s.verify(ctx, normalizeEmail(email), code, models.OtpTypeSignup)
}

// VerifyPasswordResetOtp checks a password reset code.
func (s *OtpService) VerifyPasswordResetOtp(ctx context.Context, email, code string) (bool, error) {
	return s.verify(ctx, normalizeEmail(email), code, models.OtpTypeForgotPassword)
}

// IsEmailVerified reports whether a signup code was ever consumed for email.
func (s *OtpService) IsEmailVerified(ctx context.Context, email string) (bool, error) {
	used, err := s.otps.HasUsedOtp(ctx, normalizeEmail(email), models.OtpTypeSignup)
	if err != nil {
		return false, storeErr(err, "check email verification")
	}
	return used, nil
}

// PurgeOtps hard deletes codes created before the retention window.
func (s *OtpService) PurgeOtps(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-otpRetention)
	n, err := s.otps.PurgeOtps(ctx, cutoff)
	if err != nil {
		return 0, storeErr(err, "purge otps")
	}
	s.metrics.RecordOtpPurged(n)
	s.log.WithComponent("otp").WithFields(logrus.Fields{
		"purged": n,
		"cutoff": cutoff,
	}).Info("Purged expired OTPs")
	return n, nil
}

func (s *OtpService) issue(ctx context.Context, email string, otpType models.OtpType, purpose mailer.OtpPurpose) error {
	ok, err := s.CanRequestOtp(ctx, email, otpType)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.RateLimited("Too many OTP requests. Please try again later.")
	}

	code, err := s.GenerateOtp()
	if err != nil {
		return apperrors.Internal(err, "failed to generate otp")
	}

	now := s.now()
	otp := models.Otp{
		Email:     email,
		Code:      code,
		Type:      otpType,
		ExpiresAt: now.Add(s.cfg.Expiry),
	}
	otp.CreatedAt = now

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.otps.InvalidateOtps(ctx, email, otpType); err != nil {
			return storeErr(err, "invalidate otps")
		}
		if err := s.otps.CreateOtp(ctx, &otp); err != nil {
			return storeErr(err, "create otp")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordOtpIssued(string(otpType))
	s.log.WithComponent("otp").WithFields(logrus.Fields{
		"email": email,
		"type":  otpType,
	}).Info("OTP issued")

	s.dispatch(func() { s.sendMail(email, purpose, code) })
	return nil
}

// sendMail runs detached from the request, so it uses its own context.
func (s *OtpService) sendMail(email string, purpose mailer.OtpPurpose, code string) {
	entry := s.log.WithComponent("otp").WithField("email", email)

	subject, body, err := mailer.RenderOtpEmail(s.appName, purpose, code, s.cfg.Expiry)
	if err != nil {
		s.metrics.RecordMailFailure()
		entry.WithError(err).Warn("Failed to render OTP email")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), mailSendTimeout)
	defer cancel()
	if err := s.mail.SendEmail(ctx, email, subject, body); err != nil {
		s.metrics.RecordMailFailure()
		entry.WithError(err).Warn("Failed to send OTP email")
	}
}

func (s *OtpService) verify(ctx context.Context, email, code string, otpType models.OtpType) (bool, error) {
	now := s.now()
	otp, err := s.otps.LatestActiveOtp(ctx, email, otpType, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordOtpVerification(string(otpType), false)
			return false, nil
		}
		return false, storeErr(err, "load otp")
	}
	if !otp.CanAttempt(now, s.cfg.MaxAttempts) {
		s.metrics.RecordOtpVerification(string(otpType), false)
		return false, nil
	}

	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(strings.TrimSpace(code))) == 1 {
		marked, err := s.otps.MarkOtpUsed(ctx, otp.ID)
		if err != nil {
			return false, storeErr(err, "mark otp used")
		}
		s.metrics.RecordOtpVerification(string(otpType), marked)
		return marked, nil
	}

	if err := s.otps.IncrementOtpAttempts(ctx, otp.ID); err != nil {
		return false, storeErr(err, "record otp attempt")
	}
	s.metrics.RecordOtpVerification(string(otpType), false)
	return false, nil
}
