package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"healthcare-portal-server/internal/apperrors"
	"healthcare-portal-server/internal/logger"
	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/policy"
	"healthcare-portal-server/internal/repository"
	"healthcare-portal-server/internal/utils"
)

const minPasswordLength = 8

// OtpVerifier is the part of OtpService the auth flows depend on.
type OtpVerifier interface {
	IsEmailVerified(ctx context.Context, email string) (bool, error)
	VerifyPasswordResetOtp(ctx context.Context, email, code string) (bool, error)
}

// RegisterInput is a self-service signup.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      models.Role
	Profile   ProfileUpdate
}

// AuthResult is a freshly issued token pair.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	RefreshTTL   time.Duration
	User         *models.User
}

// AuthService handles signup, login, refresh token rotation and profiles.
type AuthService struct {
	tx          Transactor
	users       UserStore
	tokens      RefreshTokenStore
	departments DepartmentStore
	otps        OtpVerifier
	tokenCfg    utils.TokenConfig
	log         *logger.Logger
	now         func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(tx Transactor, users UserStore, tokens RefreshTokenStore, departments DepartmentStore, otps OtpVerifier, tokenCfg utils.TokenConfig, log *logger.Logger) *AuthService {
	return &AuthService{
		tx:          tx,
		users:       users,
		tokens:      tokens,
		departments: departments,
		otps:        otps,
		tokenCfg:    tokenCfg,
		log:         log,
		now:         time.Now,
	}
}

// Register creates a PATIENT or DOCTOR account. The account is verified
// when the email already passed signup OTP verification.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Role != models.RolePatient && in.Role != models.RoleDoctor {
		return nil, apperrors.InvalidInput("Role must be PATIENT or DOCTOR")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperrors.InvalidInput("Password must be at least %d characters", minPasswordLength)
	}

	email := normalizeEmail(in.Email)
	verified, err := s.otps.IsEmailVerified(ctx, email)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:      email,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Role:       in.Role,
		IsVerified: verified,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, apperrors.Internal(err, "failed to hash password")
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return storeErr(err, "check email")
		}
		if exists {
			return apperrors.AlreadyExists("User with this email already exists")
		}
		if err := applyProfile(ctx, &user, in.Profile, s.departments); err != nil {
			return err
		}
		if err := s.users.CreateUser(ctx, &user); err != nil {
			return storeErr(err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithComponent("auth").WithFields(logrus.Fields{
		"user_id":  user.ID,
		"role":     user.Role,
		"verified": user.IsVerified,
	}).Info("User registered")
	return &user, nil
}

// Login checks credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		}
		return nil, storeErr(err, "load user")
	}
	if !user.CheckPassword(password) {
		s.log.Audit(user.ID, "login", "session", false, nil)
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	result, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Audit(user.ID, "login", "session", true, nil)
	return result, nil
}

// RefreshToken rotates a refresh token: the presented token is revoked and
// a new pair is issued. A token can be rotated only once.
func (s *AuthService) RefreshToken(ctx context.Context, token string) (*AuthResult, error) {
	claims, err := utils.ValidateToken(token, s.tokenCfg.RefreshSecret)
	if err != nil {
		return nil, apperrors.Unauthorized("Invalid refresh token structure or signature")
	}

	var result *AuthResult
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.now()
		if _, err := s.tokens.FindActiveRefreshToken(ctx, token, claims.UserID, now); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.Unauthorized("Refresh token not found, expired, or revoked")
			}
			return storeErr(err, "load refresh token")
		}
		revoked, err := s.tokens.RevokeRefreshToken(ctx, token, now)
		if err != nil {
			return storeErr(err, "revoke refresh token")
		}
		if !revoked {
			return apperrors.Unauthorized("Refresh token not found, expired, or revoked")
		}

		user, err := s.users.GetUser(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.Unauthorized("User no longer exists")
			}
			return storeErr(err, "load user")
		}
		result, err = s.issue(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Logout revokes a refresh token. Unknown or revoked tokens are accepted.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.InvalidInput("Refresh token is required")
	}
	if _, err := s.tokens.RevokeRefreshToken(ctx, token, s.now()); err != nil {
		return storeErr(err, "revoke refresh token")
	}
	return nil
}

// GetProfile returns the caller's account.
func (s *AuthService) GetProfile(ctx context.Context, id policy.Identity) (*models.User, error) {
	if err := policy.Authorize(id, policy.ActionManageProfile, policy.Resource{}); err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, id.UserID)
	if err != nil {
		return nil, lookupErr(err, "User profile not found")
	}
	return user, nil
}

// UpdateProfile changes the caller's own profile. Doctor fields are
// rejected for other roles.
func (s *AuthService) UpdateProfile(ctx context.Context, id policy.Identity, p ProfileUpdate) (*models.User, error) {
	if err := policy.Authorize(id, policy.ActionManageProfile, policy.Resource{}); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetUser(ctx, id.UserID)
		if err != nil {
			return lookupErr(err, "User profile not found")
		}
		if user.Role != models.RoleDoctor && hasDoctorFields(p) {
			return apperrors.InvalidInput("Only doctors can set specialization, license, experience or department")
		}
		if err := applyProfile(ctx, user, p, s.departments); err != nil {
			return err
		}
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return storeErr(err, "update profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, id)
}

// ResetPassword sets a new password once the reset code verifies, and
// revokes every refresh token of the account.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.InvalidInput("Password must be at least %d characters", minPasswordLength)
	}
	email = normalizeEmail(email)

	ok, err := s.otps.VerifyPasswordResetOtp(ctx, email, code)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.InvalidInput("Invalid or expired OTP")
	}

	var userID string
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetUserByEmail(ctx, email)
		if err != nil {
			return lookupErr(err, "User not found with email: %s", email)
		}
		if err := user.SetPassword(newPassword); err != nil {
			return apperrors.Internal(err, "failed to hash password")
		}
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return storeErr(err, "update password")
		}
		if err := s.tokens.RevokeUserTokens(ctx, user.ID); err != nil {
			return storeErr(err, "revoke refresh tokens")
		}
		userID = user.ID
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Audit(userID, "reset_password", "user", true, nil)
	return nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResult, error) {
	now := s.now()
	access, refresh, err := utils.GenerateTokens(user, s.tokenCfg, now)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to generate tokens")
	}
	stored := models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: now.Add(s.tokenCfg.RefreshTTL),
	}
	if err := s.tokens.CreateRefreshToken(ctx, &stored); err != nil {
		return nil, storeErr(err, "store refresh token")
	}
	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		RefreshTTL:   s.tokenCfg.RefreshTTL,
		User:         user,
	}, nil
}

func hasDoctorFields(p ProfileUpdate) bool {
	return p.Specialization != nil || p.LicenseNumber != nil || p.ExperienceYears != nil || p.DepartmentID != nil
}
