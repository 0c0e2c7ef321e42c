package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"healthcare-portal-server/internal/apperrors"
	"healthcare-portal-server/internal/logger"
	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/policy"
	"healthcare-portal-server/internal/repository"
)

// ProfileUpdate carries optional profile fields. Nil fields are left as they are.
type ProfileUpdate struct {
	FirstName       *string
	LastName        *string
	PhoneNumber     *string
	ProfilePhotoURL *string
	DateOfBirth     *string
	Gender          *string
	Address         *string
	Specialization  *string
	LicenseNumber   *string
	ExperienceYears *int
	DepartmentID    *string
}

// UserInput is an account created by an administrator.
type UserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.Role
	Profile   ProfileUpdate
}

// UserUpdate is an administrative change to an account.
type UserUpdate struct {
	Email    *string
	Password *string
	Role     *models.Role
	Profile  ProfileUpdate
}

// UserService manages accounts and profiles.
type UserService struct {
	tx          Transactor
	users       UserStore
	departments DepartmentStore
	log         *logger.Logger
}

// NewUserService creates a new UserService.
func NewUserService(tx Transactor, users UserStore, departments DepartmentStore, log *logger.Logger) *UserService {
	return &UserService{tx: tx, users: users, departments: departments, log: log}
}

// ListDoctors returns all doctors.
func (s *UserService) ListDoctors(ctx context.Context, id policy.Identity) ([]models.User, error) {
	if err := policy.Authorize(id, policy.ActionListDoctors, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.list(ctx, models.RoleDoctor)
}

// ListPatients returns all patients.
func (s *UserService) ListPatients(ctx context.Context, id policy.Identity) ([]models.User, error) {
	if err := policy.Authorize(id, policy.ActionListPatients, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.list(ctx, models.RolePatient)
}

// ListUsers returns every account.
func (s *UserService) ListUsers(ctx context.Context, id policy.Identity) ([]models.User, error) {
	if err := policy.Authorize(id, policy.ActionManageUsers, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.list(ctx, "")
}

// GetUser returns one account.
func (s *UserService) GetUser(ctx context.Context, id policy.Identity, userID string) (*models.User, error) {
	if err := policy.Authorize(id, policy.ActionManageUsers, policy.Resource{}); err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "User not found with ID: %s", userID)
	}
	return user, nil
}

// CreateUser creates an account of any role. Accounts created by an
// administrator are verified.
func (s *UserService) CreateUser(ctx context.Context, id policy.Identity, in UserInput) (*models.User, error) {
	if err := policy.Authorize(id, policy.ActionManageUsers, policy.Resource{}); err != nil {
		return nil, err
	}
	if !in.Role.Valid() {
		return nil, apperrors.InvalidInput("Invalid role: %s", in.Role)
	}

	user := models.User{
		Email:      normalizeEmail(in.Email),
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Role:       in.Role,
		IsVerified: true,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, apperrors.Internal(err, "failed to hash password")
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureEmailFree(ctx, user.Email); err != nil {
			return err
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

	s.log.Audit(id.UserID, "create", "user", true, logrus.Fields{"target_id": user.ID, "role": user.Role})
	return s.reload(ctx, user.ID)
}

// UpdateUser applies an administrative change to an account.
func (s *UserService) UpdateUser(ctx context.Context, id policy.Identity, userID string, in UserUpdate) (*models.User, error) {
	if err := policy.Authorize(id, policy.ActionManageUsers, policy.Resource{}); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetUser(ctx, userID)
		if err != nil {
			return lookupErr(err, "User not found with ID: %s", userID)
		}
		if in.Email != nil {
			email := normalizeEmail(*in.Email)
			if email != user.Email {
				if err := s.ensureEmailFree(ctx, email); err != nil {
					return err
				}
				user.Email = email
			}
		}
		if in.Role != nil {
			if !in.Role.Valid() {
				return apperrors.InvalidInput("Invalid role: %s", *in.Role)
			}
			user.Role = *in.Role
		}
		if in.Password != nil {
			if err := user.SetPassword(*in.Password); err != nil {
				return apperrors.Internal(err, "failed to hash password")
			}
		}
		if err := applyProfile(ctx, user, in.Profile, s.departments); err != nil {
			return err
		}
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return storeErr(err, "update user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Audit(id.UserID, "update", "user", true, logrus.Fields{"target_id": userID})
	return s.reload(ctx, userID)
}

// DeleteUser removes an account. Administrators cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, id policy.Identity, userID string) error {
	if err := policy.Authorize(id, policy.ActionManageUsers, policy.Resource{}); err != nil {
		return err
	}
	if userID == id.UserID {
		return apperrors.InvalidInput("You cannot delete your own account")
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return lookupErr(err, "User not found with ID: %s", userID)
	}
	s.log.Audit(id.UserID, "delete", "user", true, logrus.Fields{"target_id": userID})
	return nil
}

// EnsureAdmin creates an administrator account unless one already exists
// with that email. It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, firstName, lastName string) (*models.User, bool, error) {
	email = normalizeEmail(email)
	existing, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		if existing.Role != models.RoleAdmin {
			return nil, false, apperrors.AlreadyExists("Email %s belongs to a %s account", email, existing.Role)
		}
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, storeErr(err, "load user")
	}

	user := models.User{
		Email:      email,
		FirstName:  firstName,
		LastName:   lastName,
		Role:       models.RoleAdmin,
		IsVerified: true,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, false, apperrors.Internal(err, "failed to hash password")
	}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		return nil, false, storeErr(err, "create admin")
	}
	s.log.WithComponent("users").WithField("user_id", user.ID).Info("Administrator account created")
	return &user, true, nil
}

func (s *UserService) list(ctx context.Context, role models.Role) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx, role)
	if err != nil {
		return nil, storeErr(err, "list users")
	}
	return users, nil
}

func (s *UserService) reload(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "User not found with ID: %s", userID)
	}
	return user, nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string) error {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return storeErr(err, "check email")
	}
	if exists {
		return apperrors.AlreadyExists("User with this email already exists")
	}
	return nil
}

var genders = map[string]bool{"Male": true, "Female": true, "Other": true}

// applyProfile copies the non-nil fields of p onto user. An empty
// DepartmentID or LicenseNumber clears the reference.
func applyProfile(ctx context.Context, user *models.User, p ProfileUpdate, departments DepartmentStore) error {
	if p.FirstName != nil {
		if strings.TrimSpace(*p.FirstName) == "" {
			return apperrors.InvalidInput("First name cannot be empty")
		}
		user.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		if strings.TrimSpace(*p.LastName) == "" {
			return apperrors.InvalidInput("Last name cannot be empty")
		}
		user.LastName = *p.LastName
	}
	if p.PhoneNumber != nil {
		user.PhoneNumber = *p.PhoneNumber
	}
	if p.ProfilePhotoURL != nil {
		user.ProfilePhotoURL = *p.ProfilePhotoURL
	}
	if p.DateOfBirth != nil {
		if *p.DateOfBirth == "" {
			user.DateOfBirth = nil
		} else {
			dob, err := time.Parse(models.DateLayout, *p.DateOfBirth)
			if err != nil {
				return apperrors.InvalidInput("Invalid date of birth %q, expected YYYY-MM-DD", *p.DateOfBirth)
			}
			user.DateOfBirth = &dob
		}
	}
	if p.Gender != nil {
		if *p.Gender != "" && !genders[*p.Gender] {
			return apperrors.InvalidInput("Gender must be one of Male, Female, Other")
		}
		user.Gender = *p.Gender
	}
	if p.Address != nil {
		user.Address = *p.Address
	}
	if p.Specialization != nil {
		user.Specialization = *p.Specialization
	}
	if p.LicenseNumber != nil {
		if *p.LicenseNumber == "" {
			user.LicenseNumber = nil
		} else {
			license := *p.LicenseNumber
			user.LicenseNumber = &license
		}
	}
	if p.ExperienceYears != nil {
		if *p.ExperienceYears < 0 {
			return apperrors.InvalidInput("Experience years cannot be negative")
		}
		years := *p.ExperienceYears
		user.ExperienceYears = &years
	}
	if p.DepartmentID != nil {
		if *p.DepartmentID == "" {
			user.DepartmentID = nil
			user.Department = nil
		} else {
			dept, err := departments.GetDepartment(ctx, *p.DepartmentID)
			if err != nil {
				return lookupErr(err, "Department not found with ID: %s", *p.DepartmentID)
			}
			user.DepartmentID = &dept.ID
			user.Department = dept
		}
	}
	return nil
}
