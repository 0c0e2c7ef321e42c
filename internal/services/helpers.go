package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"healthcare-portal-server/internal/apperrors"
	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/repository"
)

// lookupErr maps a store lookup failure to NotFound or Internal.
func lookupErr(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(format, args...)
	}
	return apperrors.Internal(err, "failed to load %s", fmt.Sprintf(format, args...))
}

// storeErr wraps an unexpected store failure. Errors that are already
// classified pass through unchanged.
func storeErr(err error, action string) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.AlreadyExists("Failed to %s: a record with the same unique value already exists", action)
	}
	return apperrors.Internal(err, "failed to %s", action)
}

// requireUser loads a user and checks its role. A user with another role
// is reported as not found.
func requireUser(ctx context.Context, users UserStore, id string, role models.Role) (*models.User, error) {
	label := roleLabel(role)
	user, err := users.GetUser(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "%s not found with ID: %s", label, id)
	}
	if user.Role != role {
		return nil, apperrors.NotFound("%s not found with ID: %s", label, id)
	}
	return user, nil
}

func roleLabel(role models.Role) string {
	switch role {
	case models.RoleDoctor:
		return "Doctor"
	case models.RolePatient:
		return "Patient"
	case models.RoleAdmin:
		return "Admin"
	}
	return "User"
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// nameResolver caches display names of users referenced by list views.
type nameResolver struct {
	users UserStore
	names map[string]string
}

func newNameResolver(users UserStore) *nameResolver {
	return &nameResolver{users: users, names: map[string]string{}}
}

func (r *nameResolver) name(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	if name, ok := r.names[id]; ok {
		return name
	}
	var name string
	if user, err := r.users.GetUser(ctx, id); err == nil {
		name = user.FullName()
	}
	r.names[id] = name
	return name
}

func storeErrOrNil(err error, action string) error {
	if err == nil {
		return nil
	}
	return storeErr(err, action)
}
