package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-portal-server/internal/apperrors"
	"healthcare-portal-server/internal/models"
)

func TestListUsersByRole(t *testing.T) {
	f := newFixture(t)

	doctors, err := f.users.ListDoctors(f.ctx, f.patient)
	require.NoError(t, err)
	assert.Len(t, doctors, 2)

	patients, err := f.users.ListPatients(f.ctx, f.doctor)
	require.NoError(t, err)
	assert.Len(t, patients, 2)

	_, err = f.users.ListPatients(f.ctx, f.patient)
	requireKind(t, err, apperrors.KindForbidden)

	all, err := f.users.ListUsers(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)

	user, err := f.users.CreateUser(f.ctx, f.admin, UserInput{
		Email: "Nurse@Example.com", Password: "password123", FirstName: "Nina", LastName: "Nurse", Role: models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "nurse@example.com", user.Email)
	assert.True(t, user.IsVerified)
	assert.True(t, user.CheckPassword("password123"))

	_, err = f.users.CreateUser(f.ctx, f.admin, UserInput{
		Email: "nurse@example.com", Password: "password123", FirstName: "N", LastName: "N", Role: models.RolePatient,
	})
	requireKind(t, err, apperrors.KindAlreadyExists)

	_, err = f.users.CreateUser(f.ctx, f.admin, UserInput{
		Email: "x@example.com", Password: "password123", FirstName: "X", LastName: "X", Role: "NURSE",
	})
	requireKind(t, err, apperrors.KindInvalidInput)

	_, err = f.users.CreateUser(f.ctx, f.doctor, UserInput{
		Email: "y@example.com", Password: "password123", FirstName: "Y", LastName: "Y", Role: models.RolePatient,
	})
	requireKind(t, err, apperrors.KindForbidden)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	role := models.RoleDoctor
	user, err := f.users.UpdateUser(f.ctx, f.admin, f.patient.UserID, UserUpdate{
		Email:   strPtr("pat.doe@example.com"),
		Role:    &role,
		Profile: ProfileUpdate{Specialization: strPtr("Dermatology")},
	})
	require.NoError(t, err)
	assert.Equal(t, "pat.doe@example.com", user.Email)
	assert.Equal(t, models.RoleDoctor, user.Role)
	assert.Equal(t, "Dermatology", user.Specialization)

	_, err = f.users.UpdateUser(f.ctx, f.admin, f.patient.UserID, UserUpdate{Email: strPtr("sam@example.com")})
	requireKind(t, err, apperrors.KindAlreadyExists)

	_, err = f.users.UpdateUser(f.ctx, f.admin, "missing", UserUpdate{})
	requireKind(t, err, apperrors.KindNotFound)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	schedule := f.createSchedule(t, f.doctor, "2024-06-01", "09:00", "10:00")
	_, err := f.book(f.patient, schedule, "09:00")
	require.NoError(t, err)

	requireKind(t, f.users.DeleteUser(f.ctx, f.admin, f.admin.UserID), apperrors.KindInvalidInput)
	requireKind(t, f.users.DeleteUser(f.ctx, f.patient2, f.patient.UserID), apperrors.KindForbidden)

	require.NoError(t, f.users.DeleteUser(f.ctx, f.admin, f.doctor.UserID))
	_, err = f.users.GetUser(f.ctx, f.admin, f.doctor.UserID)
	requireKind(t, err, apperrors.KindNotFound)

	mine, err := f.appointments.ListMine(f.ctx, f.patient)
	require.NoError(t, err)
	assert.Empty(t, mine)

	requireKind(t, f.users.DeleteUser(f.ctx, f.admin, f.doctor.UserID), apperrors.KindNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)

	user, created, err := f.users.EnsureAdmin(f.ctx, "root@example.com", "password123", "Root", "User")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleAdmin, user.Role)

	again, created, err := f.users.EnsureAdmin(f.ctx, "ROOT@example.com", "other-password", "Root", "User")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	_, _, err = f.users.EnsureAdmin(f.ctx, "pat@example.com", "password123", "Pat", "Doe")
	requireKind(t, err, apperrors.KindAlreadyExists)
}
