package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-portal-server/internal/apperrors"
	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/utils"
)

func strPtr(s string) *string { return &s }

func TestRegister(t *testing.T) {
	f := newFixture(t)

	user, err := f.auth.Register(f.ctx, RegisterInput{
		FirstName: "New",
		LastName:  "Patient",
		Email:     "NEW@example.com",
		Password:  "password123",
		Role:      models.RolePatient,
		Profile:   ProfileUpdate{Gender: strPtr("Female"), DateOfBirth: strPtr("1990-04-12")},
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.False(t, user.IsVerified)
	assert.NotEqual(t, "password123", user.Password)
	require.NotNil(t, user.DateOfBirth)
	assert.Equal(t, "1990-04-12", user.DateOfBirth.Format(models.DateLayout))

	_, err = f.auth.Register(f.ctx, RegisterInput{
		FirstName: "Dup", LastName: "User", Email: "new@example.com", Password: "password123", Role: models.RolePatient,
	})
	requireKind(t, err, apperrors.KindAlreadyExists)
}

func TestRegister_VerifiedAfterSignupOtp(t *testing.T) {
	f := newFixture(t)
	const email = "verified@example.com"
	require.NoError(t, f.otps.SendSignupOtp(f.ctx, email))
	ok, err := f.otps.VerifySignupOtp(f.ctx, email, f.latestCode(t, email))
	require.NoError(t, err)
	require.True(t, ok)

	user, err := f.auth.Register(f.ctx, RegisterInput{
		FirstName: "Vera", LastName: "Fied", Email: email, Password: "password123", Role: models.RoleDoctor,
		Profile: ProfileUpdate{Specialization: strPtr("Cardiology"), LicenseNumber: strPtr("LIC-1")},
	})
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.Equal(t, "Cardiology", user.Specialization)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		in   RegisterInput
		kind apperrors.Kind
	}{
		{"admin role", RegisterInput{FirstName: "A", LastName: "B", Email: "a@example.com", Password: "password123", Role: models.RoleAdmin}, apperrors.KindInvalidInput},
		{"short password", RegisterInput{FirstName: "A", LastName: "B", Email: "a@example.com", Password: "short", Role: models.RolePatient}, apperrors.KindInvalidInput},
		{"bad gender", RegisterInput{FirstName: "A", LastName: "B", Email: "a@example.com", Password: "password123", Role: models.RolePatient, Profile: ProfileUpdate{Gender: strPtr("x")}}, apperrors.KindInvalidInput},
		{"unknown department", RegisterInput{FirstName: "A", LastName: "B", Email: "a@example.com", Password: "password123", Role: models.RoleDoctor, Profile: ProfileUpdate{DepartmentID: strPtr("missing")}}, apperrors.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(f.ctx, tt.in)
			requireKind(t, err, tt.kind)
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	result, err := f.auth.Login(f.ctx, "Pat@Example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, f.patient.UserID, result.User.ID)

	claims, err := utils.ValidateToken(result.AccessToken, "access-secret")
	require.NoError(t, err)
	assert.Equal(t, f.patient.UserID, claims.UserID)
	assert.Equal(t, models.RolePatient, claims.Role)

	_, err = f.auth.Login(f.ctx, "pat@example.com", "wrong-password")
	requireKind(t, err, apperrors.KindUnauthorized)
	_, err = f.auth.Login(f.ctx, "nobody@example.com", "password123")
	requireKind(t, err, apperrors.KindUnauthorized)
}

func TestRefreshToken_RotatesOnce(t *testing.T) {
	f := newFixture(t)
	login, err := f.auth.Login(f.ctx, "pat@example.com", "password123")
	require.NoError(t, err)

	rotated, err := f.auth.RefreshToken(f.ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	_, err = f.auth.RefreshToken(f.ctx, login.RefreshToken)
	requireKind(t, err, apperrors.KindUnauthorized)

	_, err = f.auth.RefreshToken(f.ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshToken_RejectsAccessTokenAndGarbage(t *testing.T) {
	f := newFixture(t)
	login, err := f.auth.Login(f.ctx, "pat@example.com", "password123")
	require.NoError(t, err)

	_, err = f.auth.RefreshToken(f.ctx, login.AccessToken)
	requireKind(t, err, apperrors.KindUnauthorized)
	_, err = f.auth.RefreshToken(f.ctx, "not-a-token")
	requireKind(t, err, apperrors.KindUnauthorized)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	login, err := f.auth.Login(f.ctx, "pat@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(f.ctx, login.RefreshToken))
	require.NoError(t, f.auth.Logout(f.ctx, login.RefreshToken))
	requireKind(t, f.auth.Logout(f.ctx, ""), apperrors.KindInvalidInput)

	_, err = f.auth.RefreshToken(f.ctx, login.RefreshToken)
	requireKind(t, err, apperrors.KindUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)

	user, err := f.auth.UpdateProfile(f.ctx, f.patient, ProfileUpdate{
		PhoneNumber: strPtr("555-0100"),
		Address:     strPtr("221B Baker Street"),
	})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", user.PhoneNumber)
	assert.Equal(t, "Pat", user.FirstName)

	_, err = f.auth.UpdateProfile(f.ctx, f.patient, ProfileUpdate{Specialization: strPtr("Surgery")})
	requireKind(t, err, apperrors.KindInvalidInput)

	_, err = f.auth.UpdateProfile(f.ctx, f.patient, ProfileUpdate{FirstName: strPtr("  ")})
	requireKind(t, err, apperrors.KindInvalidInput)

	dept, err := f.departments.CreateDepartment(f.ctx, f.admin, "Diagnostics", "")
	require.NoError(t, err)
	doctor, err := f.auth.UpdateProfile(f.ctx, f.doctor, ProfileUpdate{DepartmentID: &dept.ID})
	require.NoError(t, err)
	require.NotNil(t, doctor.DepartmentID)
	assert.Equal(t, dept.ID, *doctor.DepartmentID)
	assert.Equal(t, "Diagnostics", doctor.Sanitize().DepartmentName)
}

func TestUpdateProfile_DuplicateLicense(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.UpdateProfile(f.ctx, f.doctor, ProfileUpdate{LicenseNumber: strPtr("LIC-42")})
	require.NoError(t, err)

	_, err = f.auth.UpdateProfile(f.ctx, f.doctor2, ProfileUpdate{LicenseNumber: strPtr("LIC-42")})
	requireKind(t, err, apperrors.KindAlreadyExists)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	login, err := f.auth.Login(f.ctx, "pat@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, f.otps.SendPasswordResetOtp(f.ctx, "pat@example.com"))
	code := f.latestCode(t, "pat@example.com")

	err = f.auth.ResetPassword(f.ctx, "pat@example.com", "000000x", "new-password")
	requireKind(t, err, apperrors.KindInvalidInput)

	err = f.auth.ResetPassword(f.ctx, "pat@example.com", code, "short")
	requireKind(t, err, apperrors.KindInvalidInput)

	require.NoError(t, f.auth.ResetPassword(f.ctx, "pat@example.com", code, "new-password"))

	_, err = f.auth.Login(f.ctx, "pat@example.com", "password123")
	requireKind(t, err, apperrors.KindUnauthorized)
	_, err = f.auth.Login(f.ctx, "pat@example.com", "new-password")
	require.NoError(t, err)

	_, err = f.auth.RefreshToken(f.ctx, login.RefreshToken)
	requireKind(t, err, apperrors.KindUnauthorized)

	err = f.auth.ResetPassword(f.ctx, "pat@example.com", code, "another-password")
	requireKind(t, err, apperrors.KindInvalidInput)
}
