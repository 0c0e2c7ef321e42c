package handlers

import (
	"github.com/gin-gonic/gin"

	"healthcare-portal-server/internal/middleware"
	"healthcare-portal-server/internal/policy"
	"healthcare-portal-server/internal/services"
	"healthcare-portal-server/internal/utils"
)

// identity returns the authenticated caller or writes a 401.
func identity(c *gin.Context) (policy.Identity, bool) {
	id, ok := middleware.GetIdentityFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
	}
	return id, ok
}

// ProfileRequest carries optional profile fields. Absent fields are left
// unchanged.
type ProfileRequest struct {
	FirstName       *string `json:"firstName" binding:"omitempty,max=50"`
	LastName        *string `json:"lastName" binding:"omitempty,max=50"`
	PhoneNumber     *string `json:"phoneNumber" binding:"omitempty,max=20"`
	ProfilePhotoURL *string `json:"profilePhotoUrl" binding:"omitempty,url"`
	DateOfBirth     *string `json:"dateOfBirth"`
	Gender          *string `json:"gender" binding:"omitempty,max=10"`
	Address         *string `json:"address"`
	Specialization  *string `json:"specialization" binding:"omitempty,max=100"`
	LicenseNumber   *string `json:"licenseNumber" binding:"omitempty,max=50"`
	ExperienceYears *int    `json:"experienceYears" binding:"omitempty,min=0"`
	DepartmentID    *string `json:"departmentId" binding:"omitempty,uuid"`
}

func (r ProfileRequest) toUpdate() services.ProfileUpdate {
	return services.ProfileUpdate{
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		PhoneNumber:     r.PhoneNumber,
		ProfilePhotoURL: r.ProfilePhotoURL,
		DateOfBirth:     r.DateOfBirth,
		Gender:          r.Gender,
		Address:         r.Address,
		Specialization:  r.Specialization,
		LicenseNumber:   r.LicenseNumber,
		ExperienceYears: r.ExperienceYears,
		DepartmentID:    r.DepartmentID,
	}
}
