package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// User represents a user in the system. Patient and doctor specific
// columns stay empty for the other roles.
type User struct {
	BaseModel
	Email           string  `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password        string  `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	FirstName       string  `gorm:"size:50;not null" json:"firstName"`
	LastName        string  `gorm:"size:50;not null" json:"lastName"`
	PhoneNumber     string  `gorm:"size:20" json:"phoneNumber,omitempty"`
	Role            Role    `gorm:"size:20;not null;index" json:"role"`
	ProfilePhotoURL string  `gorm:"size:255" json:"profilePhotoUrl,omitempty"`
	IsVerified      bool    `gorm:"default:false" json:"isVerified"`

	// Patient specific fields
	DateOfBirth *time.Time `gorm:"type:date" json:"dateOfBirth,omitempty"`
	Gender      string     `gorm:"size:10" json:"gender,omitempty"`
	Address     string     `gorm:"type:text" json:"address,omitempty"`

	// Doctor specific fields
	Specialization  string  `gorm:"size:100" json:"specialization,omitempty"`
	LicenseNumber   *string `gorm:"size:50;uniqueIndex" json:"licenseNumber,omitempty"`
	ExperienceYears *int    `json:"experienceYears,omitempty"`
	DepartmentID    *string `gorm:"size:36;index" json:"departmentId,omitempty"`

	Department *Department `gorm:"foreignKey:DepartmentID;constraint:OnDelete:SET NULL" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	PhoneNumber     string     `json:"phoneNumber,omitempty"`
	Role            Role       `json:"role"`
	ProfilePhotoURL string     `json:"profilePhotoUrl,omitempty"`
	IsVerified      bool       `json:"isVerified"`
	DateOfBirth     *time.Time `json:"dateOfBirth,omitempty"`
	Gender          string     `json:"gender,omitempty"`
	Address         string     `json:"address,omitempty"`
	Specialization  string     `json:"specialization,omitempty"`
	LicenseNumber   *string    `json:"licenseNumber,omitempty"`
	ExperienceYears *int       `json:"experienceYears,omitempty"`
	DepartmentID    *string    `json:"departmentId,omitempty"`
	DepartmentName  string     `json:"departmentName,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	s := UserSanitized{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		PhoneNumber:     u.PhoneNumber,
		Role:            u.Role,
		ProfilePhotoURL: u.ProfilePhotoURL,
		IsVerified:      u.IsVerified,
		DateOfBirth:     u.DateOfBirth,
		Gender:          u.Gender,
		Address:         u.Address,
		Specialization:  u.Specialization,
		LicenseNumber:   u.LicenseNumber,
		ExperienceYears: u.ExperienceYears,
		DepartmentID:    u.DepartmentID,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
	if u.Department != nil {
		s.DepartmentName = u.Department.Name
	}
	return s
}

// SanitizeAll sanitizes a slice of users.
func SanitizeAll(users []User) []UserSanitized {
	out := make([]UserSanitized, len(users))
	for i := range users {
		out[i] = users[i].Sanitize()
	}
	return out
}
