package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/policy"
	"healthcare-portal-server/internal/services"
	"healthcare-portal-server/internal/utils"
)

// UserHandler handles user-related requests (typically admin operations).
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// CreateUserRequest represents the request body for creating a user by an admin.
type CreateUserRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role" binding:"required,oneof=PATIENT DOCTOR ADMIN"`
	ProfileRequest
}

// UpdateUserRequest represents the request body for an admin update.
type UpdateUserRequest struct {
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8"`
	Role     *string `json:"role" binding:"omitempty,oneof=PATIENT DOCTOR ADMIN"`
	ProfileRequest
}

// CreateUser handles creating a new user (admin).
func (h *UserHandler) CreateUser(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), id, services.UserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.Role(req.Role),
		Profile:   req.ProfileRequest.toUpdate(),
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Created(c, "User created successfully", user.Sanitize())
}

// GetUsers handles fetching all users (admin).
func (h *UserHandler) GetUsers(c *gin.Context) {
	h.list(c, h.users.ListUsers, "Users retrieved successfully")
}

// GetDoctors lists all doctors. Any authenticated user may call it.
func (h *UserHandler) GetDoctors(c *gin.Context) {
	h.list(c, h.users.ListDoctors, "Doctors retrieved successfully")
}

// GetPatients lists all patients for staff.
func (h *UserHandler) GetPatients(c *gin.Context) {
	h.list(c, h.users.ListPatients, "Patients retrieved successfully")
}

// GetUserByID handles fetching a single user by ID (admin).
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	userID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), id, userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "User retrieved successfully", user.Sanitize())
}

// UpdateUser handles updating a user's details (admin).
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	userID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	update := services.UserUpdate{
		Email:    req.Email,
		Password: req.Password,
		Profile:  req.ProfileRequest.toUpdate(),
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		update.Role = &role
	}

	user, err := h.users.UpdateUser(c.Request.Context(), id, userID, update)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "User updated successfully", user.Sanitize())
}

// DeleteUser handles deleting a user (admin). Appointments, records and
// feedback of the user go with it.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	userID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	if err := h.users.DeleteUser(c.Request.Context(), id, userID); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "User deleted successfully", nil)
}

func (h *UserHandler) list(c *gin.Context, fetch func(context.Context, policy.Identity) ([]models.User, error), message string) {
	id, ok := identity(c)
	if !ok {
		return
	}

	users, err := fetch(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, message, models.SanitizeAll(users))
}
