package handlers

import (
	"github.com/gin-gonic/gin"

	"healthcare-portal-server/internal/services"
	"healthcare-portal-server/internal/utils"
)

// DepartmentHandler handles department requests.
type DepartmentHandler struct {
	departments *services.DepartmentService
}

// NewDepartmentHandler creates a new DepartmentHandler.
func NewDepartmentHandler(departments *services.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departments: departments}
}

// CreateDepartmentRequest represents the request body for a new department.
type CreateDepartmentRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

// UpdateDepartmentRequest represents the request body for a department update.
type UpdateDepartmentRequest struct {
	Name        string `json:"name" binding:"omitempty,max=100"`
	Description string `json:"description"`
}

func (h *DepartmentHandler) GetDepartments(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	departments, err := h.departments.ListDepartments(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Departments retrieved successfully", departments)
}

func (h *DepartmentHandler) GetDepartmentByID(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	deptID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	dept, err := h.departments.GetDepartment(c.Request.Context(), id, deptID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Department retrieved successfully", dept)
}

func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req CreateDepartmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	dept, err := h.departments.CreateDepartment(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Created(c, "Department created successfully", dept)
}

func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	deptID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}
	var req UpdateDepartmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	dept, err := h.departments.UpdateDepartment(c.Request.Context(), id, deptID, req.Name, req.Description)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Department updated successfully", dept)
}

func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	deptID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	if err := h.departments.DeleteDepartment(c.Request.Context(), id, deptID); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Department deleted successfully", nil)
}
