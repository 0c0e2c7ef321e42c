package handlers

import (
	"github.com/gin-gonic/gin"

	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/services"
	"healthcare-portal-server/internal/utils"
)

// ScheduleHandler handles doctor schedule requests.
type ScheduleHandler struct {
	schedules *services.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(schedules *services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// ScheduleRequest represents the request body for creating or moving a
// schedule. A doctor may omit doctorId to act on their own calendar.
type ScheduleRequest struct {
	DoctorID  string `json:"doctorId" binding:"omitempty,uuid"`
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
}

// AvailableQuery is the query of the availability search.
type AvailableQuery struct {
	Date string `form:"date" binding:"required"`
}

func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req ScheduleRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	schedule, err := h.schedules.CreateSchedule(c.Request.Context(), id, scheduleInput(req, id.UserID, id.Role))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Created(c, "Schedule created successfully", schedule)
}

func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	scheduleID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}
	var req ScheduleRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	schedule, err := h.schedules.UpdateSchedule(c.Request.Context(), id, scheduleID, scheduleInput(req, id.UserID, id.Role))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Schedule updated successfully", schedule)
}

func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	scheduleID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	schedule, err := h.schedules.GetSchedule(c.Request.Context(), id, scheduleID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Schedule retrieved successfully", schedule)
}

func (h *ScheduleHandler) GetAllSchedules(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	respondSchedules(c)(h.schedules.ListSchedules(c.Request.Context(), id))
}

func (h *ScheduleHandler) GetMySchedules(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	respondSchedules(c)(h.schedules.ListMySchedules(c.Request.Context(), id))
}

func (h *ScheduleHandler) GetDoctorSchedules(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	doctorID, ok := utils.PathID(c, "doctorId")
	if !ok {
		return
	}
	respondSchedules(c)(h.schedules.ListDoctorSchedules(c.Request.Context(), id, doctorID))
}

// GetAvailableSchedules searches open schedules on ?date=YYYY-MM-DD.
func (h *ScheduleHandler) GetAvailableSchedules(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var q AvailableQuery
	if !utils.BindQuery(c, &q) {
		return
	}
	respondSchedules(c)(h.schedules.FindAvailableSchedules(c.Request.Context(), id, q.Date))
}

// BookSchedule claims a whole schedule without an appointment.
func (h *ScheduleHandler) BookSchedule(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	scheduleID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	schedule, err := h.schedules.BookSchedule(c.Request.Context(), id, scheduleID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Schedule booked successfully", schedule)
}

func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	scheduleID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	if err := h.schedules.DeleteSchedule(c.Request.Context(), id, scheduleID); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Schedule deleted successfully", nil)
}

func (h *ScheduleHandler) DeleteMySchedule(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	scheduleID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	if err := h.schedules.DeleteMySchedule(c.Request.Context(), id, scheduleID); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Schedule deleted successfully", nil)
}

func scheduleInput(req ScheduleRequest, callerID string, role models.Role) services.ScheduleInput {
	doctorID := req.DoctorID
	if doctorID == "" && role == models.RoleDoctor {
		doctorID = callerID
	}
	return services.ScheduleInput{
		DoctorID:  doctorID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
}

func respondSchedules(c *gin.Context) func([]services.ScheduleView, error) {
	return func(schedules []services.ScheduleView, err error) {
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		utils.Success(c, "Schedules retrieved successfully", schedules)
	}
}
