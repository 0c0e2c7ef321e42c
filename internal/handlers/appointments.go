package handlers

import (
	"github.com/gin-gonic/gin"

	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/services"
	"healthcare-portal-server/internal/utils"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	appointments *services.AppointmentService
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(appointments *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
// Patients may omit patientId to book for themselves.
type CreateAppointmentRequest struct {
	PatientID  string `json:"patientId" binding:"omitempty,uuid"`
	DoctorID   string `json:"doctorId" binding:"required,uuid"`
	ScheduleID string `json:"scheduleId" binding:"required,uuid"`
	Date       string `json:"appointmentDate" binding:"required"`
	Time       string `json:"appointmentTime" binding:"required"`
	Reason     string `json:"reason"`
	Status     string `json:"status" binding:"omitempty,oneof=PENDING CONFIRMED"`
}

// RescheduleRequest represents the request body for moving an appointment.
type RescheduleRequest struct {
	ScheduleID string `json:"scheduleId" binding:"required,uuid"`
	Date       string `json:"appointmentDate" binding:"required"`
	Time       string `json:"appointmentTime" binding:"required"`
	Reason     string `json:"reason"`
}

// StatusQuery carries the target status of a status update.
type StatusQuery struct {
	Status string `form:"status" binding:"required,oneof=PENDING CONFIRMED COMPLETED CANCELLED"`
}

// DateQuery carries a YYYY-MM-DD date.
type DateQuery struct {
	Date string `form:"date" binding:"required"`
}

// CreateAppointment books an appointment into a schedule.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patientID := req.PatientID
	if patientID == "" && id.Role == models.RolePatient {
		patientID = id.UserID
	}

	appt, err := h.appointments.CreateAppointment(c.Request.Context(), id, services.AppointmentInput{
		PatientID:  patientID,
		DoctorID:   req.DoctorID,
		ScheduleID: req.ScheduleID,
		Date:       req.Date,
		Time:       req.Time,
		Reason:     req.Reason,
		Status:     models.AppointmentStatus(req.Status),
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Created(c, "Appointment created successfully", appt)
}

func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	apptID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	appt, err := h.appointments.GetAppointment(c.Request.Context(), id, apptID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Appointment retrieved successfully", appt)
}

func (h *AppointmentHandler) GetAllAppointments(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	respondAppointments(c)(h.appointments.ListAppointments(c.Request.Context(), id))
}

// GetMyAppointments returns the caller's appointments as patient or doctor.
func (h *AppointmentHandler) GetMyAppointments(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	respondAppointments(c)(h.appointments.ListMine(c.Request.Context(), id))
}

func (h *AppointmentHandler) GetPatientAppointments(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	patientID, ok := utils.PathID(c, "patientId")
	if !ok {
		return
	}
	respondAppointments(c)(h.appointments.ListByPatient(c.Request.Context(), id, patientID))
}

func (h *AppointmentHandler) GetDoctorAppointments(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	doctorID, ok := utils.PathID(c, "doctorId")
	if !ok {
		return
	}
	respondAppointments(c)(h.appointments.ListByDoctor(c.Request.Context(), id, doctorID))
}

func (h *AppointmentHandler) GetAppointmentsByStatus(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	status := models.AppointmentStatus(c.Param("status"))
	respondAppointments(c)(h.appointments.ListByStatus(c.Request.Context(), id, status))
}

func (h *AppointmentHandler) GetAppointmentsByDate(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var q DateQuery
	if !utils.BindQuery(c, &q) {
		return
	}
	respondAppointments(c)(h.appointments.ListByDate(c.Request.Context(), id, q.Date))
}

func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	apptID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}
	var req RescheduleRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.appointments.RescheduleAppointment(c.Request.Context(), id, apptID, services.RescheduleInput{
		ScheduleID: req.ScheduleID,
		Date:       req.Date,
		Time:       req.Time,
		Reason:     req.Reason,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Appointment rescheduled successfully", appt)
}

func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	apptID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	appt, err := h.appointments.CancelAppointment(c.Request.Context(), id, apptID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Appointment cancelled successfully", appt)
}

func (h *AppointmentHandler) CompleteAppointment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	apptID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	appt, err := h.appointments.CompleteAppointment(c.Request.Context(), id, apptID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Appointment completed successfully", appt)
}

// UpdateAppointmentStatus applies ?status=X through the status machine.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	apptID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}
	var q StatusQuery
	if !utils.BindQuery(c, &q) {
		return
	}

	appt, err := h.appointments.UpdateAppointmentStatus(c.Request.Context(), id, apptID, models.AppointmentStatus(q.Status))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Appointment status updated successfully", appt)
}

func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	apptID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	if err := h.appointments.DeleteAppointment(c.Request.Context(), id, apptID); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Appointment deleted successfully", nil)
}

func respondAppointments(c *gin.Context) func([]services.AppointmentView, error) {
	return func(appts []services.AppointmentView, err error) {
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		utils.Success(c, "Appointments retrieved successfully", appts)
	}
}
