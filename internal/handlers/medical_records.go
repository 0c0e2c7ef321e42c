package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/services"
	"healthcare-portal-server/internal/utils"
)

// MedicalRecordHandler handles medical record related requests.
type MedicalRecordHandler struct {
	records *services.MedicalRecordService
}

// NewMedicalRecordHandler creates a new MedicalRecordHandler.
func NewMedicalRecordHandler(records *services.MedicalRecordService) *MedicalRecordHandler {
	return &MedicalRecordHandler{records: records}
}

// CreateMedicalRecordRequest represents the request body for creating a medical record.
// Doctors may omit doctorId to record their own visit.
type CreateMedicalRecordRequest struct {
	AppointmentID string         `json:"appointmentId" binding:"required,uuid"`
	PatientID     string         `json:"patientId" binding:"required,uuid"`
	DoctorID      string         `json:"doctorId" binding:"omitempty,uuid"`
	RecordDate    string         `json:"recordDate"`
	Diagnosis     string         `json:"diagnosis" binding:"required"`
	Prescription  string         `json:"prescription"`
	Notes         string         `json:"notes"`
	Attachments   datatypes.JSON `json:"attachments"`
}

// UpdateMedicalRecordRequest represents the request body for updating a medical record.
type UpdateMedicalRecordRequest struct {
	Diagnosis    *string        `json:"diagnosis"`
	Prescription *string        `json:"prescription"`
	Notes        *string        `json:"notes"`
	Attachments  datatypes.JSON `json:"attachments"`
}

// CreateMedicalRecord records a visit and completes its appointment.
func (h *MedicalRecordHandler) CreateMedicalRecord(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req CreateMedicalRecordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctorID := req.DoctorID
	if doctorID == "" && id.Role == models.RoleDoctor {
		doctorID = id.UserID
	}

	record, err := h.records.CreateMedicalRecord(c.Request.Context(), id, services.MedicalRecordInput{
		AppointmentID: req.AppointmentID,
		PatientID:     req.PatientID,
		DoctorID:      doctorID,
		RecordDate:    req.RecordDate,
		Diagnosis:     req.Diagnosis,
		Prescription:  req.Prescription,
		Notes:         req.Notes,
		Attachments:   req.Attachments,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Created(c, "Medical record created successfully", record)
}

func (h *MedicalRecordHandler) UpdateMedicalRecord(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	recordID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}
	var req UpdateMedicalRecordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	record, err := h.records.UpdateMedicalRecord(c.Request.Context(), id, recordID, services.MedicalRecordUpdate{
		Diagnosis:    req.Diagnosis,
		Prescription: req.Prescription,
		Notes:        req.Notes,
		Attachments:  req.Attachments,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Medical record updated successfully", record)
}

func (h *MedicalRecordHandler) GetMedicalRecordByID(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	recordID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	record, err := h.records.GetMedicalRecord(c.Request.Context(), id, recordID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Medical record retrieved successfully", record)
}

func (h *MedicalRecordHandler) DeleteMedicalRecord(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	recordID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	if err := h.records.DeleteMedicalRecord(c.Request.Context(), id, recordID); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Medical record deleted successfully", nil)
}

func (h *MedicalRecordHandler) GetAllMedicalRecords(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	respondRecords(c)(h.records.ListMedicalRecords(c.Request.Context(), id))
}

func (h *MedicalRecordHandler) GetMyMedicalRecords(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	respondRecords(c)(h.records.ListMine(c.Request.Context(), id))
}

func (h *MedicalRecordHandler) GetMedicalRecordsForPatient(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	patientID, ok := utils.PathID(c, "patientId")
	if !ok {
		return
	}
	respondRecords(c)(h.records.ListByPatient(c.Request.Context(), id, patientID))
}

func (h *MedicalRecordHandler) GetMedicalRecordsForDoctor(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	doctorID, ok := utils.PathID(c, "doctorId")
	if !ok {
		return
	}
	respondRecords(c)(h.records.ListByDoctor(c.Request.Context(), id, doctorID))
}

func respondRecords(c *gin.Context) func([]services.MedicalRecordView, error) {
	return func(records []services.MedicalRecordView, err error) {
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		utils.Success(c, "Medical records retrieved successfully", records)
	}
}
