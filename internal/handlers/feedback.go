package handlers

import (
	"github.com/gin-gonic/gin"

	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/services"
	"healthcare-portal-server/internal/utils"
)

// FeedbackHandler handles patient feedback requests.
type FeedbackHandler struct {
	feedback *services.FeedbackService
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(feedback *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// CreateFeedbackRequest represents the request body for new feedback.
// Without doctorId the feedback is about the clinic in general.
type CreateFeedbackRequest struct {
	PatientID string `json:"patientId" binding:"omitempty,uuid"`
	DoctorID  string `json:"doctorId" binding:"omitempty,uuid"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comments  string `json:"comments"`
}

// UpdateFeedbackRequest represents the request body for a feedback update.
type UpdateFeedbackRequest struct {
	Rating   *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Comments *string `json:"comments"`
}

// RatingQuery carries the rating filter.
type RatingQuery struct {
	Rating int `form:"rating" binding:"required,min=1,max=5"`
}

func (h *FeedbackHandler) CreateFeedback(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req CreateFeedbackRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patientID := req.PatientID
	if patientID == "" && id.Role == models.RolePatient {
		patientID = id.UserID
	}

	feedback, err := h.feedback.CreateFeedback(c.Request.Context(), id, services.FeedbackInput{
		PatientID: patientID,
		DoctorID:  req.DoctorID,
		Rating:    req.Rating,
		Comments:  req.Comments,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Created(c, "Feedback submitted successfully", feedback)
}

func (h *FeedbackHandler) UpdateFeedback(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	feedbackID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}
	var req UpdateFeedbackRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	feedback, err := h.feedback.UpdateFeedback(c.Request.Context(), id, feedbackID, services.FeedbackUpdate{
		Rating:   req.Rating,
		Comments: req.Comments,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Feedback updated successfully", feedback)
}

func (h *FeedbackHandler) GetFeedback(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	feedbackID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	feedback, err := h.feedback.GetFeedback(c.Request.Context(), id, feedbackID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Feedback retrieved successfully", feedback)
}

func (h *FeedbackHandler) DeleteFeedback(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	feedbackID, ok := utils.PathID(c, "id")
	if !ok {
		return
	}

	if err := h.feedback.DeleteFeedback(c.Request.Context(), id, feedbackID); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Success(c, "Feedback deleted successfully", nil)
}

func (h *FeedbackHandler) GetAllFeedback(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	respondFeedback(c)(h.feedback.ListFeedback(c.Request.Context(), id))
}

func (h *FeedbackHandler) GetMyFeedback(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	respondFeedback(c)(h.feedback.ListMine(c.Request.Context(), id))
}

func (h *FeedbackHandler) GetGeneralFeedback(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	respondFeedback(c)(h.feedback.ListGeneralFeedback(c.Request.Context(), id))
}

func (h *FeedbackHandler) GetDoctorFeedback(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	doctorID, ok := utils.PathID(c, "doctorId")
	if !ok {
		return
	}
	respondFeedback(c)(h.feedback.ListByDoctor(c.Request.Context(), id, doctorID))
}

func (h *FeedbackHandler) GetPatientFeedback(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	patientID, ok := utils.PathID(c, "patientId")
	if !ok {
		return
	}
	respondFeedback(c)(h.feedback.ListByPatient(c.Request.Context(), id, patientID))
}

func (h *FeedbackHandler) GetFeedbackByRating(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var q RatingQuery
	if !utils.BindQuery(c, &q) {
		return
	}
	respondFeedback(c)(h.feedback.ListByRating(c.Request.Context(), id, q.Rating))
}

func respondFeedback(c *gin.Context) func([]services.FeedbackView, error) {
	return func(feedback []services.FeedbackView, err error) {
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		utils.Success(c, "Feedback retrieved successfully", feedback)
	}
}
