package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"healthcare-portal-server/internal/apperrors"
	"healthcare-portal-server/internal/logger"
	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/policy"
	"healthcare-portal-server/internal/repository"
)

const (
	minRating = 1
	maxRating = 5
)

// FeedbackInput is a patient rating. An empty DoctorID submits general
// feedback about the clinic.
type FeedbackInput struct {
	PatientID string
	DoctorID  string
	Rating    int
	Comments  string
}

// FeedbackUpdate carries optional changes. Nil fields are kept.
type FeedbackUpdate struct {
	Rating   *int
	Comments *string
}

// FeedbackService collects patient ratings of doctors and of the clinic.
type FeedbackService struct {
	feedback FeedbackStore
	users    UserStore
	log      *logger.Logger
	now      func() time.Time
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(feedback FeedbackStore, users UserStore, log *logger.Logger) *FeedbackService {
	return &FeedbackService{feedback: feedback, users: users, log: log, now: time.Now}
}

// CreateFeedback submits feedback as the calling patient.
func (s *FeedbackService) CreateFeedback(ctx context.Context, id policy.Identity, in FeedbackInput) (*FeedbackView, error) {
	if err := policy.Authorize(id, policy.ActionCreateFeedback, policy.Resource{PatientID: in.PatientID}); err != nil {
		return nil, err
	}
	if err := checkRating(in.Rating); err != nil {
		return nil, err
	}
	if _, err := requireUser(ctx, s.users, in.PatientID, models.RolePatient); err != nil {
		return nil, err
	}

	feedback := models.Feedback{
		PatientID:   in.PatientID,
		Rating:      in.Rating,
		Comments:    in.Comments,
		SubmittedAt: s.now(),
	}
	if in.DoctorID != "" {
		if _, err := requireUser(ctx, s.users, in.DoctorID, models.RoleDoctor); err != nil {
			return nil, err
		}
		doctorID := in.DoctorID
		feedback.DoctorID = &doctorID
	}

	if err := s.feedback.CreateFeedback(ctx, &feedback); err != nil {
		return nil, storeErr(err, "create feedback")
	}
	s.log.WithComponent("feedback").WithFields(logrus.Fields{
		"feedback_id": feedback.ID,
		"patient_id":  feedback.PatientID,
		"general":     feedback.IsGeneral(),
	}).Info("Feedback submitted")
	return s.view(ctx, &feedback), nil
}

// UpdateFeedback lets a patient edit their own feedback.
func (s *FeedbackService) UpdateFeedback(ctx context.Context, id policy.Identity, feedbackID string, in FeedbackUpdate) (*FeedbackView, error) {
	feedback, err := s.load(ctx, id, policy.ActionUpdateFeedback, feedbackID)
	if err != nil {
		return nil, err
	}
	if in.Rating != nil {
		if err := checkRating(*in.Rating); err != nil {
			return nil, err
		}
		feedback.Rating = *in.Rating
	}
	if in.Comments != nil {
		feedback.Comments = *in.Comments
	}
	if err := s.feedback.UpdateFeedback(ctx, feedback); err != nil {
		return nil, storeErr(err, "update feedback")
	}
	return s.view(ctx, feedback), nil
}

func (s *FeedbackService) GetFeedback(ctx context.Context, id policy.Identity, feedbackID string) (*FeedbackView, error) {
	feedback, err := s.load(ctx, id, policy.ActionViewFeedback, feedbackID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, feedback), nil
}

// DeleteFeedback removes feedback. Patients may delete only their own.
func (s *FeedbackService) DeleteFeedback(ctx context.Context, id policy.Identity, feedbackID string) error {
	if _, err := s.load(ctx, id, policy.ActionDeleteFeedback, feedbackID); err != nil {
		return err
	}
	if err := s.feedback.DeleteFeedback(ctx, feedbackID); err != nil {
		return lookupErr(err, "Feedback not found with ID: %s", feedbackID)
	}
	s.log.Audit(id.UserID, "delete", "feedback", true, logrus.Fields{"feedback_id": feedbackID})
	return nil
}

func (s *FeedbackService) ListFeedback(ctx context.Context, id policy.Identity) ([]FeedbackView, error) {
	if err := policy.Authorize(id, policy.ActionListAllFeedback, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.FeedbackFilter{})
}

// ListGeneralFeedback returns clinic-wide feedback. Patients see only
// their own.
func (s *FeedbackService) ListGeneralFeedback(ctx context.Context, id policy.Identity) ([]FeedbackView, error) {
	if err := policy.Authorize(id, policy.ActionListGeneralFeedback, policy.Resource{}); err != nil {
		return nil, err
	}
	filter := repository.FeedbackFilter{GeneralOnly: true}
	if id.IsPatient() {
		filter.PatientID = id.UserID
	}
	return s.list(ctx, filter)
}

func (s *FeedbackService) ListByDoctor(ctx context.Context, id policy.Identity, doctorID string) ([]FeedbackView, error) {
	if err := policy.Authorize(id, policy.ActionListDoctorFeedback, policy.Resource{DoctorID: doctorID}); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.FeedbackFilter{DoctorID: doctorID})
}

func (s *FeedbackService) ListByPatient(ctx context.Context, id policy.Identity, patientID string) ([]FeedbackView, error) {
	if err := policy.Authorize(id, policy.ActionListPatientFeedback, policy.Resource{PatientID: patientID}); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.FeedbackFilter{PatientID: patientID})
}

// ListByRating returns feedback with one rating. Doctors see only feedback
// about themselves.
func (s *FeedbackService) ListByRating(ctx context.Context, id policy.Identity, rating int) ([]FeedbackView, error) {
	if err := policy.Authorize(id, policy.ActionListFeedbackByRating, policy.Resource{}); err != nil {
		return nil, err
	}
	if err := checkRating(rating); err != nil {
		return nil, err
	}
	filter := repository.FeedbackFilter{Rating: rating}
	if id.IsDoctor() {
		filter.DoctorID = id.UserID
	}
	return s.list(ctx, filter)
}

func (s *FeedbackService) ListMine(ctx context.Context, id policy.Identity) ([]FeedbackView, error) {
	if err := policy.Authorize(id, policy.ActionListMyFeedback, policy.Resource{}); err != nil {
		return nil, err
	}
	var filter repository.FeedbackFilter
	switch {
	case id.IsPatient():
		filter.PatientID = id.UserID
	case id.IsDoctor():
		filter.DoctorID = id.UserID
	}
	return s.list(ctx, filter)
}

func checkRating(rating int) error {
	if rating < minRating || rating > maxRating {
		return apperrors.InvalidInput("Rating must be between %d and %d", minRating, maxRating)
	}
	return nil
}

func (s *FeedbackService) load(ctx context.Context, id policy.Identity, action policy.Action, feedbackID string) (*models.Feedback, error) {
	feedback, err := s.feedback.GetFeedback(ctx, feedbackID)
	if err != nil {
		return nil, lookupErr(err, "Feedback not found with ID: %s", feedbackID)
	}
	res := policy.Resource{PatientID: feedback.PatientID}
	if feedback.DoctorID != nil {
		res.DoctorID = *feedback.DoctorID
	}
	if err := policy.Authorize(id, action, res); err != nil {
		return nil, err
	}
	return feedback, nil
}

func (s *FeedbackService) list(ctx context.Context, filter repository.FeedbackFilter) ([]FeedbackView, error) {
	items, err := s.feedback.ListFeedback(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "list feedback")
	}
	names := newNameResolver(s.users)
	views := make([]FeedbackView, len(items))
	for i := range items {
		views[i] = s.viewWith(ctx, names, &items[i])
	}
	return views, nil
}

func (s *FeedbackService) view(ctx context.Context, feedback *models.Feedback) *FeedbackView {
	v := s.viewWith(ctx, newNameResolver(s.users), feedback)
	return &v
}

func (s *FeedbackService) viewWith(ctx context.Context, names *nameResolver, feedback *models.Feedback) FeedbackView {
	v := FeedbackView{
		Feedback:    *feedback,
		PatientName: names.name(ctx, feedback.PatientID),
		General:     feedback.IsGeneral(),
	}
	if feedback.DoctorID != nil {
		v.DoctorName = names.name(ctx, *feedback.DoctorID)
	}
	return v
}
