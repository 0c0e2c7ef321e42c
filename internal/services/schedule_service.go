package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"healthcare-portal-server/internal/apperrors"
	"healthcare-portal-server/internal/logger"
	"healthcare-portal-server/internal/metrics"
	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/policy"
	"healthcare-portal-server/internal/repository"
)

// ScheduleInput describes a schedule window. Times accept HH:MM or HH:MM:00.
type ScheduleInput struct {
	DoctorID  string
	Date      string
	StartTime string
	EndTime   string
}

func (in ScheduleInput) normalize() (ScheduleInput, error) {
	var err error
	if in.Date, err = models.ParseDate(in.Date); err != nil {
		return in, apperrors.InvalidInput("%s", err.Error())
	}
	if in.StartTime, err = models.ParseClock(in.StartTime); err != nil {
		return in, apperrors.InvalidInput("%s", err.Error())
	}
	if in.EndTime, err = models.ParseClock(in.EndTime); err != nil {
		return in, apperrors.InvalidInput("%s", err.Error())
	}
	if in.StartTime >= in.EndTime {
		return in, apperrors.InvalidInput("Start time must be before end time")
	}
	return in, nil
}

// ScheduleService manages doctor availability windows.
type ScheduleService struct {
	tx           Transactor
	schedules    ScheduleStore
	appointments AppointmentStore
	users        UserStore
	log          *logger.Logger
	metrics      *metrics.Collector
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(tx Transactor, schedules ScheduleStore, appointments AppointmentStore, users UserStore, log *logger.Logger, m *metrics.Collector) *ScheduleService {
	return &ScheduleService{
		tx:           tx,
		schedules:    schedules,
		appointments: appointments,
		users:        users,
		log:          log,
		metrics:      m,
	}
}

// CreateSchedule opens a new available window for a doctor. It fails with
// TimeConflict when the window overlaps another window of the same doctor
// on the same date.
func (s *ScheduleService) CreateSchedule(ctx context.Context, id policy.Identity, in ScheduleInput) (*ScheduleView, error) {
	if err := policy.Authorize(id, policy.ActionCreateSchedule, policy.Resource{DoctorID: in.DoctorID}); err != nil {
		return nil, err
	}
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	schedule := models.DoctorSchedule{
		DoctorID:    in.DoctorID,
		Date:        in.Date,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		IsAvailable: true,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := requireUser(ctx, s.users, in.DoctorID, models.RoleDoctor); err != nil {
			return err
		}
		if err := s.checkOverlap(ctx, in, ""); err != nil {
			return err
		}
		if err := s.schedules.CreateSchedule(ctx, &schedule); err != nil {
			return storeErr(err, "create schedule")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithComponent("schedules").WithFields(logrus.Fields{
		"schedule_id": schedule.ID,
		"doctor_id":   schedule.DoctorID,
		"date":        schedule.Date,
	}).Info("Schedule created")
	return s.view(ctx, &schedule)
}

// UpdateSchedule moves a window. The overlap check ignores the window itself.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, id policy.Identity, scheduleID string, in ScheduleInput) (*ScheduleView, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	var schedule *models.DoctorSchedule
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.schedules.GetSchedule(ctx, scheduleID)
		if err != nil {
			return lookupErr(err, "Schedule not found with ID: %s", scheduleID)
		}
		for _, doctorID := range []string{existing.DoctorID, in.DoctorID} {
			if err := policy.Authorize(id, policy.ActionUpdateSchedule, policy.Resource{DoctorID: doctorID}); err != nil {
				return err
			}
		}
		if _, err := requireUser(ctx, s.users, in.DoctorID, models.RoleDoctor); err != nil {
			return err
		}
		if err := s.checkOverlap(ctx, in, existing.ID); err != nil {
			return err
		}

		moved := *existing
		moved.DoctorID = in.DoctorID
		moved.Date = in.Date
		moved.StartTime = in.StartTime
		moved.EndTime = in.EndTime
		if err := s.checkBookingsFit(ctx, existing, &moved); err != nil {
			return err
		}

		existing = &moved
		if err := s.schedules.UpdateScheduleWindow(ctx, existing); err != nil {
			return storeErr(err, "update schedule")
		}
		schedule = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, schedule)
}

// DeleteSchedule removes any schedule that holds no booking.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, id policy.Identity, scheduleID string) error {
	if err := policy.Authorize(id, policy.ActionDeleteSchedule, policy.Resource{}); err != nil {
		return err
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.schedules.GetSchedule(ctx, scheduleID); err != nil {
			return lookupErr(err, "Schedule not found with ID: %s", scheduleID)
		}
		return s.deleteUnbooked(ctx, scheduleID)
	})
	if err != nil {
		return err
	}
	s.log.WithUserID(id.UserID).WithField("schedule_id", scheduleID).Info("Schedule deleted")
	return nil
}

// DeleteMySchedule removes one of the caller's own schedules. A schedule of
// another doctor is reported as not found.
func (s *ScheduleService) DeleteMySchedule(ctx context.Context, id policy.Identity, scheduleID string) error {
	if err := policy.Authorize(id, policy.ActionDeleteMySchedule, policy.Resource{}); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		schedule, err := s.schedules.GetSchedule(ctx, scheduleID)
		if err != nil {
			return lookupErr(err, "Schedule not found with ID: %s", scheduleID)
		}
		if schedule.DoctorID != id.UserID {
			return apperrors.NotFound("Schedule not found with ID: %s", scheduleID)
		}
		return s.deleteUnbooked(ctx, scheduleID)
	})
}

// deleteUnbooked removes a schedule unless a non-cancelled appointment
// references it. Completed visits and their medical records are kept.
func (s *ScheduleService) deleteUnbooked(ctx context.Context, scheduleID string) error {
	booked, err := s.appointments.HasActiveAppointment(ctx, scheduleID, "")
	if err != nil {
		return storeErr(err, "check schedule bookings")
	}
	if booked {
		return apperrors.AlreadyBooked("Schedule has appointments and cannot be deleted")
	}
	if err := s.schedules.DeleteSchedule(ctx, scheduleID); err != nil {
		return lookupErr(err, "Schedule not found with ID: %s", scheduleID)
	}
	return nil
}

// checkBookingsFit rejects a change that would leave a non-cancelled
// appointment outside its schedule or with another doctor.
func (s *ScheduleService) checkBookingsFit(ctx context.Context, current, moved *models.DoctorSchedule) error {
	appts, err := s.appointments.ListAppointments(ctx, repository.AppointmentFilter{ScheduleID: current.ID})
	if err != nil {
		return storeErr(err, "list schedule appointments")
	}
	for i := range appts {
		appt := &appts[i]
		if !appt.HoldsSchedule() {
			continue
		}
		if moved.DoctorID != current.DoctorID {
			return apperrors.InvalidInput("Cannot move a booked schedule to another doctor")
		}
		if err := checkSlot(moved, appt.AppointmentDate, appt.AppointmentTime); err != nil {
			return apperrors.InvalidInput("Booked appointment at %s %s would fall outside the schedule", appt.AppointmentDate, appt.AppointmentTime)
		}
	}
	return nil
}

// GetSchedule returns one schedule with its booked times.
func (s *ScheduleService) GetSchedule(ctx context.Context, id policy.Identity, scheduleID string) (*ScheduleView, error) {
	if err := policy.Authorize(id, policy.ActionViewSchedules, policy.Resource{}); err != nil {
		return nil, err
	}
	schedule, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, lookupErr(err, "Schedule not found with ID: %s", scheduleID)
	}
	return s.view(ctx, schedule)
}

// ListSchedules returns every schedule.
func (s *ScheduleService) ListSchedules(ctx context.Context, id policy.Identity) ([]ScheduleView, error) {
	if err := policy.Authorize(id, policy.ActionViewSchedules, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.ScheduleFilter{})
}

// ListMySchedules returns the calling doctor's schedules.
func (s *ScheduleService) ListMySchedules(ctx context.Context, id policy.Identity) ([]ScheduleView, error) {
	if err := policy.Authorize(id, policy.ActionListMySchedules, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.ScheduleFilter{DoctorID: id.UserID})
}

// ListDoctorSchedules returns the schedules of one doctor.
func (s *ScheduleService) ListDoctorSchedules(ctx context.Context, id policy.Identity, doctorID string) ([]ScheduleView, error) {
	if err := policy.Authorize(id, policy.ActionListDoctorSchedules, policy.Resource{DoctorID: doctorID}); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.ScheduleFilter{DoctorID: doctorID})
}

// FindAvailableSchedules returns the available schedules on a date.
func (s *ScheduleService) FindAvailableSchedules(ctx context.Context, id policy.Identity, date string) ([]ScheduleView, error) {
	if err := policy.Authorize(id, policy.ActionViewSchedules, policy.Resource{}); err != nil {
		return nil, err
	}
	date, err := models.ParseDate(date)
	if err != nil {
		return nil, apperrors.InvalidInput("%s", err.Error())
	}
	return s.list(ctx, repository.ScheduleFilter{Date: date, AvailableOnly: true})
}

// BookSchedule claims a whole schedule without creating an appointment.
func (s *ScheduleService) BookSchedule(ctx context.Context, id policy.Identity, scheduleID string) (*ScheduleView, error) {
	if err := policy.Authorize(id, policy.ActionBookSchedule, policy.Resource{}); err != nil {
		return nil, err
	}

	var schedule *models.DoctorSchedule
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.schedules.GetSchedule(ctx, scheduleID)
		if err != nil {
			return lookupErr(err, "Schedule not found with ID: %s", scheduleID)
		}
		claimed, err := s.schedules.ClaimSchedule(ctx, scheduleID)
		if err != nil {
			return storeErr(err, "book schedule")
		}
		if !claimed {
			return apperrors.AlreadyBooked("Schedule is already booked")
		}
		existing.IsAvailable = false
		schedule = existing
		return nil
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindAlreadyBooked {
			s.metrics.RecordBooking("already_booked")
		}
		return nil, err
	}
	s.metrics.RecordBooking("schedule_booked")
	return s.view(ctx, schedule)
}

func (s *ScheduleService) checkOverlap(ctx context.Context, in ScheduleInput, excludeID string) error {
	existing, err := s.schedules.ListSchedules(ctx, repository.ScheduleFilter{
		DoctorID:  in.DoctorID,
		Date:      in.Date,
		ExcludeID: excludeID,
	})
	if err != nil {
		return storeErr(err, "check schedule conflicts")
	}
	for _, other := range existing {
		if models.Overlaps(in.StartTime, in.EndTime, other.StartTime, other.EndTime) {
			return apperrors.TimeConflict("Schedule conflicts with an existing schedule from %s to %s", other.StartTime, other.EndTime)
		}
	}
	return nil
}

func (s *ScheduleService) list(ctx context.Context, filter repository.ScheduleFilter) ([]ScheduleView, error) {
	schedules, err := s.schedules.ListSchedules(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "list schedules")
	}
	return s.views(ctx, schedules)
}

func (s *ScheduleService) view(ctx context.Context, schedule *models.DoctorSchedule) (*ScheduleView, error) {
	views, err := s.views(ctx, []models.DoctorSchedule{*schedule})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *ScheduleService) views(ctx context.Context, schedules []models.DoctorSchedule) ([]ScheduleView, error) {
	ids := make([]string, len(schedules))
	for i := range schedules {
		ids[i] = schedules[i].ID
	}
	booked, err := s.appointments.BookedTimes(ctx, ids)
	if err != nil {
		return nil, storeErr(err, "load booked times")
	}

	names := newNameResolver(s.users)
	views := make([]ScheduleView, len(schedules))
	for i, schedule := range schedules {
		times := booked[schedule.ID]
		if times == nil {
			times = []string{}
		}
		views[i] = ScheduleView{
			DoctorSchedule: schedule,
			DoctorName:     names.name(ctx, schedule.DoctorID),
			BookedTimes:    times,
		}
	}
	return views, nil
}
