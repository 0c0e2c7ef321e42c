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

// AppointmentInput describes a new booking. Status may be empty (PENDING),
// PENDING or CONFIRMED.
type AppointmentInput struct {
	PatientID  string
	DoctorID   string
	ScheduleID string
	Date       string
	Time       string
	Reason     string
	Status     models.AppointmentStatus
}

// RescheduleInput moves an appointment to another schedule or time.
type RescheduleInput struct {
	ScheduleID string
	Date       string
	Time       string
	Reason     string
}

// AppointmentService books patients into doctor schedules. A schedule holds
// at most one non-cancelled appointment; its availability flag is claimed
// with a conditional update inside the booking transaction.
type AppointmentService struct {
	tx           Transactor
	appointments AppointmentStore
	schedules    ScheduleStore
	users        UserStore
	records      MedicalRecordStore
	log          *logger.Logger
	metrics      *metrics.Collector
}

// NewAppointmentService creates a new AppointmentService.
func NewAppointmentService(tx Transactor, appointments AppointmentStore, schedules ScheduleStore, users UserStore, records MedicalRecordStore, log *logger.Logger, m *metrics.Collector) *AppointmentService {
	return &AppointmentService{
		tx:           tx,
		appointments: appointments,
		schedules:    schedules,
		users:        users,
		records:      records,
		log:          log,
		metrics:      m,
	}
}

// CreateAppointment books a patient into a schedule and marks the schedule
// unavailable. It fails with AlreadyBooked when the schedule is taken.
func (s *AppointmentService) CreateAppointment(ctx context.Context, id policy.Identity, in AppointmentInput) (*AppointmentView, error) {
	if err := policy.Authorize(id, policy.ActionCreateAppointment, policy.Resource{PatientID: in.PatientID}); err != nil {
		return nil, err
	}

	date, clock, err := parseSlot(in.Date, in.Time)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = models.StatusPending
	}
	if status != models.StatusPending && status != models.StatusConfirmed {
		return nil, apperrors.InvalidInput("New appointments must be PENDING or CONFIRMED")
	}

	appt := models.Appointment{
		PatientID:       in.PatientID,
		DoctorID:        in.DoctorID,
		ScheduleID:      in.ScheduleID,
		AppointmentDate: date,
		AppointmentTime: clock,
		Reason:          in.Reason,
		Status:          status,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := requireUser(ctx, s.users, in.PatientID, models.RolePatient); err != nil {
			return err
		}
		if _, err := requireUser(ctx, s.users, in.DoctorID, models.RoleDoctor); err != nil {
			return err
		}
		schedule, err := s.schedules.GetSchedule(ctx, in.ScheduleID)
		if err != nil {
			return lookupErr(err, "Schedule not found with ID: %s", in.ScheduleID)
		}
		if schedule.DoctorID != in.DoctorID {
			return apperrors.InvalidInput("Schedule does not belong to the selected doctor")
		}
		if err := checkSlot(schedule, date, clock); err != nil {
			return err
		}
		if err := s.claim(ctx, schedule.ID, ""); err != nil {
			return err
		}
		if err := s.appointments.CreateAppointment(ctx, &appt); err != nil {
			return storeErr(err, "create appointment")
		}
		return nil
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindAlreadyBooked {
			s.metrics.RecordBooking("already_booked")
		}
		return nil, err
	}

	s.metrics.RecordBooking("created")
	s.log.WithComponent("appointments").WithFields(logrus.Fields{
		"appointment_id": appt.ID,
		"schedule_id":    appt.ScheduleID,
		"patient_id":     appt.PatientID,
		"doctor_id":      appt.DoctorID,
	}).Info("Appointment booked")
	return s.view(ctx, &appt), nil
}

// RescheduleAppointment moves an active appointment. Moving to another
// schedule claims the new one and releases the old one atomically.
func (s *AppointmentService) RescheduleAppointment(ctx context.Context, id policy.Identity, appointmentID string, in RescheduleInput) (*AppointmentView, error) {
	date, clock, err := parseSlot(in.Date, in.Time)
	if err != nil {
		return nil, err
	}

	var appt *models.Appointment
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, id, policy.ActionRescheduleAppointment, appointmentID)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return apperrors.InvalidInput("Cannot reschedule a %s appointment", current.Status)
		}

		scheduleID := in.ScheduleID
		if scheduleID == "" {
			scheduleID = current.ScheduleID
		}
		schedule, err := s.schedules.GetSchedule(ctx, scheduleID)
		if err != nil {
			return lookupErr(err, "Schedule not found with ID: %s", scheduleID)
		}
		if err := checkSlot(schedule, date, clock); err != nil {
			return err
		}

		if schedule.ID != current.ScheduleID {
			if err := s.claim(ctx, schedule.ID, current.ID); err != nil {
				return err
			}
			if err := s.schedules.ReleaseSchedule(ctx, current.ScheduleID); err != nil {
				return storeErr(err, "release schedule")
			}
		}

		current.ScheduleID = schedule.ID
		current.DoctorID = schedule.DoctorID
		current.AppointmentDate = date
		current.AppointmentTime = clock
		if in.Reason != "" {
			current.Reason = in.Reason
		}
		if err := s.appointments.UpdateAppointment(ctx, current); err != nil {
			return storeErr(err, "reschedule appointment")
		}
		appt = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, appt), nil
}

// CancelAppointment cancels an appointment and releases its schedule.
func (s *AppointmentService) CancelAppointment(ctx context.Context, id policy.Identity, appointmentID string) (*AppointmentView, error) {
	return s.transition(ctx, id, policy.ActionCancelAppointment, appointmentID, models.StatusCancelled)
}

// CompleteAppointment marks a confirmed appointment completed.
func (s *AppointmentService) CompleteAppointment(ctx context.Context, id policy.Identity, appointmentID string) (*AppointmentView, error) {
	return s.transition(ctx, id, policy.ActionCompleteAppointment, appointmentID, models.StatusCompleted)
}

// UpdateAppointmentStatus applies a guarded status transition. Moving to
// CANCELLED releases the schedule like CancelAppointment does.
func (s *AppointmentService) UpdateAppointmentStatus(ctx context.Context, id policy.Identity, appointmentID string, status models.AppointmentStatus) (*AppointmentView, error) {
	if !status.Valid() {
		return nil, apperrors.InvalidInput("Invalid appointment status: %s", status)
	}
	return s.transition(ctx, id, policy.ActionUpdateApptStatus, appointmentID, status)
}

// DeleteAppointment removes an appointment, releasing its schedule when the
// appointment still held it. Appointments with a medical record are kept.
func (s *AppointmentService) DeleteAppointment(ctx context.Context, id policy.Identity, appointmentID string) error {
	if err := policy.Authorize(id, policy.ActionDeleteAppointment, policy.Resource{}); err != nil {
		return err
	}

	var released bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		appt, err := s.appointments.GetAppointment(ctx, appointmentID)
		if err != nil {
			return lookupErr(err, "Appointment not found with ID: %s", appointmentID)
		}
		documented, err := s.records.RecordExistsForAppointment(ctx, appt.ID)
		if err != nil {
			return storeErr(err, "check medical record")
		}
		if documented {
			return apperrors.InvalidInput("Appointment has a medical record and cannot be deleted")
		}
		if appt.HoldsSchedule() {
			if err := s.schedules.ReleaseSchedule(ctx, appt.ScheduleID); err != nil {
				return storeErr(err, "release schedule")
			}
			released = true
		}
		if err := s.appointments.DeleteAppointment(ctx, appointmentID); err != nil {
			return lookupErr(err, "Appointment not found with ID: %s", appointmentID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if released {
		s.metrics.RecordScheduleRelease()
	}
	s.log.Audit(id.UserID, "delete", "appointment", true, logrus.Fields{"appointment_id": appointmentID})
	return nil
}

// GetAppointment returns one appointment visible to the caller.
func (s *AppointmentService) GetAppointment(ctx context.Context, id policy.Identity, appointmentID string) (*AppointmentView, error) {
	appt, err := s.load(ctx, id, policy.ActionViewAppointment, appointmentID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, appt), nil
}

// ListAppointments returns every appointment.
func (s *AppointmentService) ListAppointments(ctx context.Context, id policy.Identity) ([]AppointmentView, error) {
	if err := policy.Authorize(id, policy.ActionListAllAppointments, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.AppointmentFilter{})
}

// ListByPatient returns the appointments of one patient.
func (s *AppointmentService) ListByPatient(ctx context.Context, id policy.Identity, patientID string) ([]AppointmentView, error) {
	if err := policy.Authorize(id, policy.ActionListPatientAppts, policy.Resource{PatientID: patientID}); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.AppointmentFilter{PatientID: patientID})
}

// ListByDoctor returns the appointments of one doctor.
func (s *AppointmentService) ListByDoctor(ctx context.Context, id policy.Identity, doctorID string) ([]AppointmentView, error) {
	if err := policy.Authorize(id, policy.ActionListDoctorAppts, policy.Resource{DoctorID: doctorID}); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.AppointmentFilter{DoctorID: doctorID})
}

// ListByStatus returns the appointments in one status.
func (s *AppointmentService) ListByStatus(ctx context.Context, id policy.Identity, status models.AppointmentStatus) ([]AppointmentView, error) {
	if err := policy.Authorize(id, policy.ActionListApptsByStatus, policy.Resource{}); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.InvalidInput("Invalid appointment status: %s", status)
	}
	return s.list(ctx, repository.AppointmentFilter{Status: status})
}

// ListByDate returns the appointments on a date. Doctors only see their own.
func (s *AppointmentService) ListByDate(ctx context.Context, id policy.Identity, date string) ([]AppointmentView, error) {
	if err := policy.Authorize(id, policy.ActionListApptsByDate, policy.Resource{}); err != nil {
		return nil, err
	}
	date, err := models.ParseDate(date)
	if err != nil {
		return nil, apperrors.InvalidInput("%s", err.Error())
	}
	filter := repository.AppointmentFilter{Date: date}
	if id.IsDoctor() {
		filter.DoctorID = id.UserID
	}
	return s.list(ctx, filter)
}

// ListMine returns the caller's appointments: a patient's bookings, a
// doctor's schedule, or everything for an admin.
func (s *AppointmentService) ListMine(ctx context.Context, id policy.Identity) ([]AppointmentView, error) {
	if err := policy.Authorize(id, policy.ActionListMyAppointments, policy.Resource{}); err != nil {
		return nil, err
	}
	var filter repository.AppointmentFilter
	switch {
	case id.IsPatient():
		filter.PatientID = id.UserID
	case id.IsDoctor():
		filter.DoctorID = id.UserID
	}
	return s.list(ctx, filter)
}

// IsOwnAppointment reports whether the caller owns the appointment. Admins
// own everything. Lookup failures yield false.
func (s *AppointmentService) IsOwnAppointment(ctx context.Context, appointmentID string, id policy.Identity) bool {
	if id.IsAdmin() {
		return true
	}
	if _, err := s.users.GetUser(ctx, id.UserID); err != nil {
		return false
	}
	appt, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return false
	}
	switch {
	case id.IsPatient():
		return appt.PatientID == id.UserID
	case id.IsDoctor():
		return appt.DoctorID == id.UserID
	}
	return false
}

// claim takes a schedule for one appointment. Any other non-cancelled
// appointment on the schedule, or a cleared availability flag, means the
// schedule is already booked.
func (s *AppointmentService) claim(ctx context.Context, scheduleID, excludeAppointmentID string) error {
	active, err := s.appointments.HasActiveAppointment(ctx, scheduleID, excludeAppointmentID)
	if err != nil {
		return storeErr(err, "check schedule bookings")
	}
	if active {
		return apperrors.AlreadyBooked("Schedule is already booked")
	}
	claimed, err := s.schedules.ClaimSchedule(ctx, scheduleID)
	if err != nil {
		return storeErr(err, "book schedule")
	}
	if !claimed {
		return apperrors.AlreadyBooked("Schedule is already booked")
	}
	return nil
}

func (s *AppointmentService) transition(ctx context.Context, id policy.Identity, action policy.Action, appointmentID string, to models.AppointmentStatus) (*AppointmentView, error) {
	var (
		appt     *models.Appointment
		released bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, id, action, appointmentID)
		if err != nil {
			return err
		}
		appt = current
		if current.Status == to {
			return nil
		}
		if !models.CanTransition(current.Status, to) {
			return apperrors.InvalidInput("Cannot change appointment status from %s to %s", current.Status, to)
		}

		current.Status = to
		if err := s.appointments.UpdateAppointment(ctx, current); err != nil {
			return storeErr(err, "update appointment status")
		}
		if to == models.StatusCancelled {
			if err := s.schedules.ReleaseSchedule(ctx, current.ScheduleID); err != nil {
				return storeErr(err, "release schedule")
			}
			released = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if released {
		s.metrics.RecordScheduleRelease()
	}
	s.log.WithComponent("appointments").WithFields(logrus.Fields{
		"appointment_id": appt.ID,
		"status":         appt.Status,
		"user_id":        id.UserID,
	}).Info("Appointment status updated")
	return s.view(ctx, appt), nil
}

// load fetches an appointment and authorizes action against its owners.
func (s *AppointmentService) load(ctx context.Context, id policy.Identity, action policy.Action, appointmentID string) (*models.Appointment, error) {
	appt, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, lookupErr(err, "Appointment not found with ID: %s", appointmentID)
	}
	res := policy.Resource{PatientID: appt.PatientID, DoctorID: appt.DoctorID}
	if err := policy.Authorize(id, action, res); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *AppointmentService) list(ctx context.Context, filter repository.AppointmentFilter) ([]AppointmentView, error) {
	appts, err := s.appointments.ListAppointments(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "list appointments")
	}
	names := newNameResolver(s.users)
	views := make([]AppointmentView, len(appts))
	for i, appt := range appts {
		views[i] = AppointmentView{
			Appointment: appt,
			PatientName: names.name(ctx, appt.PatientID),
			DoctorName:  names.name(ctx, appt.DoctorID),
		}
	}
	return views, nil
}

func (s *AppointmentService) view(ctx context.Context, appt *models.Appointment) *AppointmentView {
	names := newNameResolver(s.users)
	return &AppointmentView{
		Appointment: *appt,
		PatientName: names.name(ctx, appt.PatientID),
		DoctorName:  names.name(ctx, appt.DoctorID),
	}
}

func parseSlot(date, clock string) (string, string, error) {
	d, err := models.ParseDate(date)
	if err != nil {
		return "", "", apperrors.InvalidInput("%s", err.Error())
	}
	c, err := models.ParseClock(clock)
	if err != nil {
		return "", "", apperrors.InvalidInput("%s", err.Error())
	}
	return d, c, nil
}

func checkSlot(schedule *models.DoctorSchedule, date, clock string) error {
	if schedule.Date != date {
		return apperrors.InvalidInput("Appointment date %s does not match schedule date %s", date, schedule.Date)
	}
	if !schedule.Contains(clock) {
		return apperrors.InvalidInput("Appointment time %s is outside the schedule window %s-%s", clock, schedule.StartTime, schedule.EndTime)
	}
	return nil
}
