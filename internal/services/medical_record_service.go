package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"healthcare-portal-server/internal/apperrors"
	"healthcare-portal-server/internal/logger"
	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/policy"
	"healthcare-portal-server/internal/repository"
)

// MedicalRecordInput is the clinical outcome of one appointment.
// RecordDate defaults to the appointment date.
type MedicalRecordInput struct {
	AppointmentID string
	PatientID     string
	DoctorID      string
	RecordDate    string
	Diagnosis     string
	Prescription  string
	Notes         string
	Attachments   datatypes.JSON
}

// MedicalRecordUpdate carries optional changes. Nil fields are kept.
type MedicalRecordUpdate struct {
	Diagnosis    *string
	Prescription *string
	Notes        *string
	Attachments  datatypes.JSON
}

// MedicalRecordService records diagnoses against completed visits.
type MedicalRecordService struct {
	tx           Transactor
	records      MedicalRecordStore
	appointments AppointmentStore
	users        UserStore
	log          *logger.Logger
	now          func() time.Time
}

// NewMedicalRecordService creates a new MedicalRecordService.
func NewMedicalRecordService(tx Transactor, records MedicalRecordStore, appointments AppointmentStore, users UserStore, log *logger.Logger) *MedicalRecordService {
	return &MedicalRecordService{
		tx:           tx,
		records:      records,
		appointments: appointments,
		users:        users,
		log:          log,
		now:          time.Now,
	}
}

// CreateMedicalRecord stores the record of a CONFIRMED appointment and
// marks the appointment COMPLETED. One record exists per appointment and it
// cannot be written before the appointment has started.
func (s *MedicalRecordService) CreateMedicalRecord(ctx context.Context, id policy.Identity, in MedicalRecordInput) (*MedicalRecordView, error) {
	res := policy.Resource{PatientID: in.PatientID, DoctorID: in.DoctorID}
	if err := policy.Authorize(id, policy.ActionCreateMedicalRecord, res); err != nil {
		return nil, err
	}

	record := models.MedicalRecord{
		PatientID:     in.PatientID,
		DoctorID:      in.DoctorID,
		AppointmentID: in.AppointmentID,
		Diagnosis:     in.Diagnosis,
		Prescription:  in.Prescription,
		Notes:         in.Notes,
		Attachments:   in.Attachments,
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := requireUser(ctx, s.users, in.PatientID, models.RolePatient); err != nil {
			return err
		}
		if _, err := requireUser(ctx, s.users, in.DoctorID, models.RoleDoctor); err != nil {
			return err
		}
		appt, err := s.appointments.GetAppointment(ctx, in.AppointmentID)
		if err != nil {
			return lookupErr(err, "Appointment not found with ID: %s", in.AppointmentID)
		}
		if appt.DoctorID != in.DoctorID || appt.PatientID != in.PatientID {
			return apperrors.InvalidInput("Appointment does not belong to this doctor and patient")
		}
		if appt.Status != models.StatusConfirmed {
			return apperrors.InvalidInput("Medical records can only be created for CONFIRMED appointments")
		}

		record.RecordDate = appt.AppointmentDate
		if in.RecordDate != "" {
			date, err := models.ParseDate(in.RecordDate)
			if err != nil {
				return apperrors.InvalidInput("%s", err.Error())
			}
			if date != appt.AppointmentDate {
				return apperrors.InvalidInput("Record date must match the appointment date %s", appt.AppointmentDate)
			}
			record.RecordDate = date
		}
		if err := s.checkStarted(appt); err != nil {
			return err
		}

		exists, err := s.records.RecordExistsForAppointment(ctx, appt.ID)
		if err != nil {
			return storeErr(err, "check medical record")
		}
		if exists {
			return apperrors.AlreadyExists("A medical record already exists for appointment %s", appt.ID)
		}
		if err := s.records.CreateMedicalRecord(ctx, &record); err != nil {
			return storeErr(err, "create medical record")
		}

		appt.Status = models.StatusCompleted
		return storeErrOrNil(s.appointments.UpdateAppointment(ctx, appt), "complete appointment")
	})
	if err != nil {
		return nil, err
	}

	s.log.WithComponent("medical_records").WithFields(logrus.Fields{
		"record_id":      record.ID,
		"appointment_id": record.AppointmentID,
		"doctor_id":      record.DoctorID,
	}).Info("Medical record created")
	return s.view(ctx, &record), nil
}

// UpdateMedicalRecord edits the clinical fields of a record.
func (s *MedicalRecordService) UpdateMedicalRecord(ctx context.Context, id policy.Identity, recordID string, in MedicalRecordUpdate) (*MedicalRecordView, error) {
	var record *models.MedicalRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.load(ctx, id, policy.ActionUpdateMedicalRecord, recordID)
		if err != nil {
			return err
		}
		if in.Diagnosis != nil {
			current.Diagnosis = *in.Diagnosis
		}
		if in.Prescription != nil {
			current.Prescription = *in.Prescription
		}
		if in.Notes != nil {
			current.Notes = *in.Notes
		}
		if in.Attachments != nil {
			current.Attachments = in.Attachments
		}
		record = current
		return storeErrOrNil(s.records.UpdateMedicalRecord(ctx, current), "update medical record")
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, record), nil
}

func (s *MedicalRecordService) GetMedicalRecord(ctx context.Context, id policy.Identity, recordID string) (*MedicalRecordView, error) {
	record, err := s.load(ctx, id, policy.ActionViewMedicalRecord, recordID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, record), nil
}

// DeleteMedicalRecord removes a record. The appointment stays COMPLETED.
func (s *MedicalRecordService) DeleteMedicalRecord(ctx context.Context, id policy.Identity, recordID string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.load(ctx, id, policy.ActionDeleteMedicalRecord, recordID); err != nil {
			return err
		}
		if err := s.records.DeleteMedicalRecord(ctx, recordID); err != nil {
			return lookupErr(err, "Medical record not found with ID: %s", recordID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Audit(id.UserID, "delete", "medical_record", true, logrus.Fields{"record_id": recordID})
	return nil
}

func (s *MedicalRecordService) ListMedicalRecords(ctx context.Context, id policy.Identity) ([]MedicalRecordView, error) {
	if err := policy.Authorize(id, policy.ActionListAllMedicalRecords, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.MedicalRecordFilter{})
}

func (s *MedicalRecordService) ListByPatient(ctx context.Context, id policy.Identity, patientID string) ([]MedicalRecordView, error) {
	if err := policy.Authorize(id, policy.ActionListPatientRecords, policy.Resource{PatientID: patientID}); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.MedicalRecordFilter{PatientID: patientID})
}

func (s *MedicalRecordService) ListByDoctor(ctx context.Context, id policy.Identity, doctorID string) ([]MedicalRecordView, error) {
	if err := policy.Authorize(id, policy.ActionListDoctorRecords, policy.Resource{DoctorID: doctorID}); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.MedicalRecordFilter{DoctorID: doctorID})
}

// ListMine returns the records written for or by the caller.
func (s *MedicalRecordService) ListMine(ctx context.Context, id policy.Identity) ([]MedicalRecordView, error) {
	if err := policy.Authorize(id, policy.ActionListMyMedicalRecords, policy.Resource{}); err != nil {
		return nil, err
	}
	var filter repository.MedicalRecordFilter
	switch {
	case id.IsPatient():
		filter.PatientID = id.UserID
	case id.IsDoctor():
		filter.DoctorID = id.UserID
	}
	return s.list(ctx, filter)
}

func (s *MedicalRecordService) checkStarted(appt *models.Appointment) error {
	now := s.now()
	start, err := time.ParseInLocation(models.DateLayout+" "+models.TimeLayout, appt.AppointmentDate+" "+appt.AppointmentTime, now.Location())
	if err != nil {
		return apperrors.Internal(err, "invalid appointment time")
	}
	if now.Before(start) {
		return apperrors.InvalidInput("Cannot create a medical record before the appointment time")
	}
	return nil
}

func (s *MedicalRecordService) load(ctx context.Context, id policy.Identity, action policy.Action, recordID string) (*models.MedicalRecord, error) {
	record, err := s.records.GetMedicalRecord(ctx, recordID)
	if err != nil {
		return nil, lookupErr(err, "Medical record not found with ID: %s", recordID)
	}
	res := policy.Resource{PatientID: record.PatientID, DoctorID: record.DoctorID}
	if err := policy.Authorize(id, action, res); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *MedicalRecordService) list(ctx context.Context, filter repository.MedicalRecordFilter) ([]MedicalRecordView, error) {
	records, err := s.records.ListMedicalRecords(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "list medical records")
	}
	names := newNameResolver(s.users)
	views := make([]MedicalRecordView, len(records))
	for i, record := range records {
		views[i] = MedicalRecordView{
			MedicalRecord: record,
			PatientName:   names.name(ctx, record.PatientID),
			DoctorName:    names.name(ctx, record.DoctorID),
		}
	}
	return views, nil
}

func (s *MedicalRecordService) view(ctx context.Context, record *models.MedicalRecord) *MedicalRecordView {
	names := newNameResolver(s.users)
	return &MedicalRecordView{
		MedicalRecord: *record,
		PatientName:   names.name(ctx, record.PatientID),
		DoctorName:    names.name(ctx, record.DoctorID),
	}
}
