// Package storetest provides an in-memory implementation of every service
// store, for service and handler tests. It mirrors the SQL behavior of the
// gorm repositories: conditional claims, soft-deleted OTPs, unique indexes
// and foreign key actions on delete.
package storetest

import (
	"context"
	"errors"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/repository"
)

// ErrRestricted mirrors a RESTRICT foreign key refusing a delete.
var ErrRestricted = errors.New("row is referenced by a medical record")

type txKey struct{}

// Store holds every table in maps keyed by ID.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	now  func() time.Time

	users        map[string]models.User
	tokens       map[string]models.RefreshToken
	departments  map[string]models.Department
	schedules    map[string]models.DoctorSchedule
	appointments map[string]models.Appointment
	records      map[string]models.MedicalRecord
	feedback     map[string]models.Feedback
	otps         map[string]models.Otp
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		now:          time.Now,
		users:        map[string]models.User{},
		tokens:       map[string]models.RefreshToken{},
		departments:  map[string]models.Department{},
		schedules:    map[string]models.DoctorSchedule{},
		appointments: map[string]models.Appointment{},
		records:      map[string]models.MedicalRecord{},
		feedback:     map[string]models.Feedback{},
		otps:         map[string]models.Otp{},
	}
}

// SetClock sets the time used for CreatedAt and UpdatedAt.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

type snapshot struct {
	users        map[string]models.User
	tokens       map[string]models.RefreshToken
	departments  map[string]models.Department
	schedules    map[string]models.DoctorSchedule
	appointments map[string]models.Appointment
	records      map[string]models.MedicalRecord
	feedback     map[string]models.Feedback
	otps         map[string]models.Otp
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		users:        maps.Clone(s.users),
		tokens:       maps.Clone(s.tokens),
		departments:  maps.Clone(s.departments),
		schedules:    maps.Clone(s.schedules),
		appointments: maps.Clone(s.appointments),
		records:      maps.Clone(s.records),
		feedback:     maps.Clone(s.feedback),
		otps:         maps.Clone(s.otps),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.tokens = snap.tokens
	s.departments = snap.departments
	s.schedules = snap.schedules
	s.appointments = snap.appointments
	s.records = snap.records
	s.feedback = snap.feedback
	s.otps = snap.otps
}

// WithinTx serializes transactions and rolls every table back when fn
// fails. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) stamp(base *models.BaseModel) {
	now := s.now()
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

// Users

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUserUnique(user); err != nil {
		return err
	}
	s.stamp(&user.BaseModel)
	stored := *user
	stored.Department = nil
	s.users[user.ID] = stored
	return nil
}

func (s *Store) checkUserUnique(user *models.User) error {
	for id, other := range s.users {
		if id == user.ID {
			continue
		}
		if other.Email == user.Email {
			return repository.ErrDuplicate
		}
		if user.LicenseNumber != nil && other.LicenseNumber != nil && *user.LicenseNumber == *other.LicenseNumber {
			return repository.ErrDuplicate
		}
	}
	return nil
}

func (s *Store) withDepartment(user models.User) *models.User {
	if user.DepartmentID != nil {
		if dept, ok := s.departments[*user.DepartmentID]; ok {
			user.Department = &dept
		}
	}
	return &user
}

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.withDepartment(user), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return s.withDepartment(user), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListUsers(_ context.Context, role models.Role) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, user := range s.users {
		if role == "" || user.Role == role {
			out = append(out, *s.withDepartment(user))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].LastName < out[j].LastName
	})
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkUserUnique(user); err != nil {
		return err
	}
	s.stamp(&user.BaseModel)
	stored := *user
	stored.Department = nil
	s.users[user.ID] = stored
	return nil
}

// DeleteUser cascades like the foreign keys: owned rows go, feedback
// about a deleted doctor becomes general.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	for key, record := range s.records {
		if record.PatientID == id || record.DoctorID == id {
			delete(s.records, key)
		}
	}
	delete(s.users, id)
	for key, token := range s.tokens {
		if token.UserID == id {
			delete(s.tokens, key)
		}
	}
	for key, schedule := range s.schedules {
		if schedule.DoctorID == id {
			s.deleteScheduleLocked(key)
		}
	}
	for key, appt := range s.appointments {
		if appt.PatientID == id || appt.DoctorID == id {
			s.deleteAppointmentLocked(key)
		}
	}
	for key, fb := range s.feedback {
		switch {
		case fb.PatientID == id:
			delete(s.feedback, key)
		case fb.DoctorID != nil && *fb.DoctorID == id:
			fb.DoctorID = nil
			s.feedback[key] = fb
		}
	}
	return nil
}

// Refresh tokens

func (s *Store) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&token.BaseModel)
	s.tokens[token.ID] = *token
	return nil
}

func (s *Store) FindActiveRefreshToken(_ context.Context, token, userID string, now time.Time) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stored := range s.tokens {
		if stored.Token == token && stored.UserID == userID && !stored.IsRevoked && stored.ExpiresAt.After(now) {
			out := stored
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) RevokeRefreshToken(_ context.Context, token string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	revoked := false
	for key, stored := range s.tokens {
		if stored.Token == token && !stored.IsRevoked {
			stored.IsRevoked = true
			stored.ExpiresAt = now
			s.tokens[key] = stored
			revoked = true
		}
	}
	return revoked, nil
}

func (s *Store) RevokeUserTokens(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, stored := range s.tokens {
		if stored.UserID == userID && !stored.IsRevoked {
			stored.IsRevoked = true
			s.tokens[key] = stored
		}
	}
	return nil
}

// Departments

func (s *Store) CreateDepartment(_ context.Context, dept *models.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTakenLocked(dept.Name, dept.ID) {
		return repository.ErrDuplicate
	}
	s.stamp(&dept.BaseModel)
	s.departments[dept.ID] = *dept
	return nil
}

func (s *Store) GetDepartment(_ context.Context, id string) (*models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dept, ok := s.departments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &dept, nil
}

func (s *Store) ListDepartments(_ context.Context) ([]models.Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Department
	for _, dept := range s.departments {
		out = append(out, dept)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DepartmentNameTaken(_ context.Context, name, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nameTakenLocked(name, excludeID), nil
}

func (s *Store) nameTakenLocked(name, excludeID string) bool {
	for id, dept := range s.departments {
		if id != excludeID && strings.EqualFold(dept.Name, name) {
			return true
		}
	}
	return false
}

func (s *Store) UpdateDepartment(_ context.Context, dept *models.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTakenLocked(dept.Name, dept.ID) {
		return repository.ErrDuplicate
	}
	s.stamp(&dept.BaseModel)
	s.departments[dept.ID] = *dept
	return nil
}

func (s *Store) DeleteDepartment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.departments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.departments, id)
	for key, user := range s.users {
		if user.DepartmentID != nil && *user.DepartmentID == id {
			user.DepartmentID = nil
			s.users[key] = user
		}
	}
	return nil
}

// Schedules

func (s *Store) CreateSchedule(_ context.Context, schedule *models.DoctorSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&schedule.BaseModel)
	s.schedules[schedule.ID] = *schedule
	return nil
}

func (s *Store) GetSchedule(_ context.Context, id string) (*models.DoctorSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedule, ok := s.schedules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &schedule, nil
}

func (s *Store) ListSchedules(_ context.Context, filter repository.ScheduleFilter) ([]models.DoctorSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DoctorSchedule
	for _, schedule := range s.schedules {
		switch {
		case filter.DoctorID != "" && schedule.DoctorID != filter.DoctorID,
			filter.Date != "" && schedule.Date != filter.Date,
			filter.ExcludeID != "" && schedule.ID == filter.ExcludeID,
			filter.AvailableOnly && !schedule.IsAvailable:
			continue
		}
		out = append(out, schedule)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (s *Store) UpdateScheduleWindow(_ context.Context, schedule *models.DoctorSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.schedules[schedule.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.DoctorID = schedule.DoctorID
	stored.Date = schedule.Date
	stored.StartTime = schedule.StartTime
	stored.EndTime = schedule.EndTime
	stored.UpdatedAt = s.now()
	s.schedules[schedule.ID] = stored
	return nil
}

func (s *Store) DeleteSchedule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[id]; !ok {
		return repository.ErrNotFound
	}
	for key, appt := range s.appointments {
		if appt.ScheduleID == id && s.documentedLocked(key) {
			return ErrRestricted
		}
	}
	s.deleteScheduleLocked(id)
	return nil
}

func (s *Store) deleteScheduleLocked(id string) {
	delete(s.schedules, id)
	for key, appt := range s.appointments {
		if appt.ScheduleID == id {
			s.deleteAppointmentLocked(key)
		}
	}
}

// ClaimSchedule is the conditional update: it succeeds only while the
// schedule is available.
func (s *Store) ClaimSchedule(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedule, ok := s.schedules[id]
	if !ok || !schedule.IsAvailable {
		return false, nil
	}
	schedule.IsAvailable = false
	schedule.UpdatedAt = s.now()
	s.schedules[id] = schedule
	return true, nil
}

func (s *Store) ReleaseSchedule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if schedule, ok := s.schedules[id]; ok {
		schedule.IsAvailable = true
		schedule.UpdatedAt = s.now()
		s.schedules[id] = schedule
	}
	return nil
}

// Appointments

func (s *Store) CreateAppointment(_ context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&appt.BaseModel)
	s.appointments[appt.ID] = *appt
	return nil
}

func (s *Store) GetAppointment(_ context.Context, id string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &appt, nil
}

func (s *Store) ListAppointments(_ context.Context, filter repository.AppointmentFilter) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Appointment
	for _, appt := range s.appointments {
		switch {
		case filter.PatientID != "" && appt.PatientID != filter.PatientID,
			filter.DoctorID != "" && appt.DoctorID != filter.DoctorID,
			filter.ScheduleID != "" && appt.ScheduleID != filter.ScheduleID,
			filter.Date != "" && appt.AppointmentDate != filter.Date,
			filter.Status != "" && appt.Status != filter.Status:
			continue
		}
		out = append(out, appt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AppointmentDate != out[j].AppointmentDate {
			return out[i].AppointmentDate < out[j].AppointmentDate
		}
		return out[i].AppointmentTime < out[j].AppointmentTime
	})
	return out, nil
}

func (s *Store) UpdateAppointment(_ context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[appt.ID]; !ok {
		return repository.ErrNotFound
	}
	s.stamp(&appt.BaseModel)
	s.appointments[appt.ID] = *appt
	return nil
}

func (s *Store) DeleteAppointment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[id]; !ok {
		return repository.ErrNotFound
	}
	if s.documentedLocked(id) {
		return ErrRestricted
	}
	s.deleteAppointmentLocked(id)
	return nil
}

func (s *Store) deleteAppointmentLocked(id string) {
	delete(s.appointments, id)
}

func (s *Store) documentedLocked(appointmentID string) bool {
	for _, record := range s.records {
		if record.AppointmentID == appointmentID {
			return true
		}
	}
	return false
}

func (s *Store) HasActiveAppointment(_ context.Context, scheduleID, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, appt := range s.appointments {
		if appt.ScheduleID == scheduleID && id != excludeID && appt.Status != models.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) BookedTimes(_ context.Context, scheduleIDs []string) (map[string][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[string]bool, len(scheduleIDs))
	for _, id := range scheduleIDs {
		wanted[id] = true
	}
	seen := map[string]map[string]bool{}
	booked := make(map[string][]string, len(scheduleIDs))
	for _, appt := range s.appointments {
		if !wanted[appt.ScheduleID] || appt.Status == models.StatusCancelled {
			continue
		}
		if seen[appt.ScheduleID] == nil {
			seen[appt.ScheduleID] = map[string]bool{}
		}
		if seen[appt.ScheduleID][appt.AppointmentTime] {
			continue
		}
		seen[appt.ScheduleID][appt.AppointmentTime] = true
		booked[appt.ScheduleID] = append(booked[appt.ScheduleID], appt.AppointmentTime)
	}
	for id := range booked {
		sort.Strings(booked[id])
	}
	return booked, nil
}

// Medical records

func (s *Store) CreateMedicalRecord(_ context.Context, record *models.MedicalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.records {
		if other.AppointmentID == record.AppointmentID {
			return repository.ErrDuplicate
		}
	}
	s.stamp(&record.BaseModel)
	s.records[record.ID] = *record
	return nil
}

func (s *Store) GetMedicalRecord(_ context.Context, id string) (*models.MedicalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &record, nil
}

func (s *Store) ListMedicalRecords(_ context.Context, filter repository.MedicalRecordFilter) ([]models.MedicalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MedicalRecord
	for _, record := range s.records {
		if filter.PatientID != "" && record.PatientID != filter.PatientID {
			continue
		}
		if filter.DoctorID != "" && record.DoctorID != filter.DoctorID {
			continue
		}
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RecordDate != out[j].RecordDate {
			return out[i].RecordDate > out[j].RecordDate
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) RecordExistsForAppointment(_ context.Context, appointmentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.AppointmentID == appointmentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UpdateMedicalRecord(_ context.Context, record *models.MedicalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; !ok {
		return repository.ErrNotFound
	}
	s.stamp(&record.BaseModel)
	s.records[record.ID] = *record
	return nil
}

func (s *Store) DeleteMedicalRecord(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// Feedback

func (s *Store) CreateFeedback(_ context.Context, feedback *models.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&feedback.BaseModel)
	s.feedback[feedback.ID] = *feedback
	return nil
}

func (s *Store) GetFeedback(_ context.Context, id string) (*models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb, ok := s.feedback[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &fb, nil
}

func (s *Store) ListFeedback(_ context.Context, filter repository.FeedbackFilter) ([]models.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Feedback
	for _, fb := range s.feedback {
		switch {
		case filter.PatientID != "" && fb.PatientID != filter.PatientID,
			filter.DoctorID != "" && (fb.DoctorID == nil || *fb.DoctorID != filter.DoctorID),
			filter.GeneralOnly && fb.DoctorID != nil,
			filter.Rating != 0 && fb.Rating != filter.Rating:
			continue
		}
		out = append(out, fb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (s *Store) UpdateFeedback(_ context.Context, feedback *models.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.feedback[feedback.ID]; !ok {
		return repository.ErrNotFound
	}
	s.stamp(&feedback.BaseModel)
	s.feedback[feedback.ID] = *feedback
	return nil
}

func (s *Store) DeleteFeedback(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.feedback[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.feedback, id)
	return nil
}

// OTPs

func (s *Store) CreateOtp(_ context.Context, otp *models.Otp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&otp.BaseModel)
	s.otps[otp.ID] = *otp
	return nil
}

func (s *Store) InvalidateOtps(_ context.Context, email string, otpType models.OtpType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, otp := range s.otps {
		if otp.Email == email && otp.Type == otpType && !otp.DeletedAt.Valid {
			otp.DeletedAt = gorm.DeletedAt{Time: now, Valid: true}
			s.otps[id] = otp
		}
	}
	return nil
}

func (s *Store) CountOtpsSince(_ context.Context, email string, otpType models.OtpType, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, otp := range s.otps {
		if otp.Email == email && otp.Type == otpType && !otp.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *Store) LatestActiveOtp(_ context.Context, email string, otpType models.OtpType, now time.Time) (*models.Otp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Otp
	for _, otp := range s.otps {
		if otp.Email != email || otp.Type != otpType || otp.DeletedAt.Valid || otp.Used || !otp.ExpiresAt.After(now) {
			continue
		}
		if latest == nil || otp.CreatedAt.After(latest.CreatedAt) {
			candidate := otp
			latest = &candidate
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return latest, nil
}

func (s *Store) MarkOtpUsed(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp, ok := s.otps[id]
	if !ok || otp.DeletedAt.Valid || otp.Used {
		return false, nil
	}
	otp.Used = true
	s.otps[id] = otp
	return true, nil
}

func (s *Store) IncrementOtpAttempts(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if otp, ok := s.otps[id]; ok && !otp.DeletedAt.Valid {
		otp.Attempts++
		s.otps[id] = otp
	}
	return nil
}

func (s *Store) HasUsedOtp(_ context.Context, email string, otpType models.OtpType) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, otp := range s.otps {
		if otp.Email == email && otp.Type == otpType && otp.Used {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) PurgeOtps(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, otp := range s.otps {
		if otp.CreatedAt.Before(cutoff) {
			delete(s.otps, id)
			n++
		}
	}
	return n, nil
}

// Otps returns every stored code for email, including invalidated ones,
// oldest first.
func (s *Store) Otps(email string) []models.Otp {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Otp
	for _, otp := range s.otps {
		if otp.Email == email {
			out = append(out, otp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
