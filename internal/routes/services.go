package routes

import (
	"gorm.io/gorm"

	"healthcare-portal-server/internal/config"
	"healthcare-portal-server/internal/logger"
	"healthcare-portal-server/internal/mailer"
	"healthcare-portal-server/internal/metrics"
	"healthcare-portal-server/internal/repository"
	"healthcare-portal-server/internal/services"
	"healthcare-portal-server/internal/utils"
)

// Stores groups the persistence dependencies of the services.
type Stores struct {
	Tx             services.Transactor
	Users          services.UserStore
	RefreshTokens  services.RefreshTokenStore
	Departments    services.DepartmentStore
	Schedules      services.ScheduleStore
	Appointments   services.AppointmentStore
	MedicalRecords services.MedicalRecordStore
	Feedback       services.FeedbackStore
	Otps           services.OtpStore
}

// RepositoryStores backs every store with its gorm repository.
func RepositoryStores(db *gorm.DB) Stores {
	return Stores{
		Tx:             repository.NewTransactor(db),
		Users:          repository.NewUserRepository(db),
		RefreshTokens:  repository.NewRefreshTokenRepository(db),
		Departments:    repository.NewDepartmentRepository(db),
		Schedules:      repository.NewScheduleRepository(db),
		Appointments:   repository.NewAppointmentRepository(db),
		MedicalRecords: repository.NewMedicalRecordRepository(db),
		Feedback:       repository.NewFeedbackRepository(db),
		Otps:           repository.NewOtpRepository(db),
	}
}

// Services holds the application services shared by the HTTP handlers,
// the background jobs and the CLI commands.
type Services struct {
	Auth           *services.AuthService
	Otps           *services.OtpService
	Users          *services.UserService
	Departments    *services.DepartmentService
	Schedules      *services.ScheduleService
	Appointments   *services.AppointmentService
	MedicalRecords *services.MedicalRecordService
	Feedback       *services.FeedbackService
}

// NewServices wires the services on top of st.
func NewServices(st Stores, cfg *config.Config, log *logger.Logger, m *metrics.Collector, mail mailer.Mailer, otpOpts ...services.OtpOption) *Services {
	otps := services.NewOtpService(st.Tx, st.Otps, st.Users, mail, cfg.Otp, cfg.AppName, log, m, otpOpts...)
	return &Services{
		Auth:           services.NewAuthService(st.Tx, st.Users, st.RefreshTokens, st.Departments, otps, utils.TokenConfigFrom(cfg), log),
		Otps:           otps,
		Users:          services.NewUserService(st.Tx, st.Users, st.Departments, log),
		Departments:    services.NewDepartmentService(st.Tx, st.Departments, log),
		Schedules:      services.NewScheduleService(st.Tx, st.Schedules, st.Appointments, st.Users, log, m),
		Appointments:   services.NewAppointmentService(st.Tx, st.Appointments, st.Schedules, st.Users, st.MedicalRecords, log, m),
		MedicalRecords: services.NewMedicalRecordService(st.Tx, st.MedicalRecords, st.Appointments, st.Users, log),
		Feedback:       services.NewFeedbackService(st.Feedback, st.Users, log),
	}
}
