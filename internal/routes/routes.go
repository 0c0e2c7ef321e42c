package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"healthcare-portal-server/internal/config"
	"healthcare-portal-server/internal/handlers"
	"healthcare-portal-server/internal/metrics"
	"healthcare-portal-server/internal/middleware"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, svc *Services, cfg *config.Config, m *metrics.Collector) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Auth, svc.Otps, cfg)
	userHandler := handlers.NewUserHandler(svc.Users)
	departmentHandler := handlers.NewDepartmentHandler(svc.Departments)
	scheduleHandler := handlers.NewScheduleHandler(svc.Schedules)
	appointmentHandler := handlers.NewAppointmentHandler(svc.Appointments)
	medicalRecordHandler := handlers.NewMedicalRecordHandler(svc.MedicalRecords)
	feedbackHandler := handlers.NewFeedbackHandler(svc.Feedback)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		authRoutes.Use(middleware.RateLimit(cfg.RateLimit))
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
			authRoutes.POST("/send-signup-otp", authHandler.SendSignupOtp)
			authRoutes.POST("/verify-signup-otp", authHandler.VerifySignupOtp)
			authRoutes.POST("/forgot-password", authHandler.ForgotPassword)
			authRoutes.POST("/reset-password", authHandler.ResetPassword)
		}
	}

	// Authenticated routes. Role checks happen in the services.
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		userRoutes := private.Group("/users")
		{
			userRoutes.GET("/doctors", userHandler.GetDoctors)
			userRoutes.GET("/patients", userHandler.GetPatients)
			userRoutes.POST("", userHandler.CreateUser)
			userRoutes.GET("", userHandler.GetUsers)
			userRoutes.GET("/:id", userHandler.GetUserByID)
			userRoutes.PUT("/:id", userHandler.UpdateUser)
			userRoutes.DELETE("/:id", userHandler.DeleteUser)
		}

		departmentRoutes := private.Group("/departments")
		{
			departmentRoutes.GET("", departmentHandler.GetDepartments)
			departmentRoutes.GET("/:id", departmentHandler.GetDepartmentByID)
			departmentRoutes.POST("", departmentHandler.CreateDepartment)
			departmentRoutes.PUT("/:id", departmentHandler.UpdateDepartment)
			departmentRoutes.DELETE("/:id", departmentHandler.DeleteDepartment)
		}

		scheduleRoutes := private.Group("/doctor-schedules")
		{
			scheduleRoutes.POST("", scheduleHandler.CreateSchedule)
			scheduleRoutes.GET("/all", scheduleHandler.GetAllSchedules)
			scheduleRoutes.GET("/my-schedules", scheduleHandler.GetMySchedules)
			scheduleRoutes.GET("/available", scheduleHandler.GetAvailableSchedules)
			scheduleRoutes.GET("/doctor/:doctorId", scheduleHandler.GetDoctorSchedules)
			scheduleRoutes.DELETE("/my-schedules/:id", scheduleHandler.DeleteMySchedule)
			scheduleRoutes.GET("/:id", scheduleHandler.GetSchedule)
			scheduleRoutes.PUT("/:id", scheduleHandler.UpdateSchedule)
			scheduleRoutes.POST("/:id/book", scheduleHandler.BookSchedule)
			scheduleRoutes.DELETE("/:id", scheduleHandler.DeleteSchedule)
		}

		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("/all", appointmentHandler.GetAllAppointments)
			appointmentRoutes.GET("/my", appointmentHandler.GetMyAppointments)
			appointmentRoutes.GET("/date", appointmentHandler.GetAppointmentsByDate)
			appointmentRoutes.GET("/patient/:patientId", appointmentHandler.GetPatientAppointments)
			appointmentRoutes.GET("/doctor/:doctorId", appointmentHandler.GetDoctorAppointments)
			appointmentRoutes.GET("/status/:status", appointmentHandler.GetAppointmentsByStatus)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointment)
			appointmentRoutes.PUT("/:id/reschedule", appointmentHandler.RescheduleAppointment)
			appointmentRoutes.PUT("/:id/cancel", appointmentHandler.CancelAppointment)
			appointmentRoutes.PUT("/:id/complete", appointmentHandler.CompleteAppointment)
			appointmentRoutes.PUT("/:id/status", appointmentHandler.UpdateAppointmentStatus)
			appointmentRoutes.DELETE("/:id", appointmentHandler.DeleteAppointment)
		}

		medicalRecordRoutes := private.Group("/medical-records")
		{
			medicalRecordRoutes.POST("", medicalRecordHandler.CreateMedicalRecord)
			medicalRecordRoutes.GET("/all", medicalRecordHandler.GetAllMedicalRecords)
			medicalRecordRoutes.GET("/my", medicalRecordHandler.GetMyMedicalRecords)
			medicalRecordRoutes.GET("/patient/:patientId", medicalRecordHandler.GetMedicalRecordsForPatient)
			medicalRecordRoutes.GET("/doctor/:doctorId", medicalRecordHandler.GetMedicalRecordsForDoctor)
			medicalRecordRoutes.GET("/:id", medicalRecordHandler.GetMedicalRecordByID)
			medicalRecordRoutes.PUT("/:id", medicalRecordHandler.UpdateMedicalRecord)
			medicalRecordRoutes.DELETE("/:id", medicalRecordHandler.DeleteMedicalRecord)
		}

		feedbackRoutes := private.Group("/feedback")
		{
			feedbackRoutes.POST("", feedbackHandler.CreateFeedback)
			feedbackRoutes.GET("/all", feedbackHandler.GetAllFeedback)
			feedbackRoutes.GET("/my", feedbackHandler.GetMyFeedback)
			feedbackRoutes.GET("/general", feedbackHandler.GetGeneralFeedback)
			feedbackRoutes.GET("/rating", feedbackHandler.GetFeedbackByRating)
			feedbackRoutes.GET("/doctor/:doctorId", feedbackHandler.GetDoctorFeedback)
			feedbackRoutes.GET("/patient/:patientId", feedbackHandler.GetPatientFeedback)
			feedbackRoutes.GET("/:id", feedbackHandler.GetFeedback)
			feedbackRoutes.PUT("/:id", feedbackHandler.UpdateFeedback)
			feedbackRoutes.DELETE("/:id", feedbackHandler.DeleteFeedback)
		}
	}
}
