package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"healthcare-portal-server/internal/config"
	"healthcare-portal-server/internal/jobs"
	"healthcare-portal-server/internal/logger"
	"healthcare-portal-server/internal/mailer"
	"healthcare-portal-server/internal/metrics"
	"healthcare-portal-server/internal/middleware"
	"healthcare-portal-server/internal/models"
	"healthcare-portal-server/internal/routes"
)

const shutdownTimeout = 15 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "healthcare-portal-server",
		Short: "Healthcare portal API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(purgeOtpsCmd())
	rootCmd.AddCommand(seedAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := models.OpenDB(databaseConfig(cfg))
			if err != nil {
				return err
			}
			if err := models.Migrate(db); err != nil {
				return err
			}
			log.Info("Database migrated")
			return nil
		},
	}
}

func purgeOtpsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-otps",
		Short: "Delete expired one-time codes once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			svc, _, err := buildServices(cfg, log, metrics.NewCollector())
			if err != nil {
				return err
			}
			_, err = jobs.RunOtpPurge(cmd.Context(), svc.Otps, log)
			return err
		},
	}
}

func seedAdminCmd() *cobra.Command {
	var email, password, firstName, lastName string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an administrator account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			svc, _, err := buildServices(cfg, log, metrics.NewCollector())
			if err != nil {
				return err
			}
			user, created, err := svc.Users.EnsureAdmin(cmd.Context(), email, password, firstName, lastName)
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("Created admin %s (%s)\n", user.Email, user.ID)
			} else {
				fmt.Printf("Admin %s already exists\n", user.Email)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&password, "password", "", "admin password (min 8 characters)")
	cmd.Flags().StringVar(&firstName, "first-name", "Admin", "admin first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "admin last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// bootstrap loads .env when present, then the configuration and logger.
func bootstrap() (*config.Config, *logger.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.New(cfg.LogLevel), nil
}

func databaseConfig(cfg *config.Config) models.DatabaseConfig {
	return models.DatabaseConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		Debug:        cfg.LogLevel == "debug",
	}
}

func buildServices(cfg *config.Config, log *logger.Logger, m *metrics.Collector) (*routes.Services, *gorm.DB, error) {
	db, err := models.OpenDB(databaseConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	mail, err := mailer.New(cfg.Mailer, cfg.AppName, log)
	if err != nil {
		return nil, nil, err
	}
	return routes.NewServices(routes.RepositoryStores(db), cfg, log, m, mail), db, nil
}

func runServer() error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.NewCollector()
	svc, db, err := buildServices(cfg, log, m)
	if err != nil {
		return err
	}
	if err := models.Migrate(db); err != nil {
		return err
	}

	scheduler, err := jobs.NewScheduler(cfg.Otp.PurgeSchedule, svc.Otps, log)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(m.GinMiddleware())

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, svc, cfg, m)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).WithField("environment", cfg.Environment).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
