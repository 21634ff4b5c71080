package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smartmed/smartmed/internal/config"
	"github.com/smartmed/smartmed/internal/domain/alert"
	"github.com/smartmed/smartmed/internal/domain/appointment"
	"github.com/smartmed/smartmed/internal/domain/doctor"
	"github.com/smartmed/smartmed/internal/domain/identity"
	"github.com/smartmed/smartmed/internal/domain/patient"
	"github.com/smartmed/smartmed/internal/domain/report"
	"github.com/smartmed/smartmed/internal/domain/treatment"
	"github.com/smartmed/smartmed/internal/domain/vitals"
	"github.com/smartmed/smartmed/internal/platform/aiengine"
	"github.com/smartmed/smartmed/internal/platform/auth"
	"github.com/smartmed/smartmed/internal/platform/db"
	"github.com/smartmed/smartmed/internal/platform/filestore"
	"github.com/smartmed/smartmed/internal/platform/middleware"
	"github.com/smartmed/smartmed/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "smartmed-server",
		Short: "SmartMed Clinic API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	files, err := filestore.NewDiskStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("failed to open upload directory")
	}

	var sender notification.EmailSender
	if cfg.SMTPHost != "" {
		sender = notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFromAddress())
		logger.Info().Str("host", cfg.SMTPHost).Msg("smtp mail delivery enabled")
	} else {
		sender = &notification.LogSender{Logger: logger}
		logger.Warn().Msg("SMTP_HOST not set; outbound mail is logged only")
	}
	mailer := notification.NewMailer(sender, notification.NewTemplateEngine())

	secret := []byte(cfg.JWTSecret)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit("1M", "11M"))
	e.Use(middleware.RequestTimeout(150 * time.Second))

	e.GET("/health", db.HealthHandler(pool))

	api := e.Group("/api")
	authed := e.Group("/api", auth.Middleware(secret))

	// Identity
	userRepo := identity.NewRepo(pool)
	identitySvc := identity.NewService(userRepo, secret, cfg.DoctorAccessCode)
	identity.NewHandler(identitySvc).RegisterRoutes(api, authed)

	// Patients
	txRunner := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}
	patientRepo := patient.NewRepo(pool)
	patientSvc := patient.NewService(patientRepo, userRepo, mailer, logger, cfg.DefaultPatientPassword, txRunner)
	patient.NewHandler(patientSvc).RegisterRoutes(authed)

	// Treatments
	treatmentSvc := treatment.NewService(treatment.NewRepo(pool), patientSvc)
	treatment.NewHandler(treatmentSvc).RegisterRoutes(authed)

	// Vitals
	vitalsSvc := vitals.NewService(vitals.NewRepo(pool), patientSvc)
	vitals.NewHandler(vitalsSvc).RegisterRoutes(authed)

	// Appointments
	appointmentSvc := appointment.NewService(appointment.NewRepo(pool), patientSvc, mailer, logger)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(authed)

	// Alerts
	alertSvc := alert.NewService(alert.NewRepo(pool), patientSvc)
	alert.NewHandler(alertSvc).RegisterRoutes(authed)

	// Reports
	reportSvc := report.NewService(report.NewRepo(pool), patientSvc, files, logger)
	report.NewHandler(reportSvc).RegisterRoutes(authed)

	// Doctor dashboard
	doctor.NewHandler(doctor.NewService(doctor.NewRepo(pool))).RegisterRoutes(authed)

	// AI engine proxy
	aiengine.NewHandler(aiengine.NewClient(cfg.AIEngineURL), files, logger).RegisterRoutes(authed)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
