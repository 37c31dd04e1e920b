package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/account"
	"github.com/clinic/clinic/internal/domain/identity"
	"github.com/clinic/clinic/internal/domain/notification"
	"github.com/clinic/clinic/internal/domain/scheduling"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/middleware"
	"github.com/clinic/clinic/internal/platform/notify"
	"github.com/clinic/clinic/internal/platform/reminder"
)

// profileResolver adapts the identity service to the scheduling handler's
// account-to-profile lookups.
type profileResolver struct {
	identity *identity.Service
}

func (r *profileResolver) PatientProfileID(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	p, err := r.identity.GetPatientByAccount(ctx, accountID)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

func (r *profileResolver) PractitionerProfileID(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error) {
	p, err := r.identity.GetPractitionerByAccount(ctx, accountID)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

// partyResolver maps appointment profile references to accounts with contact
// details, for notification delivery.
type partyResolver struct {
	identity *identity.Service
	accounts *account.Service
}

func (r *partyResolver) PatientParty(ctx context.Context, patientProfileID uuid.UUID) (notification.Party, error) {
	p, err := r.identity.GetPatient(ctx, patientProfileID)
	if err != nil {
		return notification.Party{}, err
	}
	return r.party(ctx, p.AccountID)
}

func (r *partyResolver) DoctorParty(ctx context.Context, practitionerProfileID uuid.UUID) (notification.Party, error) {
	p, err := r.identity.GetPractitioner(ctx, practitionerProfileID)
	if err != nil {
		return notification.Party{}, err
	}
	return r.party(ctx, p.AccountID)
}

func (r *partyResolver) party(ctx context.Context, accountID uuid.UUID) (notification.Party, error) {
	a, err := r.accounts.Get(ctx, accountID)
	if err != nil {
		return notification.Party{}, err
	}
	name := a.FirstName
	if a.LastName != "" {
		name = a.FirstName + " " + a.LastName
	}
	return notification.Party{
		AccountID: a.ID,
		Name:      name,
		Email:     a.Email,
		Phone:     a.Phone,
	}, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic appointment API server",
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

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
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

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
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
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// API groups. The public group carries no auth; everything else requires
	// an authenticated account.
	public := e.Group("/api/v1")
	api := e.Group("/api/v1")
	if cfg.IsDev() {
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.JWTMiddleware(auth.JWTConfig{
			Secret: []byte(cfg.AuthSecret),
		}))
	}

	// -- Repositories and services --

	specialtyRepo := identity.NewSpecialtyRepo(pool)
	practitionerRepo := identity.NewPractitionerRepo(pool)
	patientRepo := identity.NewPatientRepo(pool)
	identitySvc := identity.NewService(specialtyRepo, practitionerRepo, patientRepo)

	accountRepo := account.NewRepo(pool)
	accountSvc := account.NewService(accountRepo, identitySvc).
		WithTxRunner(func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.RunInTx(ctx, pool, fn)
		})

	// Notification delivery stack. Log senders stand in for real email and
	// WhatsApp providers.
	templates := notify.NewTemplateEngine()
	dispatcher := notify.NewDispatcher(
		&notify.LogEmailSender{From: cfg.EmailFrom, Logger: logger},
		&notify.LogWhatsAppSender{From: cfg.WhatsAppFrom, Logger: logger},
		templates,
	)

	notificationRepo := notification.NewRepo(pool)
	parties := &partyResolver{identity: identitySvc, accounts: accountSvc}
	notificationSvc := notification.NewService(notificationRepo, parties, templates, dispatcher, logger)

	slotRepo := scheduling.NewSlotRepo(pool)
	appointmentRepo := scheduling.NewAppointmentRepo(pool)
	schedulingSvc := scheduling.NewService(slotRepo, appointmentRepo, notificationSvc)

	// The fallback admin must exist before the first request when the store
	// has no privileged account yet.
	if err := accountSvc.EnsureFallbackAdmin(ctx); err != nil {
		logger.Warn().Err(err).Msg("fallback admin check failed at startup")
	}

	// -- Handlers --

	profiles := &profileResolver{identity: identitySvc}

	account.NewHandler(accountSvc).RegisterRoutes(api, public)
	identity.NewHandler(identitySvc).RegisterRoutes(api, public)
	scheduling.NewHandler(schedulingSvc, profiles).RegisterRoutes(api, public)
	notification.NewHandler(notificationSvc).RegisterRoutes(api)

	// Daily reminder sweep for next-day appointments.
	sweepCtx, sweepCancel := context.WithCancel(ctx)
	defer sweepCancel()
	if cfg.ReminderEnabled {
		sweeper := reminder.NewSweeper(schedulingSvc, 24*time.Hour, logger)
		go sweeper.Start(sweepCtx)
	}

	// Start server with graceful shutdown.
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
