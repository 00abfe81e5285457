package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/carelink/portal-api/internal/config"
	"github.com/carelink/portal-api/internal/email"
	"github.com/carelink/portal-api/internal/handler"
	appointmentHandler "github.com/carelink/portal-api/internal/handler/appointment"
	authHandler "github.com/carelink/portal-api/internal/handler/auth"
	contactHandler "github.com/carelink/portal-api/internal/handler/contact"
	doctorHandler "github.com/carelink/portal-api/internal/handler/doctor"
	medicalHandler "github.com/carelink/portal-api/internal/handler/medical"
	patientHandler "github.com/carelink/portal-api/internal/handler/patient"
	"github.com/carelink/portal-api/internal/middleware"
	"github.com/carelink/portal-api/internal/repository/postgres"
	"github.com/carelink/portal-api/internal/router"
	appointmentService "github.com/carelink/portal-api/internal/service/appointment"
	authService "github.com/carelink/portal-api/internal/service/auth"
	contactService "github.com/carelink/portal-api/internal/service/contact"
	doctorService "github.com/carelink/portal-api/internal/service/doctor"
	medicalService "github.com/carelink/portal-api/internal/service/medical"
	patientService "github.com/carelink/portal-api/internal/service/patient"
	"github.com/carelink/portal-api/pkg/auth"
	"github.com/carelink/portal-api/pkg/logger"
	"github.com/carelink/portal-api/pkg/metrics"
	"github.com/carelink/portal-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	l := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("portal", "api")

	// Repositories
	outboxRepo := postgres.NewOutboxRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db, outboxRepo)
	medicalRepo := postgres.NewMedicalRecordRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)
	contactRepo := postgres.NewContactRepository(db)

	// Shared infrastructure
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        cfg.JWT.Expiry(),
		RefreshExpiry: cfg.JWT.RefreshExpiry(),
	})
	hasher := security.NewBcryptHasher(0)

	var emailSvc email.Service = email.NoopService{}
	if cfg.SMTP.Host != "" {
		emailSvc = email.NewSMTPService(email.Config{
			Host:            cfg.SMTP.Host,
			Port:            cfg.SMTP.Port,
			Username:        cfg.SMTP.Username,
			Password:        cfg.SMTP.Password,
			From:            cfg.SMTP.From,
			OperatorAddress: cfg.SMTP.OperatorAddress,
		}, l)
	}

	// Services
	authSvc := authService.NewService(profileRepo, tokenRepo, jwtSvc, hasher, emailSvc, cfg.JWT.RefreshExpiry(), l)
	appointmentSvc := appointmentService.NewService(appointmentRepo, doctorRepo, m, l)
	doctorSvc := doctorService.NewService(doctorRepo, l)
	patientSvc := patientService.NewService(patientRepo, l)
	medicalSvc := medicalService.NewService(medicalRepo, l)
	contactSvc := contactService.NewService(contactRepo, emailSvc, l)

	// HTTP surface
	authMW := middleware.NewAuthMiddleware(jwtSvc)
	r := router.NewRouter(
		authMW,
		handler.NewHandler(db),
		authHandler.NewHandler(authSvc),
		doctorHandler.NewHandler(doctorSvc, appointmentSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		patientHandler.NewHandler(patientSvc),
		medicalHandler.NewHandler(medicalSvc),
		contactHandler.NewHandler(contactSvc),
		router.Config{
			RateLimit:  rate.Limit(cfg.RateLimit.RPS),
			RateBurst:  cfg.RateLimit.Burst,
			CORSConfig: middleware.DefaultCORSConfig(),
			Timeout:    time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
