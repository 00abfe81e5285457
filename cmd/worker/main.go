package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/carelink/portal-api/internal/config"
	"github.com/carelink/portal-api/internal/email"
	"github.com/carelink/portal-api/internal/repository/postgres"
	internalworker "github.com/carelink/portal-api/internal/worker"
	"github.com/carelink/portal-api/pkg/logger"
	"github.com/carelink/portal-api/pkg/messaging/redis"
	"github.com/carelink/portal-api/pkg/metrics"
	"github.com/carelink/portal-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load worker configuration")
	}

	l := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.RedisURL,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
	}, l.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("portal", "worker")

	outboxRepo := postgres.NewOutboxRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db, outboxRepo)

	var emailSvc email.Service = email.NoopService{}
	if cfg.SMTPHost != "" {
		emailSvc = email.NewSMTPService(email.Config{
			Host:            cfg.SMTPHost,
			Port:            cfg.SMTPPort,
			Username:        cfg.SMTPUsername,
			Password:        cfg.SMTPPassword,
			From:            cfg.SMTPFrom,
			OperatorAddress: cfg.SMTPOperatorAddress,
		}, l)
	}

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.BatchSize,
		PollInterval:  cfg.PollInterval,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
		Retention:     cfg.OutboxRetention,
	}, l, m)

	reminder := internalworker.NewReminderWorker(
		appointmentRepo,
		profileRepo,
		emailSvc,
		cfg.ReminderInterval,
		l,
		m,
	)

	notifier := internalworker.NewNotifierWorker(broker, profileRepo, emailSvc, l)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		reminder.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := notifier.Start(ctx); err != nil {
			log.Error().Err(err).Msg("notifier worker failed")
		}
	}()

	startHealthServer(cfg.HealthPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down workers...")

	cancel()
	wg.Wait()
	log.Info().Msg("workers exited properly")
}

func startHealthServer(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			log.Error().Err(err).Msg("health server failed")
			os.Exit(1)
		}
	}()
}
