package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/alimikegami/campus-platform/auth-service/config"
	"github.com/alimikegami/campus-platform/auth-service/internal/app"
	"github.com/alimikegami/campus-platform/auth-service/internal/infrastructure/database/migrations"
	"github.com/alimikegami/campus-platform/auth-service/internal/infrastructure/mailer"
	"github.com/alimikegami/campus-platform/auth-service/internal/infrastructure/message-queue/kafka"
	"github.com/alimikegami/campus-platform/auth-service/internal/jobs"
	"github.com/alimikegami/campus-platform/auth-service/internal/notifier"
	"github.com/alimikegami/campus-platform/auth-service/internal/repository"
	"github.com/alimikegami/campus-platform/auth-service/internal/service"
	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	postgresDriver "github.com/alimikegami/campus-platform/auth-service/internal/infrastructure/database/postgres"
)

type eventPublisher interface {
	service.EventPublisher
	Close() error
}

func main() {
	config := config.CreateNewConfig()
	app.ConfigureLogger(config)

	if err := config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	db, err := postgresDriver.GetDBInstance(config.PostgreSQLConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()

	if config.PostgreSQLConfig.RunMigrations {
		if err := migrations.Run(context.Background(), db.DB); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	var sender notifier.Sender = mailer.NoopSender{}
	if config.SMTPConfig.Enabled() {
		sender = mailer.CreateSMTPSender(config.SMTPConfig)
	}
	dispatcher := notifier.NewDispatcher(sender, config.NotifierConfig.Workers, config.NotifierConfig.QueueSize)

	var publisher eventPublisher = kafka.NoopPublisher{}
	if config.KafkaConfig.BrokerAddress != "" {
		publisher = kafka.CreateKafkaPublisher(config)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}

	audit := jobs.NewLegacyHashAudit(repository.CreateNewRepository(db))
	_, err = jobs.Schedule(s, audit, time.Duration(config.AuditConfig.LegacyHashAuditIntervalMinutes)*time.Minute)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule legacy hash audit")
	}
	s.Start()

	server := app.App{
		DB:        db,
		Config:    config,
		Notifier:  dispatcher,
		Publisher: publisher,
	}
	if err := server.Build(); err != nil {
		log.Fatal().Err(err).Msg("Failed to build server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("Server stopped")
		}
	}

	if err := server.StopServer(); err != nil {
		log.Error().Err(err).Msg("Failed to stop server")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := dispatcher.Shutdown(drainCtx); err != nil {
		log.Error().Err(err).Msg("Notification queue not drained")
	}

	if err := s.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Failed to stop scheduler")
	}

	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close event publisher")
	}
}
