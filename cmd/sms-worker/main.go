package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	smsadapter "github.com/ajayykmr/ghasedak-sms-go/internal/adapters/sms"
	"github.com/ajayykmr/ghasedak-sms-go/internal/config"
	"github.com/ajayykmr/ghasedak-sms-go/internal/kafka/consumer"
	"github.com/ajayykmr/ghasedak-sms-go/internal/kafka/producer"
	kafkapublisher "github.com/ajayykmr/ghasedak-sms-go/internal/kafka/publisher"
	"github.com/ajayykmr/ghasedak-sms-go/internal/logger"
	"github.com/ajayykmr/ghasedak-sms-go/internal/models"
	"github.com/ajayykmr/ghasedak-sms-go/internal/ops"
	"github.com/ajayykmr/ghasedak-sms-go/internal/providers/factory"
	"github.com/ajayykmr/ghasedak-sms-go/internal/worker"
	smsvalidator "github.com/ajayykmr/ghasedak-sms-go/internal/worker/validator/sms"
)

const drainTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fail("logger init", err)
	}
	log := baseLogger.With().Str("component", "sms-worker").Logger()

	prod, err := producer.New(cfg.Kafka.Brokers, logger.Component(log, "kafka"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka producer")
	}
	defer func() {
		if err := prod.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka producer")
		}
	}()

	cons, err := consumer.New(cfg.Kafka.Brokers, cfg.Worker.ConsumerGroup, logger.Component(log, "consumer"), cfg.Worker.CommitOnSuccessOnly)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka consumer")
	}
	defer func() {
		if err := cons.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka consumer")
		}
	}()

	statusPublisher := kafkapublisher.NewStatusPublisher(prod, cfg.Topics.Status, logger.Component(log, "status-publisher"))
	dlqPublisher := kafkapublisher.NewDLQPublisher(prod, cfg.Topics.DLQ, logger.Component(log, "dlq-publisher"))

	provider, err := factory.SMS(cfg.Provider, logger.Component(log, "sms-provider"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise sms provider")
	}

	adapter, err := smsadapter.NewAdapter(provider, logger.Component(log, "sms-adapter"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise sms adapter")
	}

	engine, err := worker.NewEngine(worker.Config{
		Channel:           models.ChannelSMS,
		MsgMaxBytes:       cfg.Validation.MsgMaxBytes,
		WorkerConcurrency: cfg.Worker.Concurrency,
	}, worker.Dependencies{
		Adapter:         adapter,
		Validator:       smsvalidator.New(cfg.Validation, logger.Component(log, "sms-validator")),
		StatusPublisher: statusPublisher,
		DLQPublisher:    dlqPublisher,
		Logger:          log,
		Now:             time.Now,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise worker engine")
	}

	opsServer := ops.New(ops.Config{
		Port:          cfg.App.Port,
		CheckTimeout:  time.Duration(cfg.Health.CheckTimeoutMs) * time.Millisecond,
		ProbeProvider: cfg.Health.EnableProviderProbe,
	}, ops.Dependencies{
		Consumer: cons,
		Producer: prod,
		Provider: provider,
	}, log)
	opsServer.Start()

	errCh := make(chan error, 1)
	go func() {
		if err := cons.Consume(ctx, []string{cfg.Topics.Request}, worker.KafkaHandler(engine, cons)); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info().
		Str("request_topic", cfg.Topics.Request).
		Str("provider", cfg.Provider.Name).
		Int("concurrency", cfg.Worker.Concurrency).
		Msg("sms worker started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("consumer terminated with error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := engine.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("in-flight records did not finish before shutdown")
	}
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to stop ops server")
	}
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("sms worker init failed")
}
