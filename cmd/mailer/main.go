package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"harmonia/api/internal/cache"
	"harmonia/api/internal/config"
	"harmonia/api/internal/log"
	"harmonia/api/internal/mail"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel, "mailer")

	if cfg.Mail.SMTPHost == "" {
		logger.Fatal().Msg("mail.smtphost is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, cfg.Redis, "harmonia-mailer")
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	sender, err := mail.NewSMTPSender(cfg.Mail)
	if err != nil {
		logger.Fatal().Err(err).Msg("smtp sender")
	}

	consumer := mail.NewConsumer(
		client,
		cfg.Mail.Stream,
		cfg.Mail.Group,
		cfg.Mail.Consumer,
		cfg.Mail.ClaimInterval,
		logger,
		mail.NewProcessor(sender, logger),
		mail.WithMaxDeliveries(cfg.Mail.MaxDeliveries),
	)

	logger.Info().Str("stream", cfg.Mail.Stream).Str("group", cfg.Mail.Group).Msg("mailer started")
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
		return
	}
	logger.Info().Msg("mailer exited cleanly")
}
