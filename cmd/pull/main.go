package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/resource-pull/internal/bootstrap"
	"github.com/lisanmuaddib/resource-pull/internal/runner"
	"github.com/lisanmuaddib/resource-pull/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Only log warning since .env is optional
		logrus.WithError(err).Warn("Error loading .env file")
	}

	log, err := logging.NewLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	if err != nil {
		log = logrus.New()
		log.SetFormatter(logging.NewColoredJSONFormatter())
		log.WithError(err).Warn("Invalid logging settings, defaulting to INFO")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("Received shutdown signal")
		cancel()
	}()

	config, err := bootstrap.NewConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	app, err := bootstrap.New(ctx, config, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize pull")
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.WithError(err).Warn("Failed to close backends")
		}
	}()

	r, err := runner.New(func(ctx context.Context) error {
		_, err := app.RunOnce(ctx)
		return err
	}, config.Pull.Schedule, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create runner")
	}

	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		app.Close()
		log.WithError(err).Fatal("Pull stopped with error")
	}

	log.Info("Pull shutdown complete")
}
