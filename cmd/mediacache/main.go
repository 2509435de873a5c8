package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cirruslabs/mediacache/internal/command"
	"github.com/cirruslabs/mediacache/internal/logginglevel"
	"github.com/cirruslabs/mediacache/internal/opentelemetry"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize logger
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logginglevel.Level
	loggerConfig.Encoding = "console"
	loggerConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()

	logger, err := loggerConfig.Build()
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	zap.ReplaceGlobals(logger)

	// Initialize OpenTelemetry
	_, opentelemetryDeinit, err := opentelemetry.Init(ctx)
	if err != nil {
		logger.Sugar().Fatal(err)
	}
	defer opentelemetryDeinit()

	if err := command.NewRootCommand().ExecuteContext(ctx); err != nil {
		logger.Sugar().Error(err)

		//nolint:gocritic // deferred calls are unlikely to matter on exit
		os.Exit(1)
	}
}
