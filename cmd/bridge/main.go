package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/weatherwear/weatherwear/internal/bridge"
	"github.com/weatherwear/weatherwear/internal/config"
	"github.com/weatherwear/weatherwear/internal/logging"
)

func main() {
	cfg := config.LoadBridge()
	logger := logging.New(os.Getenv("APP_ENV"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := bridge.NewAPIClient(cfg.APIBaseURL, cfg.IngestJWTSecret, cfg.HTTPTimeout)
	limiter := bridge.NewLimiter(cfg.Window, cfg.PerDevice, nil)
	fwd := bridge.NewForwarder(api, limiter, cfg.Unit, logger)

	b := bridge.New(bridge.Options{
		Broker:    cfg.Broker,
		BaseTopic: cfg.BaseTopic,
		ClientID:  cfg.ClientID,
		Logger:    logger,
	}, fwd)

	logger.Info("bridge starting", "broker", cfg.Broker, "topic", b.Topic(), "window", cfg.Window, "per_device", cfg.PerDevice)
	if err := b.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
