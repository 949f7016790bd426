package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/weatherwear/weatherwear/internal/config"
	"github.com/weatherwear/weatherwear/internal/database"
	"github.com/weatherwear/weatherwear/internal/handler"
	"github.com/weatherwear/weatherwear/internal/logging"
	"github.com/weatherwear/weatherwear/internal/middleware"
	"github.com/weatherwear/weatherwear/internal/outfit"
	"github.com/weatherwear/weatherwear/internal/queue"
	"github.com/weatherwear/weatherwear/internal/repository"
	"github.com/weatherwear/weatherwear/internal/router"
	"github.com/weatherwear/weatherwear/internal/service"
	"github.com/weatherwear/weatherwear/internal/validator"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Options{
		User:   cfg.DBUser,
		Pass:   cfg.DBPass,
		Host:   cfg.DBHost,
		Port:   cfg.DBPort,
		Name:   cfg.DBName,
		TLSCA:  cfg.DBTLSCA,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	users := repository.NewUserRepo(db, cfg.BcryptCost)
	sessions := repository.NewSessionRepo(db, cfg.SessionTTL)
	devices := repository.NewDeviceRepo(db)
	wardrobe := repository.NewWardrobeRepo(db)
	readings := repository.NewReadingRepo(db)

	if n, err := sessions.DeleteExpired(ctx); err != nil {
		logger.Warn("expired session cleanup failed", "err", err)
	} else if n > 0 {
		logger.Info("expired sessions removed", "count", n)
	}

	var completer outfit.Completer
	if cfg.AIAPIKey != "" {
		completer = outfit.NewOpenAICompleter(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel, cfg.AITimeout)
	} else {
		logger.Warn("AI_API_KEY not set; outfit suggestions are disabled")
	}
	outfits := outfit.NewGenerator(completer, cfg.AITimeout)

	var publisher handler.EventPublisher
	if cfg.QueueEnabled {
		publisher = service.NewReadingPublisher(cfg.RabbitURL, logger)
		consumer := &queue.Consumer{URL: cfg.RabbitURL, Dir: "logs", Logger: logger}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("readings consumer stopped", "err", err)
			}
		}()
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig(), logger)
	if rdb == nil {
		logger.Warn("redis unavailable; rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(middleware.RequestLogger(logger))
	e.Static("/static", cfg.StaticDir)

	accounts := handler.NewAuthHandler(users, sessions, cfg.SessionTTL, cfg.CookieSecure, logger)
	router.RegisterRoutes(e, router.Deps{
		Auth:      middleware.NewAuthenticator(sessions, logger),
		Accounts:  accounts,
		Profile:   handler.NewProfileHandler(users, accounts, logger),
		Wardrobe:  handler.NewWardrobeHandler(wardrobe, logger),
		Devices:   handler.NewDeviceHandler(devices, logger),
		Sensors:   handler.NewSensorHandler(readings, publisher, logger),
		Outfits:   handler.NewOutfitHandler(wardrobe, outfits, logger),
		Pages:     handler.Pages{Dir: cfg.StaticDir},
		Health:    handler.Health(db),
		Ingest:    middleware.IngestAuth(cfg.IngestJWTSecret),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
