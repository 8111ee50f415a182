// server/cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"starhawk-api-server/config"
	"starhawk-api-server/internal/api/routes"
	"starhawk-api-server/internal/auth"
	"starhawk-api-server/internal/database"
	"starhawk-api-server/internal/events"
	"starhawk-api-server/internal/logging"
	"starhawk-api-server/internal/notification"
	"starhawk-api-server/internal/reports"
	"starhawk-api-server/internal/s3"
	"starhawk-api-server/internal/satellite"
	"starhawk-api-server/internal/socket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(start())
}

// start returns the exit code so deferred cleanup runs before os.Exit.
func start() int {
	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Printf("Could not load config: %v", err)
		return 1
	}

	logger, err := logging.New(cfg.Env, cfg.Log.Level)
	if err != nil {
		log.Printf("Could not build logger: %v", err)
		return 1
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. Database
	store, err := database.Connect(ctx, cfg.Mongo, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("close database", zap.Error(err))
		}
	}()
	if err := store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if err := database.EnsureAdmin(ctx, store, cfg.Admin.Email, cfg.Admin.Password, logger); err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
	}

	// 3. Auth
	tokens := auth.NewTokenManager(cfg.JWT.Secret, config.Duration(cfg.JWT.Expiration, 24*time.Hour))
	sessions := auth.NewSessionService(store.Sessions)

	// 4. Notifications: events go through RabbitMQ when configured, in-process otherwise.
	hub := socket.NewHub(logger)
	notifier := notification.NewService(store.Notifications, hub, logger)

	var publisher events.Publisher
	if cfg.RabbitMQ.URL != "" {
		rmq, err := events.NewRabbitMQ(cfg.RabbitMQ.URL, logger)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer rmq.Close()

		consumer := events.NewConsumer(rmq, notifier.Deliver, logger)
		consumer.Start()
		defer consumer.Stop()
		publisher = rmq
	} else {
		logger.Info("RABBITMQ_URL not set, delivering events in-process")
		publisher = events.NewLocalPublisher(notifier.Deliver)
	}

	// 5. Optional object storage
	uploader, err := s3.NewUploader(ctx, cfg.S3)
	if err != nil {
		if !errors.Is(err, s3.ErrNotConfigured) {
			return fmt.Errorf("init s3 uploader: %w", err)
		}
		logger.Info("S3_BUCKET not set, evidence uploads disabled")
		uploader = nil
	}

	router, err := routes.SetupRouter(routes.Dependencies{
		Config:        cfg,
		Store:         store,
		Tokens:        tokens,
		Sessions:      sessions,
		Events:        publisher,
		Notifications: notifier,
		Hub:           hub,
		Uploader:      uploader,
		Satellite:     satellite.NewClient(cfg.Satellite),
		Log:           logger,
	})
	if err != nil {
		return fmt.Errorf("setup router: %w", err)
	}

	worker := reports.NewWorker(store, publisher,
		config.Duration(cfg.Reports.GenerationDelay, 5*time.Second),
		config.Duration(cfg.Reports.PollInterval, time.Second),
		logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Serve until a signal arrives
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting API server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
