// server/cmd/seed/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"starhawk-api-server/config"
	"starhawk-api-server/internal/database"
	"starhawk-api-server/internal/logging"

	"go.uber.org/zap"
)

var errMemoryStore = errors.New("refusing to seed the in-memory store; set MONGODB_URI")

// Clears every collection and loads the demo data set.
func main() {
	// The seed tool signs no tokens, so a missing JWT secret is fine here.
	cfg, err := config.LoadConfig("./config")
	if err != nil && !errors.Is(err, config.ErrMissingJWTSecret) {
		log.Fatalf("Could not load config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Could not build logger: %v", err)
	}

	code := 0
	if err := seed(cfg, logger); err != nil {
		logger.Error("seed failed", zap.Error(err))
		code = 1
	}
	_ = logger.Sync()
	os.Exit(code)
}

func seed(cfg config.Config, logger *zap.Logger) error {
	if database.IsMemoryURI(cfg.Mongo.URI) {
		return errMemoryStore
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := database.Connect(ctx, cfg.Mongo, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer store.Close(context.Background())

	if err := store.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	result, err := database.Seed(ctx, store, logger)
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}

	for role, user := range result.Users {
		logger.Info("seeded account",
			zap.String("role", role),
			zap.String("email", user.Email),
			zap.String("password", database.SeedPassword))
	}
	logger.Info("database seeded", zap.String("db", cfg.Mongo.DBName))
	return nil
}
