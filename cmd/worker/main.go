// Package main runs the standalone expiry sweeper for the postgres store
// driver. Deployments using DynamoDB or Redis rely on native TTL eviction
// and do not need this binary.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dayregister/backend/config"
	"github.com/dayregister/backend/internal/store"
	"github.com/dayregister/backend/internal/worker"
	"github.com/dayregister/backend/pkg/database"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	sweeper := worker.NewSweeper(
		store.NewPostgres(pool),
		time.Duration(cfg.Registration.SweepIntervalSec)*time.Second,
		logger,
	)

	sweepCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sweeper.Run(sweepCtx)
	logger.Info("expiry sweeper started", zap.Int("interval_sec", cfg.Registration.SweepIntervalSec))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("sweeper stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
