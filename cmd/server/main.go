// Package main runs the registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dayregister/backend/config"
	"github.com/dayregister/backend/internal/middleware"
	"github.com/dayregister/backend/internal/registration"
	"github.com/dayregister/backend/internal/store"
	"github.com/dayregister/backend/internal/worker"
	"github.com/dayregister/backend/pkg/database"
	redisclient "github.com/dayregister/backend/pkg/redis"
	"github.com/dayregister/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	st, cleanup, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer cleanup()

	svc := registration.NewService(st, cfg.Registration.MaxDays)
	handler := registration.NewHandler(svc, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		response.OK(c, middleware.GetRequestID(c), gin.H{"status": "ok"})
	})

	router.GET("/register", handler.Get)
	router.POST("/register", handler.Create)
	router.PATCH("/register", handler.Update)
	router.DELETE("/register", handler.Delete)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Postgres has no native TTL; sweep expired rows in-process.
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	if pg, ok := st.(*store.Postgres); ok {
		sweeper := worker.NewSweeper(pg, time.Duration(cfg.Registration.SweepIntervalSec)*time.Second, logger)
		go sweeper.Run(sweepCtx)
		logger.Info("expiry sweeper started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sweepCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// newStore builds the store selected by STORE_DRIVER and returns a cleanup
// for its connections.
func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, func(), error) {
	noop := func() {}
	switch cfg.Store.Driver {
	case "dynamo":
		d, err := store.NewDynamo(ctx, store.DynamoConfig{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Table:           cfg.AWS.Table,
			Endpoint:        cfg.AWS.Endpoint,
		}, logger)
		return d, noop, err
	case "postgres":
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store.NewPostgres(pool), pool.Close, nil
	case "redis":
		rdb, err := redisclient.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedis(rdb, logger), func() { _ = rdb.Close() }, nil
	case "memory":
		return store.NewMemory(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
