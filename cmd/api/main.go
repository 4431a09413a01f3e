package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/copymyprompt/backend/internal/auth"
	"github.com/emilythestrangee/copymyprompt/backend/internal/cache"
	"github.com/emilythestrangee/copymyprompt/backend/internal/config"
	"github.com/emilythestrangee/copymyprompt/backend/internal/database"
	"github.com/emilythestrangee/copymyprompt/backend/internal/handlers"
	"github.com/emilythestrangee/copymyprompt/backend/internal/notify"
	"github.com/emilythestrangee/copymyprompt/backend/internal/server"
	"github.com/emilythestrangee/copymyprompt/backend/internal/service"
	"github.com/emilythestrangee/copymyprompt/backend/internal/storage"
)

const notifyQueueSize = 1000

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	if cfg.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg)
	if err != nil {
		return err
	}
	defer closeLogged(logger, "database", db)

	opts := service.Options{PromptTTL: cfg.Redis.PromptTTL}

	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("redis unavailable, prompt cache disabled", "error", err)
		} else {
			defer closeLogged(logger, "redis", rdb)
			opts.Cache = rdb
		}
	}

	workerDone := make(chan struct{})
	workerCtx, stopWorker := context.WithCancel(context.Background())
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" {
		queue := notify.NewQueue(
			notify.NewTwilio(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber),
			notifyQueueSize,
		)
		opts.Notifier = queue
		go func() {
			defer close(workerDone)
			queue.Run(workerCtx)
		}()
	} else {
		close(workerDone)
	}
	defer func() {
		stopWorker()
		<-workerDone
	}()

	store, err := storage.New(storage.Options{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		return err
	}
	bucketCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := store.EnsureBucket(bucketCtx); err != nil {
		logger.Warn("storage bucket not ready, uploads will fail", "error", err)
	}
	cancel()

	services := service.New(db.GetDB(), opts)
	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	handler := handlers.NewHandler(services, tokens, store, db)
	srv := server.NewServer(cfg, handler, tokens, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

// closeLogged closes c and logs a failure instead of dropping it.
func closeLogged(logger *slog.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close "+name, "error", err)
	}
}
