package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/ZanzyTHEbar/creative-o-meter/internal/config"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/creativity"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/database"
	apperrors "github.com/ZanzyTHEbar/creative-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/ratelimit"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 30 * time.Second
	heapWarnPercent = 90
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := monitoring.NewLogger(monitoring.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger.Logger)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		return apperrors.NewStorageError("open database", err)
	}
	defer apperrors.SafeClose(db, "database")

	redisClient, err := ratelimit.NewRedisClient(ctx, ratelimit.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		// the limiter runs in memory without Redis
		slog.Warn("Redis unavailable", "addr", cfg.RedisAddr, "error", err)
	}

	srv, err := newServer(cfg, db, redisClient, creativity.GlobalSource(), logger)
	if err != nil {
		return err
	}
	defer apperrors.SafeClose(srv, "server")

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// frame streams end when the process is signalled
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	sampler := monitoring.NewRuntimeSampler(srv.metrics, logger, cfg.MemorySampleInterval, heapWarnPercent)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting server", "addr", httpServer.Addr, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sampler.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("Server exited")
	return nil
}
