package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mossy-p/webrtc-chat/config"
	"github.com/mossy-p/webrtc-chat/internal/handlers"
	"github.com/mossy-p/webrtc-chat/internal/redis"
	"github.com/mossy-p/webrtc-chat/internal/relay"
)

func main() {
	// Load configuration
	cfg := config.Load()
	cfg.SetupLogger()

	history, closeHistory, err := openHistory(cfg)
	if err != nil {
		slog.Error("failed to open history store", "backend", cfg.History.Backend, "error", err)
		os.Exit(1)
	}
	defer closeHistory()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := relay.NewHub()
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handlers.NewRouter(cfg, hub, history),
	}

	go func() {
		slog.Info("starting relay server", "port", cfg.Port, "history", cfg.History.Backend)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func openHistory(cfg *config.Config) (relay.History, func(), error) {
	if cfg.History.Backend == "memory" {
		return relay.NewMemoryHistory(cfg.History.Limit), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	history, closeRedis, err := redis.OpenHistory(ctx, cfg.Redis, cfg.History.Limit)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("redis connection established", "host", cfg.Redis.Host, "port", cfg.Redis.Port)

	closeFn := func() {
		if err := closeRedis(); err != nil {
			slog.Warn("failed to close redis", "error", err)
		}
	}
	return history, closeFn, nil
}
