package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"prizepool/internal/config"
	"prizepool/internal/server"
	"prizepool/pkg/logger"
)

func gracefulShutdown(fiberServer *server.FiberServer, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	slog.Info("shutting down gracefully, press Ctrl+C again to force")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fiberServer.App.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	if err := fiberServer.Shutdown(); err != nil {
		slog.Error("stopping game engines", "error", err)
	}

	done <- true
}

func loadConfig() (*config.Bundle, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/games.yaml"
	}

	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("config file not found, using built-in defaults", "path", path)
		cfg = config.Default()
	} else if err != nil {
		return nil, err
	}
	return cfg.Build()
}

func main() {
	logger.Init(&logger.Options{
		Level:      logger.LevelFromEnv(),
		TimeFormat: time.Kitchen,
	})

	bundle, err := loadConfig()
	if err != nil {
		slog.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	srv, err := server.New(bundle)
	if err != nil {
		slog.Error("creating server", "error", err)
		os.Exit(1)
	}
	srv.RegisterFiberRoutes()

	done := make(chan bool, 1)
	go gracefulShutdown(srv, done)

	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}
	if err := srv.Listen(fmt.Sprintf(":%d", port)); err != nil {
		slog.Error("http server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("graceful shutdown complete")
}
