package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/handyflix/streamproxy/configs"
	"github.com/handyflix/streamproxy/internal/application/services"
	"github.com/handyflix/streamproxy/internal/core/ports"
	"github.com/handyflix/streamproxy/internal/infrastructure/health"
	"github.com/handyflix/streamproxy/internal/infrastructure/httpserver"
	"github.com/handyflix/streamproxy/internal/infrastructure/redis"
	"github.com/handyflix/streamproxy/internal/infrastructure/upstream"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting streamproxy...")
	logger.Infof("Using external API: %s", cfg.Upstream.BaseURL)

	// The cache store is optional; construction never fails, a dead or
	// unconfigured cache only means pass-through operation.
	store := redis.NewStore(&cfg.Redis, logger)
	defer store.Close()

	upstreamClient := upstream.NewClient(&cfg.Upstream, logger)
	catalogService := services.NewCatalogService(store, upstreamClient, logger)

	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertFile:  cfg.Server.TLSCertFile,
		TLSKeyFile:   cfg.Server.TLSKeyFile,
		StaticRoot:   cfg.Static.Root,
	}

	deps := httpserver.ServerDeps{
		Catalog:        catalogService,
		HealthCheckers: []ports.HealthChecker{health.NewCacheHealthChecker(store)},
	}

	server := httpserver.NewServer(serverConfig, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
