package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"syncboard/internal/core/services"
	httphandlers "syncboard/internal/handlers/http"
	"syncboard/internal/infrastructure/gateway"
	"syncboard/internal/infrastructure/middleware"
	"syncboard/internal/infrastructure/monitoring"
	repositories "syncboard/internal/infrastructure/repositories"
	"syncboard/pkg/config"
	"syncboard/pkg/logger"
	"syncboard/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/syncboard/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize repository factory
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	// Initialize repositories
	presenceRepo := repoFactory.CreatePresenceRepository()
	revocationRepo := repoFactory.CreateRevocationRepository()

	// Initialize services
	presenceService := services.NewPresenceService(presenceRepo)
	authService := services.NewAuthService(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
		revocationRepo,
	)

	// Initialize monitoring
	var collector *monitoring.PrometheusCollector
	if cfg.Monitoring.PrometheusEnabled {
		collector = monitoring.NewPrometheusCollector()
	}

	// Initialize the websocket gateway
	gw := gateway.NewGateway(authService, presenceService, collector, gateway.Options{
		PingInterval:        cfg.Gateway.PingInterval,
		PongTimeout:         cfg.Gateway.PongTimeout,
		WriteTimeout:        cfg.Gateway.WriteTimeout,
		HandshakeTimeout:    cfg.Gateway.HandshakeTimeout,
		SendBufferSize:      cfg.Gateway.SendBufferSize,
		AllowedOrigins:      cfg.Auth.AllowedOrigins,
		MessagesPerSecond:   cfg.RateLimiting.WebSocket.MessagesPerSecond,
		MessageBurst:        cfg.RateLimiting.WebSocket.Burst,
		ViolationsPerSecond: cfg.RateLimiting.WebSocket.ViolationsPerSecond,
		ViolationBurst:      cfg.RateLimiting.WebSocket.ViolationBurst,
		MaxMessageSizeBytes: cfg.RateLimiting.WebSocket.MaxMessageSizeBytes,
	}, log)

	// Initialize HTTP handlers
	tokenHandler := httphandlers.NewTokenHandler(authService, cfg.Auth.AccessTokenTTL)
	notificationHandler := httphandlers.NewNotificationHandler(gw)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	// Websocket entry point for both channels
	router.GET("/ws", gin.WrapF(gw.HandleWebSocket))

	// Token routes (public)
	tokenHandler.SetupRoutes(router)

	// Notification push for the main application, behind authentication
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(authService))
	notificationHandler.SetupRoutes(api)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":      "healthy",
			"timestamp":   time.Now(),
			"uptime":      time.Since(startTime).String(),
			"connections": gw.ConnectionCount(),
		})
	})

	// Readiness endpoint
	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddCheck("repositories", 2*time.Second, repoFactory.HealthCheck)

	router.GET("/ready", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		code := 200
		if status.Status != "ready" {
			code = 503
		}
		c.JSON(code, status)
	})

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting SyncBoard gateway on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down SyncBoard gateway...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown HTTP server gracefully
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	// Flush pending spans
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}

	// Close repository factory
	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing repository factory", "error", err)
	}

	log.Info("SyncBoard gateway stopped")
}
