package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"intellect/internal/admin"
	"intellect/internal/api"
	"intellect/internal/config"
	"intellect/internal/db"
	"intellect/internal/gemini"
	"intellect/internal/imagegen"
	"intellect/internal/logger"
	"intellect/internal/matcher"
	"intellect/internal/model"
	"intellect/internal/quota"
	"intellect/internal/scheduler"

	"github.com/gin-gonic/gin"
)

// customRecovery is a middleware that recovers from panics and handles http.ErrAbortHandler gracefully.
func customRecovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				if recovered == http.ErrAbortHandler {
					log.Warn("Client connection aborted", "path", c.Request.URL.Path)
					c.Abort()
					return
				}

				log.Error("Panic recovered",
					"error", recovered,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// newGate builds a gate for one action using the configured policy variant.
func newGate(database db.Service, policyName, action string, gateCfg config.GateConfig, log *slog.Logger) (*quota.Gate, error) {
	settings, err := quota.SettingsFromConfig(action, gateCfg)
	if err != nil {
		return nil, err
	}

	var policy quota.Policy
	switch policyName {
	case config.PolicyRolling:
		policy = quota.NewRollingWindowPolicy(database, settings)
	case config.PolicyCounter:
		policy = quota.NewFixedCounterPolicy(database, settings)
	default:
		return nil, fmt.Errorf("unsupported quota policy: %s", policyName)
	}

	return quota.NewGate(policy, settings, log), nil
}

func main() {
	// Load configuration
	cfg, warning, err := config.LoadConfig("config.yaml")
	if err != nil {
		// Use a temporary logger for startup errors
		slog.Error("Error loading configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	log := logger.New(cfg.Debug)
	log.Info("Logger initialized", "debug_mode", cfg.Debug)
	if warning != "" {
		log.Warn(warning)
	}

	// Initialize database
	database, err := db.NewService(cfg.Database)
	if err != nil {
		log.Error("Error initializing database", "error", err)
		os.Exit(1)
	}
	log.Info("Database initialized", "type", cfg.Database.Type)

	// Text-generation client
	ctx := context.Background()
	geminiClient, err := gemini.NewClient(ctx, cfg.Gemini)
	if err != nil {
		log.Error("Error creating gemini client", "error", err)
		os.Exit(1)
	}
	defer geminiClient.Close()

	// Image-generation client
	imageClient := imagegen.NewClient(cfg.Image, log)

	// Admission gates
	enforcementGate, err := newGate(database, cfg.Quota.Policy, model.ActionEnforcementSearch, cfg.Quota.Enforcement, log)
	if err != nil {
		log.Error("Error creating enforcement gate", "error", err)
		os.Exit(1)
	}
	imageGate, err := newGate(database, cfg.Quota.Policy, model.ActionImageGeneration, cfg.Quota.ImageGeneration, log)
	if err != nil {
		log.Error("Error creating image gate", "error", err)
		os.Exit(1)
	}
	log.Info("Quota gates initialized", "policy", cfg.Quota.Policy)

	// Best-match extractor
	advocateMatcher := matcher.New(database, geminiClient, log)

	// Start the retention scheduler
	retention, err := time.ParseDuration(cfg.Scheduler.UsageRetention)
	if err != nil {
		log.Error("Invalid usage retention", "error", err)
		os.Exit(1)
	}
	sched := scheduler.New(database, retention, log)
	if err := sched.Start(); err != nil {
		log.Error("Error starting scheduler", "error", err)
		os.Exit(1)
	}
	log.Info("Scheduler started", "usage_retention", cfg.Scheduler.UsageRetention)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create a Gin router
	router := gin.New()
	// Use our custom recovery middleware instead of the default one.
	router.Use(customRecovery(log))

	// If debug mode is enabled, add the logger middleware
	if cfg.Debug {
		// This uses the default gin logger, which is fine for development.
		router.Use(gin.Logger())
	}

	handler := api.NewHandler(advocateMatcher, geminiClient, imageClient, enforcementGate, imageGate, log)
	api.SetupRoutes(router, handler)
	admin.SetupRoutes(router, database, cfg)

	// Create and start the main server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Stop the scheduler's background job
	sched.Stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exiting")
}
