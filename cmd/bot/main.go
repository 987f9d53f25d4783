package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Yertled/Discord-Inactive-Checker/internal/activity"
	"github.com/Yertled/Discord-Inactive-Checker/internal/bot"
	"github.com/Yertled/Discord-Inactive-Checker/internal/config"
	"github.com/Yertled/Discord-Inactive-Checker/internal/notifications"
	"github.com/Yertled/Discord-Inactive-Checker/internal/platform"
	"github.com/Yertled/Discord-Inactive-Checker/internal/scheduler"
	"github.com/Yertled/Discord-Inactive-Checker/internal/storage"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Discord activity bot")

	discord, err := platform.NewDiscord(cfg.DiscordToken)
	if err != nil {
		logrus.Fatalf("Failed to create Discord session: %v", err)
	}

	// Archive is optional; leave the interface nil when it is not configured
	var archive storage.StorageInterface
	if cfg.StorageAccount != "" {
		azureStorage, err := storage.NewAzureStorage(context.Background(), cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize storage: %v", err)
		}
		archive = azureStorage
	}

	var notifier notifications.NotificationInterface
	if notificationService := notifications.NewService(cfg); notificationService.Enabled() {
		notifier = notificationService
	}

	reportService := activity.NewService(cfg, discord, archive, notifier)

	handler := bot.NewHandler(cfg, reportService, discord)
	discord.Session().AddHandler(handler.OnMessageCreate)

	if err := discord.Open(); err != nil {
		logrus.Fatalf("Failed to connect to Discord: %v", err)
	}
	defer discord.Close()
	logrus.Infof("Bot is ready. Listening for %s", cfg.ActivityCommand())

	schedulerService := scheduler.NewService(cfg, reportService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// Set up HTTP server for health checks, metrics and archived reports
	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", metricsHandler(reportService)).Methods("GET")
	router.HandleFunc("/trigger", triggerHandler(cfg, reportService)).Methods("POST")
	router.HandleFunc("/reports", listReportsHandler(archive)).Methods("GET")
	router.HandleFunc("/reports/{name}", getReportHandler(archive)).Methods("GET")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Bot exited")
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func metricsHandler(reportService *activity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(reportService.GetMetrics()))
	}
}

func triggerHandler(cfg *config.Config, reportService *activity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if cfg.ReportGuildID == "" || cfg.ReportChannel == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"REPORT_GUILD_ID and REPORT_CHANNEL_ID must be configured"}`))
			return
		}

		go func() {
			if err := reportService.RunReport(context.Background(), cfg.ReportGuildID, cfg.ReportChannel); err != nil {
				logrus.Errorf("Manual activity report failed: %v", err)
			}
		}()

		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"message":"Activity report triggered"}`))
	}
}

func listReportsHandler(archive storage.StorageInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if archive == nil {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"report archive is not configured"}`))
			return
		}

		prefix := storage.ReportPrefix
		if guildID := r.URL.Query().Get("guild"); guildID != "" {
			prefix += guildID + "-"
		}

		names, err := archive.List(r.Context(), prefix)
		if err != nil {
			logrus.Errorf("Failed to list reports: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"failed to list reports"}`))
			return
		}

		data, _ := json.Marshal(map[string]interface{}{"reports": names})
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func getReportHandler(archive storage.StorageInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		name := mux.Vars(r)["name"]
		if archive == nil || !strings.HasPrefix(name, storage.ReportPrefix) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"report not found"}`))
			return
		}

		data, err := archive.Retrieve(r.Context(), name)
		if err != nil {
			logrus.Warnf("Failed to retrieve report %s: %v", name, err)
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"report not found"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}
