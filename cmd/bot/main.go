package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/brandpulse/brandpulse/internal/analysis"
	"github.com/brandpulse/brandpulse/internal/config"
	"github.com/brandpulse/brandpulse/internal/models"
	"github.com/brandpulse/brandpulse/internal/monitor"
	"github.com/brandpulse/brandpulse/internal/notifications"
	"github.com/brandpulse/brandpulse/internal/scheduler"
	"github.com/brandpulse/brandpulse/internal/sources"
	"github.com/brandpulse/brandpulse/internal/storage"
	"github.com/brandpulse/brandpulse/internal/trend"
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

	logrus.Info("Starting BrandPulse bot")

	// Initialize persistence
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logrus.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	// Optional Azure archive for raw summary documents
	var archiver storage.Archiver
	if cfg.StorageAccount != "" {
		archiver, err = storage.NewAzureArchiver(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize summary archive: %v", err)
		}
	}

	// Initialize retrieval sources
	srcs := buildSources(cfg)

	// Initialize classification: external capability with local fallback
	var primary analysis.Classifier
	if cfg.OpenAIAPIKey != "" {
		primary = analysis.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.ClassifierTimeout)
	} else {
		logrus.Warn("OPENAI_API_KEY not set, using local classifier only")
	}
	classifier := &analysis.FallbackChain{
		Primary:  primary,
		Fallback: analysis.NewLocalClassifier(),
	}

	// Initialize services
	analyzer := analysis.NewService(srcs, classifier, cfg.MaxSubjectLength)
	tracker := trend.NewTracker(store)
	notifier := notifications.NewService(cfg, store)
	monitorService := monitor.NewService(analyzer, tracker, store, notifier)

	// Initialize scheduler
	schedulerService := scheduler.NewService(cfg.SweepSchedule, monitorService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// Set up HTTP server
	api := &apiServer{
		analyzer: analyzer,
		tracker:  tracker,
		monitor:  monitorService,
		store:    store,
		archiver: archiver,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
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

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func buildSources(cfg *config.Config) []sources.Source {
	if cfg.SampleData {
		logrus.Info("SAMPLE_DATA enabled, serving built-in example snippets")
		return []sources.Source{
			sources.NewExampleSource(models.PlatformReddit),
			sources.NewExampleSource(models.PlatformHackerNews),
			sources.NewExampleSource(models.PlatformMastodon),
			sources.NewExampleSource(models.PlatformWeb),
		}
	}

	return []sources.Source{
		sources.NewRedditSource(cfg.MaxSnippetsPerSource),
		sources.NewHackerNewsSource(cfg.MaxSnippetsPerSource),
		sources.NewMastodonSource(cfg.MastodonInstance, cfg.MaxSnippetsPerSource),
	}
}

type apiServer struct {
	analyzer *analysis.Service
	tracker  *trend.Tracker
	monitor  *monitor.Service
	store    *storage.SQLiteStore
	archiver storage.Archiver
}

func (a *apiServer) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", a.handleHealth).Methods("GET")
	router.HandleFunc("/trigger", a.handleTrigger).Methods("POST")

	router.HandleFunc("/api/analyze", a.handleAnalyze).Methods("POST")
	router.HandleFunc("/api/trends/{subject}", a.handleTrends).Methods("GET")

	router.HandleFunc("/api/subscriptions", a.handleCreateSubscription).Methods("POST")
	router.HandleFunc("/api/subscriptions", a.handleListSubscriptions).Methods("GET")
	router.HandleFunc("/api/subscriptions/{id}", a.handleUpdateSubscription).Methods("PUT")
	router.HandleFunc("/api/subscriptions/{id}", a.handleDeleteSubscription).Methods("DELETE")

	router.HandleFunc("/api/notifications", a.handleListNotifications).Methods("GET")
	router.HandleFunc("/api/notifications/{id}/read", a.handleMarkNotificationRead).Methods("POST")

	return router
}

func (a *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleTrigger kicks off a monitoring sweep in the background, for testing
// and external schedulers.
func (a *apiServer) handleTrigger(w http.ResponseWriter, r *http.Request) {
	go func() {
		if _, err := a.monitor.RunAll(context.Background()); err != nil {
			logrus.Errorf("Manual monitoring sweep failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "monitoring sweep triggered"})
}

type analyzeRequest struct {
	Subject string `json:"subject"`
}

type analyzeResponse struct {
	Summary      *models.SentimentSummary `json:"summary"`
	PersistError string                   `json:"persist_error,omitempty"`
}

// handleAnalyze runs an interactive analysis. The summary is returned even
// when saving it fails; the save failure travels separately in the payload.
func (a *apiServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := a.analyzer.Analyze(r.Context(), req.Subject)
	if errors.Is(err, models.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, models.ErrNoData) {
		writeError(w, http.StatusNotFound, "no data found for subject")
		return
	}
	if err != nil {
		logrus.Errorf("Analysis failed for %q: %v", req.Subject, err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	resp := analyzeResponse{Summary: summary}
	if err := a.store.SaveSummary(r.Context(), requestOwner(r), summary); err != nil {
		logrus.Errorf("Failed to save summary %s: %v", summary.ID, err)
		resp.PersistError = "summary could not be saved"
	}
	if a.archiver != nil {
		if err := a.archiver.Archive(r.Context(), summary); err != nil {
			logrus.Errorf("Failed to archive summary %s: %v", summary.ID, err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *apiServer) handleTrends(w http.ResponseWriter, r *http.Request) {
	subject := mux.Vars(r)["subject"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	points, err := a.tracker.History(r.Context(), subject, limit)
	if err != nil {
		logrus.Errorf("Failed to load trend history for %q: %v", subject, err)
		writeError(w, http.StatusInternalServerError, "failed to load trend history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"subject": subject, "points": points})
}

func (a *apiServer) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var sub models.MonitorSubscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub.Owner = requestOwner(r)
	sub.Active = true

	if err := a.monitor.CreateSubscription(r.Context(), &sub); err != nil {
		if errors.Is(err, models.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logrus.Errorf("Failed to create subscription: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create subscription")
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

func (a *apiServer) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := a.store.ListSubscriptions(r.Context(), requestOwner(r))
	if err != nil {
		logrus.Errorf("Failed to list subscriptions: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (a *apiServer) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var sub models.MonitorSubscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub.ID = mux.Vars(r)["id"]
	sub.Owner = requestOwner(r)

	err := a.monitor.UpdateSubscription(r.Context(), &sub)
	switch {
	case errors.Is(err, models.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "subscription not found")
	case err != nil:
		logrus.Errorf("Failed to update subscription %s: %v", sub.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to update subscription")
	default:
		writeJSON(w, http.StatusOK, sub)
	}
}

func (a *apiServer) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := a.monitor.DeleteSubscription(r.Context(), requestOwner(r), id)
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "subscription not found")
	case err != nil:
		logrus.Errorf("Failed to delete subscription %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (a *apiServer) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	notifs, err := a.store.ListNotifications(r.Context(), requestOwner(r), 50)
	if err != nil {
		logrus.Errorf("Failed to list notifications: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	writeJSON(w, http.StatusOK, notifs)
}

func (a *apiServer) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	err := a.store.MarkNotificationRead(r.Context(), requestOwner(r), id)
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "notification not found")
	case err != nil:
		logrus.Errorf("Failed to mark notification %s read: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to mark notification read")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// requestOwner resolves the acting user. Authentication is handled by the
// fronting proxy; it forwards the user id in a header. Absent the header,
// requests act as a shared default user (single-tenant deployments).
func requestOwner(r *http.Request) string {
	if owner := r.Header.Get("X-User-ID"); owner != "" {
		return owner
	}
	return "default"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
