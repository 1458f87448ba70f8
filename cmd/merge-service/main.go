package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/tidewell-health/platform/pkg/common/config"
	"github.com/tidewell-health/platform/pkg/common/database"
	"github.com/tidewell-health/platform/pkg/common/kafka"
	"github.com/tidewell-health/platform/pkg/common/logger"
	"github.com/tidewell-health/platform/pkg/common/middleware"
	"github.com/tidewell-health/platform/pkg/merge"
	"github.com/tidewell-health/platform/pkg/observability/metrics"
	"github.com/tidewell-health/platform/pkg/patient"
)

func main() {
	logger.Init()
	metrics.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}
	if err := patient.AutoMigrate(db); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate patient tables")
	}

	rules, err := merge.LoadRules(cfg.MergeRulesPath)
	if err != nil {
		logger.Log.WithError(err).WithField("path", cfg.MergeRulesPath).Warn("falling back to default merge rules")
	}
	resolver := merge.NewResolver(rules.ExcludedColumns)
	registry := merge.NewRegistry(resolver, rules)

	if missing, err := merge.MissingCoverage(registry, patient.AllModels()); err != nil {
		logger.Log.WithError(err).Fatal("failed to verify merge coverage")
	} else if len(missing) > 0 {
		logger.Log.WithField("entities", missing).Fatal("entity types missing merge coverage")
	}

	producer := kafka.NewProducer(cfg.MergeEventTopic)
	defer producer.Close()

	service := merge.NewService(db, registry, resolver, merge.NewQueueFlagger(), producer)
	finder := merge.NewCandidateFinder(db, rules)
	handler := merge.NewHandler(service, finder)

	router := mux.NewRouter()
	router.Use(middleware.Recovery, middleware.Logging)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.BodyLimit(cfg.MaxRequestBody), middleware.RequireWriteToken(cfg.MergeAPIToken))
	handler.Register(api)

	address := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithField("addr", address).Info("Merge service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start merge service")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down merge service...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Merge service forced to shutdown")
	}
	logger.Log.Info("Merge service stopped")
}
