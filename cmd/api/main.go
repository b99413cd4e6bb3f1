package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"weather-ml-backend/cmd"
	"weather-ml-backend/internal/api"
	"weather-ml-backend/internal/core"
	"weather-ml-backend/internal/pipeline"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type APIConfig struct {
	cmd.StorageConfig

	DatasetBucket    string `env:"DATASET_BUCKET" envDefault:"weather-data"`
	ModelBucket      string `env:"MODEL_BUCKET" envDefault:"models"`
	PredictionBucket string `env:"PREDICTION_BUCKET" envDefault:"predictions"`
	ParamsPath       string `env:"PIPELINE_PARAMS_PATH"`
	CreateBuckets    bool   `env:"CREATE_BUCKETS" envDefault:"false"`
	APIHost          string `env:"API_HOST" envDefault:"0.0.0.0"`
	APIPort          string `env:"API_PORT" envDefault:"5000"`
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	params, err := core.LoadParams(cfg.ParamsPath)
	if err != nil {
		log.Fatalf("Failed to load pipeline params: %v", err)
	}

	store, err := cmd.CreateStorageProvider(context.Background(), cfg.StorageConfig)
	if err != nil {
		log.Fatalf("Failed to create storage provider: %v", err)
	}
	slog.Info("storage provider initialized", "backend", cfg.Backend)

	if cfg.CreateBuckets {
		for _, bucket := range []string{cfg.DatasetBucket, cfg.ModelBucket, cfg.PredictionBucket} {
			if err := store.CreateBucket(context.Background(), bucket); err != nil {
				log.Fatalf("Failed to create bucket %s: %v", bucket, err)
			}
		}
	}

	pipelineCfg := pipeline.Config{
		DatasetBucket: cfg.DatasetBucket,
		ModelBucket:   cfg.ModelBucket,
	}
	catalog := pipeline.NewCatalog(store, pipelineCfg)
	processor := pipeline.NewProcessor(pipelineCfg, pipeline.Collaborators{
		Datasets:  catalog,
		Loader:    catalog,
		Models:    catalog,
		Drift:     core.NewKSDriftDetector(params.Drift),
		Retrainer: pipeline.NewTrainer(store, pipelineCfg, params.Training),
		Inference: pipeline.NewPredictor(store, pipelineCfg, cfg.PredictionBucket, params.Inference),
	})

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	apiHandler := api.NewBackendService(processor, catalog)
	apiHandler.AddRoutes(r)

	addr := net.JoinHostPort(cfg.APIHost, cfg.APIPort)
	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("API server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", addr, err)
	}

	log.Println("Server stopped.")
}
