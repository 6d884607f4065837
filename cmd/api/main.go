package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medai-backend/cmd"
	"medai-backend/internal/api"
	"medai-backend/internal/catalog"
	"medai-backend/internal/dashboards"
	"medai-backend/internal/database"
	"medai-backend/internal/intake"
	"medai-backend/internal/prediction"
	"medai-backend/internal/session"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type APIConfig struct {
	APIPort          int           `env:"API_PORT" envDefault:"8001"`
	DatabaseURL      string        `env:"DATABASE_URL" envDefault:"file::memory:"`
	InferenceURL     string        `env:"INFERENCE_URL,notEmpty,required"`
	InferenceTimeout time.Duration `env:"INFERENCE_TIMEOUT" envDefault:"30s"`
	MaxUploadBytes   int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	PreviewMaxEdge   uint          `env:"PREVIEW_MAX_EDGE" envDefault:"512"`
	PreviewMaxPixels int64         `env:"PREVIEW_MAX_PIXELS" envDefault:"36000000"`
	SessionCapacity  int           `env:"SESSION_CAPACITY" envDefault:"256"`
	CorsOrigins      []string      `env:"CORS_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	AuthSecret string        `env:"AUTH_SECRET"`
	AuthUsers  string        `env:"AUTH_USERS"`
	AuthTTL    time.Duration `env:"AUTH_TTL" envDefault:"8h"`

	StorageDir        string `env:"STORAGE_DIR"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION"`
	FederatedBucket   string `env:"FEDERATED_BUCKET" envDefault:"federated"`
}

const minRequestTimeout = 60 * time.Second

// Room for reading the upload and rendering the view around the inference call.
const requestTimeoutHeadroom = 30 * time.Second

func requestTimeout(inference time.Duration) time.Duration {
	return max(minRequestTimeout, inference+requestTimeoutHeadroom)
}

func createServer(cfg APIConfig, service *api.BackendService) *http.Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true, // session cookie
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout(cfg.InferenceTimeout)))

	r.Route("/api/v1", service.AddRoutes)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.APIPort),
		Handler: r,
	}
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db := cmd.CreateDatabase(cfg.DatabaseURL)
	if cfg.DatabaseURL == database.InMemory {
		log.Println("Using in-memory database, seeded data is rebuilt on every start")
	}

	models, err := catalog.Load(context.Background(), db)
	if err != nil {
		log.Fatalf("Failed to load model catalog: %v", err)
	}

	predictor, err := prediction.NewClient(prediction.Config{
		Endpoint: cfg.InferenceURL,
		Timeout:  cfg.InferenceTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to create prediction client: %v", err)
	}

	provider, err := cmd.CreateStorageProvider(cmd.StorageConfig{
		Dir:               cfg.StorageDir,
		S3EndpointURL:     cfg.S3EndpointURL,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3Region:          cfg.S3Region,
	})
	if err != nil {
		log.Fatalf("Failed to create storage provider: %v", err)
	}

	gate := cmd.CreateAuthGate(cfg.AuthSecret, cfg.AuthUsers, cfg.AuthTTL)

	sessions := session.NewStore(cfg.SessionCapacity, session.Dependencies{
		Intake:    intake.New(intake.Config{
			MaxBytes:         cfg.MaxUploadBytes,
			PreviewMaxEdge:   cfg.PreviewMaxEdge,
			PreviewMaxPixels: cfg.PreviewMaxPixels,
		}),
		Predictor: predictor,
		Models:    models,
	})

	service := api.NewBackendService(gate, models, sessions, dashboards.NewService(db, provider, cfg.FederatedBucket), cfg.MaxUploadBytes)

	server := createServer(cfg, service)

	// Goroutine for graceful shutdown
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

	log.Printf("API server listening on port %d", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.APIPort, err)
	}

	log.Println("Server stopped.")
}
