package cmd

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"time"

	"medai-backend/internal/auth"
	"medai-backend/internal/database"
	"medai-backend/internal/storage"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

func CreateDatabase(databaseURL string) *gorm.DB {
	db, err := database.Open(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

type StorageConfig struct {
	Dir               string
	S3EndpointURL     string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
}

// CreateStorageProvider returns a nil provider when neither a directory nor a
// region is configured, the dashboards then serve the seeded history only.
func CreateStorageProvider(cfg StorageConfig) (storage.Provider, error) {
	switch {
	case cfg.Dir != "":
		provider, err := storage.NewLocalProvider(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("error creating local storage at %s: %w", cfg.Dir, err)
		}
		slog.Info("using local storage", "dir", cfg.Dir)
		return provider, nil
	case cfg.S3Region != "" || cfg.S3EndpointURL != "":
		provider, err := storage.NewS3Provider(&storage.S3ProviderConfig{
			S3EndpointURL:     cfg.S3EndpointURL,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
			S3Region:          cfg.S3Region,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating s3 storage: %w", err)
		}
		slog.Info("using s3 storage", "endpoint", cfg.S3EndpointURL, "region", cfg.S3Region)
		return provider, nil
	default:
		slog.Warn("no storage configured, federated artifacts will not be read")
		return nil, nil
	}
}

func CreateAuthGate(secret, users string, ttl time.Duration) auth.Gate {
	if secret == "" {
		return auth.NewOpenGate()
	}

	accounts, err := auth.ParseUsers(users)
	if err != nil {
		log.Fatalf("Failed to parse users: %v", err)
	}

	gate, err := auth.NewTokenGate(secret, accounts, ttl)
	if err != nil {
		log.Fatalf("Failed to create auth gate: %v", err)
	}
	return gate
}
