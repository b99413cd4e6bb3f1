package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"weather-ml-backend/internal/storage"

	"github.com/joho/godotenv"
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

type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND" envDefault:"azure"`

	AzureConnectionString string `env:"AZURE_STORAGE_CONNECTION_STRING"`

	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`

	LocalDir string `env:"LOCAL_STORAGE_DIR" envDefault:"./data"`
}

func CreateStorageProvider(ctx context.Context, cfg StorageConfig) (storage.Provider, error) {
	switch cfg.Backend {
	case "azure":
		return storage.NewAzureBlobProvider(cfg.AzureConnectionString)
	case "s3":
		return storage.NewS3Provider(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3EndpointURL,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	case "minio":
		return storage.NewMinioProvider(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Region:    cfg.S3Region,
			UseSSL:    cfg.MinioUseSSL,
		})
	case "local":
		return storage.NewLocalProvider(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage backend '%s', expected one of azure, s3, minio, local", cfg.Backend)
	}
}
