package integrationtests

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"weather-ml-backend/internal/storage"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/minio"
)

const (
	minioUsername = "admin"
	minioPassword = "password"

	datasetBucket    = "weather-data"
	modelBucket      = "models"
	predictionBucket = "predictions"
)

// setupMinioContainer starts MinIO and returns its host:port address.
func setupMinioContainer(t *testing.T, ctx context.Context) string {
	if testing.Short() {
		t.Skip("skipping container backed test in short mode")
	}

	minioContainer, err := minio.Run(
		ctx,
		"minio/minio:RELEASE.2024-01-16T16-07-38Z",
		minio.WithUsername(minioUsername),
		minio.WithPassword(minioPassword),
	)
	require.NoError(t, err, "Failed to start MinIO container")

	t.Cleanup(func() {
		err := minioContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate MinIO container")
	})

	connStr, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get MinIO connection string")

	return connStr
}

func setupS3Provider(t *testing.T, ctx context.Context, addr string) *storage.S3Provider {
	provider, err := storage.NewS3Provider(ctx, storage.S3ClientConfig{
		Endpoint:        "http://" + addr,
		Region:          "us-east-1",
		AccessKeyID:     minioUsername,
		SecretAccessKey: minioPassword,
	})
	require.NoError(t, err)
	return provider
}

func setupMinioProvider(t *testing.T, addr string) *storage.MinioProvider {
	provider, err := storage.NewMinioProvider(storage.MinioConfig{
		Endpoint:  addr,
		AccessKey: minioUsername,
		SecretKey: minioPassword,
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	return provider
}

func createBuckets(t *testing.T, ctx context.Context, provider storage.Provider) {
	for _, bucket := range []string{datasetBucket, modelBucket, predictionBucket} {
		require.NoError(t, provider.CreateBucket(ctx, bucket))
	}
}

// weatherCSV generates rows where temperature = 0.25*humidity + 0.1*wind + offset.
func weatherCSV(offset float64) string {
	var sb strings.Builder
	sb.WriteString("date,humidity,wind,temperature\n")
	for i := 0; i < 40; i++ {
		humidity := float64(30 + i)
		wind := float64((i * 3) % 17)
		fmt.Fprintf(&sb, "2023-01-%02d,%g,%g,%g\n", i%28+1, humidity, wind, 0.25*humidity+0.1*wind+offset)
	}
	return sb.String()
}
