package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureBlobProvider stores objects in Azure Blob Storage. Buckets are
// containers.
type AzureBlobProvider struct {
	client *azblob.Client
}

var _ Provider = (*AzureBlobProvider)(nil)

func NewAzureBlobProvider(connectionString string) (*AzureBlobProvider, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("azure storage connection string is required")
	}

	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure blob client: %w", err)
	}

	return &AzureBlobProvider{client: client}, nil
}

func (p *AzureBlobProvider) CreateBucket(ctx context.Context, bucket string) error {
	_, err := p.client.CreateContainer(ctx, bucket, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			slog.Info("Container already exists", "container", bucket)
			return nil
		}
		return fmt.Errorf("failed to create container %s: %w", bucket, err)
	}

	slog.Info("Container created successfully", "container", bucket)

	return nil
}

func (p *AzureBlobProvider) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	resp, err := p.client.DownloadStream(ctx, bucket, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to download blob %s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s/%s: %w", bucket, key, err)
	}
	slog.Info("Blob downloaded successfully", "container", bucket, "blob", key)

	return data, nil
}

func (p *AzureBlobProvider) PutObject(ctx context.Context, bucket, key string, data io.Reader) error {
	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(ContentType(key))},
	}
	if _, err := p.client.UploadStream(ctx, bucket, key, data, opts); err != nil {
		return fmt.Errorf("failed to upload blob %s/%s: %w", bucket, key, err)
	}
	slog.Info("Blob uploaded successfully", "container", bucket, "blob", key)

	return nil
}

func (p *AzureBlobProvider) ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error) {
	var objects []Object

	pager := p.client.NewListBlobsFlatPager(bucket, &azblob.ListBlobsFlatOptions{
		Prefix: to.Ptr(prefix),
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs in container %s with prefix %s: %w", bucket, prefix, err)
		}

		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			obj := Object{Name: *item.Name}
			if item.Properties != nil && item.Properties.ContentLength != nil {
				obj.Size = *item.Properties.ContentLength
			}
			objects = append(objects, obj)
		}
	}

	return objects, nil
}
