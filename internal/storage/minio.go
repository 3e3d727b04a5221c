package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Storage is an interface for downloading objects.
type Storage interface {
	Download(ctx context.Context, objectName string) ([]byte, error)
}

type MinIOStorage struct {
	Client     *minio.Client
	BucketName string
	logger     *zap.Logger
}

// Options configures the connection to a MinIO or S3 compatible endpoint.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinIOStorage initializes and returns a new MinIOStorage instance.
// The bucket must already exist; it is never created.
func NewMinIOStorage(ctx context.Context, opts Options, logger *zap.Logger) (*MinIOStorage, error) {
	minioClient, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := minioClient.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("error checking bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket '%s' does not exist", opts.Bucket)
	}
	logger.Debug("connected to object storage", zap.String("endpoint", opts.Endpoint), zap.String("bucket", opts.Bucket))

	return &MinIOStorage{
		Client:     minioClient,
		BucketName: opts.Bucket,
		logger:     logger,
	}, nil
}

// Download reads a whole object from the bucket.
func (m *MinIOStorage) Download(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := m.Client.GetObject(ctx, m.BucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", objectName, m.BucketName, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object '%s' from bucket '%s': %w", objectName, m.BucketName, err)
	}
	m.logger.Debug("downloaded object", zap.String("bucket", m.BucketName), zap.String("object", objectName), zap.Int("bytes", len(data)))
	return data, nil
}
