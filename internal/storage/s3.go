package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/repack-io/backbreaker-api/internal/logging"
)

// ImageStore abstracts the object storage operations the pipeline needs.
type ImageStore interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error
}

// S3ImageStore is a concrete ImageStore backed by the AWS S3 client.
type S3ImageStore struct {
	client *s3.Client
	logger *zap.Logger
}

// NewS3ImageStore constructs a new S3-backed image store.
func NewS3ImageStore(client *s3.Client, logger *zap.Logger) *S3ImageStore {
	return &S3ImageStore{client: client, logger: logger.Named("s3_store")}
}

// Download fetches an object's bytes.
func (s *S3ImageStore) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		wrapped := logging.NewOperationError("storage.download", bucket+"/"+key, err)
		s.logger.Error("object download failed", zap.Error(wrapped))
		return nil, wrapped
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, logging.NewOperationError("storage.download", bucket+"/"+key, err)
	}
	return data, nil
}

// Upload writes an object.
func (s *S3ImageStore) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		wrapped := logging.NewOperationError("storage.upload", bucket+"/"+key, err)
		s.logger.Error("object upload failed", zap.Error(wrapped))
		return wrapped
	}
	return nil
}
