package storage

import (
	"bytes"
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/services/storage/aws_client"
)

// ObjectStorageService stores attachment bodies in an S3 compatible bucket.
type ObjectStorageService struct {
	client        aws_client.S3Client
	bucketName    string
	defaultExpiry time.Duration
}

type StorageConfig struct {
	BucketName    string
	DefaultExpiry time.Duration
}

func NewStorageService(client aws_client.S3Client, config StorageConfig) interfaces.StorageService {
	if config.DefaultExpiry <= 0 {
		config.DefaultExpiry = time.Hour
	}
	return &ObjectStorageService{
		client:        client,
		bucketName:    config.BucketName,
		defaultExpiry: config.DefaultExpiry,
	}
}

func (s *ObjectStorageService) Bucket() string {
	return s.bucketName
}

func (s *ObjectStorageService) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ObjectStorageService.Upload")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("storage.key", key)

	if key == "" {
		return errors.New("storage key is required")
	}

	err := s.client.Upload(ctx, s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "upload %s", key)
	}
	return nil
}

func (s *ObjectStorageService) Download(ctx context.Context, key string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ObjectStorageService.Download")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("storage.key", key)

	content, err := s.client.Download(ctx, s.bucketName, key)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "download %s", key)
	}
	return content, nil
}

func (s *ObjectStorageService) Delete(ctx context.Context, key string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ObjectStorageService.Delete")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("storage.key", key)

	if err := s.client.Delete(ctx, s.bucketName, key); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

// GetPresignedURL returns a signed download link. A non-positive expiry uses the configured default.
func (s *ObjectStorageService) GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ObjectStorageService.GetPresignedURL")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("storage.key", key)

	if expiry <= 0 {
		expiry = s.defaultExpiry
	}
	url, err := s.client.PresignGet(ctx, s.bucketName, key, expiry)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrapf(err, "presign %s", key)
	}
	return url, nil
}
