package aws_client

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"

	"github.com/relocrm/leadstack/internal/tracing"
)

type S3Client interface {
	Upload(ctx context.Context, uploadContainer s3manager.UploadInput) error
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

type s3Client struct {
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
	api        *s3.S3
}

// NewS3Client panics when the session cannot be built, which only happens on a
// malformed aws.Config.
func NewS3Client(config *aws.Config) S3Client {
	sess := session.Must(session.NewSession(config))
	return &s3Client{
		uploader:   s3manager.NewUploader(sess),
		downloader: s3manager.NewDownloader(sess),
		api:        s3.New(sess),
	}
}

func startSpan(ctx context.Context, operation, bucket, key string) (opentracing.Span, context.Context) {
	span, ctx := opentracing.StartSpanFromContext(ctx, operation)
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("s3.bucket", bucket)
	span.SetTag("s3.key", key)
	return span, ctx
}

func (s *s3Client) Upload(ctx context.Context, uploadContainer s3manager.UploadInput) error {
	span, ctx := startSpan(ctx, "s3Client.Upload", aws.StringValue(uploadContainer.Bucket), aws.StringValue(uploadContainer.Key))
	defer span.Finish()

	_, err := s.uploader.UploadWithContext(ctx, &uploadContainer)
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (s *s3Client) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	span, ctx := startSpan(ctx, "s3Client.Download", bucket, key)
	defer span.Finish()

	buffer := &aws.WriteAtBuffer{}
	_, err := s.downloader.DownloadWithContext(ctx, buffer,
		&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return buffer.Bytes(), nil
}

func (s *s3Client) Delete(ctx context.Context, bucket, key string) error {
	span, ctx := startSpan(ctx, "s3Client.Delete", bucket, key)
	defer span.Finish()

	_, err := s.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

// PresignGet signs a time-limited GET url for a private object.
func (s *s3Client) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	span, _ := startSpan(ctx, "s3Client.PresignGet", bucket, key)
	defer span.Finish()

	req, _ := s.api.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(expiry)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	return url, nil
}
