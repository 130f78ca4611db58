package storage

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3Client struct {
	objects    map[string][]byte
	lastExpiry time.Duration
	failWith   error
}

func newFakeS3Client() *fakeS3Client {
	return &fakeS3Client{objects: map[string][]byte{}}
}

func (f *fakeS3Client) Upload(_ context.Context, in s3manager.UploadInput) error {
	if f.failWith != nil {
		return f.failWith
	}
	buf, err := io.ReadAll(in.Body)
	if err != nil {
		return err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = buf
	return nil
}

func (f *fakeS3Client) Download(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return data, nil
}

func (f *fakeS3Client) Delete(_ context.Context, bucket, key string) error {
	delete(f.objects, bucket+"/"+key)
	return nil
}

func (f *fakeS3Client) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	f.lastExpiry = expiry
	return "https://r2.example/" + bucket + "/" + key, nil
}

func TestObjectStorageService_UploadDownloadDelete(t *testing.T) {
	// Arrange
	client := newFakeS3Client()
	svc := NewStorageService(client, StorageConfig{BucketName: "attachments"})
	ctx := context.Background()

	// Act
	require.NoError(t, svc.Upload(ctx, "email/1/a.pdf", []byte("pdf-bytes"), "application/pdf"))
	data, err := svc.Download(ctx, "email/1/a.pdf")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf-bytes"), data)
	assert.Equal(t, "attachments", svc.Bucket())

	require.NoError(t, svc.Delete(ctx, "email/1/a.pdf"))
	_, err = svc.Download(ctx, "email/1/a.pdf")
	assert.Error(t, err)
}

func TestObjectStorageService_UploadRequiresKey(t *testing.T) {
	svc := NewStorageService(newFakeS3Client(), StorageConfig{BucketName: "attachments"})

	err := svc.Upload(context.Background(), "", []byte("x"), "text/plain")

	assert.Error(t, err)
}

func TestObjectStorageService_PresignedURLUsesDefaultExpiry(t *testing.T) {
	// Arrange
	client := newFakeS3Client()
	svc := NewStorageService(client, StorageConfig{BucketName: "attachments", DefaultExpiry: 15 * time.Minute})

	// Act
	url, err := svc.GetPresignedURL(context.Background(), "k", 0)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "https://r2.example/attachments/k", url)
	assert.Equal(t, 15*time.Minute, client.lastExpiry)

	_, err = svc.GetPresignedURL(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, client.lastExpiry)
}

func TestObjectStorageService_UploadWrapsClientError(t *testing.T) {
	client := newFakeS3Client()
	client.failWith = errors.New("boom")
	svc := NewStorageService(client, StorageConfig{BucketName: "attachments"})

	err := svc.Upload(context.Background(), "k", []byte("x"), "text/plain")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload k")
}
