package storage

import (
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"

	"github.com/relocrm/leadstack/config"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/services/storage/aws_client"
)

// NewR2StorageService returns nil when no R2 credentials are configured.
func NewR2StorageService(cfg *config.R2StorageConfig) interfaces.StorageService {
	if !cfg.Enabled() {
		return nil
	}
	r2Client := aws_client.NewS3Client(&aws.Config{
		Endpoint:         aws.String("https://" + cfg.AccountID + ".r2.cloudflarestorage.com"),
		Region:           aws.String("auto"),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.AccessKeySecret, ""),
		S3ForcePathStyle: aws.Bool(true),
	})

	return NewStorageService(r2Client, StorageConfig{
		BucketName:    cfg.EmailAttachmentBucket,
		DefaultExpiry: time.Duration(cfg.PresignExpiryMinutes) * time.Minute,
	})
}
