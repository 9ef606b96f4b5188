// Package storage issues presigned S3 upload URLs. The service never
// proxies object bytes itself; clients PUT directly against the signed
// URL within its validity window.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/openclaw/bountyboard/internal/config"
)

// Presigner wraps an S3 presign client for the configured upload bucket.
type Presigner struct {
	presign *s3.PresignClient
	bucket  string
}

// NewPresigner builds the S3 client from static credentials in the app
// config. Returns an error when the bucket or keys are not configured.
func NewPresigner(ctx context.Context, cfg config.Config) (*Presigner, error) {
	if cfg.S3Bucket == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, fmt.Errorf("s3 upload bucket not configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey, cfg.S3SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &Presigner{presign: s3.NewPresignClient(client), bucket: cfg.S3Bucket}, nil
}

// UploadURL returns a presigned PUT URL for a fresh image object key.
// The URL is valid for 60 seconds, matching the short window a client
// needs between requesting and starting the upload.
func (p *Presigner) UploadURL(ctx context.Context) (string, error) {
	key := fmt.Sprintf("image-%s.png", uuid.NewString())
	out, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(60*time.Second))
	if err != nil {
		return "", fmt.Errorf("presign upload: %w", err)
	}
	return out.URL, nil
}
