package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/logging"
	"github.com/galleryhub/backend/internal/config"
)

// UploadResult describes a stored object.
type UploadResult struct {
	StoredPath string `json:"stored_path"`
	PublicURL  string `json:"public_url"`
}

// ObjectStorage is the storage adapter used by the gallery pipeline. Every
// call is a single attempt; failures surface as StorageError.
type ObjectStorage interface {
	Upload(ctx context.Context, data []byte, key, bucket, contentType string) (UploadResult, error)
	Remove(ctx context.Context, key, bucket string) error
	PublicURL(bucket, key string) string
}

// S3Storage talks to any S3 compatible endpoint (the hosted backend exposes one).
type S3Storage struct {
	client    *s3.Client
	publicURL string
	endpoint  string
	region    string
	observer  *StorageObserver
}

func NewS3Storage(cfg *config.Config, observer *StorageObserver) (*S3Storage, error) {
	client, err := buildClient(cfg.StorageS3Endpoint, cfg.StorageS3Region, cfg.StorageS3AccessKeyID, cfg.StorageS3SecretAccessKey, cfg.StorageS3UsePathStyle)
	if err != nil {
		return nil, err
	}
	return &S3Storage{
		client:    client,
		publicURL: cfg.StoragePublicURL,
		endpoint:  strings.TrimRight(cfg.StorageS3Endpoint, "/"),
		region:    cfg.StorageS3Region,
		observer:  observer,
	}, nil
}

func buildClient(endpoint, region, key, secret string, pathStyle bool) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		awsconfig.WithLogger(sdkLogger()),
	)
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
		// one attempt only; the caller sees the first failure
		o.Retryer = aws.NopRetryer{}
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return client, nil
}

// sdkLogger forwards SDK log lines to slog.
func sdkLogger() logging.Logger {
	return logging.LoggerFunc(func(classification logging.Classification, format string, v ...interface{}) {
		msg := fmt.Sprintf(format, v...)
		if classification == logging.Warn {
			slog.Warn(msg, "component", "s3")
			return
		}
		slog.Debug(msg, "component", "s3")
	})
}

func (s *S3Storage) Upload(ctx context.Context, data []byte, key, bucket, contentType string) (UploadResult, error) {
	start := time.Now()
	uploader := manager.NewUploader(s.client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024
	})
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=3600"),
	})
	s.observer.RecordUpload(time.Since(start), len(data), err)
	if err != nil {
		return UploadResult{}, NewStorageError("upload", err)
	}
	return UploadResult{
		StoredPath: bucket + "/" + key,
		PublicURL:  s.PublicURL(bucket, key),
	}, nil
}

func (s *S3Storage) Remove(ctx context.Context, key, bucket string) error {
	start := time.Now()
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	s.observer.RecordRemove(time.Since(start), err)
	if err != nil {
		return NewStorageError("remove", err)
	}
	return nil
}

// PublicURL builds the permanent object URL. The configured public base wins
// over the API endpoint; with neither set the AWS virtual-hosted form is used.
func (s *S3Storage) PublicURL(bucket, key string) string {
	base := s.publicURL
	if base == "" {
		base = s.endpoint
	}
	if base == "" {
		region := s.region
		if region == "" {
			region = "us-east-1"
		}
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, escapeKey(key))
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, escapeKey(key))
}

// escapeKey escapes each path segment of an object key, keeping the separators.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
