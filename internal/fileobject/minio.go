package fileobject

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/devphaseX/assoc-api/internal/db"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string // defaults to the endpoint
}

// compile-time checks that every backend satisfies FileObject.
var (
	_ FileObject = (*MinioStorage)(nil)
	_ FileObject = (*UploadThingStorage)(nil)
	_ FileObject = (*FileSystemStorage)(nil)
	_ FileObject = (*SupabaseStorage)(nil)
)

// MinioStorage implements the FileObject interface for S3 compatible buckets.
type MinioStorage struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
	logger        Logger
}

// NewMinioStorage connects to the endpoint and makes sure the bucket exists.
func NewMinioStorage(ctx context.Context, cfg MinioConfig, logger Logger) (*MinioStorage, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: minio endpoint and bucket are required", ErrConfig)
	}

	if logger == nil {
		logger = nopLogger{}
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new client: %w", err)
	}

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicBase = scheme + "://" + cfg.Endpoint
	}

	s := &MinioStorage{
		client:        mc,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(publicBase, "/"),
		logger:        logger,
	}

	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// EnsureBucket creates the bucket if it does not already exist.
func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket: %w", err)
	}

	s.logger.Infow("bucket created", "bucket", s.bucket)
	return nil
}

func (s *MinioStorage) UploadFile(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if len(req.Bytes) == 0 {
		return nil, ErrEmptyFile
	}

	objectKey := db.GenerateULID() + "-" + sanitizeName(req.OriginalName)

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(req.Bytes), int64(len(req.Bytes)), minio.PutObjectOptions{
		ContentType: req.contentType(),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %q: %w", objectKey, err)
	}

	s.logger.Infow("file stored", "phase", PhaseDone, "bucket", s.bucket, "key", objectKey, "size", len(req.Bytes))

	return &UploadResult{
		PublicURL:    s.publicBaseURL + "/" + s.bucket + "/" + objectKey,
		ObjectKey:    objectKey,
		SizeBytes:    int64(len(req.Bytes)),
		OriginalName: req.OriginalName,
	}, nil
}

func (s *MinioStorage) DeleteFile(ctx context.Context, objectKey string) bool {
	if objectKey == "" {
		return false
	}

	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		s.logger.Errorw("delete failed", "phase", PhaseDeleting, "bucket", s.bucket, "key", objectKey, "error", err)
		return false
	}

	s.logger.Infow("file deleted", "phase", PhaseDeleting, "bucket", s.bucket, "key", objectKey)
	return true
}
