package fileobject

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/devphaseX/assoc-api/internal/db"
	storage_go "github.com/supabase-community/storage-go"
)

type SupabaseConfig struct {
	URL    string
	Key    string
	Bucket string
}

// SupabaseStorage implements the FileObject interface for Supabase storage.
type SupabaseStorage struct {
	url    string
	key    string
	client *storage_go.Client
	bucket string
	logger Logger
}

// NewSupabaseStorage creates a new SupabaseStorage instance.
func NewSupabaseStorage(cfg SupabaseConfig, logger Logger) (*SupabaseStorage, error) {
	if cfg.URL == "" || cfg.Key == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: supabase url, key and bucket are required", ErrConfig)
	}

	if logger == nil {
		logger = nopLogger{}
	}

	return &SupabaseStorage{
		url:    cfg.URL,
		key:    cfg.Key,
		client: storage_go.NewClient(cfg.URL, cfg.Key, nil),
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

// UploadFile uploads a file to Supabase storage and returns its public URL.
func (s *SupabaseStorage) UploadFile(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if len(req.Bytes) == 0 {
		return nil, ErrEmptyFile
	}

	objectKey := db.GenerateULID() + "-" + sanitizeName(req.OriginalName)

	// File options are written into the client's shared headers, so every
	// upload gets its own client.
	contentType := req.contentType()
	uploader := storage_go.NewClient(s.url, s.key, nil)

	_, err := uploader.UploadFile(s.bucket, objectKey, bytes.NewReader(req.Bytes), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	s.logger.Infow("file stored", "phase", PhaseDone, "bucket", s.bucket, "key", objectKey, "size", len(req.Bytes), "type", contentType)

	return &UploadResult{
		PublicURL:    s.client.GetPublicUrl(s.bucket, objectKey).SignedURL,
		ObjectKey:    objectKey,
		SizeBytes:    int64(len(req.Bytes)),
		OriginalName: req.OriginalName,
	}, nil
}

// DeleteFile deletes a file from Supabase storage.
func (s *SupabaseStorage) DeleteFile(ctx context.Context, objectKey string) bool {
	if objectKey == "" {
		return false
	}

	if _, err := s.client.RemoveFile(s.bucket, []string{objectKey}); err != nil {
		s.logger.Errorw("delete failed", "phase", PhaseDeleting, "bucket", s.bucket, "key", objectKey, "error", err)
		return false
	}

	s.logger.Infow("file deleted", "phase", PhaseDeleting, "bucket", s.bucket, "key", objectKey)
	return true
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// sanitizeName keeps object keys URL safe.
func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafeNameChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")

	if name == "" {
		return "file"
	}

	return strings.ToLower(name)
}
