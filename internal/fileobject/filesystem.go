package fileobject

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devphaseX/assoc-api/internal/db"
)

type FileSystemConfig struct {
	BasePath      string // Base directory where files will be stored
	PublicBaseURL string // Prefix of the URLs handed back to clients, e.g. http://localhost:8080
}

// FileSystemStorage implements the FileObject interface for local file storage.
type FileSystemStorage struct {
	basePath      string
	publicBaseURL string
	logger        Logger
}

func NewFileSystemStorage(cfg FileSystemConfig, logger Logger) (*FileSystemStorage, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("%w: local storage base path is empty", ErrConfig)
	}

	if logger == nil {
		logger = nopLogger{}
	}

	// Create the base directory if it doesn't exist
	if err := os.MkdirAll(cfg.BasePath, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &FileSystemStorage{
		basePath:      cfg.BasePath,
		publicBaseURL: cfg.PublicBaseURL,
		logger:        logger,
	}, nil
}

// BasePath is the directory the files are served from.
func (fs *FileSystemStorage) BasePath() string {
	return fs.basePath
}

// UploadFile writes the file to the local file system under a fresh key.
func (fs *FileSystemStorage) UploadFile(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if len(req.Bytes) == 0 {
		return nil, ErrEmptyFile
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	objectKey := db.GenerateULID() + strings.ToLower(filepath.Ext(req.OriginalName))
	filePath := filepath.Join(fs.basePath, objectKey)

	if err := os.WriteFile(filePath, req.Bytes, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	fs.logger.Infow("file stored", "phase", PhaseDone, "key", objectKey, "size", len(req.Bytes))

	return &UploadResult{
		PublicURL:    publicObjectURL(fs.publicBaseURL, objectKey),
		ObjectKey:    objectKey,
		SizeBytes:    int64(len(req.Bytes)),
		OriginalName: req.OriginalName,
	}, nil
}

// DeleteFile removes the file behind objectKey.
func (fs *FileSystemStorage) DeleteFile(ctx context.Context, objectKey string) bool {
	if !validLocalKey(objectKey) {
		fs.logger.Warnw("delete skipped, invalid key", "phase", PhaseDeleting, "key", objectKey)
		return false
	}

	err := os.Remove(filepath.Join(fs.basePath, objectKey))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fs.logger.Warnw("delete skipped, file not found", "phase", PhaseDeleting, "key", objectKey)
		} else {
			fs.logger.Errorw("delete failed", "phase", PhaseDeleting, "key", objectKey, "error", err)
		}
		return false
	}

	fs.logger.Infow("file deleted", "phase", PhaseDeleting, "key", objectKey)
	return true
}

func validLocalKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, `/\`) && !strings.Contains(key, "..")
}
