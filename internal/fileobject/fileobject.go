package fileobject

import (
	"context"
	"fmt"
	"strings"
)

const (
	_  = iota             // 0
	KB = 1 << (10 * iota) // 1 << 10 = 1024
	MB                    // 1 << 20 = 1,048,576
)

// DefaultMaxFileSize is the largest single file a backend accepts unless configured otherwise.
const DefaultMaxFileSize = 32 * MB

const (
	DriverUploadThing = "uploadthing"
	DriverLocal       = "local"
	DriverSupabase    = "supabase"
	DriverMinio       = "minio"
)

// FileObject defines the interface for file storage operations.
type FileObject interface {
	// UploadFile stores exactly one file and returns a stable public reference to it.
	UploadFile(ctx context.Context, req UploadRequest) (*UploadResult, error)

	// DeleteFile removes a stored object. It never fails loudly: any problem is
	// logged and reported as false.
	DeleteFile(ctx context.Context, objectKey string) bool
}

// Logger is the subset of *zap.SugaredLogger the storage backends log through.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

type UploadRequest struct {
	Bytes        []byte
	OriginalName string
	MimeType     string
	SizeBytes    int64
}

func NewUploadRequest(data []byte, originalName, mimeType string) UploadRequest {
	return UploadRequest{
		Bytes:        data,
		OriginalName: originalName,
		MimeType:     mimeType,
		SizeBytes:    int64(len(data)),
	}
}

func (r UploadRequest) contentType() string {
	if r.MimeType == "" {
		return "application/octet-stream"
	}
	return r.MimeType
}

type UploadResult struct {
	PublicURL    string `json:"public_url"`
	ObjectKey    string `json:"object_key"`
	SizeBytes    int64  `json:"size_bytes"`
	OriginalName string `json:"original_name"`
}

// Config carries the settings of every backend; New only reads the block
// belonging to the selected driver.
type Config struct {
	UploadThing UploadThingConfig
	Local       FileSystemConfig
	Supabase    SupabaseConfig
	Minio       MinioConfig
}

// New builds the backend registered under driver. Construction errors, such as
// a missing provider credential, are meant to stop the process at startup.
func New(ctx context.Context, driver string, cfg Config, logger Logger) (FileObject, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverUploadThing, "":
		return NewUploadThingStorage(cfg.UploadThing, logger)
	case DriverLocal:
		return NewFileSystemStorage(cfg.Local, logger)
	case DriverSupabase:
		return NewSupabaseStorage(cfg.Supabase, logger)
	case DriverMinio:
		return NewMinioStorage(ctx, cfg.Minio, logger)
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", ErrConfig, driver)
	}
}

func publicObjectURL(base, objectKey string) string {
	return strings.TrimRight(base, "/") + "/f/" + objectKey
}
