package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devphaseX/assoc-api/internal/fileobject"
	"github.com/devphaseX/assoc-api/internal/validator"
	"github.com/devphaseX/assoc-api/worker"
	"github.com/go-chi/chi/v5"
)

const (
	// multipartMemory is how much of a multipart body is kept in memory
	// before spilling to temporary files.
	multipartMemory = 32 * fileobject.MB

	cleanupTimeout = time.Minute
)

var (
	errFileTooLarge     = errors.New("file exceeds the maximum upload size")
	errInvalidMultipart = errors.New("invalid multipart body payload")
)

// readUploadedFile reads the single file sent under field.
func (app *application) readUploadedFile(w http.ResponseWriter, r *http.Request, field string) (fileobject.UploadRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, app.cfg.storage.maxFileSize+fileobject.MB)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) || strings.Contains(err.Error(), "request body too large") {
			return fileobject.UploadRequest{}, errFileTooLarge
		}
		return fileobject.UploadRequest{}, errInvalidMultipart
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File[field]

	switch {
	case len(files) == 0:
		validationErrors := &validator.ValidationErrors{}
		validationErrors.AddFieldError(field, field+" is a required field")
		return fileobject.UploadRequest{}, validationErrors
	case len(files) > 1:
		validationErrors := &validator.ValidationErrors{}
		validationErrors.AddFieldError(field, "only one file may be uploaded per request")
		return fileobject.UploadRequest{}, validationErrors
	}

	header := files[0]
	if header.Size > app.cfg.storage.maxFileSize {
		return fileobject.UploadRequest{}, errFileTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return fileobject.UploadRequest{}, fmt.Errorf("open uploaded file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fileobject.UploadRequest{}, fmt.Errorf("read uploaded file: %w", err)
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	return fileobject.NewUploadRequest(data, header.Filename, mimeType), nil
}

func (app *application) uploadReadErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors *validator.ValidationErrors

	switch {
	case errors.Is(err, errFileTooLarge):
		app.payloadTooLargeResponse(w, r, fmt.Sprintf("%s (%d bytes)", errFileTooLarge.Error(), app.cfg.storage.maxFileSize))
	case errors.As(err, &validationErrors), errors.Is(err, errInvalidMultipart):
		app.badRequestResponse(w, r, err)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

// uploadFileHandler accepts one file in the "file" field and stores it.
func (app *application) uploadFileHandler(w http.ResponseWriter, r *http.Request) {
	req, err := app.readUploadedFile(w, r, "file")
	if err != nil {
		app.uploadReadErrorResponse(w, r, err)
		return
	}

	if len(req.Bytes) == 0 {
		app.fileObjectErrorResponse(w, r, fileobject.ErrEmptyFile)
		return
	}

	result, err := app.fileobject.UploadFile(r.Context(), req)
	if err != nil {
		app.fileObjectErrorResponse(w, r, err)
		return
	}

	app.successResponse(w, http.StatusCreated, envelope{
		"file": result,
	})
}

func (app *application) deleteFileHandler(w http.ResponseWriter, r *http.Request) {
	key := app.readStringID(r, "key")

	deleted := app.fileobject.DeleteFile(r.Context(), key)

	app.successResponse(w, http.StatusOK, envelope{
		"object_key": key,
		"deleted":    deleted,
	})
}

// scheduleFileDeletion removes a no longer referenced object without holding
// up the request. It goes through the task queue when one is configured and
// falls back to a background goroutine otherwise.
func (app *application) scheduleFileDeletion(objectKey, reason string) {
	if objectKey == "" {
		return
	}

	if app.taskDistributor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := app.taskDistributor.DistributeTaskDeleteFileObject(ctx, &worker.PayloadDeleteFileObject{
			ObjectKey: objectKey,
			Reason:    reason,
		})
		if err == nil {
			return
		}

		app.logger.Warnw("failed to enqueue file cleanup, deleting in background", "key", objectKey, "error", err)
	}

	app.background(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()

		if !app.fileobject.DeleteFile(ctx, objectKey) {
			app.logger.Warnw("file cleanup failed", "key", objectKey, "reason", reason)
		}
	})
}

// FileServer serves static files from a http.FileSystem.
func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit any URL parameters.")
	}

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", http.StatusMovedPermanently).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		fs := http.StripPrefix(pathPrefix, http.FileServer(root))
		fs.ServeHTTP(w, r)
	})
}
