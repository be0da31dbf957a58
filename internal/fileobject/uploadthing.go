package fileobject

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
	"time"
)

const (
	defaultUploadThingAPIURL    = "https://api.uploadthing.com"
	defaultUploadThingPublicURL = "https://utfs.io"
	defaultUploadThingTimeout   = 5 * time.Minute

	uploadThingAPIKeyHeader  = "x-uploadthing-api-key"
	uploadThingVersionHeader = "x-uploadthing-version"
	uploadThingVersion       = "6.4.0"
)

var errMalformedResponse = errors.New("malformed provider response")

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type UploadThingConfig struct {
	// Token is either the raw API key or the base64 JSON token issued by the dashboard.
	Token         string
	APIURL        string
	PublicBaseURL string
	MaxFileSize   int64
	Timeout       time.Duration
	CallbackURL   string
	CallbackSlug  string
	HTTPClient    HTTPDoer
}

// UploadThingStorage implements the FileObject interface on top of the
// UploadThing prepare/transfer/complete handshake.
type UploadThingStorage struct {
	apiKey        string
	apiURL        string
	publicBaseURL string
	maxFileSize   int64
	callbackURL   string
	callbackSlug  string
	client        HTTPDoer
	logger        Logger
}

// NewUploadThingStorage validates cfg before any request is made. An empty
// token yields ErrConfig.
func NewUploadThingStorage(cfg UploadThingConfig, logger Logger) (*UploadThingStorage, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("%w: UPLOADTHING_TOKEN is not set", ErrConfig)
	}

	if logger == nil {
		logger = nopLogger{}
	}

	if cfg.APIURL == "" {
		cfg.APIURL = defaultUploadThingAPIURL
	}

	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = defaultUploadThingPublicURL
	}

	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultUploadThingTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &UploadThingStorage{
		apiKey:        ResolveAPIKey(cfg.Token, logger),
		apiURL:        strings.TrimRight(cfg.APIURL, "/"),
		publicBaseURL: cfg.PublicBaseURL,
		maxFileSize:   cfg.MaxFileSize,
		callbackURL:   cfg.CallbackURL,
		callbackSlug:  cfg.CallbackSlug,
		client:        client,
		logger:        logger,
	}, nil
}

type UploadSlot struct {
	URL    string            `json:"url"`
	Key    string            `json:"key"`
	Fields map[string]string `json:"fields"`
}

type prepareFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

type routeConfig struct {
	MaxFileSize  int64 `json:"maxFileSize"`
	MaxFileCount int   `json:"maxFileCount"`
}

type prepareUploadRequest struct {
	Files        []prepareFile `json:"files"`
	RouteConfig  routeConfig   `json:"routeConfig"`
	CallbackURL  string        `json:"callbackUrl"`
	CallbackSlug string        `json:"callbackSlug"`
}

type prepareUploadResponse struct {
	Data []UploadSlot `json:"data"`
}

type completeUploadRequest struct {
	FileKey string `json:"fileKey"`
}

type deleteFilesRequest struct {
	FileKeys []string `json:"fileKeys"`
}

type deleteFilesResponse struct {
	Success *bool `json:"success"`
}

// UploadFile runs prepare, transfer and complete in order. Prepare and transfer
// failures are returned; a complete failure is only logged because the object
// is already served once the transfer is acknowledged.
func (s *UploadThingStorage) UploadFile(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if len(req.Bytes) == 0 {
		return nil, ErrEmptyFile
	}

	req.SizeBytes = int64(len(req.Bytes))

	slot, err := s.prepare(ctx, req)
	if err != nil {
		s.logger.Errorw("upload failed", "phase", PhasePreparing, "file", req.OriginalName, "error", err)
		return nil, err
	}

	if err := s.transfer(ctx, slot, req); err != nil {
		s.logger.Errorw("upload failed", "phase", PhaseTransferring, "file", req.OriginalName, "key", slot.Key, "error", err)
		return nil, err
	}

	if err := s.complete(ctx, slot.Key); err != nil {
		s.logger.Warnw("upload completion not acknowledged", "phase", PhaseCompleting, "key", slot.Key, "error", err)
	}

	result := &UploadResult{
		PublicURL:    publicObjectURL(s.publicBaseURL, slot.Key),
		ObjectKey:    slot.Key,
		SizeBytes:    req.SizeBytes,
		OriginalName: req.OriginalName,
	}

	s.logger.Infow("upload finished", "phase", PhaseDone, "key", result.ObjectKey, "size", result.SizeBytes)

	return result, nil
}

func (s *UploadThingStorage) prepare(ctx context.Context, req UploadRequest) (*UploadSlot, error) {
	body := prepareUploadRequest{
		Files: []prepareFile{{
			Name: req.OriginalName,
			Size: req.SizeBytes,
			Type: req.contentType(),
		}},
		RouteConfig: routeConfig{
			MaxFileSize:  s.maxFileSize,
			MaxFileCount: 1,
		},
		CallbackURL:  s.callbackURL,
		CallbackSlug: s.callbackSlug,
	}

	s.logger.Infow("preparing upload", "phase", PhasePreparing, "file", req.OriginalName, "size", req.SizeBytes, "type", req.contentType())

	var resp prepareUploadResponse
	if err := s.postJSON(ctx, PhasePreparing, "/v6/prepareUpload", body, &resp); err != nil {
		var te *TransferError
		if errors.As(err, &te) && errors.Is(te.Err, errMalformedResponse) {
			return nil, &TransferError{Kind: ErrPrepareFailed, Phase: PhasePreparing, Err: te.Err}
		}
		return nil, err
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" || resp.Data[0].Key == "" {
		return nil, &TransferError{Kind: ErrPrepareFailed, Phase: PhasePreparing}
	}

	slot := resp.Data[0]
	s.logger.Infow("upload slot issued", "phase", PhasePreparing, "key", slot.Key, "fields", len(slot.Fields))

	return &slot, nil
}

func (s *UploadThingStorage) transfer(ctx context.Context, slot *UploadSlot, req UploadRequest) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	names := make([]string, 0, len(slot.Fields))
	for name := range slot.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := mw.WriteField(name, slot.Fields[name]); err != nil {
			return transportError(PhaseTransferring, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(req.OriginalName)))
	header.Set("Content-Type", req.contentType())

	part, err := mw.CreatePart(header)
	if err != nil {
		return transportError(PhaseTransferring, err)
	}

	if _, err := part.Write(req.Bytes); err != nil {
		return transportError(PhaseTransferring, err)
	}

	if err := mw.Close(); err != nil {
		return transportError(PhaseTransferring, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, slot.URL, &buf)
	if err != nil {
		return transportError(PhaseTransferring, err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	s.logger.Infow("transferring file", "phase", PhaseTransferring, "key", slot.Key, "size", req.SizeBytes)

	status, _, err := s.do(httpReq, PhaseTransferring)
	if err != nil {
		return err
	}

	s.logger.Infow("file transferred", "phase", PhaseTransferring, "key", slot.Key, "status", status)
	return nil
}

func (s *UploadThingStorage) complete(ctx context.Context, key string) error {
	s.logger.Infow("completing upload", "phase", PhaseCompleting, "key", key)
	return s.postJSON(ctx, PhaseCompleting, "/v6/completeUpload", completeUploadRequest{FileKey: key}, nil)
}

// DeleteFile asks the provider to remove objectKey. It reports false instead
// of returning an error.
func (s *UploadThingStorage) DeleteFile(ctx context.Context, objectKey string) (deleted bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("delete panicked", "phase", PhaseDeleting, "key", objectKey, "panic", r)
			deleted = false
		}
	}()

	if objectKey == "" {
		s.logger.Warnw("delete skipped, empty key", "phase", PhaseDeleting)
		return false
	}

	var resp deleteFilesResponse
	err := s.postJSON(ctx, PhaseDeleting, "/v6/deleteFiles", deleteFilesRequest{FileKeys: []string{objectKey}}, &resp)
	if err != nil {
		s.logger.Errorw("delete failed", "phase", PhaseDeleting, "key", objectKey, "error", err)
		return false
	}

	if resp.Success != nil && !*resp.Success {
		s.logger.Warnw("delete not confirmed by provider", "phase", PhaseDeleting, "key", objectKey)
		return false
	}

	s.logger.Infow("file deleted", "phase", PhaseDeleting, "key", objectKey)
	return true
}

func (s *UploadThingStorage) postJSON(ctx context.Context, phase Phase, path string, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return transportError(phase, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+path, bytes.NewReader(payload))
	if err != nil {
		return transportError(phase, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(uploadThingAPIKeyHeader, s.apiKey)
	req.Header.Set(uploadThingVersionHeader, uploadThingVersion)

	_, respBody, err := s.do(req, phase)
	if err != nil {
		return err
	}

	if dst == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, dst); err != nil {
		return &TransferError{Kind: ErrUnknownTransfer, Phase: phase, Err: fmt.Errorf("%w: %w", errMalformedResponse, err)}
	}

	return nil
}

// do sends req and returns the status and full body of a 2xx response. The
// body is read without a size cap.
func (s *UploadThingStorage) do(req *http.Request, phase Phase) (int, []byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, transportError(phase, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, transportError(phase, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, body, statusError(phase, resp.StatusCode, body)
	}

	return resp.StatusCode, body, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

type nopLogger struct{}

func (nopLogger) Debugw(string, ...interface{}) {}
func (nopLogger) Infow(string, ...interface{})  {}
func (nopLogger) Warnw(string, ...interface{})  {}
func (nopLogger) Errorw(string, ...interface{}) {}
