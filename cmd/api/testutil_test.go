package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/devphaseX/assoc-api/internal/fileobject"
	"github.com/devphaseX/assoc-api/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFileObject struct {
	mu       sync.Mutex
	uploads  []fileobject.UploadRequest
	deleted  []string
	err      error
	deleteOK bool
	nextKey  string
}

func (f *fakeFileObject) UploadFile(ctx context.Context, req fileobject.UploadRequest) (*fileobject.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.uploads = append(f.uploads, req)
	if f.err != nil {
		return nil, f.err
	}

	key := f.nextKey
	if key == "" {
		key = "key-1"
	}

	return &fileobject.UploadResult{
		PublicURL:    "https://files.test/f/" + key,
		ObjectKey:    key,
		SizeBytes:    req.SizeBytes,
		OriginalName: req.OriginalName,
	}, nil
}

func (f *fakeFileObject) DeleteFile(ctx context.Context, objectKey string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, objectKey)
	return f.deleteOK
}

func (f *fakeFileObject) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// fakeProfileStore keeps profiles in memory and mimics the postgres model's errors.
type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*store.Profile
	seq      int
}

func newFakeProfileStore(profiles ...*store.Profile) *fakeProfileStore {
	s := &fakeProfileStore{profiles: make(map[string]*store.Profile)}
	for _, p := range profiles {
		s.profiles[p.ID] = p
	}
	return s
}

func (s *fakeProfileStore) Create(ctx context.Context, profile *store.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.profiles {
		if existing.Email == profile.Email {
			return store.ErrDuplicateEmail
		}
	}

	s.seq++
	profile.ID = fmt.Sprintf("profile-%d", s.seq)
	profile.Version = 1
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt

	stored := *profile
	s.profiles[profile.ID] = &stored
	return nil
}

func (s *fakeProfileStore) GetByID(ctx context.Context, profileID string) (*store.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[profileID]
	if !ok {
		return nil, store.ErrRecordNotFound
	}

	cp := *p
	return &cp, nil
}

func (s *fakeProfileStore) List(ctx context.Context, filter store.PaginateQueryFilter) ([]*store.Profile, store.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*store.Profile{}
	for _, p := range s.profiles {
		cp := *p
		out = append(out, &cp)
	}

	return out, store.Metadata{TotalRecords: len(out)}, nil
}

func (s *fakeProfileStore) Update(ctx context.Context, profile *store.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[profile.ID]
	if !ok || existing.Version != profile.Version {
		return store.ErrEditConflict
	}

	profile.Version++
	stored := *profile
	s.profiles[profile.ID] = &stored
	return nil
}

func (s *fakeProfileStore) Delete(ctx context.Context, profileID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[profileID]
	if !ok {
		return "", store.ErrRecordNotFound
	}

	delete(s.profiles, profileID)
	return p.AvatarKey, nil
}

func (s *fakeProfileStore) SetAvatar(ctx context.Context, profileID, avatarURL, avatarKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[profileID]
	if !ok {
		return "", store.ErrRecordNotFound
	}

	previous := p.AvatarKey
	p.AvatarURL, p.AvatarKey = avatarURL, avatarKey
	p.Version++
	return previous, nil
}

func newTestApplication(t *testing.T, fo fileobject.FileObject, profiles store.ProfileStore) *application {
	t.Helper()

	return &application{
		cfg: config{
			env: "test",
			storage: storageConfig{
				driver:      "fake",
				maxFileSize: 1 * fileobject.MB,
			},
			cors: corsConfig{allowedOrigins: []string{"http://localhost:5173"}},
		},
		logger:     zap.NewNop().Sugar(),
		store:      &store.Storage{Profiles: profiles},
		fileobject: fo,
	}
}

type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, parts ...filePart) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, p := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		if p.contentType != "" {
			header.Set("Content-Type", p.contentType)
		}

		w, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doRequest(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}

	return rec, body
}

func errorCode(body map[string]any) any {
	errObj, _ := body["error"].(map[string]any)
	return errObj["code"]
}
