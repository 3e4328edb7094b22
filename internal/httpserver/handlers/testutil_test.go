package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"casefile/internal/httpserver"
	"casefile/internal/logger"
	"casefile/internal/models"
)

type fakeStore struct {
	mu         sync.Mutex
	saved      map[string][]byte
	deleted    []string
	failDelete bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: map[string][]byte{}}
}

func (s *fakeStore) Save(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[key] = b
	return s.URL(key), nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	if s.failDelete {
		return io.ErrUnexpectedEOF
	}
	delete(s.saved, key)
	return nil
}

func (s *fakeStore) URL(key string) string { return "https://blobs.test/" + key }

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	roles []string
}

func (m *fakeMailer) SendInvite(ctx context.Context, to, caseTitle, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	m.roles = append(m.roles, role)
	if m.fail {
		return io.ErrUnexpectedEOF
	}
	return nil
}

type testEnv struct {
	t     *testing.T
	db    *gorm.DB
	store *fakeStore
	mail  *fakeMailer
	h     http.Handler
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Session{},
		&models.Case{}, &models.CaseMember{},
		&models.Evidence{}, &models.EvidenceJob{},
		&models.Tag{}, &models.EvidenceTag{},
		&models.Fact{}, &models.FactEvidence{},
		&models.AuditLog{},
	))
	store := newFakeStore()
	mail := &fakeMailer{}
	lg := logger.New()
	return &testEnv{
		t:     t,
		db:    db,
		store: store,
		mail:  mail,
		h:     httpserver.NewRouter(db, store, mail, lg),
	}
}

func (e *testEnv) request(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_token" && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

// signUp registers a user and returns their session cookie and id.
func (e *testEnv) signUp(email string) (*http.Cookie, string) {
	e.t.Helper()
	rec := e.request(http.MethodPost, "/auth/sign-up", map[string]any{
		"email": email, "password": "password123",
	}, nil)
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		UserID string `json:"userId"`
	}
	decode(e.t, rec, &out)
	return sessionCookie(e.t, rec), out.UserID
}

func (e *testEnv) createCase(cookie *http.Cookie, title string) models.Case {
	e.t.Helper()
	rec := e.request(http.MethodPost, "/cases", map[string]any{"title": title}, cookie)
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	var c models.Case
	decode(e.t, rec, &c)
	return c
}

func (e *testEnv) createEvidence(cookie *http.Cookie, caseID, typ string) models.Evidence {
	e.t.Helper()
	rec := e.request(http.MethodPost, "/evidence", map[string]any{
		"caseId": caseID, "type": typ,
	}, cookie)
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	var ev models.Evidence
	decode(e.t, rec, &ev)
	return ev
}

// uploadFile posts a multipart file to the evidence upload endpoint.
func (e *testEnv) uploadFile(cookie *http.Cookie, evidenceID, fileName string, content []byte) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(e.t, err)
	_, err = fw.Write(content)
	require.NoError(e.t, err)
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/evidence/"+evidenceID+"/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}
