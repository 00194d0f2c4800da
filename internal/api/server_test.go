package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linknlink/linknlink-server/internal/auth"
	"github.com/linknlink/linknlink-server/internal/config"
	"github.com/linknlink/linknlink-server/internal/domain"
	"github.com/linknlink/linknlink-server/internal/opengraph"
	"github.com/linknlink/linknlink-server/internal/service"
	"github.com/linknlink/linknlink-server/internal/store/sqlite"
	"github.com/linknlink/linknlink-server/internal/validation"
)

type testServer struct {
	*Server
	api      humatest.TestAPI
	store    *sqlite.Store
	metadata *stubMetadata
}

// stubMetadata answers every lookup with the same metadata.
type stubMetadata struct {
	mu sync.Mutex
	md opengraph.Metadata
	n  int
}

func (m *stubMetadata) Resolve(_ context.Context, _ string) opengraph.Metadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	return m.md
}

func (m *stubMetadata) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n
}

type failingPinger struct{}

func (failingPinger) Ping() error { return io.ErrUnexpectedEOF }

type okPinger struct{}

func (okPinger) Ping() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Environment: "development"},
		Auth: config.AuthConfig{TokenDuration: time.Hour, RateLimit: 100},
		CORS: config.CORSConfig{AllowedOrigin: "*"},
	}
}

// setupTestServer creates a server over a fresh sqlite database. opts
// adjust the config before the server is built.
func setupTestServer(t *testing.T, opts ...func(*config.Config)) *testServer {
	return setupTestServerWithCache(t, nil, opts...)
}

func setupTestServerWithCache(t *testing.T, cache Pinger, opts ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenService(bytes.Repeat([]byte{9}, 32), cfg.Auth.TokenDuration)
	require.NoError(t, err)

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), tokens, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	md := &stubMetadata{md: opengraph.Metadata{
		Title:       "Example Domain",
		Description: "An example page",
		Image:       "https://example.com/og.png",
	}}

	validator := validation.New()
	services := &Services{
		Auth:    service.NewAuthService(st, validator, logger),
		Link:    service.NewLinkService(service.NewTagResolver(logger), md, logger),
		Tag:     service.NewTagService(validator, logger),
		Profile: service.NewProfileService(logger),
	}

	s := NewServer(cfg, st, services, auth.NewResolver(st, logger), cache, logger)
	t.Cleanup(s.Close)

	return &testServer{
		Server:   s,
		api:      humatest.Wrap(t, s.API()),
		store:    st,
		metadata: md,
	}
}

// signup registers an account through the API and returns its identity.
func (ts *testServer) signup(t *testing.T, email string) *domain.AuthIdentity {
	t.Helper()

	resp := ts.api.Post("/api/auth/signup", map[string]any{
		"email":           email,
		"password":        "password123",
		"passwordConfirm": "password123",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return &domain.AuthIdentity{Token: body.Token, Model: body.User}
}

// authHeader renders ident as an X-Auth-Data header argument for humatest.
func authHeader(t *testing.T, ident *domain.AuthIdentity) string {
	t.Helper()
	data, err := json.Marshal(ident)
	require.NoError(t, err)
	return auth.HeaderName + ": " + string(data)
}

// authCookie renders ident as a Cookie header argument for humatest.
func authCookie(t *testing.T, ident *domain.AuthIdentity) string {
	t.Helper()
	value, err := auth.EncodeIdentity(ident)
	require.NoError(t, err)
	return "Cookie: " + auth.CookieName + "=" + value
}

func responseCookie(resp *httptest.ResponseRecorder) *http.Cookie {
	var found *http.Cookie
	for _, c := range resp.Result().Cookies() {
		if c.Name == auth.CookieName {
			found = c
		}
	}
	return found
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body), resp.Body.String())
	return body
}

func TestServer_ErrorShape(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/links")
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	body := decodeError(t, resp)
	assert.Equal(t, "Unauthorized", body["error"])
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestServer_RequestValidationIsBadRequest(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/auth/login", map[string]any{
		"email":    42,
		"password": "x",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	body := decodeError(t, resp)
	assert.Equal(t, "VALIDATION", body["code"])
	assert.NotEmpty(t, body["error"])
}

func TestServer_UnknownRoute(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
