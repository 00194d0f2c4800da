package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/linknlink/linknlink-server/internal/auth"
	"github.com/linknlink/linknlink-server/internal/domain"
	"github.com/linknlink/linknlink-server/internal/opengraph"
	"github.com/linknlink/linknlink-server/internal/store/sqlite"
	"github.com/linknlink/linknlink-server/internal/validation"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	tokens, err := auth.NewTokenService(bytes.Repeat([]byte{7}, 32), time.Hour)
	require.NoError(t, err)

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), tokens, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// newCaller registers email and returns a caller bound to its session.
func newCaller(t *testing.T, s *sqlite.Store, email string) Caller {
	t.Helper()
	ctx := context.Background()

	_, err := s.CreateUser(ctx, domain.NewUser{Email: email, Password: "password123"})
	require.NoError(t, err)
	ident, err := s.AuthWithPassword(ctx, email, "password123")
	require.NoError(t, err)

	return Caller{UserID: ident.Model.ID, Session: s.Session(ident.Token)}
}

// stubMetadata returns fixed metadata and records the URLs it was asked for.
type stubMetadata struct {
	mu   sync.Mutex
	md   opengraph.Metadata
	urls []string
}

func (m *stubMetadata) Resolve(_ context.Context, rawURL string) opengraph.Metadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, rawURL)
	return m.md
}

func (m *stubMetadata) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.urls)
}

func newLinkService(md MetadataResolver) *LinkService {
	return NewLinkService(NewTagResolver(quietLogger()), md, quietLogger())
}

func newTagService() *TagService {
	return NewTagService(validation.New(), quietLogger())
}
