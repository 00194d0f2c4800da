package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linknlink/linknlink-server/internal/domain"
	"github.com/linknlink/linknlink-server/internal/store"
)

func createLink(t *testing.T, ts *testServer, ident *domain.AuthIdentity, body map[string]any) *domain.Link {
	t.Helper()

	resp := ts.api.Post("/api/links", authHeader(t, ident), body)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var link domain.Link
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &link))
	return &link
}

func TestCreateLink_EnrichesAndTags(t *testing.T) {
	ts := setupTestServer(t)
	ident := ts.signup(t, "ada@example.com")

	link := createLink(t, ts, ident, map[string]any{
		"url":  "https://example.com/article",
		"tags": []string{"go", "reading", "go"},
	})

	assert.NotEmpty(t, link.ID)
	assert.Equal(t, "https://example.com/article", link.URL)
	assert.Equal(t, "Example Domain", link.Title)
	assert.Equal(t, "An example page", link.Description)
	assert.Equal(t, "https://example.com/og.png", link.OGImage)
	assert.Equal(t, ident.Model.ID, link.User)
	assert.False(t, link.IsFavorite)
	assert.False(t, link.Archived)
	assert.Len(t, link.Tags, 2)
	require.NotNil(t, link.Expand)
	assert.Len(t, link.Expand.Tags, 2)
	assert.Equal(t, 1, ts.metadata.calls())
}

func TestCreateLink_SuppliedTitleSkipsFetch(t *testing.T) {
	ts := setupTestServer(t)
	ident := ts.signup(t, "ada@example.com")

	link := createLink(t, ts, ident, map[string]any{
		"url":   "https://example.com",
		"title": "My title",
	})

	assert.Equal(t, "My title", link.Title)
	assert.Empty(t, link.Description)
	assert.Equal(t, 0, ts.metadata.calls())
	assert.Equal(t, []string{}, link.Tags)
}

func TestCreateLink_IgnoresNonStringTags(t *testing.T) {
	ts := setupTestServer(t)
	ident := ts.signup(t, "ada@example.com")

	link := createLink(t, ts, ident, map[string]any{
		"url":   "https://example.com/a",
		"title": "Mixed tags",
		"tags":  []any{"news", 5, nil, "  "},
	})

	require.Len(t, link.Tags, 1)
	require.NotNil(t, link.Expand)
	require.Len(t, link.Expand.Tags, 1)
	assert.Equal(t, "news", link.Expand.Tags[0].Name)
}

func TestCreateLink_Validation(t *testing.T) {
	ts := setupTestServer(t)
	ident := ts.signup(t, "ada@example.com")

	resp := ts.api.Post("/api/links", authHeader(t, ident), map[string]any{"title": "no url"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "URL is required", decodeError(t, resp)["error"])

	resp = ts.api.Post("/api/links", authHeader(t, ident), map[string]any{"url": "not a url"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid URL", decodeError(t, resp)["error"])
}

func TestCreateLink_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/links", map[string]any{"url": "https://example.com"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, 0, ts.metadata.calls())
}

func TestListLinks_Pagination(t *testing.T) {
	ts := setupTestServer(t)
	ident := ts.signup(t, "ada@example.com")

	for i := range 5 {
		createLink(t, ts, ident, map[string]any{
			"url":   fmt.Sprintf("https://example.com/%d", i),
			"title": fmt.Sprintf("Link %d", i),
		})
	}

	resp := ts.api.Get("/api/links?page=2&perPage=2", authHeader(t, ident))
	require.Equal(t, http.StatusOK, resp.Code)

	var page store.LinkPage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PerPage)
	assert.Equal(t, 5, page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "https://example.com/2", page.Items[0].URL)

	// Unusable values fall back to the defaults.
	resp = ts.api.Get("/api/links?page=zero&perPage=1000", authHeader(t, ident))
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 50, page.PerPage)
	assert.Len(t, page.Items, 5)
}

func TestListLinks_SearchAndTagFilter(t *testing.T) {
	ts := setupTestServer(t)
	ident := ts.signup(t, "ada@example.com")

	tagged := createLink(t, ts, ident, map[string]any{
		"url":   "https://go.dev",
		"title": "The Go site",
		"tags":  []string{"golang"},
	})
	createLink(t, ts, ident, map[string]any{"url": "https://rust-lang.org", "title": "Rust"})

	resp := ts.api.Get("/api/links?search=go.dev", authHeader(t, ident))
	require.Equal(t, http.StatusOK, resp.Code)
	var page store.LinkPage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, tagged.ID, page.Items[0].ID)

	resp = ts.api.Get("/api/links?tagId="+tagged.Tags[0], authHeader(t, ident))
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, tagged.ID, page.Items[0].ID)

	resp = ts.api.Get("/api/links?tagId=bad%20id", authHeader(t, ident))
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid tag ID format", decodeError(t, resp)["error"])
}

func TestListLinks_ScopedToCaller(t *testing.T) {
	ts := setupTestServer(t)
	ada := ts.signup(t, "ada@example.com")
	bob := ts.signup(t, "bob@example.com")

	createLink(t, ts, ada, map[string]any{"url": "https://example.com", "title": "Ada's"})

	resp := ts.api.Get("/api/links", authHeader(t, bob))
	require.Equal(t, http.StatusOK, resp.Code)

	var page store.LinkPage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.TotalItems)
}

func TestGetLink(t *testing.T) {
	ts := setupTestServer(t)
	ada := ts.signup(t, "ada@example.com")
	bob := ts.signup(t, "bob@example.com")

	link := createLink(t, ts, ada, map[string]any{"url": "https://example.com", "title": "Mine"})

	resp := ts.api.Get("/api/links/"+link.ID, authCookie(t, ada))
	require.Equal(t, http.StatusOK, resp.Code)

	var got domain.Link
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, "Mine", got.Title)

	resp = ts.api.Get("/api/links/"+link.ID, authHeader(t, bob))
	assert.Contains(t, []int{http.StatusForbidden, http.StatusNotFound}, resp.Code)

	resp = ts.api.Get("/api/links/doesnotexist", authHeader(t, ada))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpdateLink(t *testing.T) {
	ts := setupTestServer(t)
	ident := ts.signup(t, "ada@example.com")

	link := createLink(t, ts, ident, map[string]any{
		"url":   "https://example.com",
		"title": "Before",
		"tags":  []string{"one", "two"},
	})

	resp := ts.api.Put("/api/links/"+link.ID, authHeader(t, ident), map[string]any{
		"title":       "After",
		"is_favorite": true,
		"tags":        []string{link.Tags[0]},
		"notes":       `<p onclick="x()">hello</p><script>alert(1)</script>`,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var got domain.Link
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, "After", got.Title)
	assert.True(t, got.IsFavorite)
	assert.False(t, got.Archived)
	assert.Equal(t, []string{link.Tags[0]}, got.Tags)
	assert.Equal(t, "<p>hello</p>", got.Notes)
}

func TestUpdateLink_Ownership(t *testing.T) {
	ts := setupTestServer(t)
	ada := ts.signup(t, "ada@example.com")
	bob := ts.signup(t, "bob@example.com")

	adaLink := createLink(t, ts, ada, map[string]any{"url": "https://example.com", "title": "Ada", "tags": []string{"private"}})
	bobLink := createLink(t, ts, bob, map[string]any{"url": "https://example.org", "title": "Bob"})

	resp := ts.api.Put("/api/links/"+adaLink.ID, authHeader(t, bob), map[string]any{"title": "Hijacked"})
	assert.Contains(t, []int{http.StatusForbidden, http.StatusNotFound}, resp.Code)

	// Bob cannot attach Ada's tag.
	resp = ts.api.Put("/api/links/"+bobLink.ID, authHeader(t, bob), map[string]any{"tags": adaLink.Tags})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid tag", decodeError(t, resp)["error"])
}

func TestDeleteLink(t *testing.T) {
	ts := setupTestServer(t)
	ada := ts.signup(t, "ada@example.com")
	bob := ts.signup(t, "bob@example.com")

	link := createLink(t, ts, ada, map[string]any{"url": "https://example.com", "title": "Gone soon"})

	resp := ts.api.Delete("/api/links/"+link.ID, authHeader(t, bob))
	assert.Contains(t, []int{http.StatusForbidden, http.StatusNotFound}, resp.Code)

	resp = ts.api.Delete("/api/links/"+link.ID, authHeader(t, ada))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"success":true}`, resp.Body.String())

	resp = ts.api.Get("/api/links/"+link.ID, authHeader(t, ada))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
