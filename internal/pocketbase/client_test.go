package pocketbase

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linknlink/linknlink-server/internal/domain"
	"github.com/linknlink/linknlink-server/internal/store"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL+"/", time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { c.Close() })
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const userJSON = `{"id":"u1","collectionName":"users","email":"ada@example.com","name":"Ada","verified":true,
	"created":"2024-05-01 10:00:00.123Z","updated":"2024-05-02 11:00:00.000Z"}`

func TestAuthWithPassword(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/collections/users/auth-with-password", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["identity"] != "ada@example.com" || body["password"] != "password123" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"code": 400, "message": "Failed to authenticate.", "data": map[string]any{}})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"token":"pb-token","record":`+userJSON+`}`)
	}))

	ident, err := c.AuthWithPassword(context.Background(), "ada@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "pb-token", ident.Token)
	assert.Equal(t, "u1", ident.Model.ID)
	assert.Equal(t, "Ada", ident.Model.Name)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 123_000_000, time.UTC), ident.Model.Created)

	_, err = c.AuthWithPassword(context.Background(), "ada@example.com", "nope")
	require.ErrorIs(t, err, store.ErrInvalidInput)
	var se *store.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Failed to authenticate.", se.Message)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, body["password"], body["passwordConfirm"])

		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":    400,
			"message": "Failed to create record.",
			"data": map[string]any{
				"email": map[string]string{"code": "validation_not_unique", "message": "Value must be unique."},
			},
		})
	}))

	_, err := c.CreateUser(context.Background(), domain.NewUser{Email: "ada@example.com", Password: "password123"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestSession_SendsToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "good" {
			writeJSON(w, http.StatusNotFound, map[string]any{"code": 404, "message": "The requested resource wasn't found."})
			return
		}
		assert.Equal(t, "/api/collections/users/records/u1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, userJSON)
	}))

	u, err := c.Session("good").CurrentUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)

	_, err = c.Session("stale").CurrentUser(context.Background(), "u1")
	assert.ErrorIs(t, err, store.ErrUnauthorized)
}

func TestSession_CurrentUserBackendDown(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"message": "maintenance"})
	}))

	_, err := c.Session("good").CurrentUser(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrUnauthorized)
}

func TestSession_FindTagByNameEscapesFilter(t *testing.T) {
	var gotFilter string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/collections/tags/records", r.URL.Path)
		gotFilter = r.URL.Query().Get("filter")
		writeJSON(w, http.StatusOK, map[string]any{"page": 1, "perPage": 1, "items": []any{}})
	}))

	_, err := c.Session("tok").FindTagByName(context.Background(), "u1", `c" || user != "x`)

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, `user = "u1" && name = "c\" || user != \"x"`, gotFilter)
}

func TestSession_ListTagsPages(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "name", r.URL.Query().Get("sort"))
		page := r.URL.Query().Get("page")
		n, _ := strconv.Atoi(page)
		writeJSON(w, http.StatusOK, map[string]any{
			"page":       n,
			"totalPages": 2,
			"items":      []map[string]string{{"id": "t" + page, "name": "tag" + page, "user": "u1"}},
		})
	}))

	tags, err := c.Session("tok").ListTags(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "t1", tags[0].ID)
	assert.Equal(t, "t2", tags[1].ID)
	assert.Equal(t, 2, calls)
}

func TestSession_ListLinks(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "12", q.Get("perPage"))
		assert.Equal(t, "-created", q.Get("sort"))
		assert.Equal(t, "tags", q.Get("expand"))
		assert.Equal(t,
			`user = "u1" && (title ~ "a\"b" || description ~ "a\"b" || url ~ "a\"b") && tags ~ "t1"`,
			q.Get("filter"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"page":2,"perPage":12,"totalItems":13,"totalPages":2,"items":[
			{"id":"l1","url":"https://example.com","tags":["t1"],"user":"u1","created":"2024-05-01 10:00:00.000Z",
			 "expand":{"tags":[{"id":"t1","name":"news","color":"#3b82f6","user":"u1"}]}}]}`)
	}))

	page, err := c.Session("tok").ListLinks(context.Background(), store.LinkQuery{
		UserID: "u1", Page: 2, PerPage: 12, Search: `a"b`, TagID: "t1",
	})
	require.NoError(t, err)
	assert.Equal(t, 13, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, []string{"t1"}, page.Items[0].Tags)
	require.Len(t, page.Items[0].Expand.Tags, 1)
	assert.Equal(t, "news", page.Items[0].Expand.Tags[0].Name)
}

func TestSession_CreateAndUpdateLink(t *testing.T) {
	var created, patched map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tags", r.URL.Query().Get("expand"))
		switch r.Method {
		case http.MethodPost:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		case http.MethodPatch:
			assert.Equal(t, "/api/collections/links/records/l1", r.URL.Path)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"l1","url":"https://example.com","user":"u1","tags":null}`)
	}))
	sess := c.Session("tok")

	link, err := sess.CreateLink(context.Background(), &domain.Link{URL: "https://example.com", User: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{}, link.Tags)
	assert.Equal(t, []any{}, created["tags"])
	assert.Equal(t, "u1", created["user"])
	assert.Equal(t, false, created["is_favorite"])

	title, fav := "New", true
	_, err = sess.UpdateLink(context.Background(), "l1", domain.LinkUpdate{Title: &title, IsFavorite: &fav})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "New", "is_favorite": true}, patched)
}

func TestSession_ErrorsCarryStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusForbidden, map[string]any{"code": 403, "message": "Only superusers can perform this action."})
		}
	}))
	sess := c.Session("tok")

	require.NoError(t, sess.DeleteLink(context.Background(), "l1"))

	_, err := sess.GetLink(context.Background(), "l1")
	require.ErrorIs(t, err, store.ErrForbidden)
	var se *store.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Only superusers can perform this action.", se.Message)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 50*time.Millisecond, nil)
	start := time.Now()
	err := c.Ping(context.Background())

	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPBTime(t *testing.T) {
	var v struct {
		A pbTime `json:"a"`
		B pbTime `json:"b"`
		C pbTime `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2024-05-01 10:00:00.500Z","b":"2024-05-01T10:00:00Z","c":""}`), &v))

	assert.Equal(t, 500_000_000, v.A.Time().Nanosecond())
	assert.Equal(t, 10, v.B.Time().Hour())
	assert.True(t, v.C.Time().IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"a":"yesterday"}`), &v))
}
