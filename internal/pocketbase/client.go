// Package pocketbase is a store.Store backed by a PocketBase instance's
// REST API. Collection rules on the PocketBase side decide what each token
// may see; this client only shapes requests and maps responses.
package pocketbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/linknlink/linknlink-server/internal/domain"
	"github.com/linknlink/linknlink-server/internal/store"
)

const (
	defaultTimeout = 10 * time.Second

	// Error bodies beyond this are truncated before decoding.
	maxErrorBody = 64 << 10

	collectionUsers = "users"
	collectionTags  = "tags"
	collectionLinks = "links"
)

// Client talks to one PocketBase instance. It holds no auth state; every
// authenticated call goes through a Session.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var _ store.Store = (*Client)(nil)

// New creates a client for the instance at baseURL. timeout bounds every
// request, including reading the response.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Ping checks the instance's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "", http.MethodGet, "/api/health", nil, nil, nil)
}

// Session returns a session that sends token with every request.
func (c *Client) Session(token string) store.Session {
	return &session{client: c, token: token}
}

// AuthWithPassword authenticates against the users collection.
func (c *Client) AuthWithPassword(ctx context.Context, email, password string) (*domain.AuthIdentity, error) {
	body := map[string]string{"identity": email, "password": password}

	var resp struct {
		Token  string     `json:"token"`
		Record userRecord `json:"record"`
	}
	if err := c.do(ctx, "", http.MethodPost, collectionPath(collectionUsers)+"/auth-with-password", nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, store.ErrUnauthorized.WithMessage("Failed to authenticate.")
	}
	return &domain.AuthIdentity{Token: resp.Token, Model: resp.Record.toDomain()}, nil
}

// CreateUser registers an account in the users collection.
func (c *Client) CreateUser(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	body := map[string]any{
		"email":           strings.TrimSpace(nu.Email),
		"password":        nu.Password,
		"passwordConfirm": nu.Password,
		"name":            domain.TrimTruncate(nu.Name, domain.MaxUserNameLength),
	}

	var rec userRecord
	if err := c.do(ctx, "", http.MethodPost, recordsPath(collectionUsers), nil, body, &rec); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func collectionPath(collection string) string {
	return "/api/collections/" + collection
}

func recordsPath(collection string) string {
	return collectionPath(collection) + "/records"
}

func recordPath(collection, recordID string) string {
	return recordsPath(collection) + "/" + url.PathEscape(recordID)
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
// Non-2xx responses become *store.Error carrying the status and PocketBase's
// message.
func (c *Client) do(ctx context.Context, token, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pocketbase %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("pocketbase request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
