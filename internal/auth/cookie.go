package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/linknlink/linknlink-server/internal/domain"
)

const (
	// CookieName carries the browser session.
	CookieName = "pb_auth"
	// HeaderName carries the extension's identity on every call.
	HeaderName = "X-Auth-Data"

	DefaultCookieMaxAge = 7 * 24 * time.Hour
)

// ErrMalformedIdentity is returned when a cookie or header value is not a
// {token, model} JSON object with a token and a model id.
var ErrMalformedIdentity = errors.New("malformed auth identity")

// DecodeIdentity parses a cookie or header value. Cookie values are
// query-escaped JSON; raw JSON is used as is.
func DecodeIdentity(raw string) (*domain.AuthIdentity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMalformedIdentity
	}
	if !strings.HasPrefix(raw, "{") {
		if unescaped, err := url.QueryUnescape(raw); err == nil {
			raw = unescaped
		}
	}

	var ident domain.AuthIdentity
	if err := json.Unmarshal([]byte(raw), &ident); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedIdentity, err)
	}
	if !ident.Valid() {
		return nil, ErrMalformedIdentity
	}
	return &ident, nil
}

// EncodeIdentity renders ident as a cookie-safe value.
func EncodeIdentity(ident *domain.AuthIdentity) (string, error) {
	data, err := json.Marshal(ident)
	if err != nil {
		return "", fmt.Errorf("encode identity: %w", err)
	}
	return url.QueryEscape(string(data)), nil
}

// Cookies builds the pb_auth cookie.
type Cookies struct {
	Secure bool
	MaxAge time.Duration
}

// Session returns a cookie holding ident.
func (c Cookies) Session(ident *domain.AuthIdentity) (*http.Cookie, error) {
	value, err := EncodeIdentity(ident)
	if err != nil {
		return nil, err
	}
	maxAge := c.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultCookieMaxAge
	}
	return c.cookie(value, int(maxAge/time.Second)), nil
}

// Expired returns a cookie that makes the browser drop pb_auth.
func (c Cookies) Expired() *http.Cookie {
	return c.cookie("", -1)
}

func (c Cookies) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
