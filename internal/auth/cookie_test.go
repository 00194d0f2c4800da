package auth

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linknlink/linknlink-server/internal/domain"
)

func TestDecodeIdentity(t *testing.T) {
	raw := `{"token":"tok","model":{"id":"u1","email":"a@b.c","name":"Ada"}}`

	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"raw json", raw, true},
		{"query escaped", url.QueryEscape(raw), true},
		{"empty", "", false},
		{"not json", "garbage", false},
		{"json array", `["tok"]`, false},
		{"missing token", `{"model":{"id":"u1"}}`, false},
		{"missing model", `{"token":"tok"}`, false},
		{"model without id", `{"token":"tok","model":{"email":"a@b.c"}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ident, err := DecodeIdentity(tt.value)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrMalformedIdentity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "tok", ident.Token)
			assert.Equal(t, "u1", ident.Model.ID)
			assert.Equal(t, "Ada", ident.Model.Name)
		})
	}
}

func TestDecodeIdentity_RawJSONKeepsEscapes(t *testing.T) {
	raw := `{"token":"a+b%2Fc","model":{"id":"u1","name":"Ada+Lovelace"}}`

	ident, err := DecodeIdentity(raw)
	require.NoError(t, err)
	assert.Equal(t, "a+b%2Fc", ident.Token)
	assert.Equal(t, "Ada+Lovelace", ident.Model.Name)

	ident, err = DecodeIdentity(url.QueryEscape(raw))
	require.NoError(t, err)
	assert.Equal(t, "a+b%2Fc", ident.Token)
}

func TestEncodeIdentity_IsCookieSafe(t *testing.T) {
	ident := &domain.AuthIdentity{Token: "v4.local.abc", Model: &domain.User{ID: "u1", Name: "Ada Lovelace"}}

	value, err := EncodeIdentity(ident)
	require.NoError(t, err)
	assert.NotContains(t, value, `"`)
	assert.NotContains(t, value, " ")

	back, err := DecodeIdentity(value)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", back.Model.Name)
}

func TestCookies(t *testing.T) {
	c := Cookies{Secure: true, MaxAge: 7 * 24 * time.Hour}

	cookie, err := c.Session(&domain.AuthIdentity{Token: "t", Model: &domain.User{ID: "u1"}})
	require.NoError(t, err)
	assert.Equal(t, CookieName, cookie.Name)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 604800, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	expired := Cookies{}.Expired()
	assert.Equal(t, -1, expired.MaxAge)
	assert.Empty(t, expired.Value)
	assert.False(t, expired.Secure)
}
