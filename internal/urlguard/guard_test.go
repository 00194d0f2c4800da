package urlguard

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Allowed(t *testing.T) {
	tests := []string{
		"https://example.com/a",
		"http://example.com",
		"  https://news.ycombinator.com/item?id=1  ",
		"HTTPS://Example.COM/path",
		"https://172.15.0.1/",
		"https://172.32.0.1/",
		"https://11.0.0.1/",
		"https://localhost.example.com/",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			u, err := Validate(raw)
			require.NoError(t, err)
			assert.NotEmpty(t, u.Host)
		})
	}
}

func TestValidate_Blocked(t *testing.T) {
	tests := []string{
		"http://localhost:9000/secret",
		"http://LOCALHOST/",
		"http://localhost./",
		"http://127.0.0.1/",
		"http://0.0.0.0:8080/",
		"http://10.0.0.1/",
		"http://10.example.com/",
		"http://172.16.0.1/",
		"http://172.20.5.5/",
		"http://172.31.255.255/",
		"http://192.168.1.5/",
		"http://internal.local/",
		"http://Printer.LOCAL/",
		"http://[::1]:8080/",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := Validate(raw)
			assert.ErrorIs(t, err, ErrBlockedHost)
		})
	}
}

func TestValidate_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "example.com", "/relative/path", "http://", "::::"} {
		t.Run(raw, func(t *testing.T) {
			_, err := Validate(raw)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestValidate_UnsupportedScheme(t *testing.T) {
	for _, raw := range []string{
		"ftp://example.com/file",
		"file://host/etc/passwd",
		"chrome-extension://abcdef/popup.html",
		"gopher://example.com/",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := Validate(raw)
			assert.ErrorIs(t, err, ErrUnsupportedScheme)
		})
	}
}

func TestParseAbsolute_IgnoresBlockList(t *testing.T) {
	u, err := ParseAbsolute("http://localhost:9000/secret")
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)

	_, err = ParseAbsolute("javascript:alert(1)")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestIsBlockedHost_AllSixteen172Blocks(t *testing.T) {
	for i := 16; i <= 31; i++ {
		host := "172." + strconv.Itoa(i) + ".1.1"
		assert.True(t, IsBlockedHost(host), host)
	}
}
