// Package urlguard decides whether a user-supplied URL is safe for the
// server to fetch. Hostnames are matched as literal strings against a
// private-network block-list; there is no DNS resolution and no CIDR
// arithmetic, so a public name that merely looks like a private address is
// blocked too.
package urlguard

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// Validation failures.
var (
	ErrInvalidURL        = errors.New("invalid URL")
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	ErrBlockedHost       = errors.New("blocked host")
)

var blockedExact = []string{
	"localhost",
	"127.0.0.1",
	"0.0.0.0",
	"::1",
}

var blockedPrefixes = func() []string {
	p := []string{"10.", "192.168."}
	for i := 16; i <= 31; i++ {
		p = append(p, "172."+strconv.Itoa(i)+".")
	}
	return p
}()

// ParseAbsolute trims raw and parses it as an absolute http or https URL.
// It does not consult the host block-list.
func ParseAbsolute(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return nil, ErrInvalidURL
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, ErrUnsupportedScheme
	}

	if u.Hostname() == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

// Validate parses raw like ParseAbsolute and additionally rejects hosts on
// the block-list with ErrBlockedHost.
func Validate(raw string) (*url.URL, error) {
	u, err := ParseAbsolute(raw)
	if err != nil {
		return nil, err
	}
	if IsBlockedHost(u.Hostname()) {
		return nil, ErrBlockedHost
	}
	return u, nil
}

// IsBlockedHost reports whether host is a loopback, private-range or
// .local name. Matching is case-insensitive.
func IsBlockedHost(host string) bool {
	h := normalizeHost(host)
	if h == "" {
		return true
	}

	for _, b := range blockedExact {
		if h == b {
			return true
		}
	}
	for _, p := range blockedPrefixes {
		if strings.HasPrefix(h, p) {
			return true
		}
	}
	return strings.HasSuffix(h, ".local")
}

// normalizeHost lower-cases host, drops a trailing root dot and converts
// internationalised names to their ASCII form. Hosts idna rejects are kept
// lower-cased as-is so the literal checks still apply.
func normalizeHost(host string) string {
	h := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if ascii, err := idna.Lookup.ToASCII(h); err == nil && ascii != "" {
		h = ascii
	}
	return h
}
