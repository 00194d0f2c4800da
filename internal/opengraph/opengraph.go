// Package opengraph fetches web pages and extracts their OpenGraph metadata.
//
// Resolution is best effort: every failure, from a blocked host to a slow
// server, yields empty Metadata so callers can carry on without it.
package opengraph

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/linknlink/linknlink-server/internal/ratelimit"
	"github.com/linknlink/linknlink-server/internal/urlguard"
)

const (
	defaultTimeout      = 5 * time.Second
	defaultMaxBodyBytes = 1 << 20
	maxRedirects        = 5

	// Outbound fetches per remote host.
	hostRPS   = 2.0
	hostBurst = 5
)

// Fetch failures. They are logged, never returned from Resolve.
var (
	ErrStatus      = errors.New("opengraph: unexpected status")
	ErrNotHTML     = errors.New("opengraph: response is not html")
	ErrTooManyHops = errors.New("opengraph: too many redirects")
)

// Metadata is the page metadata extracted from a document. Zero value
// means nothing was found.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
	Type        string `json:"type,omitempty"`
	Favicon     string `json:"favicon,omitempty"`
}

// IsEmpty reports whether no field was extracted.
func (m Metadata) IsEmpty() bool {
	return m == Metadata{}
}

// Cache stores resolved metadata by URL.
type Cache interface {
	Get(ctx context.Context, key string) (Metadata, bool)
	Set(ctx context.Context, key string, md Metadata)
}

// Options configures a Resolver. Zero values select defaults.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Cache        Cache
	Logger       *slog.Logger
}

// Resolver fetches pages and extracts metadata. Safe for concurrent use.
type Resolver struct {
	http      *http.Client
	timeout   time.Duration
	userAgent string
	maxBody   int64
	cache     Cache
	limiter   *ratelimit.KeyedRateLimiter
	logger    *slog.Logger

	// validate guards every URL the resolver touches, redirects included.
	validate func(string) (*url.URL, error)
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	r := &Resolver{
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
		cache:     opts.Cache,
		limiter:   ratelimit.New(hostRPS, hostBurst),
		logger:    opts.Logger,
		validate:  urlguard.Validate,
	}
	if r.timeout <= 0 {
		r.timeout = defaultTimeout
	}
	if r.maxBody <= 0 {
		r.maxBody = defaultMaxBodyBytes
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	r.http = &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return ErrTooManyHops
			}
			if _, err := r.validate(req.URL.String()); err != nil {
				return fmt.Errorf("redirect to %s: %w", req.URL.Host, err)
			}
			return nil
		},
	}

	return r
}

// Close releases the resolver's background resources.
func (r *Resolver) Close() {
	r.limiter.Stop()
}

// Resolve returns the metadata for rawURL. It never fails: blocked URLs,
// network errors, non-2xx responses, non-HTML bodies and timeouts all
// produce empty Metadata. The fetch is bounded by the configured timeout
// and cancelled when it expires.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) Metadata {
	u, err := r.validate(rawURL)
	if err != nil {
		r.logger.Debug("opengraph fetch refused", "url", rawURL, "error", err)
		return Metadata{}
	}
	key := u.String()

	if r.cache != nil {
		if md, ok := r.cache.Get(ctx, key); ok {
			return md
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	md, err := r.fetch(ctx, u)
	if err != nil {
		r.logger.Debug("opengraph fetch failed",
			"url", key,
			"duration", time.Since(start),
			"error", err,
		)
		return Metadata{}
	}

	r.logger.Debug("opengraph fetched",
		"url", key,
		"duration", time.Since(start),
		"title", md.Title != "",
	)

	if r.cache != nil && !md.IsEmpty() {
		r.cache.Set(ctx, key, md)
	}
	return md
}

func (r *Resolver) fetch(ctx context.Context, u *url.URL) (Metadata, error) {
	if err := r.limiter.Wait(ctx, strings.ToLower(u.Hostname())); err != nil {
		return Metadata{}, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := r.http.Do(req)
	if err != nil {
		return Metadata{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Metadata{}, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return Metadata{}, fmt.Errorf("%w: %q", ErrNotHTML, contentType)
	}

	body, err := decodeBody(io.LimitReader(resp.Body, r.maxBody), contentType)
	if err != nil {
		return Metadata{}, err
	}

	// Relative references resolve against the final URL after redirects.
	md := Extract(body, resp.Request.URL)
	if err := ctx.Err(); err != nil {
		return Metadata{}, err
	}
	return md, nil
}

// isHTML accepts an empty content type; servers that omit it usually
// serve HTML.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

// decodeBody converts the body to UTF-8 using the Content-Type charset,
// a BOM, or a <meta charset> in the first kilobyte.
func decodeBody(r io.Reader, contentType string) (io.Reader, error) {
	br := bufio.NewReaderSize(r, 1024)
	peek, err := br.Peek(1024)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read body: %w", err)
	}

	enc, name, _ := charset.DetermineEncoding(peek, contentType)
	if name == "utf-8" {
		return br, nil
	}
	return transform.NewReader(br, enc.NewDecoder()), nil
}
