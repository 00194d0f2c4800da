package api

import (
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// rateLimitAuth limits login and signup attempts per client IP.
// Returns 429 Too Many Requests when the limit is exceeded.
func (s *Server) rateLimitAuth(ctx huma.Context, next func(huma.Context)) {
	ip := clientIP(ctx.RemoteAddr())

	if !s.authRateLimiter.Allow(ip) {
		s.logger.Warn("rate limit exceeded",
			"ip", ip,
			"path", ctx.URL().Path,
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	next(ctx)
}

// clientIP strips the port from a remote address. chi's RealIP middleware
// has already replaced it with the forwarded client address when present.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
