package api

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/cors"

	"github.com/linknlink/linknlink-server/internal/auth"
)

// authMiddleware resolves the caller's identity and stores it in the
// request context. Unauthenticated requests continue; handlers that need a
// user call requireCaller. A cookie that failed verification is expired on
// the response.
func authMiddleware(resolver *auth.Resolver, cookies auth.Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			res := resolver.ResolveRequest(r)
			if res.ClearCookie {
				http.SetCookie(w, cookies.Expired())
			}

			next.ServeHTTP(w, r.WithContext(setResolution(r.Context(), res)))
		})
	}
}

// corsMiddleware allows browser extensions, same-origin pages and the
// configured origin to call the API with credentials. With ALLOWED_ORIGIN
// set to "*", any other origin gets a literal "*" and no credentials.
func corsMiddleware(allowedOrigin string) func(http.Handler) http.Handler {
	methods := []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	headers := []string{"Content-Type", "Authorization", auth.HeaderName}

	trusted := cors.New(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return originAllowed(r, origin, allowedOrigin)
		},
		AllowedMethods:   methods,
		AllowedHeaders:   headers,
		AllowCredentials: true,
		MaxAge:           300,
	})
	public := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: methods,
		AllowedHeaders: headers,
		MaxAge:         300,
	})

	return func(next http.Handler) http.Handler {
		withCredentials := trusted.Handler(next)
		anyOrigin := public.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowedOrigin == "*" && origin != "" && !originAllowed(r, origin, allowedOrigin) {
				anyOrigin.ServeHTTP(w, r)
				return
			}
			withCredentials.ServeHTTP(w, r)
		})
	}
}

// originAllowed reports whether origin may call the API with credentials:
// extensions, same-host pages and the configured origin. A "*" setting
// never grants credentials.
func originAllowed(r *http.Request, origin, allowedOrigin string) bool {
	if strings.HasPrefix(origin, "chrome-extension://") {
		return true
	}
	if allowedOrigin != "*" && origin == allowedOrigin {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.EqualFold(u.Hostname(), host)
}
