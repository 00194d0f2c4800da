package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linknlink/linknlink-server/internal/domain"
	"github.com/linknlink/linknlink-server/internal/store"
)

// Source names where an identity came from.
type Source string

const (
	SourceNone   Source = ""
	SourceHeader Source = "header"
	SourceCookie Source = "cookie"
)

// Resolution is the outcome of resolving a request's identity. Failure is
// a value: an unauthenticated Resolution has no Identity and no Session.
type Resolution struct {
	Identity *domain.AuthIdentity
	// Session acts as Identity against the backend for this request only.
	Session store.Session
	Source  Source
	// ClearCookie is set when the pb_auth cookie was malformed or its token
	// was rejected, so the response should expire it.
	ClearCookie bool
}

// Authenticated reports whether an identity was resolved.
func (r Resolution) Authenticated() bool {
	return r.Identity != nil && r.Session != nil
}

// UserID returns the caller's id, or "" when unauthenticated.
func (r Resolution) UserID() string {
	if !r.Authenticated() {
		return ""
	}
	return r.Identity.Model.ID
}

// Resolver recovers the caller's identity from the X-Auth-Data header or
// the pb_auth cookie and verifies it with the backend.
type Resolver struct {
	store  store.Store
	logger *slog.Logger
}

// NewResolver creates a Resolver verifying tokens against st.
func NewResolver(st store.Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: st, logger: logger}
}

// ResolveRequest resolves the identity carried by r.
func (res *Resolver) ResolveRequest(r *http.Request) Resolution {
	var cookie string
	if c, err := r.Cookie(CookieName); err == nil {
		cookie = c.Value
	}
	return res.Resolve(r.Context(), r.Header.Get(HeaderName), cookie)
}

// Resolve tries the header first and falls back to the cookie when the
// header is absent, malformed or rejected by the backend.
func (res *Resolver) Resolve(ctx context.Context, header, cookie string) Resolution {
	if header != "" {
		if ident, err := DecodeIdentity(header); err == nil {
			if out, ok := res.verify(ctx, ident, SourceHeader); ok {
				return out
			}
		} else {
			res.logger.Debug("auth header ignored", "error", err)
		}
	}

	if cookie == "" {
		return Resolution{}
	}

	ident, err := DecodeIdentity(cookie)
	if err != nil {
		res.logger.Debug("auth cookie malformed", "error", err)
		return Resolution{ClearCookie: true}
	}

	if out, ok := res.verify(ctx, ident, SourceCookie); ok {
		return out
	}
	return Resolution{ClearCookie: true}
}

func (res *Resolver) verify(ctx context.Context, ident *domain.AuthIdentity, src Source) (Resolution, bool) {
	sess := res.store.Session(ident.Token)

	user, err := sess.CurrentUser(ctx, ident.Model.ID)
	if err != nil {
		if isRejection(err) {
			res.logger.Debug("auth token rejected", "source", string(src), "user_id", ident.Model.ID)
		} else {
			res.logger.Warn("auth verification failed", "source", string(src), "error", err)
		}
		return Resolution{}, false
	}

	return Resolution{
		Identity: &domain.AuthIdentity{Token: ident.Token, Model: user},
		Session:  sess,
		Source:   src,
	}, true
}

func isRejection(err error) bool {
	return errors.Is(err, store.ErrUnauthorized) ||
		errors.Is(err, store.ErrForbidden) ||
		errors.Is(err, store.ErrNotFound)
}
