package api

import (
	"context"

	"github.com/linknlink/linknlink-server/internal/auth"
	domainerrors "github.com/linknlink/linknlink-server/internal/errors"
	"github.com/linknlink/linknlink-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// resolutionKey is the context key for the request's auth resolution.
const resolutionKey ctxKey = "auth"

// setResolution stores res in ctx.
func setResolution(ctx context.Context, res auth.Resolution) context.Context {
	return context.WithValue(ctx, resolutionKey, res)
}

// GetResolution returns the auth resolution of the request. Requests that
// bypassed the auth middleware are unauthenticated.
func GetResolution(ctx context.Context) auth.Resolution {
	res, _ := ctx.Value(resolutionKey).(auth.Resolution)
	return res
}

// requireCaller returns the authenticated caller or a 401 error.
func requireCaller(ctx context.Context) (service.Caller, error) {
	res := GetResolution(ctx)
	if !res.Authenticated() {
		return service.Caller{}, domainerrors.Unauthorized("Unauthorized")
	}
	return service.Caller{UserID: res.UserID(), Session: res.Session}, nil
}
