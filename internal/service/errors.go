package service

import (
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/linknlink/linknlink-server/internal/errors"
	"github.com/linknlink/linknlink-server/internal/store"
)

// Caller is the authenticated user a request acts as, together with the
// backend session bound to their token.
type Caller struct {
	UserID  string
	Session store.Session
}

// fromStore converts a backend failure into a domain error. The backend
// message is passed through when it has one; fallback is used otherwise.
func fromStore(err error, fallback string) error {
	if err == nil {
		return nil
	}

	var de *domainerrors.Error
	if errors.As(err, &de) {
		return de
	}

	var se *store.Error
	if !errors.As(err, &se) {
		return domainerrors.Upstream(http.StatusInternalServerError, fallback, err)
	}

	msg := se.Message
	if msg == "" {
		msg = fallback
	}

	switch se.Code {
	case http.StatusNotFound:
		return domainerrors.NotFound(msg).WithCause(err)
	case http.StatusUnauthorized:
		return domainerrors.Unauthorized("Unauthorized").WithCause(err)
	case http.StatusForbidden:
		return domainerrors.Forbidden("Forbidden").WithCause(err)
	case http.StatusConflict:
		return domainerrors.AlreadyExists(msg).WithCause(err)
	case http.StatusBadRequest:
		return domainerrors.Validation(msg).WithCause(err)
	default:
		return domainerrors.Upstream(se.HTTPCode(), msg, err)
	}
}

// storeFailure converts err with fromStore and logs it when the result is
// a server-side failure.
func storeFailure(logger *slog.Logger, err error, fallback string) error {
	converted := fromStore(err, fallback)

	var de *domainerrors.Error
	if errors.As(converted, &de) && de.HTTPStatus() >= http.StatusInternalServerError {
		logger.Error(fallback, "error", err)
	}
	return converted
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
