package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/linknlink/linknlink-server/internal/errors"
)

// APIError is a custom error type that implements huma.StatusError.
// Every error response has the shape {"error": message, "code": code}.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Message string `json:"error" doc:"Human-readable error message"`
	Code    string `json:"code" doc:"Machine-readable error code"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to render domain errors. Call this
// after creating the huma.API but before registering routes. Server-side
// failures are logged with their cause.
func RegisterErrorHandler(logger *slog.Logger) {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				if domainErr.HTTPStatus() >= http.StatusInternalServerError && logger != nil {
					logger.Error("request failed", "error", err)
				}
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}
		}

		// Request validation failures are client errors like any other.
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}

		var details []string
		for _, err := range errs {
			if err == nil {
				continue
			}
			var ed *huma.ErrorDetail
			if errors.As(err, &ed) {
				if len(details) == 0 && ed.Location != "" {
					message = ed.Location + ": " + ed.Message
				}
				details = append(details, ed.Error())
				continue
			}
			if status >= http.StatusInternalServerError && logger != nil {
				logger.Error("request failed", "error", err)
			}
		}

		e := &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
		if len(details) > 0 {
			e.Details = details
		}
		return e
	}
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusForbidden:
		return string(domainerrors.CodeForbidden)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeAlreadyExists)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeRateLimited)
	default:
		if status >= http.StatusInternalServerError {
			return string(domainerrors.CodeInternal)
		}
		return string(domainerrors.CodeValidation)
	}
}
