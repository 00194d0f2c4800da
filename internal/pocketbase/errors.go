package pocketbase

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/linknlink/linknlink-server/internal/store"
)

// errorResponse is PocketBase's error body.
type errorResponse struct {
	Code    int                   `json:"code"`
	Message string                `json:"message"`
	Data    map[string]fieldError `json:"data"`
}

type fieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decodeError turns a non-2xx response into a *store.Error. A 400 whose
// field errors include validation_not_unique becomes a 409 so callers can
// treat it as store.ErrAlreadyExists.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body errorResponse
	_ = json.Unmarshal(raw, &body)

	msg := body.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	code := resp.StatusCode
	if code == http.StatusBadRequest {
		for _, fe := range body.Data {
			if fe.Code == "validation_not_unique" {
				code = http.StatusConflict
				break
			}
		}
	}

	return &store.Error{
		Code:    code,
		Message: msg,
		Err:     fmt.Errorf("pocketbase %s %s: status %d", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode),
	}
}
