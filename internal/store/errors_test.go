package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linknlink/linknlink-server/internal/store"
)

func TestError_Error(t *testing.T) {
	err := &store.Error{
		Code:    http.StatusNotFound,
		Message: "not found",
	}

	assert.Equal(t, "not found", err.Error())
}

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := &store.Error{
		Code:    http.StatusNotFound,
		Message: "not found",
		Err:     cause,
	}

	assert.Contains(t, err.Error(), "not found")
	assert.Contains(t, err.Error(), "underlying error")
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_IsMatchesByCode(t *testing.T) {
	custom := store.ErrNotFound.WithMessage("link missing").WithCause(errors.New("no rows"))
	wrapped := fmt.Errorf("get link: %w", custom)

	assert.ErrorIs(t, wrapped, store.ErrNotFound)
	assert.NotErrorIs(t, wrapped, store.ErrForbidden)
	assert.Equal(t, http.StatusNotFound, custom.HTTPCode())
}

func TestError_WithMessageKeepsOriginal(t *testing.T) {
	modified := store.ErrAlreadyExists.WithMessage("email taken")

	assert.Equal(t, "email taken", modified.Message)
	assert.Equal(t, http.StatusConflict, modified.Code)
	assert.Equal(t, "resource already exists", store.ErrAlreadyExists.Message)
}

func TestLinkQuery_Offset(t *testing.T) {
	assert.Equal(t, 0, store.LinkQuery{Page: 1, PerPage: 12}.Offset())
	assert.Equal(t, 24, store.LinkQuery{Page: 3, PerPage: 12}.Offset())
	assert.Equal(t, 0, store.LinkQuery{Page: 0, PerPage: 12}.Offset())
}

func TestTotalPagesFor(t *testing.T) {
	assert.Equal(t, 0, store.TotalPagesFor(0, 12))
	assert.Equal(t, 1, store.TotalPagesFor(12, 12))
	assert.Equal(t, 2, store.TotalPagesFor(13, 12))
	assert.Equal(t, 0, store.TotalPagesFor(5, 0))
}
