package store

import "github.com/linknlink/linknlink-server/internal/domain"

// LinkQuery selects a page of one user's links, newest first.
type LinkQuery struct {
	UserID  string
	Page    int // 1-based
	PerPage int

	// Search is a raw substring matched against title, description and url.
	// Backends escape it for their own query syntax.
	Search string
	TagID  string
}

// Offset returns the number of rows before the requested page.
func (q LinkQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}

// LinkPage is one page of links.
type LinkPage struct {
	Items      []*domain.Link `json:"items"`
	Page       int            `json:"page"`
	PerPage    int            `json:"perPage"`
	TotalItems int            `json:"totalItems"`
	TotalPages int            `json:"totalPages"`
}

// TotalPagesFor returns the page count for total items split perPage ways.
func TotalPagesFor(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
