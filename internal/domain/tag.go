package domain

import "time"

// Tag is a user-owned label. (User, Name) is unique; names compare
// case-sensitively, so "News" and "news" are different tags.
type Tag struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Color   string    `json:"color"`
	User    string    `json:"user"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// TagUpdate holds the optional fields of a tag edit.
type TagUpdate struct {
	Name  *string
	Color *string
}
