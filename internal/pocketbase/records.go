package pocketbase

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/linknlink/linknlink-server/internal/domain"
)

// pbTimeLayout is how PocketBase renders datetimes.
const pbTimeLayout = "2006-01-02 15:04:05.000Z"

// pbTime accepts PocketBase's datetime format, RFC 3339 and "".
type pbTime time.Time

func (t *pbTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*t = pbTime{}
		return nil
	}
	for _, layout := range []string{pbTimeLayout, "2006-01-02 15:04:05Z07:00", time.RFC3339Nano} {
		if v, err := time.Parse(layout, s); err == nil {
			*t = pbTime(v.UTC())
			return nil
		}
	}
	return fmt.Errorf("invalid pocketbase time %q", s)
}

func (t pbTime) Time() time.Time { return time.Time(t) }

type userRecord struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
	Created  pbTime `json:"created"`
	Updated  pbTime `json:"updated"`
}

func (r userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:       r.ID,
		Email:    r.Email,
		Name:     r.Name,
		Verified: r.Verified,
		Created:  r.Created.Time(),
		Updated:  r.Updated.Time(),
	}
}

type tagRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	User    string `json:"user"`
	Created pbTime `json:"created"`
	Updated pbTime `json:"updated"`
}

func (r tagRecord) toDomain() *domain.Tag {
	return &domain.Tag{
		ID:      r.ID,
		Name:    r.Name,
		Color:   r.Color,
		User:    r.User,
		Created: r.Created.Time(),
		Updated: r.Updated.Time(),
	}
}

type linkRecord struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	OGImage     string   `json:"og_image"`
	OGSiteName  string   `json:"og_site_name"`
	OGType      string   `json:"og_type"`
	Favicon     string   `json:"favicon"`
	Notes       string   `json:"notes"`
	Tags        []string `json:"tags"`
	User        string   `json:"user"`
	IsFavorite  bool     `json:"is_favorite"`
	Archived    bool     `json:"archived"`
	Created     pbTime   `json:"created"`
	Updated     pbTime   `json:"updated"`
	Expand      struct {
		Tags []tagRecord `json:"tags"`
	} `json:"expand"`
}

func (r linkRecord) toDomain() *domain.Link {
	l := &domain.Link{
		ID:          r.ID,
		URL:         r.URL,
		Title:       r.Title,
		Description: r.Description,
		OGImage:     r.OGImage,
		OGSiteName:  r.OGSiteName,
		OGType:      r.OGType,
		Favicon:     r.Favicon,
		Notes:       r.Notes,
		Tags:        r.Tags,
		User:        r.User,
		IsFavorite:  r.IsFavorite,
		Archived:    r.Archived,
		Created:     r.Created.Time(),
		Updated:     r.Updated.Time(),
		Expand:      &domain.LinkExpand{Tags: make([]*domain.Tag, 0, len(r.Expand.Tags))},
	}
	if l.Tags == nil {
		l.Tags = []string{}
	}
	for _, t := range r.Expand.Tags {
		l.Expand.Tags = append(l.Expand.Tags, t.toDomain())
	}
	return l
}

// linkBody is the create payload for the links collection.
type linkBody struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	OGImage     string   `json:"og_image"`
	OGSiteName  string   `json:"og_site_name"`
	OGType      string   `json:"og_type"`
	Favicon     string   `json:"favicon"`
	Notes       string   `json:"notes"`
	Tags        []string `json:"tags"`
	User        string   `json:"user"`
	IsFavorite  bool     `json:"is_favorite"`
	Archived    bool     `json:"archived"`
}

func newLinkBody(l *domain.Link) linkBody {
	tags := l.Tags
	if tags == nil {
		tags = []string{}
	}
	return linkBody{
		URL:         l.URL,
		Title:       l.Title,
		Description: l.Description,
		OGImage:     l.OGImage,
		OGSiteName:  l.OGSiteName,
		OGType:      l.OGType,
		Favicon:     l.Favicon,
		Notes:       l.Notes,
		Tags:        tags,
		User:        l.User,
		IsFavorite:  l.IsFavorite,
		Archived:    l.Archived,
	}
}

// listResponse is the envelope of a records list.
type listResponse[T any] struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
	Items      []T `json:"items"`
}
