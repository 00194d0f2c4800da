package domain

import "time"

// Link is a saved bookmark. User is set at creation to the authenticated
// caller and never changes.
type Link struct {
	ID          string      `json:"id"`
	URL         string      `json:"url"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	OGImage     string      `json:"og_image"`
	OGSiteName  string      `json:"og_site_name"`
	OGType      string      `json:"og_type"`
	Favicon     string      `json:"favicon"`
	Notes       string      `json:"notes"`
	Tags        []string    `json:"tags"`
	User        string      `json:"user"`
	IsFavorite  bool        `json:"is_favorite"`
	Archived    bool        `json:"archived"`
	Created     time.Time   `json:"created"`
	Updated     time.Time   `json:"updated"`
	Expand      *LinkExpand `json:"expand,omitempty"`
}

// LinkExpand carries the tag records referenced by Link.Tags.
type LinkExpand struct {
	Tags []*Tag `json:"tags"`
}

// Clamp truncates every free-text field to its limit and normalises a nil
// tag list to an empty one.
func (l *Link) Clamp() {
	l.Title = Truncate(l.Title, MaxTitleLength)
	l.Description = Truncate(l.Description, MaxDescriptionLength)
	l.Notes = Truncate(l.Notes, MaxNotesLength)
	l.OGImage = Truncate(l.OGImage, MaxImageURLLength)
	l.OGSiteName = Truncate(l.OGSiteName, MaxSiteNameLength)
	l.OGType = Truncate(l.OGType, MaxTypeLength)
	l.Favicon = Truncate(l.Favicon, MaxFaviconLength)
	if l.Tags == nil {
		l.Tags = []string{}
	}
}

// LinkUpdate holds the optional fields of a link edit. Nil means unchanged.
type LinkUpdate struct {
	Tags        *[]string
	Title       *string
	Description *string
	Notes       *string
	IsFavorite  *bool
	Archived    *bool
}
