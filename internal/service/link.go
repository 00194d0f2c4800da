package service

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/linknlink/linknlink-server/internal/domain"
	domainerrors "github.com/linknlink/linknlink-server/internal/errors"
	"github.com/linknlink/linknlink-server/internal/opengraph"
	"github.com/linknlink/linknlink-server/internal/store"
	"github.com/linknlink/linknlink-server/internal/urlguard"
)

// Link listing bounds.
const (
	DefaultPage     = 1
	DefaultPerPage  = 12
	MaxPerPage      = 50
	MaxSearchLength = 200
	MaxTagIDLength  = 50
)

const (
	msgLinkNotFound  = "Link not found"
	msgTagNotFound   = "Tag not found"
	msgForbidden     = "Forbidden"
	msgInvalidTagRef = "Invalid tag"
)

var tagIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MetadataResolver looks up page metadata for a URL. It never fails; an
// unknown page yields empty metadata.
type MetadataResolver interface {
	Resolve(ctx context.Context, rawURL string) opengraph.Metadata
}

// LinkService orchestrates link operations.
type LinkService struct {
	tags     *TagResolver
	metadata MetadataResolver
	notes    *bluemonday.Policy
	logger   *slog.Logger
}

// NewLinkService creates a new link service.
func NewLinkService(tags *TagResolver, metadata MetadataResolver, logger *slog.Logger) *LinkService {
	return &LinkService{
		tags:     tags,
		metadata: metadata,
		notes:    bluemonday.UGCPolicy(),
		logger:   logger,
	}
}

// CreateLinkInput is the body of a link capture.
type CreateLinkInput struct {
	URL         string
	Title       string
	Description string
	Notes       string
	Tags        []string // tag names, created on demand
}

// CreateLink saves a new link for the caller. Page metadata is fetched
// unless the caller supplied a title or description.
func (s *LinkService) CreateLink(ctx context.Context, c Caller, in CreateLinkInput) (*domain.Link, error) {
	// 1. Validate the URL. Private hosts are accepted here; only the
	// metadata fetch refuses them.
	rawURL := strings.TrimSpace(in.URL)
	if rawURL == "" {
		return nil, domainerrors.Validation("URL is required")
	}
	if _, err := urlguard.ParseAbsolute(rawURL); err != nil {
		return nil, domainerrors.Validation("Invalid URL").WithCause(err)
	}

	link := &domain.Link{
		URL:         rawURL,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Notes:       s.sanitizeNotes(in.Notes),
		User:        c.UserID,
	}

	// 2. Enrich with OpenGraph metadata.
	if link.Title == "" && link.Description == "" {
		md := s.metadata.Resolve(ctx, rawURL)
		link.Title = md.Title
		link.Description = md.Description
		link.OGImage = md.Image
		link.OGSiteName = md.SiteName
		link.OGType = md.Type
		link.Favicon = md.Favicon
	}

	// 3. Resolve tag names to ids.
	link.Tags = s.tags.Resolve(ctx, c.Session, c.UserID, in.Tags)

	// 4. Clamp and persist.
	link.Clamp()
	link.IsFavorite = false
	link.Archived = false

	created, err := c.Session.CreateLink(ctx, link)
	if err != nil {
		return nil, storeFailure(s.logger, err, "Failed to create link")
	}

	s.logger.Info("link created",
		"link_id", created.ID,
		"user_id", c.UserID,
		"tags", len(created.Tags),
	)

	return created, nil
}

// ListLinksInput holds the raw query parameters of a link listing.
type ListLinksInput struct {
	Page    string
	PerPage string
	Search  string
	TagID   string
}

// ListLinks returns a page of the caller's links, newest first.
func (s *LinkService) ListLinks(ctx context.Context, c Caller, in ListLinksInput) (*store.LinkPage, error) {
	tagID := strings.TrimSpace(in.TagID)
	if tagID != "" && (len(tagID) > MaxTagIDLength || !tagIDPattern.MatchString(tagID)) {
		return nil, domainerrors.Validation("Invalid tag ID format")
	}

	q := store.LinkQuery{
		UserID:  c.UserID,
		Page:    parsePage(in.Page),
		PerPage: parsePerPage(in.PerPage),
		Search:  capSearch(strings.TrimSpace(in.Search), MaxSearchLength),
		TagID:   tagID,
	}

	page, err := c.Session.ListLinks(ctx, q)
	if err != nil {
		return nil, storeFailure(s.logger, err, "Failed to fetch links")
	}
	return page, nil
}

// GetLink returns one of the caller's links.
func (s *LinkService) GetLink(ctx context.Context, c Caller, id string) (*domain.Link, error) {
	return s.ownedLink(ctx, c, id)
}

// UpdateLinkInput holds the optional fields of a link edit. Tags are tag
// ids and must all belong to the caller.
type UpdateLinkInput struct {
	Tags        *[]string
	Title       *string
	Description *string
	Notes       *string
	IsFavorite  *bool
	Archived    *bool
}

// UpdateLink edits one of the caller's links.
func (s *LinkService) UpdateLink(ctx context.Context, c Caller, id string, in UpdateLinkInput) (*domain.Link, error) {
	// 1. The link must exist and be the caller's.
	if _, err := s.ownedLink(ctx, c, id); err != nil {
		return nil, err
	}

	// 2. Build the update, trimming and clamping text.
	upd := domain.LinkUpdate{
		IsFavorite: in.IsFavorite,
		Archived:   in.Archived,
	}
	if in.Title != nil {
		v := domain.TrimTruncate(*in.Title, domain.MaxTitleLength)
		upd.Title = &v
	}
	if in.Description != nil {
		v := domain.TrimTruncate(*in.Description, domain.MaxDescriptionLength)
		upd.Description = &v
	}
	if in.Notes != nil {
		v := domain.Truncate(s.sanitizeNotes(*in.Notes), domain.MaxNotesLength)
		upd.Notes = &v
	}

	// 3. Tag ids must reference the caller's own tags.
	if in.Tags != nil {
		ids, err := s.ownedTagIDs(ctx, c, *in.Tags)
		if err != nil {
			return nil, err
		}
		upd.Tags = &ids
	}

	link, err := c.Session.UpdateLink(ctx, id, upd)
	if err != nil {
		return nil, storeFailure(s.logger, err, "Failed to update link")
	}

	s.logger.Debug("link updated", "link_id", id, "user_id", c.UserID)
	return link, nil
}

// DeleteLink removes one of the caller's links.
func (s *LinkService) DeleteLink(ctx context.Context, c Caller, id string) error {
	if _, err := s.ownedLink(ctx, c, id); err != nil {
		return err
	}

	if err := c.Session.DeleteLink(ctx, id); err != nil {
		return storeFailure(s.logger, err, "Failed to delete link")
	}

	s.logger.Info("link deleted", "link_id", id, "user_id", c.UserID)
	return nil
}

// ownedLink fetches a link and checks that the caller owns it.
func (s *LinkService) ownedLink(ctx context.Context, c Caller, id string) (*domain.Link, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domainerrors.NotFound(msgLinkNotFound)
	}

	link, err := c.Session.GetLink(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, domainerrors.NotFound(msgLinkNotFound)
		}
		return nil, storeFailure(s.logger, err, "Failed to fetch link")
	}

	if link.User != c.UserID {
		return nil, domainerrors.Forbidden(msgForbidden)
	}
	return link, nil
}

func (s *LinkService) ownedTagIDs(ctx context.Context, c Caller, ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))

	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		tag, err := c.Session.GetTag(ctx, id)
		if err != nil {
			if isNotFound(err) {
				return nil, domainerrors.Validation(msgInvalidTagRef)
			}
			return nil, storeFailure(s.logger, err, "Failed to fetch tag")
		}
		if tag.User != c.UserID {
			return nil, domainerrors.Validation(msgInvalidTagRef)
		}
		out = append(out, tag.ID)
	}

	return out, nil
}

// sanitizeNotes keeps safe formatting markup and drops everything else.
func (s *LinkService) sanitizeNotes(notes string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return ""
	}
	return s.notes.Sanitize(notes)
}

// parsePage returns a 1-based page number; anything invalid is page 1.
func parsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return DefaultPage
	}
	return n
}

// parsePerPage clamps the page size to [1, MaxPerPage]. Unparseable input
// selects the default.
func parsePerPage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultPerPage
	}
	return min(max(n, 1), MaxPerPage)
}

// capSearch cuts s so that, once backslashes and double quotes are escaped,
// it is at most limit characters long.
func capSearch(s string, limit int) string {
	n := 0
	for i, r := range s {
		w := 1
		if r == '\\' || r == '"' {
			w = 2
		}
		if n+w > limit {
			return s[:i]
		}
		n += w
	}
	return s
}
