package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/linknlink/linknlink-server/internal/color"
	"github.com/linknlink/linknlink-server/internal/domain"
	domainerrors "github.com/linknlink/linknlink-server/internal/errors"
	"github.com/linknlink/linknlink-server/internal/store"
	"github.com/linknlink/linknlink-server/internal/validation"
)

// TagService orchestrates tag management. Tags belong to one user; every
// operation is scoped to the caller.
type TagService struct {
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(validator *validation.Validator, logger *slog.Logger) *TagService {
	return &TagService{
		validator: validator,
		logger:    logger,
	}
}

// tagFields is what a stored tag must satisfy after any create or update.
type tagFields struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"taghex"`
}

// ListTags returns the caller's tags sorted by name. A non-empty query
// keeps only the tags whose name fuzzy-matches it, best match first.
func (s *TagService) ListTags(ctx context.Context, c Caller, query string) ([]*domain.Tag, error) {
	tags, err := c.Session.ListTags(ctx, c.UserID)
	if err != nil {
		return nil, storeFailure(s.logger, err, "Failed to fetch tags")
	}
	slices.SortStableFunc(tags, func(a, b *domain.Tag) int {
		return strings.Compare(a.Name, b.Name)
	})

	query = strings.TrimSpace(query)
	if query == "" {
		return tags, nil
	}

	matches := fuzzy.FindFrom(query, tagNames(tags))
	ranked := make([]*domain.Tag, 0, len(matches))
	for _, m := range matches {
		ranked = append(ranked, tags[m.Index])
	}
	return ranked, nil
}

// CreateTagInput is the body of a tag creation. An empty color selects
// color.DefaultTag.
type CreateTagInput struct {
	Name  string
	Color string
}

// CreateTag creates a tag for the caller.
func (s *TagService) CreateTag(ctx context.Context, c Caller, in CreateTagInput) (*domain.Tag, error) {
	fields := tagFields{
		Name:  strings.TrimSpace(in.Name),
		Color: strings.TrimSpace(in.Color),
	}
	if fields.Color == "" {
		fields.Color = color.DefaultTag
	}
	if err := s.check(fields); err != nil {
		return nil, err
	}

	// Names are unique per user.
	if _, err := c.Session.FindTagByName(ctx, c.UserID, fields.Name); err == nil {
		return nil, domainerrors.AlreadyExists("Tag already exists")
	} else if !isNotFound(err) {
		return nil, storeFailure(s.logger, err, "Failed to create tag")
	}

	tag, err := c.Session.CreateTag(ctx, &domain.Tag{
		Name:  fields.Name,
		Color: fields.Color,
		User:  c.UserID,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("Tag already exists")
		}
		return nil, storeFailure(s.logger, err, "Failed to create tag")
	}

	s.logger.Info("tag created",
		"tag_id", tag.ID,
		"tag_name", tag.Name,
		"user_id", c.UserID,
	)
	return tag, nil
}

// UpdateTagInput holds the optional fields of a tag edit.
type UpdateTagInput struct {
	Name  *string
	Color *string
}

// UpdateTag edits one of the caller's tags.
func (s *TagService) UpdateTag(ctx context.Context, c Caller, id string, in UpdateTagInput) (*domain.Tag, error) {
	existing, err := s.ownedTag(ctx, c, id)
	if err != nil {
		return nil, err
	}

	var upd domain.TagUpdate
	fields := tagFields{Name: existing.Name, Color: existing.Color}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		fields.Name = name
		upd.Name = &name
	}
	if in.Color != nil {
		col := strings.TrimSpace(*in.Color)
		fields.Color = col
		upd.Color = &col
	}
	if err := s.check(fields); err != nil {
		return nil, err
	}

	tag, err := c.Session.UpdateTag(ctx, id, upd)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("Tag already exists")
		}
		return nil, storeFailure(s.logger, err, "Failed to update tag")
	}

	s.logger.Debug("tag updated", "tag_id", id, "user_id", c.UserID)
	return tag, nil
}

// DeleteTag removes one of the caller's tags. Links that carried it lose
// the reference.
func (s *TagService) DeleteTag(ctx context.Context, c Caller, id string) error {
	if _, err := s.ownedTag(ctx, c, id); err != nil {
		return err
	}

	if err := c.Session.DeleteTag(ctx, id); err != nil {
		return storeFailure(s.logger, err, "Failed to delete tag")
	}

	s.logger.Info("tag deleted", "tag_id", id, "user_id", c.UserID)
	return nil
}

func (s *TagService) ownedTag(ctx context.Context, c Caller, id string) (*domain.Tag, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domainerrors.NotFound(msgTagNotFound)
	}

	tag, err := c.Session.GetTag(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, domainerrors.NotFound(msgTagNotFound)
		}
		return nil, storeFailure(s.logger, err, "Failed to fetch tag")
	}

	if tag.User != c.UserID {
		return nil, domainerrors.Forbidden(msgForbidden)
	}
	return tag, nil
}

// check validates fields and rewords the first failure for display.
func (s *TagService) check(fields tagFields) error {
	err := s.validator.Validate(fields)
	if err == nil {
		return nil
	}

	var ve *domainerrors.Error
	if !errors.As(err, &ve) {
		return err
	}
	details, _ := ve.Details.(map[string]string)

	msg := "Invalid color format"
	switch {
	case fields.Name == "":
		msg = "Tag name is required"
	case details["name"] != "":
		msg = "Tag name must be 100 characters or less"
	}
	return domainerrors.ValidationWithDetails(msg, details)
}

// tagNames adapts a tag slice to fuzzy.Source.
type tagNames []*domain.Tag

func (t tagNames) String(i int) string { return t[i].Name }
func (t tagNames) Len() int            { return len(t) }
