package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/linknlink/linknlink-server/internal/color"
	"github.com/linknlink/linknlink-server/internal/domain"
	"github.com/linknlink/linknlink-server/internal/store"
)

// TagResolver turns free-text tag names into tag ids, creating the tags a
// user doesn't have yet.
type TagResolver struct {
	logger      *slog.Logger
	randomColor func() string
}

// NewTagResolver creates a tag resolver.
func NewTagResolver(logger *slog.Logger) *TagResolver {
	return &TagResolver{
		logger:      logger,
		randomColor: color.Random,
	}
}

// Resolve returns the ids of userID's tags named names, in input order.
// Names are trimmed; empty names, names over 100 characters and repeats are
// dropped. A name that fails to resolve is logged and skipped, so the result
// may be shorter than the input.
func (r *TagResolver) Resolve(ctx context.Context, sess store.Session, userID string, names []string) []string {
	ids := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" || utf8.RuneCountInString(name) > domain.MaxTagNameLength || seen[name] {
			continue
		}
		seen[name] = true

		tag, created, err := r.findOrCreate(ctx, sess, userID, name)
		if err != nil {
			r.logger.Warn("tag resolve failed",
				"tag_name", name,
				"user_id", userID,
				"error", err,
			)
			continue
		}

		if created {
			r.logger.Debug("tag created",
				"tag_id", tag.ID,
				"tag_name", tag.Name,
				"user_id", userID,
			)
		}
		ids = append(ids, tag.ID)
	}

	return ids
}

func (r *TagResolver) findOrCreate(ctx context.Context, sess store.Session, userID, name string) (*domain.Tag, bool, error) {
	// 1. Exact, case-sensitive lookup.
	tag, err := sess.FindTagByName(ctx, userID, name)
	if err == nil {
		return tag, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("find tag: %w", err)
	}

	// 2. Create with a palette color.
	tag, err = sess.CreateTag(ctx, &domain.Tag{
		Name:  name,
		Color: r.randomColor(),
		User:  userID,
	})
	if err == nil {
		return tag, true, nil
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		return nil, false, fmt.Errorf("create tag: %w", err)
	}

	// 3. A concurrent request created it first; use theirs.
	tag, err = sess.FindTagByName(ctx, userID, name)
	if err != nil {
		return nil, false, fmt.Errorf("re-read tag after conflict: %w", err)
	}
	return tag, false, nil
}
