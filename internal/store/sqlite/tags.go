package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/linknlink/linknlink-server/internal/domain"
	"github.com/linknlink/linknlink-server/internal/id"
	"github.com/linknlink/linknlink-server/internal/store"
)

// tagColumns must match the scan order in scanTag.
const tagColumns = `id, user_id, name, color, created_at, updated_at`

func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var (
		t         domain.Tag
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(&t.ID, &t.User, &t.Name, &t.Color, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if t.Created, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.Updated, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) queryTags(ctx context.Context, q queryer, query string, args ...any) ([]*domain.Tag, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *Store) listTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	tags, err := s.queryTags(ctx, s.db,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// findTagByName matches name exactly, case included.
func (s *Store) findTagByName(ctx context.Context, userID, name string) (*domain.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? AND name = ?`, userID, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find tag: %w", err)
	}
	return t, nil
}

func (s *Store) getTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, tagID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return t, nil
}

// createTag returns store.ErrAlreadyExists when the user already has a tag
// with that name.
func (s *Store) createTag(ctx context.Context, t *domain.Tag) (*domain.Tag, error) {
	tagID, err := id.New()
	if err != nil {
		return nil, err
	}
	now := s.timestamp()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tags (id, user_id, name, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tagID, t.User, t.Name, t.Color, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return nil, store.ErrInvalidInput.WithMessage("unknown user")
		}
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	return s.getTag(ctx, tagID)
}

func (s *Store) updateTag(ctx context.Context, tagID string, upd domain.TagUpdate) (*domain.Tag, error) {
	sets := []string{"updated_at = ?"}
	args := []any{s.timestamp()}
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *upd.Color)
	}
	args = append(args, tagID)

	//#nosec G202 -- column list is built from fixed strings
	res, err := s.db.ExecContext(ctx,
		`UPDATE tags SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyExists
		}
		return nil, fmt.Errorf("update tag: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return s.getTag(ctx, tagID)
}

// deleteTag also detaches the tag from every link.
func (s *Store) deleteTag(ctx context.Context, tagID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, tagID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return requireAffected(res)
}
