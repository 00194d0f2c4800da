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

// linkColumns must match the scan order in scanLink.
const linkColumns = `id, user_id, url, title, description, og_image, og_site_name,
	og_type, favicon, notes, is_favorite, archived, created_at, updated_at`

func scanLink(scanner interface{ Scan(dest ...any) error }) (*domain.Link, error) {
	var (
		l          domain.Link
		isFavorite int
		archived   int
		createdAt  string
		updatedAt  string
	)
	err := scanner.Scan(
		&l.ID,
		&l.User,
		&l.URL,
		&l.Title,
		&l.Description,
		&l.OGImage,
		&l.OGSiteName,
		&l.OGType,
		&l.Favicon,
		&l.Notes,
		&isFavorite,
		&archived,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if l.Created, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.Updated, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	l.IsFavorite = isFavorite != 0
	l.Archived = archived != 0
	l.Tags = []string{}
	l.Expand = &domain.LinkExpand{Tags: []*domain.Tag{}}
	return &l, nil
}

// attachTags fills Tags and Expand.Tags for links, in stored order.
func (s *Store) attachTags(ctx context.Context, q queryer, links []*domain.Link) error {
	if len(links) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Link, len(links))
	placeholders := make([]string, 0, len(links))
	args := make([]any, 0, len(links))
	for _, l := range links {
		byID[l.ID] = l
		placeholders = append(placeholders, "?")
		args = append(args, l.ID)
	}

	//#nosec G202 -- placeholders only
	rows, err := q.QueryContext(ctx, `
		SELECT lt.link_id, t.id, t.user_id, t.name, t.color, t.created_at, t.updated_at
		FROM link_tags lt
		JOIN tags t ON t.id = lt.tag_id
		WHERE lt.link_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY lt.link_id, lt.position`, args...)
	if err != nil {
		return fmt.Errorf("load link tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var linkID string
		t, err := scanTag(scanFunc(func(dest ...any) error {
			return rows.Scan(append([]any{&linkID}, dest...)...)
		}))
		if err != nil {
			return fmt.Errorf("scan link tag: %w", err)
		}
		l := byID[linkID]
		l.Tags = append(l.Tags, t.ID)
		l.Expand.Tags = append(l.Expand.Tags, t)
	}
	return rows.Err()
}

// likePattern builds a LIKE pattern matching term as a literal substring.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

func (s *Store) listLinks(ctx context.Context, q store.LinkQuery) (*store.LinkPage, error) {
	where := []string{"user_id = ?"}
	args := []any{q.UserID}

	if q.Search != "" {
		where = append(where,
			`(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR url LIKE ? ESCAPE '\')`)
		p := likePattern(q.Search)
		args = append(args, p, p, p)
	}
	if q.TagID != "" {
		where = append(where,
			`EXISTS (SELECT 1 FROM link_tags lt WHERE lt.link_id = links.id AND lt.tag_id = ?)`)
		args = append(args, q.TagID)
	}
	cond := strings.Join(where, " AND ")

	var total int
	//#nosec G202 -- condition is built from fixed strings
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count links: %w", err)
	}

	//#nosec G202 -- condition is built from fixed strings
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE `+cond+`
		ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		append(args, q.PerPage, q.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	items := []*domain.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := s.attachTags(ctx, s.db, items); err != nil {
		return nil, err
	}

	return &store.LinkPage{
		Items:      items,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalItems: total,
		TotalPages: store.TotalPagesFor(total, q.PerPage),
	}, nil
}

func (s *Store) getLink(ctx context.Context, q queryer, linkID string) (*domain.Link, error) {
	l, err := scanLink(q.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links WHERE id = ?`, linkID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	if err := s.attachTags(ctx, q, []*domain.Link{l}); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Store) createLink(ctx context.Context, l *domain.Link) (*domain.Link, error) {
	linkID, err := id.New()
	if err != nil {
		return nil, err
	}
	now := s.timestamp()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO links (
			id, user_id, url, title, description, og_image, og_site_name,
			og_type, favicon, notes, is_favorite, archived, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		linkID,
		l.User,
		l.URL,
		l.Title,
		l.Description,
		l.OGImage,
		l.OGSiteName,
		l.OGType,
		l.Favicon,
		l.Notes,
		boolToInt(l.IsFavorite),
		boolToInt(l.Archived),
		now,
		now,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrInvalidInput.WithMessage("unknown user")
		}
		return nil, fmt.Errorf("insert link: %w", err)
	}

	if err := setLinkTags(ctx, tx, linkID, l.Tags); err != nil {
		return nil, err
	}

	created, err := s.getLink(ctx, tx, linkID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

func (s *Store) updateLink(ctx context.Context, linkID string, upd domain.LinkUpdate) (*domain.Link, error) {
	sets := []string{"updated_at = ?"}
	args := []any{s.timestamp()}

	addText := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	addBool := func(col string, v *bool) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, boolToInt(*v))
		}
	}
	addText("title", upd.Title)
	addText("description", upd.Description)
	addText("notes", upd.Notes)
	addBool("is_favorite", upd.IsFavorite)
	addBool("archived", upd.Archived)
	args = append(args, linkID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	//#nosec G202 -- column list is built from fixed strings
	res, err := tx.ExecContext(ctx,
		`UPDATE links SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}

	if upd.Tags != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM link_tags WHERE link_id = ?`, linkID); err != nil {
			return nil, fmt.Errorf("clear link tags: %w", err)
		}
		if err := setLinkTags(ctx, tx, linkID, *upd.Tags); err != nil {
			return nil, err
		}
	}

	updated, err := s.getLink(ctx, tx, linkID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// setLinkTags inserts tag references in order, skipping repeats.
func setLinkTags(ctx context.Context, tx *sql.Tx, linkID string, tagIDs []string) error {
	seen := make(map[string]bool, len(tagIDs))
	pos := 0
	for _, tagID := range tagIDs {
		if seen[tagID] {
			continue
		}
		seen[tagID] = true

		_, err := tx.ExecContext(ctx,
			`INSERT INTO link_tags (link_id, tag_id, position) VALUES (?, ?, ?)`,
			linkID, tagID, pos)
		if err != nil {
			if isForeignKeyViolation(err) {
				return store.ErrInvalidInput.WithMessage("unknown tag " + tagID)
			}
			return fmt.Errorf("insert link tag: %w", err)
		}
		pos++
	}
	return nil
}

func (s *Store) deleteLink(ctx context.Context, linkID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, linkID)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return requireAffected(res)
}
