package sqlite

import (
	"context"
	"errors"
	"sync"

	"github.com/linknlink/linknlink-server/internal/auth"
	"github.com/linknlink/linknlink-server/internal/domain"
	"github.com/linknlink/linknlink-server/internal/store"
)

// session enforces the same record rules a PocketBase instance applies to
// an auth token: list, search and create are limited to the token's own
// records. Reads and writes by id are left to the caller's ownership check
// so it can tell a missing record from someone else's.
type session struct {
	store *Store
	token string

	once   sync.Once
	claims *auth.Claims
	err    error
}

var _ store.Session = (*session)(nil)

// authorize verifies the token once per session.
func (s *session) authorize() (*auth.Claims, error) {
	s.once.Do(func() {
		claims, err := s.store.tokens.Verify(s.token)
		if err != nil {
			s.err = store.ErrUnauthorized.WithCause(err)
			return
		}
		s.claims = claims
	})
	return s.claims, s.err
}

// actAs checks that the token belongs to userID.
func (s *session) actAs(userID string) error {
	claims, err := s.authorize()
	if err != nil {
		return err
	}
	if claims.UserID != userID {
		return store.ErrForbidden
	}
	return nil
}

func (s *session) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	claims, err := s.authorize()
	if err != nil {
		return nil, err
	}
	if claims.UserID != userID {
		return nil, store.ErrUnauthorized
	}
	u, err := s.store.getUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrUnauthorized
		}
		return nil, err
	}
	return u, nil
}

func (s *session) UpdateUser(ctx context.Context, userID, name string) (*domain.User, error) {
	if err := s.actAs(userID); err != nil {
		return nil, err
	}
	return s.store.updateUserName(ctx, userID, name)
}

func (s *session) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	if err := s.actAs(userID); err != nil {
		return nil, err
	}
	return s.store.listTags(ctx, userID)
}

func (s *session) FindTagByName(ctx context.Context, userID, name string) (*domain.Tag, error) {
	if err := s.actAs(userID); err != nil {
		return nil, err
	}
	return s.store.findTagByName(ctx, userID, name)
}

func (s *session) GetTag(ctx context.Context, tagID string) (*domain.Tag, error) {
	if _, err := s.authorize(); err != nil {
		return nil, err
	}
	return s.store.getTag(ctx, tagID)
}

func (s *session) CreateTag(ctx context.Context, t *domain.Tag) (*domain.Tag, error) {
	if err := s.actAs(t.User); err != nil {
		return nil, err
	}
	return s.store.createTag(ctx, t)
}

func (s *session) UpdateTag(ctx context.Context, tagID string, upd domain.TagUpdate) (*domain.Tag, error) {
	if _, err := s.authorize(); err != nil {
		return nil, err
	}
	return s.store.updateTag(ctx, tagID, upd)
}

func (s *session) DeleteTag(ctx context.Context, tagID string) error {
	if _, err := s.authorize(); err != nil {
		return err
	}
	return s.store.deleteTag(ctx, tagID)
}

func (s *session) ListLinks(ctx context.Context, q store.LinkQuery) (*store.LinkPage, error) {
	if err := s.actAs(q.UserID); err != nil {
		return nil, err
	}
	return s.store.listLinks(ctx, q)
}

func (s *session) GetLink(ctx context.Context, linkID string) (*domain.Link, error) {
	if _, err := s.authorize(); err != nil {
		return nil, err
	}
	return s.store.getLink(ctx, s.store.db, linkID)
}

func (s *session) CreateLink(ctx context.Context, l *domain.Link) (*domain.Link, error) {
	if err := s.actAs(l.User); err != nil {
		return nil, err
	}
	return s.store.createLink(ctx, l)
}

func (s *session) UpdateLink(ctx context.Context, linkID string, upd domain.LinkUpdate) (*domain.Link, error) {
	if _, err := s.authorize(); err != nil {
		return nil, err
	}
	return s.store.updateLink(ctx, linkID, upd)
}

func (s *session) DeleteLink(ctx context.Context, linkID string) error {
	if _, err := s.authorize(); err != nil {
		return err
	}
	return s.store.deleteLink(ctx, linkID)
}
