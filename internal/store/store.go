// Package store defines the persistence contract shared by the record
// backends. A Store handles unauthenticated operations (login, signup,
// health); everything scoped to a user goes through a Session bound to
// that user's token.
package store

import (
	"context"

	"github.com/linknlink/linknlink-server/internal/domain"
)

// Store is a record backend.
type Store interface {
	// AuthWithPassword exchanges credentials for an identity.
	// Returns ErrInvalidInput when the credentials are wrong.
	AuthWithPassword(ctx context.Context, email, password string) (*domain.AuthIdentity, error)

	// CreateUser registers an account. Returns ErrAlreadyExists when the
	// email is taken.
	CreateUser(ctx context.Context, u domain.NewUser) (*domain.User, error)

	// Session returns a client bound to token. Sessions are cheap, hold no
	// shared mutable state and must not outlive the request that made them.
	Session(token string) Session

	Ping(ctx context.Context) error
	Close() error
}

// Session is a backend client acting as one authenticated user. The token
// is checked on use; a rejected token yields ErrUnauthorized.
type Session interface {
	// CurrentUser verifies the token and returns the account it belongs to,
	// which must be userID.
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateUser(ctx context.Context, userID, name string) (*domain.User, error)

	// Tags
	ListTags(ctx context.Context, userID string) ([]*domain.Tag, error)
	FindTagByName(ctx context.Context, userID, name string) (*domain.Tag, error)
	GetTag(ctx context.Context, id string) (*domain.Tag, error)
	CreateTag(ctx context.Context, t *domain.Tag) (*domain.Tag, error)
	UpdateTag(ctx context.Context, id string, upd domain.TagUpdate) (*domain.Tag, error)
	DeleteTag(ctx context.Context, id string) error

	// Links. Returned links carry Expand.Tags.
	ListLinks(ctx context.Context, q LinkQuery) (*LinkPage, error)
	GetLink(ctx context.Context, id string) (*domain.Link, error)
	CreateLink(ctx context.Context, l *domain.Link) (*domain.Link, error)
	UpdateLink(ctx context.Context, id string, upd domain.LinkUpdate) (*domain.Link, error)
	DeleteLink(ctx context.Context, id string) error
}
