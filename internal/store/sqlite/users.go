package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/linknlink/linknlink-server/internal/auth"
	"github.com/linknlink/linknlink-server/internal/domain"
	"github.com/linknlink/linknlink-server/internal/id"
	"github.com/linknlink/linknlink-server/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, email, name, verified, created_at, updated_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		verified  int
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(&u.ID, &u.Email, &u.Name, &verified, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if u.Created, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.Updated, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	u.Verified = verified != 0
	return &u, nil
}

var errBadCredentials = store.ErrInvalidInput.WithMessage("Failed to authenticate.")

// AuthWithPassword checks email and password and issues a session token.
func (s *Store) AuthWithPassword(ctx context.Context, email, password string) (*domain.AuthIdentity, error) {
	var hash string
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`, password_hash FROM users WHERE email_lower = ?`,
		strings.ToLower(strings.TrimSpace(email)))

	u, err := scanUser(scanFunc(func(dest ...any) error {
		return row.Scan(append(dest, &hash)...)
	}))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !auth.VerifyPassword(hash, password) {
		return nil, errBadCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &domain.AuthIdentity{Token: token, Model: u}, nil
}

// CreateUser registers an account. Returns store.ErrAlreadyExists if the
// email is taken, compared case-insensitively.
func (s *Store) CreateUser(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	hash, err := auth.HashPassword(nu.Password)
	if err != nil {
		return nil, store.ErrInvalidInput.WithMessage("Invalid password.").WithCause(err)
	}

	uid, err := id.New()
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(nu.Email)
	now := s.timestamp()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, email_lower, password_hash, name, verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		uid, email, strings.ToLower(email), hash,
		domain.TrimTruncate(nu.Name, domain.MaxUserNameLength), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyExists.WithMessage("The email is invalid or already in use.")
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return s.getUser(ctx, uid)
}

func (s *Store) getUser(ctx context.Context, userID string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) updateUserName(ctx context.Context, userID, name string) (*domain.User, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, updated_at = ? WHERE id = ?`,
		name, s.timestamp(), userID)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return s.getUser(ctx, userID)
}

// scanFunc adapts a closure to the Scan method scanUser expects.
type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error { return f(dest...) }
