package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/linknlink/linknlink-server/internal/domain"
	domainerrors "github.com/linknlink/linknlink-server/internal/errors"
	"github.com/linknlink/linknlink-server/internal/store"
	"github.com/linknlink/linknlink-server/internal/validation"
)

// MinPasswordLength is the shortest password signup accepts.
const MinPasswordLength = 8

// AuthService handles login and signup against the record backend.
// Token verification on later requests is done by auth.Resolver.
type AuthService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store store.Store, validator *validation.Validator, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// LoginRequest contains login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login exchanges credentials for an identity.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*domain.AuthIdentity, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, domainerrors.Validation("Email and password are required")
	}

	ident, err := s.store.AuthWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			s.logger.Debug("login rejected", "email", req.Email)
		}
		return nil, storeFailure(s.logger, err, "Failed to login")
	}

	s.logger.Info("user logged in", "user_id", ident.Model.ID)
	return ident, nil
}

// SignupRequest contains the fields of a new account.
type SignupRequest struct {
	Email           string `json:"email" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
	Name            string `json:"name"`
}

// Signup registers an account and logs it in.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*domain.AuthIdentity, error) {
	// 1. Validate input.
	req.Email = strings.TrimSpace(req.Email)
	req.Name = domain.TrimTruncate(req.Name, domain.MaxUserNameLength)
	if err := s.validator.Validate(req); err != nil {
		return nil, domainerrors.Validation("Email, password, and password confirmation are required")
	}
	if req.Password != req.PasswordConfirm {
		return nil, domainerrors.Validation("Passwords do not match")
	}
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		return nil, domainerrors.Validation("Password must be at least 8 characters long")
	}

	// 2. Create the account. A taken email is reported as bad input so
	// the response doesn't confirm which addresses are registered.
	user, err := s.store.CreateUser(ctx, domain.NewUser{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		var se *store.Error
		if errors.As(err, &se) && errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Validation(se.Message).WithCause(err)
		}
		return nil, storeFailure(s.logger, err, "Failed to create account")
	}

	s.logger.Info("user signed up", "user_id", user.ID)

	// 3. Log in with the new credentials.
	ident, err := s.store.AuthWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, storeFailure(s.logger, err, "Failed to create account")
	}
	return ident, nil
}
