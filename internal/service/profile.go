package service

import (
	"context"
	"log/slog"

	"github.com/linknlink/linknlink-server/internal/domain"
)

// ProfileService reads and edits the caller's own account.
type ProfileService struct {
	logger *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(logger *slog.Logger) *ProfileService {
	return &ProfileService{logger: logger}
}

// GetProfile returns the caller's user record.
func (s *ProfileService) GetProfile(ctx context.Context, c Caller) (*domain.User, error) {
	user, err := c.Session.CurrentUser(ctx, c.UserID)
	if err != nil {
		return nil, storeFailure(s.logger, err, "Failed to fetch profile")
	}
	return user, nil
}

// UpdateProfile sets the caller's display name. The name is trimmed and
// cut to 200 characters; an empty name clears it.
func (s *ProfileService) UpdateProfile(ctx context.Context, c Caller, name string) (*domain.User, error) {
	name = domain.TrimTruncate(name, domain.MaxUserNameLength)

	user, err := c.Session.UpdateUser(ctx, c.UserID, name)
	if err != nil {
		return nil, storeFailure(s.logger, err, "Failed to update profile")
	}

	s.logger.Info("profile updated", "user_id", c.UserID)
	return user, nil
}
