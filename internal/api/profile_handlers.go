package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/linknlink/linknlink-server/internal/domain"
	domainerrors "github.com/linknlink/linknlink-server/internal/errors"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "getProfile",
		Method:        http.MethodGet,
		Path:          "/api/user/profile",
		Summary:       "Get my profile",
		Tags:          []string{"Profile"},
		Security:      secured,
		DefaultStatus: http.StatusOK,
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID:   "updateProfile",
		Method:        http.MethodPut,
		Path:          "/api/user/profile",
		Summary:       "Update my profile",
		Description:   "Sets the display name and refreshes the session cookie with the new user record",
		Tags:          []string{"Profile"},
		Security:      secured,
		DefaultStatus: http.StatusOK,
	}, s.handleUpdateProfile)
}

// === DTOs ===

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body *domain.User
}

// UpdateProfileRequest is the request body for updating the profile.
type UpdateProfileRequest struct {
	_    struct{} `json:"-" additionalProperties:"true"`
	Name string   `json:"name,omitempty" doc:"Display name, up to 200 characters"`
}

// UpdateProfileInput wraps the update profile request for Huma.
type UpdateProfileInput struct {
	Body UpdateProfileRequest
}

// UpdateProfileOutput carries the refreshed cookie and the updated user.
type UpdateProfileOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      *domain.User
}

// === Handlers ===

func (s *Server) handleGetProfile(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Profile.GetProfile(ctx, caller)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: user}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UpdateProfileOutput, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Profile.UpdateProfile(ctx, caller, input.Body.Name)
	if err != nil {
		return nil, err
	}

	res := GetResolution(ctx)
	cookie, err := s.cookies.Session(&domain.AuthIdentity{Token: res.Identity.Token, Model: user})
	if err != nil {
		return nil, domainerrors.Internal("Failed to refresh session").WithCause(err)
	}

	return &UpdateProfileOutput{SetCookie: *cookie, Body: user}, nil
}
