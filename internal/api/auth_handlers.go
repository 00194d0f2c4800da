package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/linknlink/linknlink-server/internal/domain"
	domainerrors "github.com/linknlink/linknlink-server/internal/errors"
	"github.com/linknlink/linknlink-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "login",
		Method:        http.MethodPost,
		Path:          "/api/auth/login",
		Summary:       "User login",
		Description:   "Authenticates with email and password, sets the session cookie and returns the token for API clients",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusOK,
		Middlewares:   huma.Middlewares{s.rateLimitAuth},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID:   "signup",
		Method:        http.MethodPost,
		Path:          "/api/auth/signup",
		Summary:       "Create account",
		Description:   "Registers a new account and logs it in",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusOK,
		Middlewares:   huma.Middlewares{s.rateLimitAuth},
	}, s.handleSignup)

	huma.Register(s.api, huma.Operation{
		OperationID:   "me",
		Method:        http.MethodGet,
		Path:          "/api/auth/me",
		Summary:       "Current user",
		Description:   "Returns the authenticated user, or null when the request carries no valid credentials",
		Tags:          []string{"Authentication"},
		Security:      secured,
		DefaultStatus: http.StatusOK,
	}, s.handleMe)

	huma.Register(s.api, huma.Operation{
		OperationID:   "logout",
		Method:        http.MethodPost,
		Path:          "/api/auth/logout",
		Summary:       "Logout",
		Description:   "Clears the session cookie",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusOK,
	}, s.handleLogout)
}

// === DTOs ===

// LoginRequest is the request body for user login.
type LoginRequest struct {
	_        struct{} `json:"-" additionalProperties:"true"`
	Email    string   `json:"email,omitempty" maxLength:"254" doc:"User email"`
	Password string   `json:"password,omitempty" maxLength:"1024" doc:"User password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// SignupRequest is the request body for account creation.
type SignupRequest struct {
	_               struct{} `json:"-" additionalProperties:"true"`
	Email           string   `json:"email,omitempty" maxLength:"254" doc:"User email"`
	Password        string   `json:"password,omitempty" maxLength:"1024" doc:"Password, at least 8 characters"`
	PasswordConfirm string   `json:"passwordConfirm,omitempty" maxLength:"1024" doc:"Repeat of password"`
	Name            string   `json:"name,omitempty" doc:"Display name"`
}

// SignupInput wraps the signup request for Huma.
type SignupInput struct {
	Body SignupRequest
}

// AuthResponse contains the logged-in user and their token.
type AuthResponse struct {
	User  *domain.User `json:"user" doc:"Authenticated user"`
	Token string       `json:"token" doc:"Backend auth token, for clients that send X-Auth-Data"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      AuthResponse
}

// MeResponse contains the current user, or null.
type MeResponse struct {
	User *domain.User `json:"user" doc:"Authenticated user, null when logged out"`
}

// MeOutput wraps the me response for Huma.
type MeOutput struct {
	Body MeResponse
}

// SuccessResponse acknowledges an operation without returning data.
type SuccessResponse struct {
	Success bool `json:"success" doc:"Always true"`
}

// LogoutOutput wraps the logout response for Huma.
type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      SuccessResponse
}

// === Handlers ===

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	ident, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return s.authOutput(ident)
}

func (s *Server) handleSignup(ctx context.Context, input *SignupInput) (*AuthOutput, error) {
	ident, err := s.services.Auth.Signup(ctx, service.SignupRequest{
		Email:           input.Body.Email,
		Password:        input.Body.Password,
		PasswordConfirm: input.Body.PasswordConfirm,
		Name:            input.Body.Name,
	})
	if err != nil {
		return nil, err
	}
	return s.authOutput(ident)
}

func (s *Server) handleMe(ctx context.Context, _ *struct{}) (*MeOutput, error) {
	res := GetResolution(ctx)
	if !res.Authenticated() {
		return &MeOutput{Body: MeResponse{User: nil}}, nil
	}
	return &MeOutput{Body: MeResponse{User: res.Identity.Model}}, nil
}

func (s *Server) handleLogout(_ context.Context, _ *struct{}) (*LogoutOutput, error) {
	return &LogoutOutput{
		SetCookie: *s.cookies.Expired(),
		Body:      SuccessResponse{Success: true},
	}, nil
}

// authOutput sets the session cookie for ident and returns it to the client.
func (s *Server) authOutput(ident *domain.AuthIdentity) (*AuthOutput, error) {
	cookie, err := s.cookies.Session(ident)
	if err != nil {
		return nil, domainerrors.Internal("Failed to create session").WithCause(err)
	}
	return &AuthOutput{
		SetCookie: *cookie,
		Body: AuthResponse{
			User:  ident.Model,
			Token: ident.Token,
		},
	}, nil
}
