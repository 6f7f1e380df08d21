package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwell-blog/inkwell-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/auth/register",
		Summary:       "Register",
		Description:   "Creates a new account",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{s.rateLimit(s.writeLimit)},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/auth/login",
		Summary:     "Login",
		Description: "Exchanges credentials for a bearer token",
		Tags:        []string{"Auth"},
		Middlewares: huma.Middlewares{s.rateLimit(s.writeLimit)},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/auth/profile",
		Summary:     "Get profile",
		Description: "Returns the authenticated user",
		Tags:        []string{"Auth"},
		Security:    bearerSecurity,
		Middlewares: huma.Middlewares{s.requireAuth},
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPut,
		Path:        "/api/auth/profile",
		Summary:     "Update profile",
		Description: "Changes the authenticated user's username or email",
		Tags:        []string{"Auth"},
		Security:    bearerSecurity,
		Middlewares: huma.Middlewares{s.rateLimit(s.writeLimit), s.requireAuth},
	}, s.handleUpdateProfile)
}

// === DTOs ===

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Username string `json:"username" required:"false" doc:"Display name, 3 to 30 characters"`
	Email    string `json:"email" required:"false" doc:"Email address"`
	Password string `json:"password" required:"false" doc:"Password, at least 6 characters"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" required:"false" doc:"Email address"`
	Password string `json:"password" required:"false" doc:"Password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// LoginOutput wraps the login response for Huma.
type LoginOutput struct {
	Body *service.LoginResponse
}

// UserOutput wraps a user summary for Huma.
type UserOutput struct {
	Body *service.UserView
}

// UpdateProfileRequest is the request body for profile updates.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" doc:"New display name"`
	Email    *string `json:"email,omitempty" doc:"New email address"`
}

// UpdateProfileInput wraps the profile update request for Huma.
type UpdateProfileInput struct {
	Body UpdateProfileRequest
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*UserOutput, error) {
	user, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Username: input.Body.Username,
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return &LoginOutput{Body: resp}, nil
}

func (s *Server) handleGetProfile(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := s.services.Auth.GetProfile(ctx, identityFrom(ctx))
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UserOutput, error) {
	user, err := s.services.Auth.UpdateProfile(ctx, identityFrom(ctx), service.UpdateProfileRequest{
		Username: input.Body.Username,
		Email:    input.Body.Email,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}
