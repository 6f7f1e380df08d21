package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inkwell-blog/inkwell-server/internal/auth"
	"github.com/inkwell-blog/inkwell-server/internal/domain"
	domainerrors "github.com/inkwell-blog/inkwell-server/internal/errors"
	"github.com/inkwell-blog/inkwell-server/internal/id"
	"github.com/inkwell-blog/inkwell-server/internal/store"
	"github.com/inkwell-blog/inkwell-server/internal/validation"
)

const msgBadCredentials = "Invalid email or password"

// AuthService handles registration, login, profiles and bearer token checks.
type AuthService struct {
	store     store.Store
	tokens    *auth.TokenService
	hasher    *auth.PasswordHasher
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokens *auth.TokenService,
	hasher *auth.PasswordHasher,
	validator *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:     store,
		tokens:    tokens,
		hasher:    hasher,
		validator: validator,
		logger:    logger,
	}
}

// RegisterRequest contains new account data.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=1024"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest changes the caller's username and/or email.
// Nil fields are left untouched.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
}

// LoginResponse carries the bearer token and the logged-in user.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *UserView `json:"user"`
}

// Register creates a new account.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*UserView, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = domain.NormalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Record:       domain.Record{ID: userID},
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, userConflict(err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return newUserView(user), nil
}

// Login verifies credentials and issues an access token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.InvalidCredentials(msgBadCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, req.Password) {
		s.logger.Debug("login rejected", "user_id", user.ID)
		return nil, domainerrors.InvalidCredentials(msgBadCredentials)
	}

	token, expires, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &LoginResponse{Token: token, ExpiresAt: expires, User: newUserView(user)}, nil
}

// GetProfile returns the caller's account.
func (s *AuthService) GetProfile(ctx context.Context, identity *Identity) (*UserView, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, identity.ID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return newUserView(user), nil
}

// UpdateProfile changes the caller's username and/or email.
func (s *AuthService) UpdateProfile(ctx context.Context, identity *Identity, req UpdateProfileRequest) (*UserView, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		req.Username = &trimmed
	}
	if req.Email != nil {
		normalized := domain.NormalizeEmail(*req.Email)
		req.Email = &normalized
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, identity.ID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	user.Touch()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, userConflict(err)
	}
	return newUserView(user), nil
}

// Authenticate resolves an Authorization header value to the caller.
func (s *AuthService) Authenticate(ctx context.Context, header string) (*Identity, error) {
	token, ok := bearerToken(header)
	if !ok {
		return nil, domainerrors.Unauthorized(MsgNoToken)
	}

	claims, err := s.tokens.VerifyAccessToken(token)
	if errors.Is(err, auth.ErrTokenExpired) {
		return nil, domainerrors.TokenExpired(MsgTokenExpired)
	}
	if err != nil {
		return nil, domainerrors.Unauthorized(MsgInvalidToken).WithCause(err)
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Unauthorized(MsgStaleToken)
	}
	if err != nil {
		return nil, fmt.Errorf("load token user: %w", err)
	}

	return &Identity{ID: user.ID, Username: user.Username, Email: user.Email}, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func userConflict(err error) error {
	switch {
	case errors.Is(err, store.ErrEmailExists):
		return domainerrors.AlreadyExists("User with this email already exists")
	case errors.Is(err, store.ErrUsernameExists):
		return domainerrors.AlreadyExists("Username is already taken")
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound("User not found")
	default:
		return fmt.Errorf("save user: %w", err)
	}
}
