package account

import (
	"context"
	"errors"
	"time"

	"github.com/example/storefront/internal/session"
	"github.com/example/storefront/internal/validation"
	"go.uber.org/zap"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResult is what the backend returns on login and register. Token never
// leaves the storefront; it goes into the auth cookie.
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"max=20"`
}

type API interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (string, error)
	Me(ctx context.Context) (*User, error)
	UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*User, error)
}

// Service validates account requests before they are forwarded. It holds
// no credentials itself.
type Service struct {
	api    API
	logger *zap.Logger
}

func NewService(api API, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, logger: logger.Named("account")}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.api.Login(ctx, req)
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.api.Register(ctx, req)
}

// Logout is best-effort on the backend side; the cookie is cleared anyway
func (s *Service) Logout(ctx context.Context) {
	if !session.FromContext(ctx).Authenticated() {
		return
	}
	if err := s.api.Logout(ctx); err != nil {
		s.logger.Warn("backend logout failed", zap.Error(err))
	}
}

func (s *Service) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (string, error) {
	if err := validation.Struct(req); err != nil {
		return "", err
	}
	return s.api.ForgotPassword(ctx, req)
}

// Me returns the current user, or nil for an anonymous session or a token the
// backend no longer accepts.
func (s *Service) Me(ctx context.Context) (*User, error) {
	if !session.FromContext(ctx).Authenticated() {
		return nil, nil
	}
	u, err := s.api.Me(ctx)
	if err != nil {
		if isUnauthorized(err) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.api.UpdateProfile(ctx, req)
}

// Unauthorizer is implemented by errors that mean the session is not
// (or no longer) authenticated
type Unauthorizer interface {
	Unauthorized() bool
}

func isUnauthorized(err error) bool {
	var u Unauthorizer
	return errors.As(err, &u) && u.Unauthorized()
}
