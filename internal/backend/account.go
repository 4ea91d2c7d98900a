package backend

import (
	"context"
	"net/http"

	"github.com/example/storefront/internal/domain/account"
)

func (c *Client) Login(ctx context.Context, req account.LoginRequest) (*account.AuthResult, error) {
	var out account.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req account.RegisterRequest) (*account.AuthResult, error) {
	var out account.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil, nil)
}

// ForgotPassword returns the backend's confirmation message
func (c *Client) ForgotPassword(ctx context.Context, req account.ForgotPasswordRequest) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/forgot-password", nil, req, &out, nil); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) Me(ctx context.Context) (*account.User, error) {
	var out account.User
	if err := c.get(ctx, "/auth/me", nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req account.UpdateProfileRequest) (*account.User, error) {
	var out account.User
	if err := c.do(ctx, http.MethodPut, "/auth/profile", nil, req, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}
