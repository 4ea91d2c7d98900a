package api

import (
	"net/http"
	"time"

	"github.com/example/storefront/internal/activity"
	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/domain/account"
	"github.com/example/storefront/internal/session"
	"go.uber.org/zap"
)

// AuthHandlers proxies the account endpoints. The backend token never
// reaches the browser's scripts: it lives in an HTTP-only cookie.
type AuthHandlers struct {
	accounts *account.Service
	activity *activity.Recorder
	cookies  CookieConfig
	logger   *zap.Logger
}

func NewAuthHandlers(accounts *account.Service, recorder *activity.Recorder, cookies CookieConfig, logger *zap.Logger) *AuthHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandlers{
		accounts: accounts,
		activity: recorder,
		cookies:  cookies,
		logger:   logger.Named("auth"),
	}
}

// AuthResponse is returned on login and register
type AuthResponse struct {
	User    account.User `json:"user"`
	Message string       `json:"message"`
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req account.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.setAuthCookie(w, result.Token)

	// Record login event (best-effort, don't fail login on error)
	h.activity.Record(r.Context(), activity.EventCustomerLogin, activity.CustomerLoggedIn{UserID: result.User.ID})

	respondJSON(w, http.StatusOK, AuthResponse{User: result.User, Message: "Login successful"})
}

// Register creates the account and signs the shopper in
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req account.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.setAuthCookie(w, result.Token)
	h.activity.Record(r.Context(), activity.EventCustomerLogin, activity.CustomerLoggedIn{UserID: result.User.ID})

	respondJSON(w, http.StatusCreated, AuthResponse{User: result.User, Message: "Registration successful"})
}

// Logout always clears the cookie, whatever the backend says
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.accounts.Logout(r.Context())
	h.clearAuthCookie(w)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Logout successful",
	})
}

func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req account.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	message, err := h.accounts.ForgotPassword(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// Me returns the current user, or null when nobody is signed in
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.Me(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if u == nil && session.FromContext(r.Context()).Authenticated() {
		// the backend no longer accepts the token
		h.clearAuthCookie(w)
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *AuthHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req account.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.accounts.UpdateProfile(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// Helper methods

// setAuthCookie stores the bearer token. A JWT token keeps the cookie no
// longer than its own exp claim; opaque tokens get the configured lifetime.
func (h *AuthHandlers) setAuthCookie(w http.ResponseWriter, token string) {
	expiresAt, ok := auth.TokenExpiry(token)
	if !ok {
		expiresAt = time.Now().Add(h.cookies.AuthTTL)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandlers) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
