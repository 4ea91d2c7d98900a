package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/querycache"
	"github.com/example/storefront/internal/session"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	AuthCookie   = "auth_token"
	CartCookie   = "cart_token"
	LocaleCookie = "lang"
)

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}

// ExtractToken extracts the backend bearer token from cookie or Authorization header
func ExtractToken(r *http.Request) string {
	// Try cookie first (for browser)
	if cookie, err := r.Cookie(AuthCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	// Fall back to Authorization header (for API clients)
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// ExtractLocale reads the locale cookie, then the first supported language
// in Accept-Language
func ExtractLocale(r *http.Request) string {
	if cookie, err := r.Cookie(LocaleCookie); err == nil {
		if locale, ok := session.ParseLocale(cookie.Value); ok {
			return locale
		}
	}
	for _, part := range strings.Split(r.Header.Get("Accept-Language"), ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		tag = strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if locale, ok := session.ParseLocale(tag); ok {
			return locale
		}
	}
	return session.DefaultLocale
}

// Session resolves the caller's identity on every request: the bearer token,
// the signed guest cart token and the locale. A missing or forged cart
// cookie gets a fresh cart token.
type Session struct {
	codec  *auth.CartTokenCodec
	secure bool
	logger *zap.Logger
}

func NewSession(codec *auth.CartTokenCodec, secureCookies bool, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{codec: codec, secure: secureCookies, logger: logger.Named("session")}
}

func (s *Session) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := session.Identity{
			AuthToken: ExtractToken(r),
			CartToken: s.cartToken(w, r),
			Locale:    ExtractLocale(r),
		}

		ctx := session.WithIdentity(r.Context(), id)
		ctx = querycache.WithScope(ctx, id.Scope())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Session) cartToken(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(CartCookie); err == nil {
		cartToken, err := s.codec.Parse(cookie.Value)
		if err == nil {
			return cartToken
		}
		s.logger.Debug("rejected cart cookie", zap.Error(err))
	}

	cartToken := auth.NewCartToken()
	signed, expiresAt, err := s.codec.Issue(cartToken)
	if err != nil {
		s.logger.Error("failed to issue cart token", zap.Error(err))
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CartCookie,
		Value:    signed,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return cartToken
}

// RequireAuth rejects anonymous callers before the backend is asked
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).Authenticated() {
			respondError(w, "unauthorized", "Please sign in to continue.", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request with its outcome
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			}
			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				fields = append(fields, zap.String("request_id", reqID))
			}
			if rec.status >= http.StatusInternalServerError {
				logger.Warn("request failed", fields...)
				return
			}
			logger.Info("request", fields...)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
