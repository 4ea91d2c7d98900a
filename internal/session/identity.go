package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

const (
	LocaleBG      = "bg"
	LocaleEN      = "en"
	DefaultLocale = LocaleBG
)

// Identity is what the storefront knows about the caller. AuthToken is the
// backend bearer token, CartToken the guest cart token. Either may be empty.
type Identity struct {
	AuthToken string
	CartToken string
	Locale    string
}

func (i Identity) Authenticated() bool { return i.AuthToken != "" }

// Scope is the key under which the caller's cached queries live. Signing in
// or out moves the caller to a new scope, so nothing cached as a guest is
// served to the account and the other way round.
func (i Identity) Scope() string {
	scope := ""
	if i.CartToken != "" {
		scope = "cart:" + i.CartToken
	}
	if i.Authenticated() {
		scope += ":user:" + hashToken(i.AuthToken)[:16]
	}
	return scope
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

type contextKey string

const identityContextKey contextKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// FromContext returns the identity bound to ctx, or an anonymous identity
// in the default locale.
func FromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(identityContextKey).(Identity)
	if !ok {
		return Identity{Locale: DefaultLocale}
	}
	if id.Locale == "" {
		id.Locale = DefaultLocale
	}
	return id
}

// Locales lists every supported storefront locale
var Locales = []string{LocaleBG, LocaleEN}

// LocaleKey is the cache key of a value translated into locale
func LocaleKey(key, locale string) string {
	return key + ":" + locale
}

// LocalizedKey is LocaleKey for the locale bound to ctx
func LocalizedKey(ctx context.Context, key string) string {
	return LocaleKey(key, FromContext(ctx).Locale)
}

// ParseLocale accepts only the supported storefront locales
func ParseLocale(s string) (string, bool) {
	switch s {
	case LocaleBG, LocaleEN:
		return s, true
	}
	return "", false
}
