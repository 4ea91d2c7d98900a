package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// CartClaims is the payload of the signed guest cart cookie
type CartClaims struct {
	CartToken string `json:"cart_token"`
	jwt.RegisteredClaims
}

// CartTokenCodec signs guest cart tokens so a browser cannot pick up
// someone else's cart by editing the cookie
type CartTokenCodec struct {
	secretKey []byte
	ttl       time.Duration
}

func NewCartTokenCodec(secretKey string, ttl time.Duration) *CartTokenCodec {
	return &CartTokenCodec{
		secretKey: []byte(secretKey),
		ttl:       ttl,
	}
}

// NewCartToken generates a fresh guest cart token
func NewCartToken() string {
	return uuid.NewString()
}

// Issue signs cartToken and returns the cookie value with its expiry
func (c *CartTokenCodec) Issue(cartToken string) (string, time.Time, error) {
	if _, err := uuid.Parse(cartToken); err != nil {
		return "", time.Time{}, ErrInvalidToken
	}

	now := time.Now()
	expiresAt := now.Add(c.ttl)
	claims := CartClaims{
		CartToken: cartToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   cartToken,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies a cookie value and returns the cart token inside it
func (c *CartTokenCodec) Parse(signed string) (string, error) {
	token, err := jwt.ParseWithClaims(signed, &CartClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*CartClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.CartToken); err != nil {
		return "", ErrInvalidToken
	}
	return claims.CartToken, nil
}

func (c *CartTokenCodec) TTL() time.Duration {
	return c.ttl
}

// TokenExpiry reads the exp claim of a backend bearer token without checking
// its signature. The storefront only uses it to size the auth cookie; the
// backend still verifies every request. Opaque tokens report false.
func TokenExpiry(bearer string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(bearer, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
