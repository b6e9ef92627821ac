package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token is an access token issued by the auth service.
type Token struct {
	Raw       string
	ExpiresAt time.Time
}

// NewToken wraps raw and, when it is a JWT, reads its expiry. The signature
// is not verified; only the issuing service can do that.
func NewToken(raw string) Token {
	tok := Token{Raw: raw}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return tok
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tok.ExpiresAt = exp.Time
	}
	return tok
}

// Expired reports whether the token carries an expiry that has passed.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// Valid reports whether the token can still be sent.
func (t Token) Valid(now time.Time) bool {
	return t.Raw != "" && !t.Expired(now)
}
