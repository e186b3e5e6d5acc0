package app

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tkachv/parley/internal/core"
)

// Credential wraps the opaque platform access token. It is replaced
// wholesale on re-initialization and never mutated concurrently.
type Credential struct {
	token     string
	expiresAt time.Time // zero when the token carries no exp claim
}

// NewCredential validates the token and, when it is a JWT, extracts the
// expiry claim for diagnostics. Signature validation stays with the
// platform; an unparseable token is still accepted as opaque.
func NewCredential(token string) (*Credential, error) {
	if token == "" {
		return nil, core.NewError(core.CodeInvalidArgument, "access token is required")
	}
	c := &Credential{token: token}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			c.expiresAt = exp.Time
		}
	}
	return c, nil
}

func (c *Credential) Token() string { return c.token }

// ExpiresAt reports the token expiry, if the token carried one.
func (c *Credential) ExpiresAt() (time.Time, bool) {
	return c.expiresAt, !c.expiresAt.IsZero()
}

// Expired reports whether the token expiry is known and in the past.
func (c *Credential) Expired(now time.Time) bool {
	return !c.expiresAt.IsZero() && c.expiresAt.Before(now)
}
