package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionExpiry reads the expiry of the session token cookie without
// verifying its signature. ok is false when no cookie carries a JWT with
// an exp claim.
func (c *Client) SessionExpiry() (exp time.Time, ok bool) {
	parser := jwt.NewParser()
	for _, ck := range c.Cookies() {
		claims := jwt.RegisteredClaims{}
		if _, _, err := parser.ParseUnverified(ck.Value, &claims); err != nil {
			continue
		}
		if claims.ExpiresAt != nil {
			return claims.ExpiresAt.Time, true
		}
	}
	return time.Time{}, false
}

// SessionExpired reports whether the stored token is known to be past its
// expiry at now. An opaque or missing token is not known to be expired.
func (c *Client) SessionExpired(now time.Time) bool {
	exp, ok := c.SessionExpiry()
	return ok && !exp.After(now)
}
