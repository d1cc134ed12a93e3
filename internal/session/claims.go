package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the access token payload the client relies on.
type Claims struct {
	Username  string
	Groups    []string
	ExpiresAt time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Username string   `json:"username"`
	Groups   []string `json:"groups"`
}

// ParseClaims decodes the token payload without verifying its signature;
// the backend is the only party that verifies credentials.
func ParseClaims(token string) (Claims, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("decode access token: %w", err)
	}

	out := Claims{
		Username: claims.Username,
		Groups:   claims.Groups,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
