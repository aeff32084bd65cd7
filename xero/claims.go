package xero

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims are the claims of interest carried by a Xero access
// token. Extraction is unverified: the token was just received over TLS from
// the provider and is only decoded for logging and diagnostics, never for
// authorization decisions.
type AccessTokenClaims struct {
	XeroUserID  string
	AuthEventID string
	ExpiresAt   time.Time
}

// ParseAccessTokenClaims decodes the JWT claims of an access token.
func ParseAccessTokenClaims(accessToken string) (*AccessTokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("parsing access token: %w", err)
	}

	parsed := &AccessTokenClaims{}
	if v, ok := claims["xero_userid"].(string); ok {
		parsed.XeroUserID = v
	}
	if v, ok := claims["authentication_event_id"].(string); ok {
		parsed.AuthEventID = v
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		parsed.ExpiresAt = exp.Time
	}

	return parsed, nil
}
