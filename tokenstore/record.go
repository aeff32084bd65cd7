package tokenstore

import "time"

// TokenRecord is the per-tenant credential state persisted between requests
// and across restarts. ExpiresAt is always absolute: it is computed from the
// provider's relative expires_in at save time, so a record read back after a
// restart still knows exactly when its access token dies.
type TokenRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
}
