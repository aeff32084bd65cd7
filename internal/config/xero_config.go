package config

import "time"

type XeroConfig interface {
	GetXeroClientID() string
	GetXeroClientSecret() string
	GetXeroRedirectURI() string
	GetXeroScopes() []string
	GetXeroIssuer() string
	GetXeroConnectionsURL() string
	GetXeroAccountingURL() string
	GetDefaultTokenExpiry() time.Duration
}

type Xero struct{}

var _ XeroConfig = Xero{}

func (Xero) GetXeroClientID() string {
	return GetEnv("XERO_CLIENT_ID", "")
}

func (Xero) GetXeroClientSecret() string {
	return GetEnv("XERO_CLIENT_SECRET", "")
}

func (Xero) GetXeroRedirectURI() string {
	return GetEnv("XERO_REDIRECT_URI", "http://localhost:8000/callback")
}

func (Xero) GetXeroScopes() []string {
	return []string{
		"offline_access",
		"accounting.transactions",
		"accounting.contacts",
		"accounting.settings",
	}
}

// GetXeroIssuer returns the OIDC issuer used for endpoint discovery.
func (Xero) GetXeroIssuer() string {
	return GetEnv("XERO_ISSUER", "https://identity.xero.com")
}

func (Xero) GetXeroConnectionsURL() string {
	return GetEnv("XERO_CONNECTIONS_URL", "https://api.xero.com/connections")
}

func (Xero) GetXeroAccountingURL() string {
	return GetEnv("XERO_ACCOUNTING_URL", "https://api.xero.com/api.xro/2.0")
}

// GetDefaultTokenExpiry is the lifetime assumed for access tokens when the
// provider response omits expires_in.
func (Xero) GetDefaultTokenExpiry() time.Duration {
	return 30 * time.Minute
}
