package xero

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Endpoint holds Xero's published OAuth2 endpoints, used when OIDC discovery
// is unavailable at startup.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://login.xero.com/identity/connect/authorize",
	TokenURL:  "https://identity.xero.com/connect/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// DiscoverEndpoint resolves the authorize/token endpoints from the issuer's
// OIDC discovery document. Discovery failure is not fatal: the static
// endpoints are returned so the service can still start offline.
func DiscoverEndpoint(ctx context.Context, issuer string, log zerolog.Logger) oauth2.Endpoint {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		log.Warn().Err(err).Str("issuer", issuer).Msg("OIDC discovery failed, using static endpoints")
		return Endpoint
	}
	return provider.Endpoint()
}
