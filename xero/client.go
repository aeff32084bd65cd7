package xero

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-xero-service/internal/config"
)

const defaultRequestTimeout = 30 * time.Second

// Client performs the OAuth2 exchanges against Xero's token endpoint and the
// connections lookup. It is stateless: token persistence and refresh policy
// live with the callers.
type Client struct {
	conf           *oauth2.Config
	httpClient     *http.Client
	connectionsURL string
	log            zerolog.Logger
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for all provider calls
// (primarily for testing against a stub provider).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for provider call diagnostics.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a Xero OAuth client from configuration and a resolved token
// endpoint (see DiscoverEndpoint).
func New(cfg config.XeroConfig, endpoint oauth2.Endpoint, options ...ClientOption) *Client {
	c := &Client{
		conf: &oauth2.Config{
			ClientID:     cfg.GetXeroClientID(),
			ClientSecret: cfg.GetXeroClientSecret(),
			RedirectURL:  cfg.GetXeroRedirectURI(),
			Scopes:       cfg.GetXeroScopes(),
			Endpoint:     endpoint,
		},
		httpClient:     &http.Client{Timeout: defaultRequestTimeout},
		connectionsURL: cfg.GetXeroConnectionsURL(),
		log:            zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// AuthCodeURL builds the consent URL the user must visit to authorize the
// integration. No network call is made.
func (c *Client) AuthCodeURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// ExchangeCode swaps a one-time authorization code for an initial token
// payload. Single attempt; the caller decides whether a failure is worth
// re-running the consent flow.
func (c *Client) ExchangeCode(ctx context.Context, code string) (TokenPayload, error) {
	tok, err := c.conf.Exchange(c.providerContext(ctx), code)
	if err != nil {
		return TokenPayload{}, newExchangeError("exchange_code", err)
	}
	return payloadFromToken("exchange_code", tok)
}

// Refresh swaps a refresh token for a new token payload. The provider may
// rotate the refresh token; when it does not, the supplied one is carried
// over into the returned payload.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPayload, error) {
	src := c.conf.TokenSource(c.providerContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return TokenPayload{}, newExchangeError("refresh", err)
	}

	payload, err := payloadFromToken("refresh", tok)
	if err != nil {
		return TokenPayload{}, err
	}
	if payload.RefreshToken == "" {
		payload.RefreshToken = refreshToken
	}
	return payload, nil
}

// Connection is one entry from Xero's connections endpoint: an organisation
// the authorizing user granted this integration access to.
type Connection struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenantId"`
	TenantName string `json:"tenantName"`
	TenantType string `json:"tenantType"`
}

// Connections lists the tenants the given access token is connected to.
func (c *Client) Connections(ctx context.Context, accessToken string) ([]Connection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.connectionsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building connections request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connections request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading connections response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("connections lookup returned %d: %s", resp.StatusCode, string(body))
	}

	var connections []Connection
	if err := json.Unmarshal(body, &connections); err != nil {
		return nil, fmt.Errorf("decoding connections response: %w", err)
	}

	c.log.Debug().Int("connections", len(connections)).Msg("connections lookup complete")
	return connections, nil
}

// providerContext routes the oauth2 transport through our HTTP client so
// timeouts and test stubs apply to the token endpoint calls as well.
func (c *Client) providerContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}
