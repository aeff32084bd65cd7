package accounting

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultRequestTimeout = 30 * time.Second

// TokenSource supplies a valid bearer token for a tenant, refreshing behind
// the scenes when needed.
type TokenSource interface {
	GetValidToken(ctx context.Context, tenantID string) (string, error)
}

// Client is a thin fetcher over the Xero accounting API. Response shapes are
// passed through; the only modelling here is the per-tenant result
// aggregation for cross-tenant listings.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	log        zerolog.Logger
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for accounting API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for accounting call diagnostics.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// New creates an accounting API client.
func New(baseURL string, tokens TokenSource, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		log:        zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// Organisation is the subset of Xero's organisation resource this service
// reports on.
type Organisation struct {
	OrganisationID string `json:"OrganisationID"`
	Name           string `json:"Name"`
	CountryCode    string `json:"CountryCode,omitempty"`
	BaseCurrency   string `json:"BaseCurrency,omitempty"`
}

// TenantResult is the outcome of one tenant's fetch in a cross-tenant
// listing. Failures are aggregated alongside successes instead of aborting
// the whole listing.
type TenantResult struct {
	TenantID      string
	Organisations []Organisation
	Err           error
}

// ListOrganisations fetches the organisation record for each of the given
// tenants, one result per tenant in input order. A tenant whose token cannot
// be refreshed, or whose fetch fails, contributes a failed result; the rest
// proceed.
func (c *Client) ListOrganisations(ctx context.Context, tenantIDs []string) []TenantResult {
	results := make([]TenantResult, 0, len(tenantIDs))
	for _, tenantID := range tenantIDs {
		result := TenantResult{TenantID: tenantID}

		body, err := c.get(ctx, tenantID, "/Organisation")
		if err != nil {
			c.log.Warn().Err(err).Str("tenant_id", tenantID).Msg("organisation fetch failed")
			result.Err = err
			results = append(results, result)
			continue
		}

		var envelope struct {
			Organisations []Organisation `json:"Organisations"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			result.Err = fmt.Errorf("decoding organisations for tenant %q: %w", tenantID, err)
			results = append(results, result)
			continue
		}

		result.Organisations = envelope.Organisations
		results = append(results, result)
	}
	return results
}

// Invoices returns the tenant's invoice listing as the provider sent it.
func (c *Client) Invoices(ctx context.Context, tenantID string) (json.RawMessage, error) {
	return c.get(ctx, tenantID, "/Invoices")
}

func (c *Client) get(ctx context.Context, tenantID, path string) ([]byte, error) {
	token, err := c.tokens.GetValidToken(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building accounting request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Xero-tenant-id", tenantID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("accounting request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading accounting response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("accounting API returned %d for %s: %s", resp.StatusCode, path, string(body))
	}
	return body, nil
}
