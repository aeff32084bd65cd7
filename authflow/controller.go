package authflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "github.com/jrsteele09/go-xero-service/internal/errors"
	"github.com/jrsteele09/go-xero-service/tokenstore"
	"github.com/jrsteele09/go-xero-service/xero"
)

// TempTenantKey holds the most recently authorized but not-yet-identified
// tenant between the callback exchange and the connections lookup. It is
// deleted, never merely shadowed, once resolution completes.
const TempTenantKey = "temp_tenant"

// Exchanger is the subset of the Xero client the controller drives.
type Exchanger interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (xero.TokenPayload, error)
	Connections(ctx context.Context, accessToken string) ([]xero.Connection, error)
}

// Controller walks an authorization attempt through its three states:
// unauthenticated, pending (code exchanged, tenant identity unknown), and
// bound (token stored under each real tenant id).
type Controller struct {
	client Exchanger
	store  tokenstore.Repo
	log    zerolog.Logger
}

// ControllerOption defines a function type to modify the Controller instance.
type ControllerOption func(*Controller)

// WithLogger sets the logger used for flow diagnostics.
func WithLogger(log zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.log = log
	}
}

// NewController creates an authorization flow controller with required
// dependencies.
func NewController(client Exchanger, store tokenstore.Repo, options ...ControllerOption) (*Controller, error) {
	if client == nil {
		return nil, fmt.Errorf("[NewController] client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("[NewController] store is required")
	}

	c := &Controller{
		client: client,
		store:  store,
		log:    zerolog.Nop(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// Begin returns the consent URL the user must visit, along with the fresh
// anti-replay state value embedded in it. No state is stored here; the
// transport layer keeps the state value for callback validation.
func (c *Controller) Begin() (authURL, state string) {
	state = uuid.NewString()
	return c.client.AuthCodeURL(state), state
}

// Complete exchanges the one-time authorization code and persists the result
// under the temp key, reaching the pending state. The real tenant identities
// are not known until ResolveTenants runs.
func (c *Controller) Complete(ctx context.Context, code string) error {
	if code == "" {
		return apperrors.Wrapf(apperrors.ErrCallback, "no authorization code supplied")
	}

	payload, err := c.client.ExchangeCode(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: exchanging authorization code: %w", apperrors.ErrCallback, err)
	}

	if err := c.store.Save(TempTenantKey, payload); err != nil {
		return fmt.Errorf("storing pending token: %w", err)
	}

	if claims, err := xero.ParseAccessTokenClaims(payload.AccessToken); err == nil {
		c.log.Info().
			Str("xero_user_id", claims.XeroUserID).
			Str("auth_event_id", claims.AuthEventID).
			Msg("authorization code exchanged")
	}

	return nil
}

// ResolveTenants looks up the organisations the pending token is connected
// to, stores the same record under each real tenant id, and deletes the temp
// key. Idempotent: with nothing pending it is a no-op, and after a partial
// failure it can simply be called again — re-saving existing tenants is
// harmless and the temp key deletion comes last.
func (c *Controller) ResolveTenants(ctx context.Context) ([]xero.Connection, error) {
	record, err := c.store.Get(TempTenantKey)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading pending token: %w", err)
	}

	connections, err := c.client.Connections(ctx, record.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrResolutionFailed, err)
	}

	for _, connection := range connections {
		if err := c.store.SaveRecord(connection.TenantID, *record); err != nil {
			return nil, fmt.Errorf("storing token for tenant %q: %w", connection.TenantID, err)
		}
		c.log.Info().
			Str("tenant_id", connection.TenantID).
			Str("tenant_name", connection.TenantName).
			Msg("tenant connected")
	}

	if err := c.store.Delete(TempTenantKey); err != nil {
		return nil, fmt.Errorf("removing pending token: %w", err)
	}

	return connections, nil
}
