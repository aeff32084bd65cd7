package tokens

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	apperrors "github.com/jrsteele09/go-xero-service/internal/errors"
	"github.com/jrsteele09/go-xero-service/tokenstore"
	"github.com/jrsteele09/go-xero-service/xero"
)

// Refresher performs the refresh-token grant against the provider.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (xero.TokenPayload, error)
}

// RefreshError reports a failed silent renewal for one tenant. The stale
// record is left in the store so a later manual re-authorization can
// overwrite it.
type RefreshError struct {
	TenantID string
	Err      error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refreshing token for tenant %q: %v", e.TenantID, e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// Is matches ErrRefreshFailed so callers can test with errors.Is without
// needing the concrete type.
func (e *RefreshError) Is(target error) bool {
	return target == apperrors.ErrRefreshFailed
}

// Manager owns the token lifecycle for all tenants: it decides expiry,
// drives the refresh exchange, and writes results back to the store. Every
// downstream Xero call obtains its bearer token through GetValidToken.
type Manager struct {
	store     tokenstore.Repo
	refresher Refresher
	log       zerolog.Logger
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithLogger sets the logger used for lifecycle diagnostics.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager creates a token lifecycle manager with required dependencies.
func NewManager(store tokenstore.Repo, refresher Refresher, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("[NewManager] store is required")
	}
	if refresher == nil {
		return nil, fmt.Errorf("[NewManager] refresher is required")
	}

	m := &Manager{
		store:     store,
		refresher: refresher,
		log:       zerolog.Nop(),
	}

	for _, opt := range options {
		opt(m)
	}

	return m, nil
}

// GetValidToken returns an access token for the tenant, silently refreshing
// it first when the stored one has expired.
//
// A tenant with no stored record fails with ErrNotAuthorized: it must be
// routed through the authorization flow. A failed refresh fails with a
// RefreshError and is never retried here.
func (m *Manager) GetValidToken(ctx context.Context, tenantID string) (string, error) {
	record, err := m.store.Get(tenantID)
	if err != nil {
		return "", apperrors.Wrapf(apperrors.ErrNotAuthorized, "tenant %q", tenantID)
	}

	if !m.store.IsExpired(tenantID) {
		return record.AccessToken, nil
	}

	payload, err := m.refresher.Refresh(ctx, record.RefreshToken)
	if err != nil {
		m.log.Error().Err(err).Str("tenant_id", tenantID).Msg("token refresh failed")
		return "", &RefreshError{TenantID: tenantID, Err: err}
	}

	if err := m.store.Save(tenantID, payload); err != nil {
		return "", fmt.Errorf("saving refreshed token for tenant %q: %w", tenantID, err)
	}

	m.log.Debug().Str("tenant_id", tenantID).Msg("access token refreshed")
	return payload.AccessToken, nil
}
