package tokenstore

import (
	"time"

	"github.com/jrsteele09/go-xero-service/xero"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Repo persists one TokenRecord per tenant. Implementations must serialize
// all writes: the snapshot is replaced as a whole, so an unserialized
// read-modify-write would let concurrent saves for different tenants drop
// each other's records.
type Repo interface {
	// Save computes an absolute expiry from the payload's relative
	// expires_in (implementation default when omitted) and persists the
	// record under tenantID.
	Save(tenantID string, payload xero.TokenPayload) error

	// SaveRecord persists an already-computed record unchanged. Used when
	// migrating a record between keys, where recomputing the expiry would
	// wrongly extend the token's life.
	SaveRecord(tenantID string, record TokenRecord) error

	// Get returns the current record for the tenant, or ErrNotFound.
	Get(tenantID string) (*TokenRecord, error)

	// IsExpired reports whether the tenant's token needs refreshing before
	// use. A missing record counts as expired.
	IsExpired(tenantID string) bool

	// Tenants returns the keys currently stored, the temp key included.
	Tenants() ([]string, error)

	// Delete removes one tenant's record. Removing an absent key is a no-op.
	Delete(tenantID string) error

	// Clear deletes all persisted state.
	Clear() error
}
