package repofake

import (
	"sort"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-xero-service/internal/errors"
	"github.com/jrsteele09/go-xero-service/tokenstore"
	"github.com/jrsteele09/go-xero-service/xero"
)

var _ tokenstore.Repo = (*FakeTokenRepo)(nil)

// FakeTokenRepo is an in-memory Repo for tests.
type FakeTokenRepo struct {
	tokens map[string]tokenstore.TokenRecord
	lock   sync.RWMutex

	SaveErr error // when set, Save and SaveRecord fail with this error
}

func NewFakeTokenRepo() *FakeTokenRepo {
	return &FakeTokenRepo{
		tokens: make(map[string]tokenstore.TokenRecord),
	}
}

func (tr *FakeTokenRepo) Save(tenantID string, payload xero.TokenPayload) error {
	expiresIn := 30 * time.Minute
	if payload.ExpiresIn > 0 {
		expiresIn = time.Duration(payload.ExpiresIn) * time.Second
	}

	return tr.SaveRecord(tenantID, tokenstore.TokenRecord{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    tokenstore.NowTimeFunc().Add(expiresIn),
		TokenType:    payload.TokenType,
		Scope:        payload.Scope,
	})
}

func (tr *FakeTokenRepo) SaveRecord(tenantID string, record tokenstore.TokenRecord) error {
	if tr.SaveErr != nil {
		return tr.SaveErr
	}

	tr.lock.Lock()
	defer tr.lock.Unlock()

	tr.tokens[tenantID] = record
	return nil
}

func (tr *FakeTokenRepo) Get(tenantID string) (*tokenstore.TokenRecord, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	record, ok := tr.tokens[tenantID]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "token for tenant %q", tenantID)
	}
	return &record, nil
}

func (tr *FakeTokenRepo) IsExpired(tenantID string) bool {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	record, ok := tr.tokens[tenantID]
	if !ok {
		return true
	}
	return !tokenstore.NowTimeFunc().Before(record.ExpiresAt)
}

func (tr *FakeTokenRepo) Tenants() ([]string, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	tenantIDs := make([]string, 0, len(tr.tokens))
	for tenantID := range tr.tokens {
		tenantIDs = append(tenantIDs, tenantID)
	}
	sort.Strings(tenantIDs)
	return tenantIDs, nil
}

func (tr *FakeTokenRepo) Delete(tenantID string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	delete(tr.tokens, tenantID)
	return nil
}

func (tr *FakeTokenRepo) Clear() error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tr.tokens = make(map[string]tokenstore.TokenRecord)
	return nil
}
