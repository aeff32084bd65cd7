package authflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-xero-service/authflow"
	apperrors "github.com/jrsteele09/go-xero-service/internal/errors"
	"github.com/jrsteele09/go-xero-service/tokenstore"
	"github.com/jrsteele09/go-xero-service/tokenstore/repofake"
	"github.com/jrsteele09/go-xero-service/xero"
)

// fakeExchanger stubs the Xero client for flow tests.
type fakeExchanger struct {
	exchangeCalls    int
	connectionCalls  int
	exchangePayload  xero.TokenPayload
	exchangeErr      error
	connections      []xero.Connection
	connectionsErr   error
	lastExchangedArg string
}

func (f *fakeExchanger) AuthCodeURL(state string) string {
	return "https://login.example.com/authorize?state=" + state
}

func (f *fakeExchanger) ExchangeCode(ctx context.Context, code string) (xero.TokenPayload, error) {
	f.exchangeCalls++
	f.lastExchangedArg = code
	if f.exchangeErr != nil {
		return xero.TokenPayload{}, f.exchangeErr
	}
	return f.exchangePayload, nil
}

func (f *fakeExchanger) Connections(ctx context.Context, accessToken string) ([]xero.Connection, error) {
	f.connectionCalls++
	if f.connectionsErr != nil {
		return nil, f.connectionsErr
	}
	return f.connections, nil
}

func newController(t *testing.T, client *fakeExchanger, store tokenstore.Repo) *authflow.Controller {
	t.Helper()
	controller, err := authflow.NewController(client, store)
	require.NoError(t, err)
	return controller
}

func pendingPayload() xero.TokenPayload {
	return xero.TokenPayload{
		AccessToken:  "pending-access",
		RefreshToken: "pending-refresh",
		ExpiresIn:    1800,
		TokenType:    "Bearer",
		Scope:        "offline_access accounting.transactions",
	}
}

func TestController_Begin(t *testing.T) {
	controller := newController(t, &fakeExchanger{}, repofake.NewFakeTokenRepo())

	authURL, state := controller.Begin()
	require.NotEmpty(t, state)
	require.Contains(t, authURL, "state="+state)

	_, secondState := controller.Begin()
	require.NotEqual(t, state, secondState, "state values must not repeat")
}

func TestController_Complete(t *testing.T) {
	t.Run("missing code", func(t *testing.T) {
		client := &fakeExchanger{}
		store := repofake.NewFakeTokenRepo()
		controller := newController(t, client, store)

		err := controller.Complete(context.Background(), "")
		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrCallback)
		require.Zero(t, client.exchangeCalls)
	})

	t.Run("exchange rejected writes nothing", func(t *testing.T) {
		client := &fakeExchanger{exchangeErr: errors.New("invalid_grant")}
		store := repofake.NewFakeTokenRepo()
		controller := newController(t, client, store)

		err := controller.Complete(context.Background(), "bad-code")
		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrCallback)

		tenants, err := store.Tenants()
		require.NoError(t, err)
		require.Empty(t, tenants)
	})

	t.Run("success stores the pending token", func(t *testing.T) {
		client := &fakeExchanger{exchangePayload: pendingPayload()}
		store := repofake.NewFakeTokenRepo()
		controller := newController(t, client, store)

		require.NoError(t, controller.Complete(context.Background(), "good-code"))
		require.Equal(t, "good-code", client.lastExchangedArg)

		record, err := store.Get(authflow.TempTenantKey)
		require.NoError(t, err)
		require.Equal(t, "pending-access", record.AccessToken)
		require.Equal(t, "pending-refresh", record.RefreshToken)
	})
}

func TestController_ResolveTenants(t *testing.T) {
	twoConnections := []xero.Connection{
		{ID: "conn-1", TenantID: "tenant-a", TenantName: "Org A", TenantType: "ORGANISATION"},
		{ID: "conn-2", TenantID: "tenant-b", TenantName: "Org B", TenantType: "ORGANISATION"},
	}

	t.Run("binds the pending token to each tenant", func(t *testing.T) {
		client := &fakeExchanger{exchangePayload: pendingPayload(), connections: twoConnections}
		store := repofake.NewFakeTokenRepo()
		controller := newController(t, client, store)

		require.NoError(t, controller.Complete(context.Background(), "good-code"))
		pending, err := store.Get(authflow.TempTenantKey)
		require.NoError(t, err)

		resolved, err := controller.ResolveTenants(context.Background())
		require.NoError(t, err)
		require.Len(t, resolved, 2)

		// Exactly the two tenants remain, the temp key is gone
		tenants, err := store.Tenants()
		require.NoError(t, err)
		require.Equal(t, []string{"tenant-a", "tenant-b"}, tenants)

		// Records are migrated unchanged: the expiry was not recomputed
		for _, tenantID := range tenants {
			record, err := store.Get(tenantID)
			require.NoError(t, err)
			require.Equal(t, pending.AccessToken, record.AccessToken)
			require.Equal(t, pending.ExpiresAt, record.ExpiresAt)
		}
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		client := &fakeExchanger{exchangePayload: pendingPayload(), connections: twoConnections}
		store := repofake.NewFakeTokenRepo()
		controller := newController(t, client, store)

		require.NoError(t, controller.Complete(context.Background(), "good-code"))

		_, err := controller.ResolveTenants(context.Background())
		require.NoError(t, err)

		resolved, err := controller.ResolveTenants(context.Background())
		require.NoError(t, err)
		require.Empty(t, resolved)
		require.Equal(t, 1, client.connectionCalls)

		tenants, err := store.Tenants()
		require.NoError(t, err)
		require.Len(t, tenants, 2)
	})

	t.Run("lookup failure leaves the pending token for retry", func(t *testing.T) {
		client := &fakeExchanger{exchangePayload: pendingPayload(), connectionsErr: errors.New("connections unavailable")}
		store := repofake.NewFakeTokenRepo()
		controller := newController(t, client, store)

		require.NoError(t, controller.Complete(context.Background(), "good-code"))

		_, err := controller.ResolveTenants(context.Background())
		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrResolutionFailed)

		// Still pending: the retry succeeds once the lookup recovers
		_, err = store.Get(authflow.TempTenantKey)
		require.NoError(t, err)

		client.connectionsErr = nil
		client.connections = twoConnections
		resolved, err := controller.ResolveTenants(context.Background())
		require.NoError(t, err)
		require.Len(t, resolved, 2)

		_, err = store.Get(authflow.TempTenantKey)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestController_EndToEndTokenAge(t *testing.T) {
	// A tenant resolved five minutes after the exchange must keep the expiry
	// computed at exchange time, not gain a fresh lifetime.
	t0 := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	previous := tokenstore.NowTimeFunc
	tokenstore.NowTimeFunc = func() time.Time { return t0 }
	t.Cleanup(func() { tokenstore.NowTimeFunc = previous })

	client := &fakeExchanger{
		exchangePayload: pendingPayload(),
		connections:     []xero.Connection{{TenantID: "tenant-a", TenantName: "Org A"}},
	}
	store := repofake.NewFakeTokenRepo()
	controller := newController(t, client, store)

	require.NoError(t, controller.Complete(context.Background(), "good-code"))

	tokenstore.NowTimeFunc = func() time.Time { return t0.Add(5 * time.Minute) }
	_, err := controller.ResolveTenants(context.Background())
	require.NoError(t, err)

	record, err := store.Get("tenant-a")
	require.NoError(t, err)
	require.Equal(t, t0.Add(1800*time.Second), record.ExpiresAt)
}
