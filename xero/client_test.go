package xero_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/go-xero-service/internal/config"
	apperrors "github.com/jrsteele09/go-xero-service/internal/errors"
	"github.com/jrsteele09/go-xero-service/xero"
)

const (
	testClientID     = "test-client-id"
	testClientSecret = "test-client-secret"
	testRedirectURI  = "http://localhost:8000/callback"
	testState        = "random-state-value"
)

// testConfig overrides the env-backed accessors with fixed test values.
type testConfig struct {
	config.Xero
	connectionsURL string
}

func (c testConfig) GetXeroClientID() string       { return testClientID }
func (c testConfig) GetXeroClientSecret() string   { return testClientSecret }
func (c testConfig) GetXeroRedirectURI() string    { return testRedirectURI }
func (c testConfig) GetXeroConnectionsURL() string { return c.connectionsURL }

func newTestClient(t *testing.T, provider *httptest.Server) *xero.Client {
	t.Helper()
	endpoint := oauth2.Endpoint{
		AuthURL:   provider.URL + "/authorize",
		TokenURL:  provider.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	return xero.New(
		testConfig{connectionsURL: provider.URL + "/connections"},
		endpoint,
		xero.WithHTTPClient(provider.Client()),
	)
}

func TestClient_AuthCodeURL(t *testing.T) {
	provider := httptest.NewServer(http.NotFoundHandler())
	defer provider.Close()

	client := newTestClient(t, provider)
	authURL, err := url.Parse(client.AuthCodeURL(testState))
	require.NoError(t, err)

	query := authURL.Query()
	require.Equal(t, "code", query.Get("response_type"))
	require.Equal(t, testClientID, query.Get("client_id"))
	require.Equal(t, testRedirectURI, query.Get("redirect_uri"))
	require.Equal(t, testState, query.Get("state"))
	require.Contains(t, query.Get("scope"), "offline_access")
	require.Contains(t, query.Get("scope"), "accounting.transactions")
}

func TestClient_ExchangeCode(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.FormValue("grant_type"))
		require.Equal(t, "good-code", r.FormValue("code"))
		require.Equal(t, testRedirectURI, r.FormValue("redirect_uri"))
		require.Equal(t, testClientID, r.FormValue("client_id"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "new-access",
			"refresh_token": "new-refresh",
			"expires_in": 1800,
			"token_type": "Bearer",
			"scope": "offline_access accounting.transactions"
		}`))
	}))
	defer provider.Close()

	client := newTestClient(t, provider)
	payload, err := client.ExchangeCode(context.Background(), "good-code")
	require.NoError(t, err)
	require.Equal(t, "new-access", payload.AccessToken)
	require.Equal(t, "new-refresh", payload.RefreshToken)
	require.Equal(t, int64(1800), payload.ExpiresIn)
	require.Equal(t, "Bearer", payload.TokenType)
	require.Equal(t, "offline_access accounting.transactions", payload.Scope)
}

func TestClient_ExchangeCodeRejected(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_grant", "error_description": "code expired"}`))
	}))
	defer provider.Close()

	client := newTestClient(t, provider)
	_, err := client.ExchangeCode(context.Background(), "bad-code")
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrExchangeFailed)

	var exchErr *xero.ExchangeError
	require.ErrorAs(t, err, &exchErr)
	require.Equal(t, http.StatusBadRequest, exchErr.StatusCode)
	require.Contains(t, exchErr.Body, "invalid_grant")
}

func TestClient_ExchangeCodeMissingAccessToken(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type": "Bearer"}`))
	}))
	defer provider.Close()

	client := newTestClient(t, provider)
	_, err := client.ExchangeCode(context.Background(), "good-code")
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrExchangeFailed)
}

func TestClient_Refresh(t *testing.T) {
	t.Run("provider rotates the refresh token", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			require.Equal(t, "refresh_token", r.FormValue("grant_type"))
			require.Equal(t, "old-refresh", r.FormValue("refresh_token"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"access_token": "rotated-access",
				"refresh_token": "rotated-refresh",
				"expires_in": 1800,
				"token_type": "Bearer"
			}`))
		}))
		defer provider.Close()

		client := newTestClient(t, provider)
		payload, err := client.Refresh(context.Background(), "old-refresh")
		require.NoError(t, err)
		require.Equal(t, "rotated-access", payload.AccessToken)
		require.Equal(t, "rotated-refresh", payload.RefreshToken)
	})

	t.Run("provider keeps the refresh token", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token": "rotated-access", "expires_in": 1800, "token_type": "Bearer"}`))
		}))
		defer provider.Close()

		client := newTestClient(t, provider)
		payload, err := client.Refresh(context.Background(), "old-refresh")
		require.NoError(t, err)
		require.Equal(t, "old-refresh", payload.RefreshToken)
	})

	t.Run("provider rejects the refresh token", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": "invalid_grant"}`))
		}))
		defer provider.Close()

		client := newTestClient(t, provider)
		_, err := client.Refresh(context.Background(), "revoked-refresh")
		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrExchangeFailed)

		var exchErr *xero.ExchangeError
		require.ErrorAs(t, err, &exchErr)
		require.Equal(t, "refresh", exchErr.Op)
	})
}

func TestClient_Connections(t *testing.T) {
	t.Run("lists connected tenants", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/connections", r.URL.Path)
			require.Equal(t, "Bearer pending-access", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"id": "conn-1", "tenantId": "tenant-a", "tenantName": "Org A", "tenantType": "ORGANISATION"},
				{"id": "conn-2", "tenantId": "tenant-b", "tenantName": "Org B", "tenantType": "ORGANISATION"}
			]`))
		}))
		defer provider.Close()

		client := newTestClient(t, provider)
		connections, err := client.Connections(context.Background(), "pending-access")
		require.NoError(t, err)
		require.Len(t, connections, 2)
		require.Equal(t, "tenant-a", connections[0].TenantID)
		require.Equal(t, "Org A", connections[0].TenantName)
		require.Equal(t, "ORGANISATION", connections[0].TenantType)
	})

	t.Run("rejected token", func(t *testing.T) {
		provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"Detail": "token expired"}`))
		}))
		defer provider.Close()

		client := newTestClient(t, provider)
		_, err := client.Connections(context.Background(), "stale-access")
		require.Error(t, err)
		require.Contains(t, err.Error(), "401")
	})
}
