package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenExchangeRatesClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenExchangeRatesClient(server.URL+"/", time.Second)
}

func TestFetchLatest_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest.json", r.URL.Path)
		assert.Equal(t, "app-123", r.URL.Query().Get("app_id"))
		assert.Empty(t, r.URL.Query().Get("base"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"timestamp":1704067200,"base":"USD","rates":{"PKR":280.5,"EUR":0.91}}`))
	})

	rates, err := client.FetchLatest(context.Background(), "app-123", "USD")

	require.NoError(t, err)
	assert.Equal(t, int64(1704067200), rates.Timestamp)
	assert.Equal(t, "USD", rates.Base)
	assert.Equal(t, 280.5, rates.Rates["PKR"])
	assert.Equal(t, "openexchangerates", rates.Provider)
}

func TestFetchLatest_RequestsNonUSDBase(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EUR", r.URL.Query().Get("base"))
		_, _ = w.Write([]byte(`{"timestamp":1,"base":"EUR","rates":{"USD":1.1}}`))
	})

	rates, err := client.FetchLatest(context.Background(), "app-123", "EUR")

	require.NoError(t, err)
	assert.Equal(t, "EUR", rates.Base)
}

func TestFetchLatest_MissingCredential(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.FetchLatest(context.Background(), "", "USD")

	var missing ErrCredentialMissing
	require.True(t, errors.As(err, &missing))
	assert.False(t, called, "expected no outbound call without a credential")
}

func TestFetchLatest_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":true}`, wantType: "unauthorized"},
		{name: "forbidden", status: http.StatusForbidden, body: `{"error":true}`, wantType: "unauthorized"},
		{name: "server error", status: http.StatusBadGateway, body: ``, wantType: "http_status"},
		{name: "bad json", status: http.StatusOK, body: `{not json`, wantType: "malformed"},
		{name: "empty rates", status: http.StatusOK, body: `{"timestamp":1,"base":"USD","rates":{}}`, wantType: "malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.FetchLatest(context.Background(), "app-123", "USD")

			require.Error(t, err)
			assert.Equal(t, tt.wantType, ErrorType(err))
		})
	}
}

func TestFetchLatest_HTTPStatusCarriesCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchLatest(context.Background(), "app-123", "USD")

	var statusErr ErrHTTPStatus
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}

func TestFetchLatest_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)
	client := NewOpenExchangeRatesClient(server.URL, 20*time.Millisecond)

	_, err := client.FetchLatest(context.Background(), "app-123", "USD")

	var netErr ErrNetwork
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, "network", ErrorType(err))
}
