package fragment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/buyStarsWithoutKYC", r.URL.Path)
		assert.Equal(t, "session=abc", r.Header.Get("Cookie"))

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "friend", body["username"])
		assert.Equal(t, float64(100), body["amount"])
		assert.Equal(t, "seed words", body["seed"])

		_, _ = w.Write([]byte(`{"success":true,"transaction_id":"frag-42"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "seed words", "session=abc")
	result, err := c.Deliver(context.Background(), 100, "friend")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "frag-42", result.TransactionID)
}

func TestDeliver_ProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"insufficient balance"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "seed words", "")
	result, err := c.Deliver(context.Background(), 100, "friend")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "insufficient balance", result.Error)
}

func TestDeliver_Unconfigured(t *testing.T) {
	c := NewClient("http://unused", "", "")
	result, err := c.Deliver(context.Background(), 100, "friend")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not configured")
}

func TestGetBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/getBalance", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"balance":12.5}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "seed words", "")
	balance, err := c.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.5, balance)
}

func TestGetBalance_Unconfigured(t *testing.T) {
	c := NewClient("http://unused", "", "")
	balance, err := c.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)
}
