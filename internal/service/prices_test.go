package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starshop/backend/internal/model"
)

func quoteServer(t *testing.T, body string, status int, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetStarPrices_DerivesFromQuotes(t *testing.T) {
	// 1 TON = 242.1 RUB, 1 USDT = 81.2 RUB
	srv := quoteServer(t, `{"the-open-network":{"rub":242.1},"tether":{"rub":81.2}}`, http.StatusOK, nil)

	s := NewPriceService()
	s.quoteURL = srv.URL

	prices, err := s.GetStarPrices(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, StarPriceRUB/242.1, prices[model.CurrencyTON], 1e-9)
	assert.InDelta(t, StarPriceRUB/81.2, prices[model.CurrencyUSDT], 1e-9)
	assert.Equal(t, StarPriceRUB, prices[model.CurrencyRUB])
}

func TestGetStarPrices_CachesWithinTTL(t *testing.T) {
	var hits atomic.Int64
	srv := quoteServer(t, `{"the-open-network":{"rub":242.1},"tether":{"rub":81.2}}`, http.StatusOK, &hits)

	s := NewPriceService()
	s.quoteURL = srv.URL

	_, err := s.GetStarPrices(context.Background())
	require.NoError(t, err)
	_, err = s.GetStarPrices(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), hits.Load())
}

func TestGetStarPrices_StaleCacheOnUpstreamFailure(t *testing.T) {
	srv := quoteServer(t, `oops`, http.StatusInternalServerError, nil)

	s := NewPriceService()
	s.quoteURL = srv.URL
	s.cache = map[model.Currency]float64{
		model.CurrencyTON:  0.006,
		model.CurrencyUSDT: 0.018,
		model.CurrencyRUB:  StarPriceRUB,
	}
	s.cacheTime = time.Now().Add(-time.Hour) // expired, but still usable as fallback

	prices, err := s.GetStarPrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.006, prices[model.CurrencyTON])
	assert.Equal(t, 0.018, prices[model.CurrencyUSDT])
}

func TestGetStarPrices_HardcodedFallbackOnColdCache(t *testing.T) {
	srv := quoteServer(t, `oops`, http.StatusInternalServerError, nil)

	s := NewPriceService()
	s.quoteURL = srv.URL

	prices, err := s.GetStarPrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fallbackStarPrices[model.CurrencyTON], prices[model.CurrencyTON])
	assert.Equal(t, fallbackStarPrices[model.CurrencyUSDT], prices[model.CurrencyUSDT])
	assert.Equal(t, StarPriceRUB, prices[model.CurrencyRUB])
}

func TestGetStarPrices_RejectsZeroRates(t *testing.T) {
	srv := quoteServer(t, `{"the-open-network":{"rub":0},"tether":{"rub":81.2}}`, http.StatusOK, nil)

	s := NewPriceService()
	s.quoteURL = srv.URL

	prices, err := s.GetStarPrices(context.Background())
	require.NoError(t, err)
	// falls back instead of dividing by zero
	assert.Equal(t, fallbackStarPrices[model.CurrencyTON], prices[model.CurrencyTON])
}
