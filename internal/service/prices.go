package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/starshop/backend/internal/model"
)

const (
	// StarPriceRUB pegs one star to its ruble price; crypto quotes are
	// derived from it via the current exchange rates.
	StarPriceRUB = 1.38

	priceCacheTTL = 5 * time.Minute

	defaultQuoteURL = "https://api.coingecko.com/api/v3/simple/price?ids=the-open-network,tether&vs_currencies=rub"
)

// Last-known-good quotes used when the rate API is unreachable and the cache
// is cold.
var fallbackStarPrices = map[model.Currency]float64{
	model.CurrencyTON:  0.0057,
	model.CurrencyUSDT: 0.017,
	model.CurrencyRUB:  StarPriceRUB,
}

// PriceService quotes the unit price of one star per supported currency,
// caching upstream rates for a TTL to bound external calls.
type PriceService struct {
	quoteURL string
	client   *http.Client

	cacheMu   sync.RWMutex
	cache     map[model.Currency]float64
	cacheTime time.Time
}

func NewPriceService() *PriceService {
	return &PriceService{
		quoteURL: defaultQuoteURL,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// GetStarPrices returns the current unit price of one star in every
// supported currency. Upstream failures fall back to the last cached quotes,
// then to hardcoded defaults.
func (s *PriceService) GetStarPrices(ctx context.Context) (map[model.Currency]float64, error) {
	s.cacheMu.RLock()
	if s.cache != nil && time.Since(s.cacheTime) < priceCacheTTL {
		prices := clonePrices(s.cache)
		s.cacheMu.RUnlock()
		return prices, nil
	}
	s.cacheMu.RUnlock()

	prices, err := s.fetchPrices(ctx)
	if err != nil {
		s.cacheMu.RLock()
		defer s.cacheMu.RUnlock()
		if s.cache != nil {
			return clonePrices(s.cache), nil
		}
		return clonePrices(fallbackStarPrices), nil
	}

	s.cacheMu.Lock()
	s.cache = prices
	s.cacheTime = time.Now()
	s.cacheMu.Unlock()

	return clonePrices(prices), nil
}

func (s *PriceService) fetchPrices(ctx context.Context) (map[model.Currency]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.quoteURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	var result struct {
		TON struct {
			RUB float64 `json:"rub"`
		} `json:"the-open-network"`
		Tether struct {
			RUB float64 `json:"rub"`
		} `json:"tether"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	if result.TON.RUB == 0 || result.Tether.RUB == 0 {
		return nil, fmt.Errorf("zero TON or USDT rate")
	}

	return map[model.Currency]float64{
		model.CurrencyTON:  StarPriceRUB / result.TON.RUB,
		model.CurrencyUSDT: StarPriceRUB / result.Tether.RUB,
		model.CurrencyRUB:  StarPriceRUB,
	}, nil
}

func clonePrices(src map[model.Currency]float64) map[model.Currency]float64 {
	out := make(map[model.Currency]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
