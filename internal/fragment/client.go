// Package fragment talks to a Fragment API gateway that buys Telegram Stars
// for an arbitrary recipient. The gateway authenticates with a wallet seed
// phrase and the Fragment session cookies.
package fragment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL string
	seed    string
	cookies string
	client  *http.Client
}

func NewClient(baseURL, seed, cookies string) *Client {
	return &Client{
		baseURL: baseURL,
		seed:    seed,
		cookies: cookies,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Configured reports whether the client has the credentials it needs to
// place orders. An unconfigured client fails every delivery.
func (c *Client) Configured() bool {
	return c.seed != ""
}

// DeliveryResult is the outcome of a buy-stars order.
type DeliveryResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Error         string `json:"error"`
}

type balanceResponse struct {
	Success bool    `json:"success"`
	Balance float64 `json:"balance"`
	Error   string  `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cookies != "" {
		req.Header.Set("Cookie", c.cookies)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fragment request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to decode fragment response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

// Deliver buys `amount` stars for the recipient handle. A provider-side
// rejection comes back as a non-nil result with Success=false; only
// transport-level problems return an error.
func (c *Client) Deliver(ctx context.Context, amount int, recipient string) (*DeliveryResult, error) {
	if !c.Configured() {
		return &DeliveryResult{
			Success: false,
			Error:   "fragment API is not configured: missing seed",
		}, nil
	}

	payload := map[string]any{
		"username": recipient,
		"amount":   amount,
		"seed":     c.seed,
	}

	var result DeliveryResult
	if err := c.post(ctx, "/buyStarsWithoutKYC", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetBalance returns the TON balance of the Fragment wallet, 0 on any
// provider error.
func (c *Client) GetBalance(ctx context.Context) (float64, error) {
	if !c.Configured() {
		return 0, nil
	}

	payload := map[string]any{
		"seed": c.seed,
	}

	var result balanceResponse
	if err := c.post(ctx, "/getBalance", payload, &result); err != nil {
		return 0, err
	}
	if !result.Success {
		return 0, fmt.Errorf("fragment getBalance failed: %s", result.Error)
	}
	return result.Balance, nil
}
