// Package cryptopay is a minimal client for the Crypto Pay API
// (https://help.crypt.bot/crypto-pay-api): create, poll and delete invoices.
package cryptopay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://pay.crypt.bot/api"

type InvoiceStatus string

const (
	InvoiceStatusActive  InvoiceStatus = "active"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusExpired InvoiceStatus = "expired"
)

type Invoice struct {
	InvoiceID     int64         `json:"invoice_id"`
	Status        InvoiceStatus `json:"status"`
	Asset         string        `json:"asset"`
	Amount        string        `json:"amount"`
	PayURL        string        `json:"pay_url"`
	BotInvoiceURL string        `json:"bot_invoice_url"`
}

type apiResponse struct {
	Ok     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *apiError       `json:"error"`
}

type apiError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) call(ctx context.Context, method string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Crypto-Pay-API-Token", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !apiResp.Ok {
		if apiResp.Error != nil {
			return fmt.Errorf("%s failed: %d %s", method, apiResp.Error.Code, apiResp.Error.Name)
		}
		return fmt.Errorf("%s failed", method)
	}

	if result != nil {
		return json.Unmarshal(apiResp.Result, result)
	}
	return nil
}

// CreateInvoice creates an invoice for the given amount of the given asset.
func (c *Client) CreateInvoice(ctx context.Context, amount float64, asset string) (*Invoice, error) {
	payload := map[string]any{
		"asset":  asset,
		"amount": fmt.Sprintf("%.9f", amount),
	}

	var invoice Invoice
	if err := c.call(ctx, "createInvoice", payload, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetInvoiceStatus returns the current status of one invoice.
func (c *Client) GetInvoiceStatus(ctx context.Context, invoiceID int64) (InvoiceStatus, error) {
	payload := map[string]any{
		"invoice_ids": fmt.Sprintf("%d", invoiceID),
	}

	var result struct {
		Items []Invoice `json:"items"`
	}
	if err := c.call(ctx, "getInvoices", payload, &result); err != nil {
		return "", err
	}
	if len(result.Items) == 0 {
		return "", fmt.Errorf("invoice %d not found", invoiceID)
	}
	return result.Items[0].Status, nil
}

// DeleteInvoice removes an invoice at the provider.
func (c *Client) DeleteInvoice(ctx context.Context, invoiceID int64) error {
	payload := map[string]any{
		"invoice_id": invoiceID,
	}
	return c.call(ctx, "deleteInvoice", payload, nil)
}
