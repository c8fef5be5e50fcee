package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultAPIBase = "https://api.resend.com"
	fromAddress    = "SOVR Credit <receipts@resend.dev>"
)

// Client sends payment receipts through the Resend REST API. Without an API
// key it runs in mock mode: receipts are logged instead of sent.
type Client struct {
	apiKey     string
	apiBase    string
	httpClient *http.Client
}

// NewClient returns a mail client; an empty apiKey enables mock mode.
func NewClient(apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{apiKey: apiKey, apiBase: defaultAPIBase, httpClient: httpClient}
}

// NewClientWithBase is for tests pointing at a fake mail server.
func NewClientWithBase(apiKey, apiBase string, httpClient *http.Client) *Client {
	c := NewClient(apiKey, httpClient)
	c.apiBase = apiBase
	return c
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendReceipt emails a settlement receipt. Failures are returned but callers
// treat them as best-effort.
func (c *Client) SendReceipt(ctx context.Context, to string, amountUSD decimal.Decimal, orderID, txHash, merchant string) error {
	if c.apiKey == "" {
		log.Printf("[mail] mock receipt to=%s order=%s amount=$%s", to, orderID, amountUSD.StringFixed(2))
		return nil
	}

	if merchant == "" {
		merchant = "SOVR Merchant"
	}
	ref := txHash
	if ref == "" {
		ref = "Off-chain Settlement"
	}

	payload := sendRequest{
		From:    fromAddress,
		To:      []string{to},
		Subject: fmt.Sprintf("Payment Receipt: $%s at %s", amountUSD.StringFixed(2), merchant),
		HTML:    receiptHTML(amountUSD, orderID, merchant, ref),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build receipt request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send receipt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		txt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail service returned %d: %s", resp.StatusCode, txt)
	}
	return nil
}

func receiptHTML(amountUSD decimal.Decimal, orderID, merchant, ref string) string {
	return fmt.Sprintf(
		`<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">`+
			`<h1 style="color: #f97316; text-align: center;">SOVR Credit</h1>`+
			`<h2>Payment Confirmed</h2>`+
			`<p>Your transaction was successful.</p>`+
			`<table style="width: 100%%;">`+
			`<tr><td>Amount</td><td style="text-align: right; font-weight: bold;">$%s USD</td></tr>`+
			`<tr><td>Merchant</td><td style="text-align: right;">%s</td></tr>`+
			`<tr><td>Order ID</td><td style="text-align: right; font-family: monospace;">%s</td></tr>`+
			`</table>`+
			`<p style="text-align: center; font-size: 14px; color: #888;">Ref: %s</p>`+
			`</div>`,
		amountUSD.StringFixed(2), merchant, orderID, ref)
}
