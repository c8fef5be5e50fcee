package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultAPIBase = "https://api.stripe.com"

// StripeClient talks to Stripe's REST API directly. Only the payment_intents
// surface is needed, so a full SDK would be dead weight.
type StripeClient struct {
	secretKey  string
	apiBase    string
	httpClient *http.Client
}

// NewStripeClient returns a client authenticated with the given secret key.
func NewStripeClient(secretKey string, httpClient *http.Client) *StripeClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &StripeClient{
		secretKey:  secretKey,
		apiBase:    defaultAPIBase,
		httpClient: httpClient,
	}
}

// NewStripeClientWithBase is for tests pointing at a fake Stripe server.
func NewStripeClientWithBase(secretKey, apiBase string, httpClient *http.Client) *StripeClient {
	c := NewStripeClient(secretKey, httpClient)
	c.apiBase = apiBase
	return c
}

// stripeError is the error payload Stripe wraps failures in.
type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreatePaymentIntent creates an intent for the given amount in the smallest
// currency unit (cents for usd).
func (c *StripeClient) CreatePaymentIntent(ctx context.Context, amountCents int64, currency, description string, metadata map[string]string) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)
	if description != "" {
		form.Set("description", description)
	}
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build payment intent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read payment intent response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var se stripeError
		if json.Unmarshal(body, &se) == nil && se.Error.Message != "" {
			return nil, fmt.Errorf("stripe: %s (%s)", se.Error.Message, se.Error.Type)
		}
		return nil, fmt.Errorf("stripe: unexpected status %d", resp.StatusCode)
	}

	var pi PaymentIntent
	if err := json.Unmarshal(body, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	return &pi, nil
}

var _ Gateway = (*StripeClient)(nil)
