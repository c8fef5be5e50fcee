package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// Publisher appends domain events to per-order streams.
type Publisher interface {
	Publish(ctx context.Context, streamName, eventType string, data interface{}) error
}

// PublishError reports a non-2xx response from the event store. The status is
// kept so callers can tell configuration trouble (5xx) from conflicts (4xx).
type PublishError struct {
	Status int
	Body   string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("event store publish failed: %d %s", e.Status, e.Body)
}

// Client is the strict publisher used on the checkout path: any failure to
// record an event is fatal to the step it guards.
type Client struct {
	base       string
	apiKey     string
	httpClient *http.Client
	newID      func() string
}

// NewClient returns a publisher posting to {base}/streams/{stream}.
func NewClient(base, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base:       base,
		apiKey:     apiKey,
		httpClient: httpClient,
		newID:      uuid.NewString,
	}
}

// Publish posts a single-element envelope batch synchronously.
func (c *Client) Publish(ctx context.Context, streamName, eventType string, data interface{}) error {
	batch := []Envelope{{
		EventID:   c.newID(),
		EventType: eventType,
		Data:      data,
	}}

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal event batch: %w", err)
	}

	endpoint := c.base + "/streams/" + url.PathEscape(streamName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Content-Type", ContentType)
	if c.apiKey != "" {
		req.Header.Set("ES-ApiKey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		txt, readErr := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if readErr != nil {
			txt = []byte("<no body>")
		}
		return &PublishError{Status: resp.StatusCode, Body: string(txt)}
	}
	return nil
}

var _ Publisher = (*Client)(nil)

// Lenient wraps a strict publisher for the webhook path: failures are logged
// and reported as false so acknowledging the payment processor is never
// blocked by an event-store outage.
type Lenient struct {
	Inner Publisher
}

// Publish returns true only when the event was recorded.
func (l *Lenient) Publish(ctx context.Context, streamName, eventType string, data interface{}) bool {
	if err := l.Inner.Publish(ctx, streamName, eventType, data); err != nil {
		log.Printf("[events] lenient publish of %s to %s failed: %v", eventType, streamName, err)
		return false
	}
	return true
}
