package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_PublishEnvelope(t *testing.T) {
	var gotPath, gotContentType, gotAPIKey string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotAPIKey = r.Header.Get("ES-ApiKey")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key", srv.Client())
	c.newID = func() string { return "event-1" }

	err := c.Publish(context.Background(), "orders-o1", TypePaymentInitiated, map[string]string{"order_id": "o1"})
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	if gotPath != "/streams/orders-o1" {
		t.Fatalf("wrong stream path %q", gotPath)
	}
	if gotContentType != ContentType {
		t.Fatalf("wrong content type %q", gotContentType)
	}
	if gotAPIKey != "secret-key" {
		t.Fatalf("api key header not sent")
	}

	var batch []Envelope
	if err := json.Unmarshal(gotBody, &batch); err != nil {
		t.Fatalf("body is not an envelope batch: %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("expected single-element batch, got %d", len(batch))
	}
	if batch[0].EventID != "event-1" || batch[0].EventType != TypePaymentInitiated {
		t.Fatalf("unexpected envelope %+v", batch[0])
	}
}

func TestClient_PublishNon2xxCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("store down"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", srv.Client())

	err := c.Publish(context.Background(), "orders-o1", TypePaymentFailed, nil)
	if err == nil {
		t.Fatalf("expected error on 503")
	}
	var pe *PublishError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PublishError, got %T", err)
	}
	if pe.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", pe.Status)
	}
}

func TestLenient_SwallowsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	l := &Lenient{Inner: NewClient(srv.URL, "", srv.Client())}
	if ok := l.Publish(context.Background(), "orders-o1", TypeOrderSettled, nil); ok {
		t.Fatalf("expected false on publish failure")
	}

	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv2.Close()

	l2 := &Lenient{Inner: NewClient(srv2.URL, "", srv2.Client())}
	if ok := l2.Publish(context.Background(), "orders-o1", TypeOrderSettled, nil); !ok {
		t.Fatalf("expected true on publish success")
	}
}

func TestStreamName(t *testing.T) {
	if got := StreamName("orders", "o-42"); got != "orders-o-42" {
		t.Fatalf("unexpected stream name %q", got)
	}
}
