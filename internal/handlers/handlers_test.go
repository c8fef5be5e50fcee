package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sovrlabs/checkout-gateway/internal/checkout"
	"github.com/sovrlabs/checkout-gateway/internal/config"
	"github.com/sovrlabs/checkout-gateway/internal/ledger"
	"github.com/sovrlabs/checkout-gateway/internal/oracle"
	"github.com/sovrlabs/checkout-gateway/internal/payments"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGuard struct {
	dup bool
}

func (g *stubGuard) IsDuplicate(context.Context, string) (bool, error) {
	return g.dup, nil
}

type stubPublisher struct {
	eventTypes []string
}

func (p *stubPublisher) Publish(_ context.Context, _, eventType string, _ interface{}) error {
	p.eventTypes = append(p.eventTypes, eventType)
	return nil
}

type stubTokens struct {
	mintCalls int
	burnCalls int
	mintErr   error
}

func (s *stubTokens) BurnForPOSPurchase(context.Context, decimal.Decimal, string, string) (string, error) {
	return "0xburn", nil
}

func (s *stubTokens) MintSFIAT(context.Context, string, decimal.Decimal) (string, error) {
	s.mintCalls++
	if s.mintErr != nil {
		return "", s.mintErr
	}
	return "0xmint", nil
}

func (s *stubTokens) BurnSFIATFrom(context.Context, string, decimal.Decimal) (string, error) {
	s.burnCalls++
	return "0xsettle", nil
}

func (s *stubTokens) POSCRBalance(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type stubGateway struct {
	err error
}

func (g *stubGateway) CreatePaymentIntent(_ context.Context, amountCents int64, currency, _ string, _ map[string]string) (*payments.PaymentIntent, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &payments.PaymentIntent{ID: "pi_test", ClientSecret: "cs_test", Amount: amountCents, Currency: currency}, nil
}

// testFixture is one wired gateway with every external dependency stubbed.
type testFixture struct {
	router *gin.Engine
	cfg    HandlerConfig
	guard  *stubGuard
	events *stubPublisher
	tokens *stubTokens
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	guard := &stubGuard{}
	pub := &stubPublisher{}
	tokens := &stubTokens{}
	store := ledger.NewStore(filepath.Join(t.TempDir(), "ledger.json"))
	oracleLedger, err := oracle.NewLedger()
	if err != nil {
		t.Fatalf("oracle.NewLedger: %v", err)
	}

	cfg := HandlerConfig{
		Cfg: config.Config{
			EventStoreBase:      "http://eventstore.local",
			StripeSecretKey:     "sk_test",
			StripeWebhookSecret: "whsec_test",
			EventStreamPrefix:   "orders",
		},
		Sequencer: &checkout.Sequencer{
			Guard:        guard,
			Events:       pub,
			Tokens:       tokens,
			Payments:     &stubGateway{},
			Ledger:       store,
			StreamPrefix: "orders",
		},
		Events: pub,
		Tokens: tokens,
		Ledger: store,
		Oracle: oracleLedger,
	}

	f := &testFixture{cfg: cfg, guard: guard, events: pub, tokens: tokens}
	f.rebuild()
	return f
}

// rebuild re-registers every route against the fixture's current config.
func (f *testFixture) rebuild() {
	r := gin.New()
	Register(r, f.cfg)
	f.router = r
}

func (f *testFixture) post(path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}
