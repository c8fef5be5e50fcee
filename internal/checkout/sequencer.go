package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sovrlabs/checkout-gateway/internal/attest"
	"github.com/sovrlabs/checkout-gateway/internal/chain"
	"github.com/sovrlabs/checkout-gateway/internal/events"
	"github.com/sovrlabs/checkout-gateway/internal/idempotency"
	"github.com/sovrlabs/checkout-gateway/internal/ledger"
	"github.com/sovrlabs/checkout-gateway/internal/oracle"
	"github.com/sovrlabs/checkout-gateway/internal/payments"
	"github.com/sovrlabs/checkout-gateway/internal/validation"
)

// Request is the validated checkout input handed to the sequencer.
type Request struct {
	OrderID        string
	Amount         decimal.Decimal
	Payer          string
	MerchantID     string
	SiteOrderID    string
	Metadata       map[string]interface{}
	IdempotencyKey string
	BurnRequested  bool
}

// FromValidated converts a bound request body into the sequencer's input.
func FromValidated(req validation.CheckoutRequest, key string) Request {
	return Request{
		OrderID:        req.OrderID,
		Amount:         decimal.NewFromFloat(req.AmountUSD),
		Payer:          req.Payer,
		MerchantID:     req.MerchantID,
		SiteOrderID:    req.SiteOrderID,
		Metadata:       req.Metadata,
		IdempotencyKey: key,
		BurnRequested:  req.BurnRequested,
	}
}

// Result is the successful checkout response payload.
type Result struct {
	OrderID         string
	ClientSecret    string
	PaymentIntentID string
	JournalIDs      []string
}

// Sequencer runs the checkout side effects in strict order: duplicate check,
// PaymentInitiated, token burn, payment intent, response. Each step's failure
// short-circuits the remainder; steps past initiation publish a best-effort
// PaymentFailed before propagating.
type Sequencer struct {
	Guard        idempotency.Guard
	Events       events.Publisher
	Tokens       chain.TokenClient // nil when the chain path is unconfigured
	Payments     payments.Gateway
	Ledger       *ledger.Store
	Attestor     *attest.Client // nil disables attestation enrichment
	Spill        *events.Spill
	StreamPrefix string

	nowFunc func() time.Time
}

// Run executes the full sequence for one request.
func (s *Sequencer) Run(ctx context.Context, req Request) (*Result, error) {
	dup, err := s.Guard.IsDuplicate(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, &StepError{Step: "idempotency check", Err: err}
	}
	if dup {
		return nil, ErrDuplicateRequest
	}

	stream := events.StreamName(s.StreamPrefix, req.OrderID)

	// Initiation is guarded by the strict publisher: if the event store will
	// not take the record, the checkout never starts.
	err = s.Events.Publish(ctx, stream, events.TypePaymentInitiated, map[string]interface{}{
		"order_id":        req.OrderID,
		"amount_usd":      req.Amount,
		"payer":           req.Payer,
		"merchant_id":     req.MerchantID,
		"idempotency_key": req.IdempotencyKey,
		"metadata":        orEmpty(req.Metadata),
	})
	if err != nil {
		return nil, &StepError{Step: "publish PaymentInitiated", Err: err}
	}

	if err := s.tokenStep(ctx, stream, req); err != nil {
		s.publishFailure(ctx, stream, req, fmt.Sprintf("POSCR token burn failed: %v", err))
		return nil, &StepError{Step: "token burn", Err: err}
	}

	intent, err := s.intentStep(ctx, stream, req)
	if err != nil {
		s.publishFailure(ctx, stream, req, fmt.Sprintf("payment intent creation failed: %v", err))
		return nil, &StepError{Step: "payment intent", Err: err}
	}

	var journalIDs []string
	if row, lerr := s.Ledger.Get(req.OrderID); lerr == nil {
		journalIDs = row.JournalEntryIDs
	}

	return &Result{
		OrderID:         req.OrderID,
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		JournalIDs:      journalIDs,
	}, nil
}

// tokenStep burns the payer's POS credit, records the audit row, and publishes
// TokensBurned. Attestation is best-effort enrichment: the attestor falls back
// to a mock signature when unreachable, and the result is only recorded.
func (s *Sequencer) tokenStep(ctx context.Context, stream string, req Request) error {
	if s.Tokens == nil {
		return chain.ErrNotConfigured
	}

	now := s.now()
	complianceHash := complianceHash(req.OrderID, now)

	var att *ledger.Attestation
	if s.Attestor != nil {
		got := s.Attestor.RequestAttestation(ctx, attest.Payload{
			RequestID:  req.OrderID,
			Wallet:     req.Payer,
			Amount:     req.Amount.String(),
			MerchantID: req.MerchantID,
			OrderID:    req.OrderID,
			Timestamp:  now.Unix(),
		})
		att = &ledger.Attestation{
			Signature: got.Signature,
			Signer:    got.Signer,
			ExpiresAt: got.ExpiresAt,
			Mocked:    got.Mocked,
		}
	}

	log.Printf("[checkout] burning %s POSCR from %s for merchant %s", req.Amount, req.Payer, req.MerchantID)
	txHash, err := s.Tokens.BurnForPOSPurchase(ctx, req.Amount, req.MerchantID, complianceHash)
	if err != nil {
		return err
	}

	if err := s.Ledger.WriteEntry(req.OrderID, ledger.Row{
		Status: ledger.StatusAttested,
		Payload: ledger.Payload{
			OrderID:    req.OrderID,
			Wallet:     req.Payer,
			Amount:     req.Amount,
			MerchantID: req.MerchantID,
		},
		Attestation:   att,
		BurnRequested: req.BurnRequested,
		BurnTx:        txHash,
	}); err != nil {
		// The burn already happened; the audit row is secondary. Log and go on.
		log.Printf("[checkout] ledger write for %s failed: %v", req.OrderID, err)
	}

	return s.Events.Publish(ctx, stream, events.TypeTokensBurned, map[string]interface{}{
		"order_id":              req.OrderID,
		"amount":                req.Amount.String(),
		"payer":                 req.Payer,
		"retailerId":            req.MerchantID,
		"transaction_hash":      txHash,
		"compliancePayloadHash": complianceHash,
	})
}

// intentStep creates the payment-processor intent in integer cents and
// publishes PaymentIntentCreated.
func (s *Sequencer) intentStep(ctx context.Context, stream string, req Request) (*payments.PaymentIntent, error) {
	cents := oracle.Cents(req.Amount)
	log.Printf("[checkout] creating payment intent for $%s (%d cents)", req.Amount.StringFixed(2), cents)

	intent, err := s.Payments.CreatePaymentIntent(ctx, cents, "usd",
		fmt.Sprintf("Order %s for %s", req.OrderID, req.MerchantID),
		map[string]string{
			"order_id":       req.OrderID,
			"requestId":      req.OrderID,
			"wallet_address": req.Payer,
		})
	if err != nil {
		return nil, err
	}

	if _, lerr := s.Ledger.Update(req.OrderID, func(row *ledger.Row) {
		row.Status = ledger.StatusPaymentIntentCreated
		row.PaymentIntentID = intent.ID
		row.ClientSecret = intent.ClientSecret
	}); lerr != nil {
		log.Printf("[checkout] ledger update for %s failed: %v", req.OrderID, lerr)
	}

	err = s.Events.Publish(ctx, stream, events.TypePaymentIntentCreated, map[string]interface{}{
		"order_id":          req.OrderID,
		"payment_intent_id": intent.ID,
		"amount_usd":        req.Amount,
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}

// publishFailure records PaymentFailed best-effort: a publish error is logged
// and the envelope spilled, never letting the failure event mask the step
// error the caller is about to surface.
func (s *Sequencer) publishFailure(ctx context.Context, stream string, req Request, reason string) {
	data := map[string]interface{}{
		"order_id":        req.OrderID,
		"reason":          reason,
		"idempotency_key": req.IdempotencyKey,
	}
	if err := s.Events.Publish(ctx, stream, events.TypePaymentFailed, data); err != nil {
		log.Printf("[checkout] PaymentFailed publish for %s failed: %v", req.OrderID, err)
		s.Spill.Save(ctx, stream, events.TypePaymentFailed, data)
	}
}

func (s *Sequencer) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now()
}

// complianceHash fabricates the 32-byte compliance payload hash recorded with
// a burn. A production deployment derives this from real compliance data.
func complianceHash(orderID string, at time.Time) string {
	payload, _ := json.Marshal(map[string]interface{}{
		"order_id": orderID,
		"ts":       at.UnixMilli(),
	})
	sum := sha256.Sum256(payload)
	return "0x" + hex.EncodeToString(sum[:])
}

func orEmpty(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}
