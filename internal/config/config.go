package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Defaults mirrored from the original gateway deployment.
const (
	DefaultStreamPrefix      = "orders"
	DefaultIdempotencyWindow = 5 * time.Minute
	DefaultAttestorURL       = "http://localhost:4002"
	DefaultLedgerPath        = "ledger.json"
)

// Config carries every environment-derived setting. It is loaded once at
// startup; required values that are absent surface as configuration errors at
// request time rather than crashing the process.
type Config struct {
	// Event store
	EventStoreBase     string
	EventStoreAPIKey   string
	EventStreamPrefix  string
	EventSpillQueueURL string // SQS queue for envelopes that failed to publish

	// Idempotency
	IdempotencyWindow time.Duration
	IdempotencyTable  string // optional DynamoDB table for multi-instance guards

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string

	// Chain (POSCR burn / sFIAT mint)
	RPCURL             string
	OperatorPrivateKey string
	POSCRAddress       string
	SFIATAddress       string

	// Attestor
	AttestorURL string

	// Mail
	ResendAPIKey string

	// File ledger
	LedgerPath string
}

// Load reads configuration from the environment. Missing required values are
// warned about here and rejected per-request by the handlers.
func Load() Config {
	cfg := Config{
		EventStoreBase:      os.Getenv("EVENTSTORE_BASE"),
		EventStoreAPIKey:    os.Getenv("EVENTSTORE_API_KEY"),
		EventStreamPrefix:   getenvDefault("EVENTSTORE_STREAM_PREFIX", DefaultStreamPrefix),
		EventSpillQueueURL:  os.Getenv("EVENT_SPILL_QUEUE_URL"),
		IdempotencyWindow:   windowFromEnv(),
		IdempotencyTable:    os.Getenv("IDEMPOTENCY_TABLE"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		RPCURL:              os.Getenv("RPC_URL"),
		OperatorPrivateKey:  os.Getenv("GATEWAY_OPERATOR_PRIVATE_KEY"),
		POSCRAddress:        os.Getenv("POSCR_CONTRACT_ADDRESS"),
		SFIATAddress:        os.Getenv("SFIAT_CONTRACT_ADDRESS"),
		AttestorURL:         getenvDefault("ATTESTOR_SERVICE_URL", DefaultAttestorURL),
		ResendAPIKey:        os.Getenv("RESEND_API_KEY"),
		LedgerPath:          getenvDefault("LEDGER_PATH", DefaultLedgerPath),
	}

	if cfg.EventStoreBase == "" {
		log.Printf("[config] EVENTSTORE_BASE is not set; checkout requests will be rejected")
	}
	if cfg.StripeSecretKey == "" {
		log.Printf("[config] STRIPE_SECRET_KEY is not set; checkout requests will be rejected")
	}
	if cfg.StripeWebhookSecret == "" {
		log.Printf("[config] STRIPE_WEBHOOK_SECRET is not set; webhooks will be acknowledged but ignored")
	}

	return cfg
}

// BurnConfigured reports whether the on-chain settlement burn has everything
// it needs. Settlement falls back to settlement_completed_no_burn without it.
func (c Config) BurnConfigured() bool {
	return c.RPCURL != "" && c.OperatorPrivateKey != "" && c.SFIATAddress != ""
}

func windowFromEnv() time.Duration {
	raw := os.Getenv("IDEMPOTENCY_WINDOW_MS")
	if raw == "" {
		return DefaultIdempotencyWindow
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		log.Printf("[config] invalid IDEMPOTENCY_WINDOW_MS %q, using default", raw)
		return DefaultIdempotencyWindow
	}
	return time.Duration(ms) * time.Millisecond
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
