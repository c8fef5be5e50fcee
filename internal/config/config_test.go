package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("EVENTSTORE_STREAM_PREFIX", "")
	t.Setenv("IDEMPOTENCY_WINDOW_MS", "")
	t.Setenv("ATTESTOR_SERVICE_URL", "")
	t.Setenv("LEDGER_PATH", "")

	cfg := Load()
	if cfg.EventStreamPrefix != DefaultStreamPrefix {
		t.Errorf("stream prefix = %q", cfg.EventStreamPrefix)
	}
	if cfg.IdempotencyWindow != DefaultIdempotencyWindow {
		t.Errorf("window = %v", cfg.IdempotencyWindow)
	}
	if cfg.AttestorURL != DefaultAttestorURL {
		t.Errorf("attestor url = %q", cfg.AttestorURL)
	}
	if cfg.LedgerPath != DefaultLedgerPath {
		t.Errorf("ledger path = %q", cfg.LedgerPath)
	}
}

func TestLoad_WindowFromEnv(t *testing.T) {
	t.Setenv("IDEMPOTENCY_WINDOW_MS", "60000")
	if got := Load().IdempotencyWindow; got != time.Minute {
		t.Errorf("window = %v, want 1m", got)
	}

	// Garbage falls back to the default.
	t.Setenv("IDEMPOTENCY_WINDOW_MS", "soon")
	if got := Load().IdempotencyWindow; got != DefaultIdempotencyWindow {
		t.Errorf("window = %v, want default", got)
	}

	t.Setenv("IDEMPOTENCY_WINDOW_MS", "-5")
	if got := Load().IdempotencyWindow; got != DefaultIdempotencyWindow {
		t.Errorf("negative window = %v, want default", got)
	}
}

func TestBurnConfigured(t *testing.T) {
	cfg := Config{
		RPCURL:             "http://node.local",
		OperatorPrivateKey: "0xkey",
		SFIATAddress:       "0x2222222222222222222222222222222222222222",
	}
	if !cfg.BurnConfigured() {
		t.Errorf("fully configured burn reported unconfigured")
	}

	for _, clear := range []func(*Config){
		func(c *Config) { c.RPCURL = "" },
		func(c *Config) { c.OperatorPrivateKey = "" },
		func(c *Config) { c.SFIATAddress = "" },
	} {
		c := cfg
		clear(&c)
		if c.BurnConfigured() {
			t.Errorf("partial config reported burn-ready: %+v", c)
		}
	}
}
