package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Row statuses across the request and settlement lifecycle.
const (
	StatusAttested                  = "attested"
	StatusPaymentIntentCreated      = "payment_intent_created"
	StatusPaid                      = "paid"
	StatusSettlementCompleted       = "settlement_completed"
	StatusPaidBurnFailed            = "paid_burn_failed"
	StatusSettlementCompletedNoBurn = "settlement_completed_no_burn"
)

// ErrNotFound is returned when no row exists for a request id.
var ErrNotFound = errors.New("ledger row not found")

// Payload is the checkout request attributes kept with the row.
type Payload struct {
	OrderID    string          `json:"orderId"`
	Wallet     string          `json:"wallet"`
	Amount     decimal.Decimal `json:"amount"`
	MerchantID string          `json:"merchantId"`
}

// Attestation is the authorization signature recorded with a row.
type Attestation struct {
	Signature string `json:"signature"`
	Signer    string `json:"signer"`
	ExpiresAt int64  `json:"expiresAt"`
	Mocked    bool   `json:"mocked,omitempty"`
}

// Row is one checkout's audit record. It is mutated in place across the
// request lifecycle and again by the webhook handler at settlement.
type Row struct {
	RequestID       string       `json:"requestId"`
	Status          string       `json:"status"`
	Payload         Payload      `json:"payload"`
	Attestation     *Attestation `json:"attestation,omitempty"`
	BurnRequested   bool         `json:"burnRequested"`
	BurnTx          string       `json:"burnTx,omitempty"` // POSCR burn at authorization
	CreatedAt       int64        `json:"createdAt"` // unix ms
	UpdatedAt       int64        `json:"updatedAt"` // unix ms
	PaidAt          int64        `json:"paidAt,omitempty"`
	PaymentIntentID string       `json:"paymentIntentId,omitempty"`
	ClientSecret    string       `json:"clientSecret,omitempty"`
	JournalEntryIDs []string     `json:"journalEntryIds,omitempty"`
	SfiatBurnTx     string       `json:"sfiatBurnTx,omitempty"`
	BurnError       string       `json:"burnError,omitempty"`
}

// Store keeps every row in one shared JSON file keyed by request id. Each
// write reads the whole file, replaces the row, and rewrites the file. A
// process-local mutex serializes writers inside this gateway; writers in
// other processes can still race (single-instance scope).
type Store struct {
	mu      sync.Mutex
	path    string
	nowFunc func() time.Time
}

// NewStore returns a Store writing to path. The file is created lazily on the
// first write.
func NewStore(path string) *Store {
	return &Store{path: path, nowFunc: time.Now}
}

// WriteEntry replaces or creates the row for requestID.
func (s *Store) WriteEntry(requestID string, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.load()
	if err != nil {
		return err
	}
	row.RequestID = requestID
	if row.CreatedAt == 0 {
		row.CreatedAt = s.nowFunc().UnixMilli()
	}
	row.UpdatedAt = s.nowFunc().UnixMilli()
	rows[requestID] = row
	return s.save(rows)
}

// Update applies mutate to the existing row for requestID and rewrites the
// file. Returns ErrNotFound when the row does not exist.
func (s *Store) Update(requestID string, mutate func(*Row)) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.load()
	if err != nil {
		return Row{}, err
	}
	row, ok := rows[requestID]
	if !ok {
		return Row{}, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	mutate(&row)
	row.UpdatedAt = s.nowFunc().UnixMilli()
	rows[requestID] = row
	if err := s.save(rows); err != nil {
		return Row{}, err
	}
	return row, nil
}

// Get fetches a row. Returns ErrNotFound when absent.
func (s *Store) Get(requestID string) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.load()
	if err != nil {
		return Row{}, err
	}
	row, ok := rows[requestID]
	if !ok {
		return Row{}, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	return row, nil
}

func (s *Store) load() (map[string]Row, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Row{}, nil
		}
		return nil, fmt.Errorf("read ledger file: %w", err)
	}
	rows := map[string]Row{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("decode ledger file: %w", err)
		}
	}
	return rows, nil
}

func (s *Store) save(rows map[string]Row) error {
	raw, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger file: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}
	return nil
}
