package oracle

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// newUserStarterCents is the balance a first-seen user is seeded with.
const newUserStarterCents = 100000 // $1,000

// Ledger is an in-memory mock of the Oracle Ledger service. Journal entries
// are append-only; account balances are the fold of every accepted entry's
// lines over the seeded opening balances. Nothing survives a restart.
type Ledger struct {
	mu              sync.Mutex
	node            *snowflake.Node
	userBalances    map[string]*userBalance
	accountBalances map[int]int64
	entries         []JournalEntry
	byID            map[string]int // journal id -> entries index
	nowFunc         func() time.Time
}

type userBalance struct {
	available int64
	pending   int64
}

// NewLedger returns a ledger seeded with the development opening balances.
func NewLedger() (*Ledger, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("init journal id node: %w", err)
	}

	l := &Ledger{
		node:            node,
		userBalances:    map[string]*userBalance{},
		accountBalances: map[int]int64{},
		byID:            map[string]int{},
		nowFunc:         time.Now,
	}

	// Opening balances, in cents.
	l.accountBalances[AccountCashODFI] = 50000000      // $500,000
	l.accountBalances[AccountCashVaultUSDC] = 25000000 // $250,000
	l.accountBalances[AccountACHSettlement] = 0
	l.accountBalances[AccountStripeClearing] = 0
	l.accountBalances[AccountAnchorGroceryObligation] = 0

	return l, nil
}

// CreateJournalEntry validates and posts a balanced entry, then folds its
// lines into the account balances. An unbalanced entry is rejected with a
// descriptive error and mutates nothing.
func (l *Ledger) CreateJournalEntry(description string, lines []Line, source string, meta Metadata) (string, error) {
	var debits, credits int64
	for _, line := range lines {
		switch line.Type {
		case Debit:
			debits += line.AmountCents
		case Credit:
			credits += line.AmountCents
		default:
			return "", fmt.Errorf("journal line has unknown type %q", line.Type)
		}
	}
	if debits != credits {
		return "", fmt.Errorf("journal entry does not balance: debits=%d, credits=%d", debits, credits)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id := "JE-" + l.node.Generate().String()
	entry := JournalEntry{
		ID:          id,
		Date:        l.nowFunc().UTC().Format("2006-01-02"),
		Description: description,
		Lines:       lines,
		Source:      source,
		Status:      "Posted",
		EventID:     meta.EventID,
		TxHash:      meta.TxHash,
	}
	l.byID[id] = len(l.entries)
	l.entries = append(l.entries, entry)

	for _, line := range lines {
		adjustment := line.AmountCents
		if line.Type == Credit {
			adjustment = -adjustment
		}
		l.accountBalances[line.AccountID] += adjustment
	}

	// A vault movement attributed to a user adjusts their available balance.
	if meta.UserID != "" {
		if ub, ok := l.userBalances[meta.UserID]; ok {
			var vaultChange int64
			for _, line := range lines {
				if line.AccountID != AccountCashVaultUSDC {
					continue
				}
				if line.Type == Credit {
					vaultChange += line.AmountCents
				} else {
					vaultChange -= line.AmountCents
				}
			}
			ub.available += vaultChange
		}
	}

	log.Printf("[oracle] posted journal entry %s (%s)", id, source)
	return id, nil
}

// RecordCheckoutPayment posts the settlement entry for a paid checkout:
// DR Stripe-Clearing / CR Cash-ODFI, then credits the payer's balance.
func (l *Ledger) RecordCheckoutPayment(requestID, userID string, amountUSD decimal.Decimal, paymentIntentID string) (string, error) {
	cents := Cents(amountUSD)

	id, err := l.CreateJournalEntry(
		fmt.Sprintf("Stripe payment received: %s - $%s", requestID, amountUSD.StringFixed(2)),
		[]Line{
			{AccountID: AccountStripeClearing, Type: Debit, AmountCents: cents, Description: "Payment Intent: " + paymentIntentID},
			{AccountID: AccountCashODFI, Type: Credit, AmountCents: cents, Description: "Stripe settlement"},
		},
		"PAYMENT",
		Metadata{EventID: requestID, UserID: userID},
	)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	l.ensureUser(userID).available += cents
	l.mu.Unlock()

	return id, nil
}

// GetBalance returns the user's balance view, creating the user with the
// starter credit on first sight.
func (l *Ledger) GetBalance(userID string) Balance {
	l.mu.Lock()
	defer l.mu.Unlock()

	ub := l.ensureUser(userID)
	obligations := l.accountBalances[AccountAnchorGroceryObligation] +
		l.accountBalances[AccountAnchorUtilityObligation] +
		l.accountBalances[AccountAnchorFuelObligation]

	b := Balance{
		UserID:      userID,
		Available:   ub.available,
		Pending:     ub.pending,
		Total:       ub.available + ub.pending,
		LastUpdated: l.nowFunc().UTC().Format(time.RFC3339),
	}
	b.Accounts.Cash = l.accountBalances[AccountCashODFI]
	b.Accounts.Vault = l.accountBalances[AccountCashVaultUSDC]
	b.Accounts.AnchorObligations = obligations
	return b
}

// AccountBalance returns one account's folded balance in cents.
func (l *Ledger) AccountBalance(accountID int) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accountBalances[accountID]
}

// EntriesByEventID returns every entry linked to an event id.
func (l *Ledger) EntriesByEventID(eventID string) []JournalEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []JournalEntry
	for _, entry := range l.entries {
		if entry.EventID == eventID {
			out = append(out, entry)
		}
	}
	return out
}

// ensureUser must be called with the lock held.
func (l *Ledger) ensureUser(userID string) *userBalance {
	ub, ok := l.userBalances[userID]
	if !ok {
		ub = &userBalance{available: newUserStarterCents}
		l.userBalances[userID] = ub
	}
	return ub
}

// Cents converts a USD amount to integer cents, rounding half away from zero.
func Cents(amountUSD decimal.Decimal) int64 {
	return amountUSD.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// USD renders cents back into a decimal dollar amount.
func USD(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-2)
}
