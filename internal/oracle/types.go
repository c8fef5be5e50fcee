package oracle

// Oracle ledger chart of accounts. Ids mirror the upstream Oracle Ledger
// service this package mocks.
const (
	// Assets
	AccountCashODFI       = 1000
	AccountCashVaultUSDC  = 1010
	AccountACHSettlement  = 1050
	AccountStripeClearing = 1060

	// Liabilities
	AccountAnchorGroceryObligation = 2500
	AccountAnchorUtilityObligation = 2501
	AccountAnchorFuelObligation    = 2502

	// Expense
	AccountAnchorFulfillmentExpense = 6300
)

// Line types for double-entry postings.
const (
	Debit  = "DEBIT"
	Credit = "CREDIT"
)

// Line is one leg of a journal entry. Amounts are integer cents.
type Line struct {
	AccountID   int    `json:"accountId"`
	Type        string `json:"type"` // DEBIT | CREDIT
	AmountCents int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

// JournalEntry is an append-only double-entry record.
type JournalEntry struct {
	ID          string `json:"id"`
	Date        string `json:"date"` // YYYY-MM-DD
	Description string `json:"description"`
	Lines       []Line `json:"lines"`
	Source      string `json:"source"`
	Status      string `json:"status"` // Posted | Pending
	EventID     string `json:"eventId,omitempty"`
	TxHash      string `json:"txHash,omitempty"`
}

// Metadata optionally links an entry to an event, a chain transaction, and a
// user whose balance the entry may adjust.
type Metadata struct {
	EventID string
	TxHash  string
	UserID  string
}

// Balance is a user's view of the ledger, all amounts in cents.
type Balance struct {
	UserID      string `json:"userId"`
	Available   int64  `json:"available"`
	Pending     int64  `json:"pending"`
	Total       int64  `json:"total"`
	LastUpdated string `json:"lastUpdated"`
	Accounts    struct {
		Cash              int64 `json:"cash"`
		Vault             int64 `json:"vault"`
		AnchorObligations int64 `json:"anchorObligations"`
	} `json:"accounts"`
}
