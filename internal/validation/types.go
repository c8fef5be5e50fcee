package validation

// CheckoutRequest is the payload for POST /api/checkout.
type CheckoutRequest struct {
	OrderID        string                 `json:"order_id" validate:"required"`        // merchant-side order reference
	AmountUSD      float64                `json:"amount_usd" validate:"required,gt=0"` // positive USD amount
	Payer          string                 `json:"payer" validate:"required"`           // payer wallet address
	MerchantID     string                 `json:"merchant_id" validate:"required"`     // merchant reference
	SiteOrderID    string                 `json:"site_order_id,omitempty"`             // optional storefront order id
	Metadata       map[string]interface{} `json:"metadata,omitempty"`                  // optional free-form metadata
	IdempotencyKey string                 `json:"idempotency_key,omitempty"`           // optional client-supplied dedup key
	BurnRequested  bool                   `json:"burn_requested,omitempty"`            // request an sFIAT burn at settlement
}

// BalanceCreditRequest is the payload for POST /api/oracle-ledger/balance.
type BalanceCreditRequest struct {
	UserID      string  `json:"userId" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Source      string  `json:"source,omitempty"`
	Description string  `json:"description,omitempty"`
}
