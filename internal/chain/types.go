package chain

import (
	"context"

	"github.com/shopspring/decimal"
)

// TokenClient is the contract surface the gateway depends on. The checkout
// sequencer burns POSCR at authorization time; the webhook handler mints or
// burns sFIAT at settlement. Tests substitute a fake.
type TokenClient interface {
	// BurnForPOSPurchase burns the payer's POS credit for a purchase and
	// returns the transaction hash. amount is in whole tokens (18 decimals
	// on chain).
	BurnForPOSPurchase(ctx context.Context, amount decimal.Decimal, retailerID, complianceHash string) (string, error)

	// MintSFIAT mints settlement fiat tokens to a wallet.
	MintSFIAT(ctx context.Context, to string, amount decimal.Decimal) (string, error)

	// BurnSFIATFrom burns settlement fiat tokens from a wallet.
	BurnSFIATFrom(ctx context.Context, from string, amount decimal.Decimal) (string, error)

	// POSCRBalance returns a wallet's POS credit balance in whole tokens.
	POSCRBalance(ctx context.Context, address string) (decimal.Decimal, error)
}

// Minimal ABI fragments for the two contracts; only the methods the gateway
// calls are declared.
const (
	poscrABI = `[
	  {"name":"burnForPOSPurchase","type":"function","stateMutability":"nonpayable",
	   "inputs":[{"name":"amount","type":"uint256"},{"name":"retailerId","type":"string"},{"name":"complianceDataHash","type":"bytes32"}],
	   "outputs":[]},
	  {"name":"balanceOf","type":"function","stateMutability":"view",
	   "inputs":[{"name":"account","type":"address"}],
	   "outputs":[{"name":"","type":"uint256"}]}
	]`

	sfiatABI = `[
	  {"name":"mint","type":"function","stateMutability":"nonpayable",
	   "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	   "outputs":[]},
	  {"name":"burnFrom","type":"function","stateMutability":"nonpayable",
	   "inputs":[{"name":"account","type":"address"},{"name":"amount","type":"uint256"}],
	   "outputs":[]}
	]`
)
