package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

// tokenDecimals is the ERC-20 precision of both POSCR and sFIAT.
const tokenDecimals = 18

const receiptPollInterval = 2 * time.Second

// ErrNotConfigured is returned when the operator key or contract addresses are
// missing; callers surface it as a configuration error.
var ErrNotConfigured = errors.New("chain client not configured")

// ethBackend is the slice of ethclient.Client the gateway uses, kept narrow so
// tests can fake the node.
type ethBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Client signs and sends POSCR/sFIAT contract transactions as the gateway
// operator account.
type Client struct {
	backend    ethBackend
	privateKey *ecdsa.PrivateKey
	operator   common.Address
	poscrAddr  common.Address
	sfiatAddr  common.Address
	poscr      abi.ABI
	sfiat      abi.ABI
	chainID    *big.Int
}

// NewClient dials the RPC endpoint and derives the operator account from a
// hex-encoded private key (0x prefix optional).
func NewClient(rpcURL, privateKeyHex, poscrAddress, sfiatAddress string) (*Client, error) {
	if rpcURL == "" || privateKeyHex == "" {
		return nil, ErrNotConfigured
	}

	backend, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return newClient(backend, privateKeyHex, poscrAddress, sfiatAddress)
}

func newClient(backend ethBackend, privateKeyHex, poscrAddress, sfiatAddress string) (*Client, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid operator private key: %w", err)
	}

	poscrParsed, err := abi.JSON(strings.NewReader(poscrABI))
	if err != nil {
		return nil, fmt.Errorf("parse POSCR abi: %w", err)
	}
	sfiatParsed, err := abi.JSON(strings.NewReader(sfiatABI))
	if err != nil {
		return nil, fmt.Errorf("parse sFIAT abi: %w", err)
	}

	c := &Client{
		backend:    backend,
		privateKey: privateKey,
		operator:   crypto.PubkeyToAddress(privateKey.PublicKey),
		poscrAddr:  common.HexToAddress(poscrAddress),
		sfiatAddr:  common.HexToAddress(sfiatAddress),
		poscr:      poscrParsed,
		sfiat:      sfiatParsed,
	}
	log.Printf("[chain] operator account %s", c.operator.Hex())
	return c, nil
}

// Operator returns the gateway operator address.
func (c *Client) Operator() string {
	return c.operator.Hex()
}

// BurnForPOSPurchase burns POS credit held by the operator on behalf of a
// purchase. The contract treats msg.sender as the burner, so the gateway
// itself is the transacting account; the payer is recorded off-chain.
func (c *Client) BurnForPOSPurchase(ctx context.Context, amount decimal.Decimal, retailerID, complianceHash string) (string, error) {
	hash, err := complianceHashBytes(complianceHash)
	if err != nil {
		return "", err
	}
	data, err := c.poscr.Pack("burnForPOSPurchase", toWei(amount), retailerID, hash)
	if err != nil {
		return "", fmt.Errorf("pack burnForPOSPurchase: %w", err)
	}
	return c.transact(ctx, c.poscrAddr, data)
}

// MintSFIAT mints settlement fiat to a wallet.
func (c *Client) MintSFIAT(ctx context.Context, to string, amount decimal.Decimal) (string, error) {
	data, err := c.sfiat.Pack("mint", common.HexToAddress(to), toWei(amount))
	if err != nil {
		return "", fmt.Errorf("pack mint: %w", err)
	}
	return c.transact(ctx, c.sfiatAddr, data)
}

// BurnSFIATFrom burns settlement fiat from a wallet after a paid checkout
// requested an on-chain burn.
func (c *Client) BurnSFIATFrom(ctx context.Context, from string, amount decimal.Decimal) (string, error) {
	data, err := c.sfiat.Pack("burnFrom", common.HexToAddress(from), toWei(amount))
	if err != nil {
		return "", fmt.Errorf("pack burnFrom: %w", err)
	}
	return c.transact(ctx, c.sfiatAddr, data)
}

// POSCRBalance reads a wallet's POS credit balance.
func (c *Client) POSCRBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	data, err := c.poscr.Pack("balanceOf", common.HexToAddress(address))
	if err != nil {
		return decimal.Zero, fmt.Errorf("pack balanceOf: %w", err)
	}
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.poscrAddr, Data: data}, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("call balanceOf: %w", err)
	}
	results, err := c.poscr.Unpack("balanceOf", out)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unpack balanceOf: %w", err)
	}
	wei, ok := results[0].(*big.Int)
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected balanceOf result type %T", results[0])
	}
	return fromWei(wei), nil
}

// transact signs, sends, and waits for one contract call from the operator.
func (c *Client) transact(ctx context.Context, to common.Address, data []byte) (string, error) {
	chainID, err := c.getChainID(ctx)
	if err != nil {
		return "", err
	}
	nonce, err := c.backend.PendingNonceAt(ctx, c.operator)
	if err != nil {
		return "", fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}
	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: c.operator,
		To:   &to,
		Data: data,
	})
	if err != nil {
		return "", fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gas, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), c.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}

	receipt, err := c.waitMined(ctx, signed.Hash())
	if err != nil {
		return "", err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("transaction %s reverted", signed.Hash().Hex())
	}
	return signed.Hash().Hex(), nil
}

func (c *Client) getChainID(ctx context.Context) (*big.Int, error) {
	if c.chainID != nil {
		return c.chainID, nil
	}
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	c.chainID = id
	return id, nil
}

func (c *Client) waitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()
	for {
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for receipt %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// complianceHashBytes parses a 0x-prefixed 32-byte hex string.
func complianceHashBytes(s string) ([32]byte, error) {
	var out [32]byte
	if !strings.HasPrefix(s, "0x") || len(s) != 66 {
		return out, fmt.Errorf("compliance hash must be a 0x-prefixed 32-byte hex string, got %q", s)
	}
	copy(out[:], common.FromHex(s))
	return out, nil
}

func toWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(tokenDecimals).BigInt()
}

func fromWei(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, 0).Shift(-tokenDecimals)
}

var _ TokenClient = (*Client)(nil)
