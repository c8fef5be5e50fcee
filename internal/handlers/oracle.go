package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sovrlabs/checkout-gateway/internal/oracle"
	"github.com/sovrlabs/checkout-gateway/internal/validation"
)

// oracleBalanceGet serves GET /api/oracle-ledger/balance.
// Query params: userId (required), accountId (optional, returns one account).
func oracleBalanceGet(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("userId")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}

		if accountIDStr := c.Query("accountId"); accountIDStr != "" {
			accountID, err := strconv.Atoi(accountIDStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "accountId must be an integer"})
				return
			}
			balance := cfg.Oracle.AccountBalance(accountID)
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data": gin.H{
					"accountId":  accountID,
					"balance":    balance,
					"balanceUSD": oracle.USD(balance),
				},
			})
			return
		}

		b := cfg.Oracle.GetBalance(userID)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"userId":       b.UserID,
				"available":    b.Available,
				"pending":      b.Pending,
				"total":        b.Total,
				"lastUpdated":  b.LastUpdated,
				"accounts":     b.Accounts,
				"availableUSD": oracle.USD(b.Available),
				"pendingUSD":   oracle.USD(b.Pending),
				"totalUSD":     oracle.USD(b.Total),
			},
		})
	}
}

// oracleBalancePost serves POST /api/oracle-ledger/balance: a value credit to
// a user's balance, posted as a balanced journal entry.
func oracleBalancePost(cfg HandlerConfig) gin.HandlerFunc {
	v := validation.New()

	return func(c *gin.Context) {
		var req validation.BalanceCreditRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		amount := decimal.NewFromFloat(req.Amount)
		cents := oracle.Cents(amount)

		source := req.Source
		if source == "" {
			source = "PAYMENT"
		}
		description := req.Description
		if description == "" {
			description = fmt.Sprintf("Value credit to %s: $%s", req.UserID, amount.StringFixed(2))
		}

		journalID, err := cfg.Oracle.CreateJournalEntry(
			description,
			[]oracle.Line{
				{AccountID: oracle.AccountCashVaultUSDC, Type: oracle.Credit, AmountCents: cents, Description: "Credit to " + req.UserID},
				{AccountID: oracle.AccountCashODFI, Type: oracle.Debit, AmountCents: cents, Description: source},
			},
			source,
			oracle.Metadata{UserID: req.UserID},
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":        true,
			"journalEntryId": journalID,
			"balance":        cfg.Oracle.GetBalance(req.UserID),
		})
	}
}
