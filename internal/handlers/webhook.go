package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sovrlabs/checkout-gateway/internal/events"
	"github.com/sovrlabs/checkout-gateway/internal/ledger"
	"github.com/sovrlabs/checkout-gateway/internal/oracle"
	"github.com/sovrlabs/checkout-gateway/internal/payments"
)

// webhookHandler consumes Stripe's signed callbacks for POST
// /api/webhooks/stripe. Event publication on this path is lenient: the
// acknowledgment to Stripe is never blocked by an event-store outage.
func webhookHandler(cfg HandlerConfig) gin.HandlerFunc {
	lenient := &events.Lenient{Inner: cfg.Events}

	return func(c *gin.Context) {
		if cfg.Cfg.StripeWebhookSecret == "" {
			log.Printf("[webhook] received Stripe webhook but no secret is configured; ignoring")
			c.JSON(http.StatusOK, gin.H{"received": true, "message": "Webhook ignored, no secret configured."})
			return
		}

		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}

		ev, err := payments.ParseWebhookEvent(body, c.GetHeader("Stripe-Signature"), cfg.Cfg.StripeWebhookSecret, time.Now())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook Error: " + err.Error()})
			return
		}

		intent := ev.Data.Object
		orderID := intent.Metadata["order_id"]
		if orderID == "" {
			// Still acknowledge receipt to Stripe.
			log.Printf("[webhook] event %s has no order_id in metadata", ev.ID)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}

		stream := events.StreamName(cfg.Cfg.EventStreamPrefix, orderID)
		ctx := c.Request.Context()

		switch ev.Type {
		case payments.EventPaymentIntentSucceeded:
			handleIntentSucceeded(ctx, cfg, lenient, stream, orderID, intent)

		case payments.EventPaymentIntentFailed:
			log.Printf("[webhook] payment intent %s for order %s failed", intent.ID, orderID)
			reason := "Unknown error"
			if intent.LastPaymentError != nil {
				reason = intent.LastPaymentError.Message
			}
			lenient.Publish(ctx, stream, events.TypePaymentFailed, map[string]interface{}{
				"order_id": orderID,
				"reason":   "Stripe payment failed",
				"details":  reason,
			})

		default:
			log.Printf("[webhook] unhandled Stripe event type %s", ev.Type)
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// handleIntentSucceeded settles a paid checkout: ledger row transitions,
// settlement events, the optional on-chain burn/mint, the oracle posting, and
// a best-effort receipt email.
func handleIntentSucceeded(ctx context.Context, cfg HandlerConfig, lenient *events.Lenient, stream, orderID string, intent payments.WebhookIntent) {
	log.Printf("[webhook] payment intent %s for order %s succeeded", intent.ID, orderID)

	requestID := intent.Metadata["requestId"]
	if requestID == "" {
		requestID = orderID
	}

	row, err := cfg.Ledger.Update(requestID, func(r *ledger.Row) {
		r.Status = ledger.StatusPaid
		r.PaymentIntentID = intent.ID
		r.PaidAt = time.Now().UnixMilli()
	})
	if err != nil {
		log.Printf("[webhook] no ledger row for %s: %v", requestID, err)
	}

	lenient.Publish(ctx, stream, events.TypePaymentAuthorized, map[string]interface{}{
		"order_id":             orderID,
		"amount":               intent.Amount,
		"currency":             intent.Currency,
		"settled_at":           time.Unix(intent.Created, 0).UTC().Format(time.RFC3339),
		"settlement_reference": intent.ID,
	})
	lenient.Publish(ctx, stream, events.TypeOrderSettled, map[string]interface{}{
		"order_id":         orderID,
		"merchant_receipt": intent.ID,
	})

	amountUSD := oracle.USD(intent.Amount)

	// Settlement burn, only when the checkout asked for it and the chain
	// path is configured.
	if err == nil && row.BurnRequested {
		settleBurn(ctx, cfg, requestID, row)
	} else if err == nil {
		if _, uerr := cfg.Ledger.Update(requestID, func(r *ledger.Row) {
			r.Status = ledger.StatusSettlementCompletedNoBurn
		}); uerr != nil {
			log.Printf("[webhook] ledger update for %s: %v", requestID, uerr)
		}
	}

	// Mint sFIAT to the payer wallet recorded in the intent metadata.
	if wallet := intent.Metadata["wallet_address"]; wallet != "" && cfg.Tokens != nil {
		if _, merr := cfg.Tokens.MintSFIAT(ctx, wallet, amountUSD); merr != nil {
			log.Printf("[webhook] mint for %s failed: %v", wallet, merr)
			lenient.Publish(ctx, stream, events.TypeMintingFailed, map[string]interface{}{
				"reason": merr.Error(),
			})
		} else {
			log.Printf("[webhook] minted %s sFIAT to %s", amountUSD, wallet)
			lenient.Publish(ctx, stream, events.TypeAssetMinted, map[string]interface{}{
				"asset":  "sFIAT",
				"amount": amountUSD.String(),
				"to":     wallet,
			})
		}
	} else if cfg.Tokens == nil || intent.Metadata["wallet_address"] == "" {
		log.Printf("[webhook] no wallet_address in payment metadata, skipping mint")
	}

	// Mirror the settlement into the oracle ledger.
	if cfg.Oracle != nil {
		userID := intent.Metadata["wallet_address"]
		if userID == "" {
			userID = row.Payload.Wallet
		}
		if journalID, oerr := cfg.Oracle.RecordCheckoutPayment(requestID, userID, amountUSD, intent.ID); oerr != nil {
			log.Printf("[webhook] oracle posting for %s failed: %v", requestID, oerr)
		} else if _, uerr := cfg.Ledger.Update(requestID, func(r *ledger.Row) {
			r.JournalEntryIDs = append(r.JournalEntryIDs, journalID)
		}); uerr != nil {
			log.Printf("[webhook] ledger journal link for %s: %v", requestID, uerr)
		}
	}

	// Receipt email, best-effort.
	if cfg.Mail != nil && intent.ReceiptEmail != "" {
		if merr := cfg.Mail.SendReceipt(ctx, intent.ReceiptEmail, amountUSD, orderID, row.SfiatBurnTx, row.Payload.MerchantID); merr != nil {
			log.Printf("[webhook] receipt email for %s failed: %v", orderID, merr)
		}
	}
}

// settleBurn burns sFIAT from the payer's wallet and records the outcome on
// the ledger row.
func settleBurn(ctx context.Context, cfg HandlerConfig, requestID string, row ledger.Row) {
	if cfg.Tokens == nil || !cfg.Cfg.BurnConfigured() {
		log.Printf("[webhook] skipping on-chain burn for %s (missing config)", requestID)
		if _, err := cfg.Ledger.Update(requestID, func(r *ledger.Row) {
			r.Status = ledger.StatusSettlementCompletedNoBurn
		}); err != nil {
			log.Printf("[webhook] ledger update for %s: %v", requestID, err)
		}
		return
	}

	txHash, err := cfg.Tokens.BurnSFIATFrom(ctx, row.Payload.Wallet, row.Payload.Amount)
	if err != nil {
		log.Printf("[webhook] settlement burn for %s failed: %v", requestID, err)
		if _, uerr := cfg.Ledger.Update(requestID, func(r *ledger.Row) {
			r.Status = ledger.StatusPaidBurnFailed
			r.BurnError = err.Error()
		}); uerr != nil {
			log.Printf("[webhook] ledger update for %s: %v", requestID, uerr)
		}
		return
	}

	if _, uerr := cfg.Ledger.Update(requestID, func(r *ledger.Row) {
		r.Status = ledger.StatusSettlementCompleted
		r.SfiatBurnTx = txHash
	}); uerr != nil {
		log.Printf("[webhook] ledger update for %s: %v", requestID, uerr)
	}
}
