package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sovrlabs/checkout-gateway/internal/aws"
	"github.com/sovrlabs/checkout-gateway/internal/checkout"
	"github.com/sovrlabs/checkout-gateway/internal/idempotency"
	"github.com/sovrlabs/checkout-gateway/internal/validation"
)

// checkoutHandler runs the checkout sequence for POST /api/checkout.
func checkoutHandler(cfg HandlerConfig) gin.HandlerFunc {
	v := validation.New()

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// Required server configuration is checked before any work: a
		// misconfigured gateway must not half-run a payment.
		var missing []string
		if cfg.Cfg.EventStoreBase == "" {
			missing = append(missing, "EVENTSTORE_BASE")
		}
		if cfg.Cfg.StripeSecretKey == "" {
			missing = append(missing, "STRIPE_SECRET_KEY")
		}
		if len(missing) > 0 {
			log.Printf("[checkout] %v", &checkout.ConfigError{Missing: missing})
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Gateway not configured correctly."})
			return
		}

		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body"})
			return
		}

		var req validation.CheckoutRequest
		if err := validation.BindBody(c, body, &req, v); err != nil {
			// BindBody already wrote a 400
			cfg.Metrics.CountOutcome(ctx, aws.MetricCheckoutRejected)
			return
		}

		key := idempotency.DeriveKey(req.IdempotencyKey, body)

		result, err := cfg.Sequencer.Run(ctx, checkout.FromValidated(req, key))
		if err != nil {
			if errors.Is(err, checkout.ErrDuplicateRequest) {
				cfg.Metrics.CountOutcome(ctx, aws.MetricCheckoutDuplicate)
				c.JSON(http.StatusConflict, gin.H{
					"error":           "Duplicate request",
					"idempotency_key": key,
				})
				return
			}
			log.Printf("[checkout] order %s failed: %v", req.OrderID, err)
			cfg.Metrics.CountOutcome(ctx, aws.MetricCheckoutFailed)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		cfg.Metrics.CountOutcome(ctx, aws.MetricCheckoutAccepted)
		resp := gin.H{
			"ok":              true,
			"order_id":        result.OrderID,
			"clientSecret":    result.ClientSecret,
			"paymentIntentId": result.PaymentIntentID,
		}
		if len(result.JournalIDs) > 0 {
			resp["oracleJournalIds"] = result.JournalIDs
		}
		c.JSON(http.StatusOK, resp)
	}
}
