package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sovrlabs/checkout-gateway/internal/aws"
	"github.com/sovrlabs/checkout-gateway/internal/chain"
	"github.com/sovrlabs/checkout-gateway/internal/checkout"
	"github.com/sovrlabs/checkout-gateway/internal/config"
	"github.com/sovrlabs/checkout-gateway/internal/events"
	"github.com/sovrlabs/checkout-gateway/internal/ledger"
	"github.com/sovrlabs/checkout-gateway/internal/mail"
	"github.com/sovrlabs/checkout-gateway/internal/oracle"
)

// HandlerConfig groups dependencies for the gateway routes.
type HandlerConfig struct {
	Cfg       config.Config
	Sequencer *checkout.Sequencer
	Events    events.Publisher // strict; the webhook path wraps it leniently
	Tokens    chain.TokenClient
	Ledger    *ledger.Store
	Oracle    *oracle.Ledger
	Mail      *mail.Client
	Metrics   *aws.Metrics
}

// Register wires every gateway route onto the engine.
func Register(r *gin.Engine, cfg HandlerConfig) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/checkout", checkoutHandler(cfg))
	r.POST("/api/webhooks/stripe", webhookHandler(cfg))
	r.GET("/api/oracle-ledger/balance", oracleBalanceGet(cfg))
	r.POST("/api/oracle-ledger/balance", oracleBalancePost(cfg))
}
