package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/sovrlabs/checkout-gateway/internal/attest"
	"github.com/sovrlabs/checkout-gateway/internal/aws"
	"github.com/sovrlabs/checkout-gateway/internal/chain"
	"github.com/sovrlabs/checkout-gateway/internal/checkout"
	"github.com/sovrlabs/checkout-gateway/internal/config"
	"github.com/sovrlabs/checkout-gateway/internal/events"
	"github.com/sovrlabs/checkout-gateway/internal/handlers"
	"github.com/sovrlabs/checkout-gateway/internal/idempotency"
	"github.com/sovrlabs/checkout-gateway/internal/ledger"
	"github.com/sovrlabs/checkout-gateway/internal/mail"
	"github.com/sovrlabs/checkout-gateway/internal/oracle"
	"github.com/sovrlabs/checkout-gateway/internal/payments"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	handlers.Register(r, cfg)

	return r
}

func main() {
	ctx := context.Background()
	cfg := config.Load()

	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	// Duplicate guard: process-local by default, DynamoDB-backed when a table
	// is configured (multi-instance deployments).
	var guard idempotency.Guard
	if cfg.IdempotencyTable != "" {
		guard = idempotency.NewDynamoGuard(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyWindow)
	} else {
		guard = idempotency.NewMemoryGuard(cfg.IdempotencyWindow)
	}

	var spill *events.Spill
	if cfg.EventSpillQueueURL != "" {
		spill = events.NewSpill(aws.NewPublisher(clients.SQS, cfg.EventSpillQueueURL))
	}

	eventStore := events.NewClient(cfg.EventStoreBase, cfg.EventStoreAPIKey, &http.Client{Timeout: 10 * time.Second})

	tokens, err := chain.NewClient(cfg.RPCURL, cfg.OperatorPrivateKey, cfg.POSCRAddress, cfg.SFIATAddress)
	if err != nil {
		if errors.Is(err, chain.ErrNotConfigured) {
			log.Printf("[main] chain client not configured; token steps will be rejected")
		} else {
			log.Fatalf("failed to init chain client: %v", err)
		}
		tokens = nil
	}

	oracleLedger, err := oracle.NewLedger()
	if err != nil {
		log.Fatalf("failed to init oracle ledger: %v", err)
	}

	ledgerStore := ledger.NewStore(cfg.LedgerPath)

	sequencer := &checkout.Sequencer{
		Guard:        guard,
		Events:       eventStore,
		Payments:     payments.NewStripeClient(cfg.StripeSecretKey, &http.Client{Timeout: 30 * time.Second}),
		Ledger:       ledgerStore,
		Attestor:     attest.NewClient(cfg.AttestorURL, nil),
		Spill:        spill,
		StreamPrefix: cfg.EventStreamPrefix,
	}
	if tokens != nil {
		sequencer.Tokens = tokens
	}

	hcfg := handlers.HandlerConfig{
		Cfg:       cfg,
		Sequencer: sequencer,
		Events:    eventStore,
		Ledger:    ledgerStore,
		Oracle:    oracleLedger,
		Mail:      mail.NewClient(cfg.ResendAPIKey, nil),
		Metrics:   aws.NewMetrics(clients.CloudWatch),
	}
	if tokens != nil {
		hcfg.Tokens = tokens
	}

	r := setupRouter(hcfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req lambdaevents.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
