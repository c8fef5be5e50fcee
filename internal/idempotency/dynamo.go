package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/smithy-go"

	"github.com/sovrlabs/checkout-gateway/internal/aws"
)

// DynamoGuard is a duplicate guard backed by a shared DynamoDB table, for
// deployments with more than one gateway instance. Entries expire via the
// table's TTL attribute; the TTL window doubles as the duplicate window.
type DynamoGuard struct {
	client    aws.DynamoDBAPI
	tableName string
	window    time.Duration
	nowFunc   func() time.Time
}

// NewDynamoGuard returns a guard bound to a table whose partition key is
// idempotency_key and whose TTL attribute is expires_at.
func NewDynamoGuard(client aws.DynamoDBAPI, tableName string, window time.Duration) *DynamoGuard {
	return &DynamoGuard{
		client:    client,
		tableName: tableName,
		window:    window,
		nowFunc:   time.Now,
	}
}

// IsDuplicate implements Guard with a conditional PutItem: the write succeeds
// only when no live record exists, making the check-then-set pair atomic
// across instances. An existing but expired record is overwritten so the
// window restarts, matching the in-memory guard.
func (g *DynamoGuard) IsDuplicate(ctx context.Context, key string) (bool, error) {
	now := g.nowFunc()
	rec := GuardRecord{
		IdempotencyKey: key,
		AcceptedAt:     now,
		ExpiresAt:      now.Add(g.window).Unix(),
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal guard record: %w", err)
	}

	exprNames := map[string]string{"#exp": "expires_at"}
	exprValues, err := attributevalue.MarshalMap(map[string]interface{}{
		":now": now.Unix(),
	})
	if err != nil {
		return false, fmt.Errorf("marshal condition values: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName: &g.tableName,
		Item:      item,
		// Accept when the key is absent or its window has lapsed. DynamoDB TTL
		// deletion is lazy, so the expiry check cannot rely on TTL alone.
		ConditionExpression:       awsString("attribute_not_exists(idempotency_key) OR #exp <= :now"),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	}

	if _, err := g.client.PutItem(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return true, nil
		}
		return false, fmt.Errorf("put guard record: %w", err)
	}
	return false, nil
}

var _ Guard = (*DynamoGuard)(nil)

// Helper
func awsString(s string) *string { return &s }
