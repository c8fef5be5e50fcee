package idempotency

import (
	"context"
	"time"
)

// Guard suppresses duplicate checkout submissions within a time window.
// Implementations must be safe for concurrent use.
//
// IsDuplicate returns true when the key was already accepted inside the
// window; duplicates do NOT refresh the stored timestamp. On the accept path
// the current time is recorded unconditionally, so a repeat call after expiry
// starts a fresh window.
type Guard interface {
	IsDuplicate(ctx context.Context, key string) (bool, error)
}

// MaxEntries bounds the in-memory guard; once exceeded, the single
// oldest-inserted entry is evicted.
const MaxEntries = 10000

// GuardRecord is the shape persisted in the DynamoDB guard table.
type GuardRecord struct {
	IdempotencyKey string    `dynamodbav:"idempotency_key"` // PK
	AcceptedAt     time.Time `dynamodbav:"accepted_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}
