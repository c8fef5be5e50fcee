package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"github.com/sovrlabs/checkout-gateway/internal/aws"
)

// Spill is the durable fallback for events the store would not take. Checkout
// failure events are pushed here best-effort so an operator can replay them;
// the original step error always propagates regardless of spill outcome.
type Spill struct {
	queue *aws.Publisher
}

// NewSpill returns a Spill backed by an SQS queue. A nil publisher disables
// spilling (local runs without AWS config).
func NewSpill(queue *aws.Publisher) *Spill {
	return &Spill{queue: queue}
}

// Save enqueues the undelivered event. Errors are logged, never returned: the
// spill must not introduce a second failure mode on an already-failing path.
func (s *Spill) Save(ctx context.Context, streamName, eventType string, data interface{}) {
	if s == nil || s.queue == nil {
		log.Printf("[events] no spill queue configured; dropped %s for %s", eventType, streamName)
		return
	}

	env := Envelope{EventID: uuid.NewString(), EventType: eventType, Data: data}
	body, err := json.Marshal(env)
	if err != nil {
		log.Printf("[events] marshal spilled event: %v", err)
		return
	}

	attrs := map[string]string{
		"stream":     streamName,
		"event_type": eventType,
	}
	if err := s.queue.SendMessage(ctx, string(body), attrs); err != nil {
		log.Printf("[events] spill of %s for %s failed: %v", eventType, streamName, err)
	}
}
