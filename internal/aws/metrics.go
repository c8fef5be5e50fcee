package aws

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric names emitted per checkout outcome.
const (
	MetricCheckoutAccepted  = "CheckoutAccepted"
	MetricCheckoutDuplicate = "CheckoutDuplicate"
	MetricCheckoutRejected  = "CheckoutRejected"
	MetricCheckoutFailed    = "CheckoutFailed"
)

const metricNamespace = "CheckoutGateway"

// Metrics emits checkout outcome counters to CloudWatch. All emission is
// best-effort: a metrics outage must never affect a payment.
type Metrics struct {
	client CloudWatchAPI
}

// NewMetrics returns a Metrics emitter. A nil client disables emission, which
// keeps local runs and tests quiet without conditionals at call sites.
func NewMetrics(client CloudWatchAPI) *Metrics {
	return &Metrics{client: client}
}

// CountOutcome increments a single outcome counter.
func (m *Metrics) CountOutcome(ctx context.Context, metricName string) {
	if m == nil || m.client == nil {
		return
	}
	one := 1.0
	input := &cloudwatch.PutMetricDataInput{
		Namespace: awsString(metricNamespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &metricName,
				Value:      &one,
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		log.Printf("[metrics] put metric %s: %v", metricName, err)
	}
}
