package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
)

func TestLoadAWSConfig_DefaultRegion(t *testing.T) {
	t.Setenv("AWS_REGION", "")

	cfg, err := LoadAWSConfig(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Region != "us-east-1" {
		t.Fatalf("expected default region 'us-east-1', got %s", cfg.Region)
	}
}

func TestLoadAWSConfig_RegionFromEnv(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := LoadAWSConfig(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Region != "eu-west-1" {
		t.Fatalf("region mismatch, got %s", cfg.Region)
	}
}

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, input *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, input)
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func TestMetrics_CountOutcome(t *testing.T) {
	cw := &fakeCloudWatch{}
	m := NewMetrics(cw)

	m.CountOutcome(context.Background(), MetricCheckoutAccepted)

	if len(cw.inputs) != 1 {
		t.Fatalf("expected one metric put, got %d", len(cw.inputs))
	}
	input := cw.inputs[0]
	if *input.Namespace != "CheckoutGateway" {
		t.Errorf("namespace = %s", *input.Namespace)
	}
	if len(input.MetricData) != 1 {
		t.Fatalf("expected one datum, got %d", len(input.MetricData))
	}
	datum := input.MetricData[0]
	if *datum.MetricName != MetricCheckoutAccepted || *datum.Value != 1.0 {
		t.Errorf("datum = %+v", datum)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.CountOutcome(context.Background(), MetricCheckoutFailed)

	NewMetrics(nil).CountOutcome(context.Background(), MetricCheckoutFailed)
}

func TestMetrics_EmissionErrorIsSwallowed(t *testing.T) {
	cw := &fakeCloudWatch{err: errors.New("throttled")}
	m := NewMetrics(cw)

	// Must not panic or surface the error anywhere.
	m.CountOutcome(context.Background(), MetricCheckoutDuplicate)
	if len(cw.inputs) != 1 {
		t.Fatalf("emission not attempted")
	}
}
