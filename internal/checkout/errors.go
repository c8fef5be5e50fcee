package checkout

import (
	"errors"
	"fmt"
)

// ErrDuplicateRequest is returned when the idempotency guard has already
// accepted this key inside the window. Maps to 409; no side effects occurred.
var ErrDuplicateRequest = errors.New("duplicate request")

// ConfigError reports required server configuration that is absent. Detected
// before any side effect; maps to 500.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("gateway not configured correctly: missing %v", e.Missing)
}

// StepError wraps a downstream failure with the sequencer step that produced
// it. Maps to 500; a best-effort PaymentFailed event was attempted for steps
// past initiation.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
