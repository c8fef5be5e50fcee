package validation

import (
	"math"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for CheckoutRequest to catch amounts
	// with sub-cent precision before they reach the payment processor.
	v.RegisterStructValidation(checkoutStructValidation, CheckoutRequest{})

	return v
}

// checkoutStructValidation rejects USD amounts that do not land on a whole
// number of cents, since the payment intent is created in integer cents.
func checkoutStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CheckoutRequest)

	cents := req.AmountUSD * 100
	if math.Abs(cents-math.Round(cents)) > 1e-9 {
		sl.ReportError(req.AmountUSD, "amount_usd", "AmountUSD", "whole_cents", "")
	}
}
