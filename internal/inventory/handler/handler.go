// Package handler exposes the inventory service over HTTP.
package handler

import (
	"github.com/linoprint/inkstock-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// parseDecimal parses a decimal field from a request body. Quantities
// travel as strings so clients never lose precision to float rounding.
func parseDecimal(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Validation(map[string]string{
			field: "must be a decimal number",
		})
	}
	if d.Sign() < 0 {
		return decimal.Zero, errors.Validation(map[string]string{
			field: "must not be negative",
		})
	}
	return d, nil
}
