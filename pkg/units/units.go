// Package units converts between human-readable token amounts and the
// integer smallest-unit representation that on-chain calls require.
package units

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Parse converts a human amount like "0.1" into the token's smallest unit,
// scaled by 10^decimals. The conversion is exact: amounts with more
// fractional digits than the token carries are rejected rather than rounded.
func Parse(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid amount %q: must not be negative", amount)
	}

	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", amount, decimals)
	}

	return scaled.BigInt(), nil
}

// Format renders a smallest-unit amount as a human decimal string.
func Format(v *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(v, -decimals).String()
}

// FormatString is Format for amounts that arrive as decimal strings, as the
// aggregator returns them. Malformed input is passed through unchanged so a
// display path never fails on upstream data.
func FormatString(v string, decimals int32) string {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return v
	}
	return d.Shift(-decimals).String()
}
