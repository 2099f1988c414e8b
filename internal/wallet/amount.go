package wallet

import (
	"fmt"
	"math"
	"strconv"
)

// ParseAmount parses a human-entered decimal amount. It rejects anything
// that is not a finite positive number.
func ParseAmount(raw string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("amount %q is not finite", raw)
	}

	if value <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %v", value)
	}

	return value, nil
}

// ToAtomic converts a human-readable amount into the asset's atomic units.
func ToAtomic(amount float64, decimals int) uint64 {
	return uint64(math.Round(amount * math.Pow10(decimals)))
}

// FromAtomic converts atomic units back into a human-readable amount.
func FromAtomic(atomic uint64, decimals int) float64 {
	return float64(atomic) / math.Pow10(decimals)
}

// FormatAmount renders an amount with trailing zeros trimmed, the way it is
// shown in prompts and confirmations.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
