package model

import (
	"fmt"
	"math"
	"strconv"
)

// ParseFils converts decimal string amounts (AED) to fils (int64).
// Use for inputs that carry amounts in major currency units
// (e.g., "99.00" = AED 99.00). Handles edge cases: empty strings,
// missing decimals, large values.
// Examples: "99.00" → 9900, "1234.56" → 123456, "" → 0
func ParseFils(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	// math.Round handles both positive and negative numbers correctly
	return int64(math.Round(f * 100))
}

// FormatAED renders a minor-unit amount as a display string, e.g.
// 9900 → "AED 99.00". Display-only; never sent to the platform.
func FormatAED(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%sAED %d.%02d", sign, minor/100, minor%100)
}
