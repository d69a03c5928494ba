package utils

import "math"

// ToCents converts a dollar amount to an integer cent amount for the
// payment gateway. Rounds to the nearest cent to avoid float drift.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromCents converts a gateway cent amount back to dollars.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}
