package service

import (
	"fmt"
	"math"
)

// FormatCurrency $1.23T / $4.56B / $7.89M / $12.34.
func FormatCurrency(v float64) string {
	switch a := math.Abs(v); {
	case a >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case a >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case a >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

// FormatPrice для дешёвых монет оставляет больше знаков.
func FormatPrice(v float64) string {
	if math.Abs(v) < 1 && v != 0 {
		return fmt.Sprintf("$%.4f", v)
	}
	return fmt.Sprintf("$%.2f", v)
}

// FormatChange ↑2.50% / ↓1.20%.
func FormatChange(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("↑%.2f%%", pct)
	}
	return fmt.Sprintf("↓%.2f%%", -pct)
}
