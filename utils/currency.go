package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatCurrency formats amount with the given symbol, comma thousands and two decimals.
// Example: 1234.5, "$" -> "$1,234.50"
func FormatCurrency(amount float64, symbol string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	cents := int64(math.Round(amount * 100))
	integerPart := fmt.Sprintf("%d", cents/100)
	decimalPart := fmt.Sprintf("%02d", cents%100)

	// pemisah ribuan
	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	return sign + symbol + strings.Join(groups, ",") + "." + decimalPart
}
