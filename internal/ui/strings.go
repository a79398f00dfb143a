package ui

import (
	"fmt"
	"strings"
)

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// padRight pads a string with spaces to the given width.
func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(r))
}

// formatPrice renders an amount in Egyptian pounds without trailing zeros.
func formatPrice(amount float64) string {
	if amount == float64(int64(amount)) {
		return fmt.Sprintf("%d EGP", int64(amount))
	}
	return fmt.Sprintf("%.2f EGP", amount)
}

// stars renders a 0-5 rating as filled and empty stars.
func stars(rating float64) string {
	filled := int(rating + 0.5)
	filled = max(0, min(filled, 5))
	return strings.Repeat("★", filled) + strings.Repeat("☆", 5-filled)
}

// plural picks the singular or plural noun for n.
func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// ternary returns a if cond is true, otherwise b.
func ternary(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

// clamp bounds idx to a list of n entries.
func clamp(idx, n int) int {
	if n <= 0 {
		return 0
	}
	return max(0, min(idx, n-1))
}
