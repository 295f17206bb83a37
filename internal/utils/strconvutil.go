// Package utils provides small, generic helpers used across layers,
// independent of domain logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int, returning def when the string is
// empty or not a valid integer.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
