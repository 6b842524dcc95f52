// Package utils provides small helpers for reading request parameters.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
//
//	utils.AtoiDefault("42", 0) // 42
//	utils.AtoiDefault("", 10)  // 10
//	utils.AtoiDefault("x", 5)  // 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Clamp bounds n to [lo, hi].
func Clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
