package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	floatPrefixPattern = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*(?:[eE][+-]?\d+)?|\.\d+(?:[eE][+-]?\d+)?)`)
	intPrefixPattern   = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseFloatPrefix reads the longest leading decimal literal, ignoring
// anything after it ("40.71 N" -> 40.71). ok is false when no digits lead.
func ParseFloatPrefix(input string) (float64, bool) {
	token := floatPrefixPattern.FindString(strings.TrimSpace(input))
	if token == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseIntPrefix reads the leading base-10 integer ("2023-24" -> 2023).
func ParseIntPrefix(input string) (int, bool) {
	token := intPrefixPattern.FindString(strings.TrimSpace(input))
	if token == "" {
		return 0, false
	}
	v, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return v, true
}

// OptionalCoordinate parses a latitude or longitude cell. Zero and
// unparsable values are treated as missing.
func OptionalCoordinate(input string) *float64 {
	v, ok := ParseFloatPrefix(input)
	if !ok || v == 0 {
		return nil
	}
	return FloatPtr(v)
}

// YearOr parses a year cell, returning fallback for zero or unparsable input.
func YearOr(input string, fallback int) int {
	v, ok := ParseIntPrefix(input)
	if !ok || v == 0 {
		return fallback
	}
	return v
}
