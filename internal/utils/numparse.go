package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// amountPattern matches a number with optional thousands separators, an
// optional decimal part and an optional magnitude suffix ("800k", "1.5m",
// "2 million").
var amountPattern = regexp.MustCompile(`(?i)^([\d]{1,3}(?:,\d{3})*|\d+)(\.\d+)?\s*(k|thousand|m|mn|million)?$`)

// ParseAmount parses a human-written money amount like "2,000,000",
// "1.5m", "800k" or "2 million" into a plain float. Returns false when the
// text is not a recognizable amount.
func ParseAmount(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	numeric := strings.ReplaceAll(m[1], ",", "") + m[2]
	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, false
	}

	switch strings.ToLower(m[3]) {
	case "k", "thousand":
		value *= 1_000
	case "m", "mn", "million":
		value *= 1_000_000
	}

	return value, true
}

// ParseCount parses a small integer count like "3" from extracted text.
func ParseCount(text string) (int, bool) {
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// NormalizeText lowercases text and collapses runs of whitespace, so two
// incidentally different spellings of the same query compare equal.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
