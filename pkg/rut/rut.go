// Package rut validates and normalizes Chilean RUT identifiers
// (e.g. "12.345.678-5"). A RUT is a 7-8 digit number plus a mod-11 check
// digit, where the check digit may be "K". Normalized RUTs (no dots, upper
// case) are what the store indexes, so equivalent spellings of the same
// document map to the same row.
package rut

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var shapePattern = regexp.MustCompile(`^\d{7,8}-[\dK]$`)

// Normalize strips dots and spaces and upper-cases the check digit.
// It does not validate; pass the result to Valid.
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

// Valid reports whether normalized is a well-formed RUT with a correct
// mod-11 check digit. The input must already be normalized.
func Valid(normalized string) bool {
	if !shapePattern.MatchString(normalized) {
		return false
	}
	parts := strings.SplitN(normalized, "-", 2)
	return CheckDigit(parts[0]) == parts[1]
}

// CheckDigit computes the mod-11 check digit for the numeric part of a RUT.
// Returns "0"-"9" or "K".
func CheckDigit(number string) string {
	sum := 0
	factor := 2
	for i := len(number) - 1; i >= 0; i-- {
		sum += int(number[i]-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	switch rem := 11 - sum%11; rem {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return string(rune('0' + rem))
	}
}

// Hash returns the hex-encoded SHA-256 of a normalized RUT. Beneficiary data
// is confidential; logs and exports reference this hash, never the RUT itself.
func Hash(normalized string) string {
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])
}
