// Package core provides the Orbit domain model and money handling.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between pence and pound representations.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToPence converts a decimal string to pence with half-up
// rounding on the third decimal place. It accepts both dot (12.34) and
// comma (12,34) separators and rejects signs, so it is suitable for
// request DTO amounts which must always be positive.
//
// Examples:
//
//	ParseDecimalToPence("12.34")  -> 1234, nil
//	ParseDecimalToPence("12,34")  -> 1234, nil
//	ParseDecimalToPence("12.345") -> 1235, nil (rounds up)
func ParseDecimalToPence(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	pence, err := parseUnsignedPence(s)
	if err != nil {
		return 0, err
	}
	if pence <= 0 {
		return 0, ErrInvalidAmount
	}
	return pence, nil
}

// ParseSignedPence converts a bank-supplied decimal string to pence,
// preserving sign. Bank feeds report credits as positive and debits as
// negative, so callers inspect the sign before normalizing.
func ParseSignedPence(s string) (int64, error) {
	s = strings.TrimSpace(s)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	pence, err := parseUnsignedPence(s)
	if err != nil {
		return 0, err
	}
	if neg {
		return -pence, nil
	}
	return pence, nil
}

func parseUnsignedPence(s string) (int64, error) {
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100.
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take the first two fractional digits, half-up rounding on the third.
	var fracPence int64
	if len(fracPart) > 0 {
		fracPence = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracPence += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracPence++
			}
		}
	}
	return iv*100 + fracPence, nil
}

// FormatPounds formats pence as a pound string, e.g. "£12.34".
func FormatPounds(pence int64) string {
	neg := pence < 0
	if neg {
		pence = -pence
	}
	s := strconv.FormatInt(pence/100, 10) + "." + pad2(pence%100)
	if neg {
		return "-£" + s
	}
	return "£" + s
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
