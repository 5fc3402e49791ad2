// Package core provides money parsing and handling utilities.
//
// Amounts are signed: the sign alone decides whether a transaction is income
// or an expense. Display formatting is fixed to German-locale Euro amounts and
// does not follow the UI language.
package core

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// EuroSuffix follows the amount in de-DE currency formatting.
const EuroSuffix = " €"

var eurPrinter = message.NewPrinter(language.German)

// ParseAmount converts user input into a signed, non-zero amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional sign. Returns ErrInvalidAmount for empty, non-numeric, infinite or
// zero input.
//
// Examples:
//   ParseAmount("-3.50") -> -3.5, nil
//   ParseAmount("2000")  -> 2000, nil
//   ParseAmount("12,34") -> 12.34, nil
//   ParseAmount("0")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if err := ValidateAmount(v); err != nil {
		return 0, err
	}
	return v, nil
}

// FormatEUR renders an amount the way de-DE currency formatting does,
// e.g. 1996.5 -> "1.996,50 €" and -3.5 -> "-3,50 €".
func FormatEUR(amount float64) string {
	return eurPrinter.Sprint(number.Decimal(amount, number.Scale(2))) + EuroSuffix
}
