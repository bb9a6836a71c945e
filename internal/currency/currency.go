// Package currency holds the currencies a group can keep its books in.
package currency

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// Currency describes a currency for display.
type Currency struct {
	Code   string
	Name   string
	Symbol string
}

// Default is used when a group does not name a currency.
const Default = "EUR"

var supported = []Currency{
	{Code: "EUR", Name: "Euro", Symbol: "€"},
	{Code: "USD", Name: "US Dollar", Symbol: "$"},
	{Code: "GBP", Name: "British Pound", Symbol: "£"},
	{Code: "CHF", Name: "Swiss Franc", Symbol: "CHF"},
	{Code: "CAD", Name: "Canadian Dollar", Symbol: "C$"},
	{Code: "JPY", Name: "Japanese Yen", Symbol: "¥"},
	{Code: "AUD", Name: "Australian Dollar", Symbol: "A$"},
	{Code: "SEK", Name: "Swedish Krona", Symbol: "kr"},
	{Code: "NOK", Name: "Norwegian Krone", Symbol: "kr"},
	{Code: "DKK", Name: "Danish Krone", Symbol: "kr"},
}

var byCode = func() map[string]Currency {
	m := make(map[string]Currency, len(supported))
	for _, c := range supported {
		m[c.Code] = c
	}
	return m
}()

// Supported returns the listed currencies in display order.
func Supported() []Currency {
	out := make([]Currency, len(supported))
	copy(out, supported)
	return out
}

// Lookup resolves an ISO 4217 code. Codes that are valid but not listed
// resolve to a Currency whose symbol is the code itself.
func Lookup(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if c, ok := byCode[code]; ok {
		return c, nil
	}

	unit, err := currency.ParseISO(code)
	if err != nil {
		return Currency{}, fmt.Errorf("unknown currency %q: %w", code, err)
	}
	return Currency{Code: unit.String(), Name: unit.String(), Symbol: unit.String()}, nil
}

// Symbol returns the display symbol for code, or code itself when unknown.
func Symbol(code string) string {
	c, err := Lookup(code)
	if err != nil {
		return code
	}
	return c.Symbol
}

// Digits returns the number of minor digits code is displayed with, per
// CLDR (0 for JPY, 2 for EUR). Unknown codes use two.
func Digits(code string) int {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}
