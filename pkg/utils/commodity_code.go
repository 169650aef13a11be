package utils

import (
	"strings"
)

// Common commodity aliases and their OilPriceAPI codes.
var commodityAliases = map[string]string{
	"WTI":              "WTI_USD",
	"WTI CRUDE":        "WTI_USD",
	"BRENT":            "BRENT_CRUDE_USD",
	"BRENT CRUDE":      "BRENT_CRUDE_USD",
	"NATGAS":           "NATURAL_GAS_USD",
	"NATURAL GAS":      "NATURAL_GAS_USD",
	"HENRY HUB":        "NATURAL_GAS_USD",
	"GASOLINE":         "GASOLINE_USD",
	"RBOB":             "GASOLINE_RBOB_USD",
	"HEATING OIL":      "HEATING_OIL_USD",
	"DIESEL":           "DIESEL_USD",
	"DUBAI":            "DUBAI_CRUDE_USD",
	"URALS":            "URALS_CRUDE_USD",
	"COAL":             "COAL_USD",
	"JET FUEL":         "JET_FUEL_USD",
	"GOLD":             "GOLD_USD",
	"EU CARBON":        "EU_CARBON_EUR",
	"TTF":              "DUTCH_TTF_EUR",
	"DUTCH TTF":        "DUTCH_TTF_EUR",
	"UK NATGAS":        "NATURAL_GAS_GBP",
	"OPEC BASKET":      "OPEC_BASKET_USD",
	"WESTERN CANADIAN": "WCS_CRUDE_USD",
}

// NormalizeCommodity normalizes a user-input commodity to its API code.
// It handles aliases, uppercasing, and whitespace.
func NormalizeCommodity(code string) string {
	code = strings.TrimSpace(strings.ToUpper(code))

	if canonical, ok := commodityAliases[code]; ok {
		return canonical
	}

	// Already a code; spaces and dashes become underscores
	return strings.NewReplacer(" ", "_", "-", "_").Replace(code)
}

// CurrencyOf returns the quote currency suffix of a commodity code, e.g. "USD" for "WTI_USD".
func CurrencyOf(code string) string {
	code = NormalizeCommodity(code)
	i := strings.LastIndexByte(code, '_')
	if i < 0 || i == len(code)-1 {
		return ""
	}
	return code[i+1:]
}
