package service

import "strings"

var pakistanNames = map[string]struct{}{
	"pakistan":                     {},
	"pk":                           {},
	"pak":                          {},
	"islamic republic of pakistan": {},
}

// CurrencyForCountry maps a country name or code to PKR for Pakistan and USD otherwise
func CurrencyForCountry(name string) string {
	if _, ok := pakistanNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return "PKR"
	}
	return "USD"
}

// currencyForCountryCode applies the same rule to ISO country codes from geo-IP
func currencyForCountryCode(code string) string {
	if strings.EqualFold(code, "PK") {
		return "PKR"
	}
	return "USD"
}
