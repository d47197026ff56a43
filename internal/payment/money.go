package payment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	// Plain positional decimals only: no sign, exponent or unbounded digits.
	amountPattern = regexp.MustCompile(`^\d{1,18}(\.\d{1,18})?$`)
)

// SupportedCurrencies lists the ISO 4217 codes the hosted checkout accepts.
var SupportedCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "CAD": {}, "MXN": {},
	"JMD": {}, "TTD": {}, "BBD": {}, "BSD": {}, "BZD": {},
	"XCD": {}, "KYD": {}, "DOP": {}, "CRC": {}, "GTQ": {},
	"HNL": {}, "NIO": {}, "PAB": {}, "COP": {}, "PEN": {},
	"CLP": {}, "UYU": {}, "GYD": {}, "SRD": {}, "AWG": {},
	"ANG": {}, "HTG": {},
}

// ParseAmount accepts a non-negative decimal string with at most two
// fractional digits and returns it rendered with exactly two.
func ParseAmount(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	if strings.HasPrefix(raw, "-") {
		return "", fmt.Errorf("%w: negative", ErrInvalidAmount)
	}
	if !amountPattern.MatchString(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if !d.Equal(d.Truncate(2)) {
		return "", fmt.Errorf("%w: more than two decimal places", ErrInvalidAmount)
	}
	return d.StringFixed(2), nil
}

// ParseCurrency upper-cases and checks the code against SupportedCurrencies.
func ParseCurrency(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !currencyPattern.MatchString(code) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, raw)
	}
	if _, ok := SupportedCurrencies[code]; !ok {
		return "", fmt.Errorf("%w: %s not supported", ErrInvalidCurrency, code)
	}
	return code, nil
}
