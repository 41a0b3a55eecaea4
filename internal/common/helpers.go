package common

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

const (
	SOLDecimals  = 9 // SOL has 9 decimals (lamports)
	USDCDecimals = 6 // USDC has 6 decimals (micro)
	USDDecimals  = 2 // fiat cents
)

// ErrUnsupportedCurrency is returned for a currency code without a known scale
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// currencyDecimals maps supported currency codes to their minor-unit scale
var currencyDecimals = map[string]int{
	"SOL":  SOLDecimals,
	"USDC": USDCDecimals,
	"USD":  USDDecimals,
}

// CurrencyDecimals returns the number of minor-unit decimals for currency
func CurrencyDecimals(currency string) (int, error) {
	d, ok := currencyDecimals[strings.ToUpper(currency)]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnsupportedCurrency, currency)
	}
	return d, nil
}

// ToMinorUnits converts a decimal amount string to minor units of currency
// without float precision loss
// Example: ToMinorUnits("USDC", "1.5") = 1500000
func ToMinorUnits(currency, amount string) (uint64, error) {
	decimals, err := CurrencyDecimals(currency)
	if err != nil {
		return 0, err
	}
	return parseWithDecimals(amount, decimals)
}

// FromMinorUnits converts minor units of currency to a decimal string
func FromMinorUnits(currency string, value uint64) (string, error) {
	decimals, err := CurrencyDecimals(currency)
	if err != nil {
		return "", err
	}
	return formatWithDecimals(value, decimals), nil
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(24981836, 9) = "0.024981836"
func formatWithDecimals(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)
	if decimals == 0 {
		return s
	}

	// Pad with leading zeros if needed
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}

	// Insert decimal point
	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// parseWithDecimals converts decimal string to integer by removing decimal point
// Example: parseWithDecimals("0.024981836", 9) = 24981836
func parseWithDecimals(s string, decimals int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("invalid decimal format")
	}

	whole := parts[0]
	if whole == "" {
		whole = "0"
	}
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}

	// More precision than the currency supports would be silently lost
	if len(frac) > decimals {
		return 0, fmt.Errorf("too many decimal places: max %d", decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	scale := uint64(1)
	for i := 0; i < decimals; i++ {
		scale *= 10
	}

	hi, scaled := bits.Mul64(w, scale)
	if hi != 0 {
		return 0, fmt.Errorf("amount %q overflows", s)
	}

	var f uint64
	if frac != "" {
		f, err = strconv.ParseUint(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", s, err)
		}
	}

	sum, carry := bits.Add64(scaled, f, 0)
	if carry != 0 {
		return 0, fmt.Errorf("amount %q overflows", s)
	}
	return sum, nil
}
