package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
)

var zeroDecimalCurrencies = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {}, "kmf": {}, "krw": {}, "mga": {},
	"pyg": {}, "rwf": {}, "ugx": {}, "vnd": {}, "vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}

var threeDecimalCurrencies = map[string]struct{}{
	"bhd": {}, "jod": {}, "kwd": {}, "omr": {}, "tnd": {},
}

// MinorUnitExponent returns the number of decimal places of a currency.
func MinorUnitExponent(currency string) int32 {
	currency = strings.ToLower(currency)
	if _, ok := zeroDecimalCurrencies[currency]; ok {
		return 0
	}
	if _, ok := threeDecimalCurrencies[currency]; ok {
		return 3
	}
	return 2
}

// ToMinorUnits converts a major-unit amount into the smallest currency unit,
// rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	minor := amount.Shift(MinorUnitExponent(currency)).Round(0)
	if !minor.IsPositive() {
		return 0, fmt.Errorf("%w: payable amount must be positive, got %s %s", domainErrors.ErrValidation, amount, currency)
	}
	return minor.IntPart(), nil
}
