package domain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"card-terminal/pkg/apperror"

	"github.com/shopspring/decimal"
)

// zeroDecimalCurrencies have no minor unit: 100 JPY is charged as 100.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true,
	"kmf": true, "krw": true, "mga": true, "pyg": true, "rwf": true,
	"vnd": true, "vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// CurrencyExponent returns the number of minor-unit digits for currency.
func CurrencyExponent(currency string) int32 {
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return 0
	}
	return 2
}

// Amount is a monetary amount in the smallest unit of its currency.
// The zero value is not a valid Amount; use NewAmount or AmountFromMinorUnits.
type Amount struct {
	minorUnits uint64
	currency   string
}

// NewAmount scales value by the currency exponent. Values with more
// fractional digits than the currency allows are rejected, not rounded.
func NewAmount(value decimal.Decimal, currency string) (Amount, error) {
	cur, err := normalizeCurrency(currency)
	if err != nil {
		return Amount{}, err
	}
	if value.IsNegative() {
		return Amount{}, apperror.ErrInvalidAmount("must not be negative")
	}

	scaled := value.Shift(CurrencyExponent(cur))
	if !scaled.Equal(scaled.Truncate(0)) {
		return Amount{}, apperror.ErrInvalidAmount(
			fmt.Sprintf("%s allows at most %d fractional digits", cur, CurrencyExponent(cur)))
	}

	minor := scaled.BigInt()
	if !minor.IsUint64() {
		return Amount{}, apperror.ErrInvalidAmount("out of range")
	}

	return Amount{minorUnits: minor.Uint64(), currency: cur}, nil
}

// ParseAmount parses a decimal string such as "10.50".
func ParseAmount(value, currency string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Amount{}, apperror.ErrInvalidAmount(fmt.Sprintf("%q is not a number", value))
	}
	return NewAmount(d, currency)
}

// AmountFromMinorUnits builds an Amount from an already scaled value.
func AmountFromMinorUnits(minorUnits uint64, currency string) (Amount, error) {
	cur, err := normalizeCurrency(currency)
	if err != nil {
		return Amount{}, err
	}
	return Amount{minorUnits: minorUnits, currency: cur}, nil
}

func normalizeCurrency(currency string) (string, error) {
	cur := strings.ToLower(strings.TrimSpace(currency))
	if len(cur) != 3 {
		return "", apperror.ErrInvalidAmount(fmt.Sprintf("currency %q is not a 3-letter code", currency))
	}
	for _, r := range cur {
		if r < 'a' || r > 'z' {
			return "", apperror.ErrInvalidAmount(fmt.Sprintf("currency %q is not a 3-letter code", currency))
		}
	}
	return cur, nil
}

// MinorUnits returns the amount in the smallest currency unit.
func (a Amount) MinorUnits() uint64 { return a.minorUnits }

// Currency returns the lowercase ISO 4217 code.
func (a Amount) Currency() string { return a.currency }

// IsZero reports whether the amount is zero or unset.
func (a Amount) IsZero() bool { return a.minorUnits == 0 }

// Decimal converts back to a decimal value. Exact inverse of NewAmount.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(a.minorUnits), -CurrencyExponent(a.currency))
}

func (a Amount) String() string {
	if a.currency == "" {
		return "none"
	}
	return a.Decimal().StringFixed(CurrencyExponent(a.currency)) + " " + a.currency
}

type amountJSON struct {
	Value      string `json:"value"`
	Currency   string `json:"currency"`
	MinorUnits uint64 `json:"minor_units"`
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(amountJSON{
		Value:      a.Decimal().StringFixed(CurrencyExponent(a.currency)),
		Currency:   a.currency,
		MinorUnits: a.minorUnits,
	})
}
