package chain

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimalAmount parses a decimal amount string to big.Int with the given decimal places.
// For example, "1.5" with 18 decimals returns 1500000000000000000.
//
//nolint:gocognit,gocyclo // Decimal parsing requires sequential validation steps
func ParseDecimalAmount(amount string, decimalPlaces int, invalidAmountErr error) (*big.Int, error) {
	if amount == "" {
		return nil, invalidAmountErr
	}

	if strings.HasPrefix(amount, "-") {
		return nil, invalidAmountErr
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return nil, invalidAmountErr
	}

	intPart := parts[0]
	decPart := ""
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if intPart == "" {
		intPart = "0"
	}
	for _, c := range intPart {
		if c < '0' || c > '9' {
			return nil, invalidAmountErr
		}
	}
	intVal, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, invalidAmountErr
	}

	multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimalPlaces)), nil)
	result := new(big.Int).Mul(intVal, multiplier)

	if decPart != "" {
		for _, c := range decPart {
			if c < '0' || c > '9' {
				return nil, invalidAmountErr
			}
		}

		// Pad or truncate to the token's precision
		for len(decPart) < decimalPlaces {
			decPart += "0"
		}
		decPart = decPart[:decimalPlaces]
		if decPart == "" {
			return result, nil
		}

		decVal, ok := new(big.Int).SetString(decPart, 10)
		if !ok {
			return nil, invalidAmountErr
		}

		result = result.Add(result, decVal)
	}

	return result, nil
}

// FormatDecimalAmount converts a big.Int to a human-readable string with the given decimal places.
// Trailing zeros after the decimal point are removed.
// For example, 1500000000000000000 with 18 decimals returns "1.5".
func FormatDecimalAmount(amount *big.Int, decimalPlaces int) string {
	if amount == nil {
		return "0"
	}
	if decimalPlaces <= 0 {
		return amount.String()
	}

	str := amount.String()

	for len(str) <= decimalPlaces {
		str = "0" + str
	}

	decimalPos := len(str) - decimalPlaces
	result := str[:decimalPos] + "." + str[decimalPos:]

	for len(result) > 1 && result[len(result)-1] == '0' && result[len(result)-2] != '.' {
		result = result[:len(result)-1]
	}

	return result
}

// FormatDisplayAmount converts base units to a display string rounded to
// places fractional digits, e.g. 1500000000000000000 at 18 decimals and 4
// places returns "1.5000".
func FormatDisplayAmount(amount *big.Int, decimalPlaces, places int) string {
	if amount == nil {
		return decimal.Zero.StringFixed(int32(places)) //nolint:gosec // places is a small display constant
	}
	d := decimal.NewFromBigInt(amount, -int32(decimalPlaces)) //nolint:gosec // decimals bounded by validation
	return d.StringFixed(int32(places))                       //nolint:gosec // places is a small display constant
}

// FormatBalance formats a native balance for display.
func FormatBalance(amount *big.Int) string {
	return FormatDisplayAmount(amount, NativeDecimals, DisplayPlaces)
}

// CompareDisplay compares a base-unit amount against a display string at the
// given decimals. It returns -1, 0, or 1 like big.Int.Cmp. A display value
// that fails to parse compares as zero.
func CompareDisplay(amount *big.Int, display string, decimalPlaces int) int {
	d, err := decimal.NewFromString(display)
	if err != nil {
		d = decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimalPlaces)).Cmp(d) //nolint:gosec // decimals bounded by validation
}
