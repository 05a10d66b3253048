package x402

import (
	"strconv"
	"strings"
)

// AmountDecimals is the fixed scale of the supported stable asset: amount
// strings carry at most six fractional digits and convert to integer minor
// units at 10^6 per display unit.
const AmountDecimals = 6

const minorUnitsPerToken = 1_000_000

// ParseAmount converts a decimal amount string in display units to integer
// minor units. Money is never represented as a float: the conversion is pure
// string fixed-point arithmetic. Non-numeric input, negative values and more
// than AmountDecimals fractional digits are rejected.
func ParseAmount(amount string) (uint64, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return 0, NewError(KindInvalidPaymentRequest, "invalid amount %q: empty", amount)
	}
	if strings.HasPrefix(s, "-") {
		return 0, NewError(KindInvalidPaymentRequest, "invalid amount %q: negative", amount)
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if hasFrac && fracPart == "" {
		return 0, NewError(KindInvalidPaymentRequest, "invalid amount %q: missing fractional digits", amount)
	}
	if intPart == "" {
		if !hasFrac {
			return 0, NewError(KindInvalidPaymentRequest, "invalid amount %q: not a number", amount)
		}
		intPart = "0"
	}
	if len(fracPart) > AmountDecimals {
		return 0, NewError(KindInvalidPaymentRequest,
			"invalid amount %q: more than %d fractional digits", amount, AmountDecimals)
	}

	units, err := strconv.ParseUint(intPart, 10, 64)
	if err != nil {
		return 0, WrapError(KindInvalidPaymentRequest, err, "invalid amount %q: not a number", amount)
	}

	var frac uint64
	if hasFrac {
		// Right-pad to the full scale so "0.1" and "0.100000" agree.
		padded := fracPart + strings.Repeat("0", AmountDecimals-len(fracPart))
		frac, err = strconv.ParseUint(padded, 10, 64)
		if err != nil {
			return 0, WrapError(KindInvalidPaymentRequest, err, "invalid amount %q: not a number", amount)
		}
	}

	if units > (^uint64(0)-frac)/minorUnitsPerToken {
		return 0, NewError(KindInvalidPaymentRequest, "invalid amount %q: overflows minor units", amount)
	}
	return units*minorUnitsPerToken + frac, nil
}

// FormatAmount converts integer minor units back to a decimal display string.
// Trailing fractional zeros are trimmed; whole amounts render without a dot.
func FormatAmount(minorUnits uint64) string {
	units := minorUnits / minorUnitsPerToken
	frac := minorUnits % minorUnitsPerToken
	if frac == 0 {
		return strconv.FormatUint(units, 10)
	}

	fracStr := strconv.FormatUint(frac, 10)
	fracStr = strings.Repeat("0", AmountDecimals-len(fracStr)) + fracStr
	fracStr = strings.TrimRight(fracStr, "0")
	return strconv.FormatUint(units, 10) + "." + fracStr
}
