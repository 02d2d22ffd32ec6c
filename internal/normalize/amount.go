package normalize

import (
	"math/big"
	"strings"
)

// ScaleAmount rescales a fixed-point integer string by 10^decimals and
// returns the plain decimal string with trailing zeros trimmed, so
// "1000000" at 6 decimals is exactly "1". It is a total function: when the
// input is not a plain non-negative integer string or decimals is negative,
// it reports ok=false and the caller keeps the raw value unchanged.
func ScaleAmount(raw string, decimals int64) (string, bool) {
	if decimals < 0 || !isIntegerString(raw) {
		return "", false
	}
	if decimals == 0 {
		return raw, true
	}

	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return "", false
	}

	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil)
	text := new(big.Rat).SetFrac(value, denom).FloatString(int(decimals))
	if strings.Contains(text, ".") {
		text = strings.TrimRight(text, "0")
		text = strings.TrimRight(text, ".")
	}
	return text, true
}

func isIntegerString(input string) bool {
	if input == "" {
		return false
	}
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
