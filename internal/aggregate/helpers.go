package aggregate

import (
	"math/big"
	"strings"

	"swapPool/internal/fixedpoint"
)

// FormatAmount renders an internal-precision integer as a decimal string.
func FormatAmount(value *big.Int) string {
	if value == nil {
		return "0"
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(fixedpoint.Decimals), nil)
	rat := new(big.Rat).SetFrac(value, denom)
	return rat.FloatString(fixedpoint.Decimals)
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func poolKey(address string) string {
	return strings.ToLower(address)
}

func minOpenSequence(acc map[string]*Accumulator) uint64 {
	var min uint64
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if min == 0 || entry.FirstSequence < min {
			min = entry.FirstSequence
		}
	}
	return min
}
