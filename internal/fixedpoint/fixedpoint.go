// Package fixedpoint holds the integer-only arithmetic shared by the pool
// engine. Every division truncates toward zero.
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

const (
	// Decimals is the number of fractional digits of every internal amount.
	Decimals = 6
	// BasisPoints is the denominator of every fee and limit rate.
	BasisPoints uint64 = 10_000
)

var (
	ErrOverflow       = errors.New("arithmetic overflow")
	ErrDivisionByZero = errors.New("division by zero")
	ErrInvalidBps     = errors.New("basis points exceed 10000")
	ErrInvalidNumber  = errors.New("invalid number")
)

var bpsDenominator = uint256.NewInt(BasisPoints)

// MulDiv returns floor(a*b/denom) using a 512-bit intermediate product.
func MulDiv(a, b, denom *uint256.Int) (*uint256.Int, error) {
	if denom.IsZero() {
		return nil, ErrDivisionByZero
	}
	out, overflow := new(uint256.Int).MulDivOverflow(a, b, denom)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// ApplyBps returns floor(amount*bps/10000).
func ApplyBps(amount *uint256.Int, bps uint64) (*uint256.Int, error) {
	if bps > BasisPoints {
		return nil, ErrInvalidBps
	}
	return MulDiv(amount, uint256.NewInt(bps), bpsDenominator)
}

// ApplyFeeComplement returns floor(amount*(10000-feeBps)/10000), the part of
// amount left after a fee of feeBps.
func ApplyFeeComplement(amount *uint256.Int, feeBps uint64) (*uint256.Int, error) {
	if feeBps > BasisPoints {
		return nil, ErrInvalidBps
	}
	return MulDiv(amount, uint256.NewInt(BasisPoints-feeBps), bpsDenominator)
}

// Add returns a+b or ErrOverflow.
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// Mul returns a*b or ErrOverflow.
func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// Pow10 returns 10^exp.
func Pow10(exp uint8) (*uint256.Int, error) {
	out := uint256.NewInt(1)
	ten := uint256.NewInt(10)
	for i := uint8(0); i < exp; i++ {
		if _, overflow := out.MulOverflow(out, ten); overflow {
			return nil, ErrOverflow
		}
	}
	return out, nil
}

// Parse reads a base-10 integer string into a 256-bit unsigned value.
func Parse(value string) (*uint256.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidNumber)
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidNumber, value)
	}
	if parsed.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative %s", ErrInvalidNumber, value)
	}
	out, overflow := uint256.FromBig(parsed)
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrOverflow, value)
	}
	return out, nil
}

// Format renders v in base 10. A nil value renders as "0".
func Format(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.ToBig().String()
}

// FromUnits converts a whole-unit count into internal precision, e.g.
// FromUnits(120) is 120_000_000.
func FromUnits(units uint64) *uint256.Int {
	scale, _ := Pow10(Decimals)
	return new(uint256.Int).Mul(uint256.NewInt(units), scale)
}
