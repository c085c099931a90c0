// Package fixedpoint holds the Q-format constants and 512-bit multiply/divide helpers shared by
// the tick, oracle, liquidity and position math.
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// Resolution96 is the number of fractional bits in a Q64.96 value.
	Resolution96 = 96
	// Resolution128 is the number of fractional bits in a Q128.128 value.
	Resolution128 = 128
)

var (
	ErrMulDivOverflow  = errors.New("muldiv overflow")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrUint128Overflow = errors.New("uint128 overflow")
	ErrUint160Overflow = errors.New("uint160 overflow")
)

var (
	One        = uint256.NewInt(1)
	Q32        = new(uint256.Int).Lsh(uint256.NewInt(1), 32)
	Q64        = new(uint256.Int).Lsh(uint256.NewInt(1), 64)
	Q96        = new(uint256.Int).Lsh(uint256.NewInt(1), Resolution96)
	Q128       = new(uint256.Int).Lsh(uint256.NewInt(1), Resolution128)
	Q192       = new(uint256.Int).Lsh(uint256.NewInt(1), 192)
	MaxUint128 = new(uint256.Int).Sub(Q128, One)
	MaxUint160 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 160), One)
	MaxUint256 = new(uint256.Int).Not(new(uint256.Int))
)

// MulDiv returns floor(a*b/denominator) computed with a 512-bit intermediate product.
func MulDiv(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrDivisionByZero
	}
	result, overflow := new(uint256.Int).MulDivOverflow(a, b, denominator)
	if overflow {
		return nil, ErrMulDivOverflow
	}
	return result, nil
}

// MulDivRoundingUp returns ceil(a*b/denominator).
func MulDivRoundingUp(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	result, err := MulDiv(a, b, denominator)
	if err != nil {
		return nil, err
	}
	if new(uint256.Int).MulMod(a, b, denominator).IsZero() {
		return result, nil
	}
	if result.Eq(MaxUint256) {
		return nil, ErrMulDivOverflow
	}
	return result.AddUint64(result, 1), nil
}

// ToUint128 returns x unchanged when it fits in 128 bits.
func ToUint128(x *uint256.Int) (*uint256.Int, error) {
	if x.Gt(MaxUint128) {
		return nil, ErrUint128Overflow
	}
	return x, nil
}

// ToUint160 returns x unchanged when it fits in 160 bits.
func ToUint160(x *uint256.Int) (*uint256.Int, error) {
	if x.Gt(MaxUint160) {
		return nil, ErrUint160Overflow
	}
	return x, nil
}

// WrapUint160 reduces x modulo 2^160, matching uint160 overflow semantics.
func WrapUint160(x *uint256.Int) *uint256.Int {
	return new(uint256.Int).And(x, MaxUint160)
}

// FromDecimal parses a base-10 string into a 256-bit value.
func FromDecimal(s string) (*uint256.Int, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok || b.Sign() < 0 {
		return nil, fmt.Errorf("invalid uint256: %q", s)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("uint256 overflow: %s", s)
	}
	return v, nil
}

// MustFromDecimal is FromDecimal for package-level constants.
func MustFromDecimal(s string) *uint256.Int {
	v, err := FromDecimal(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders x in base 10.
func String(x *uint256.Int) string {
	if x == nil {
		return "0"
	}
	return x.ToBig().String()
}
