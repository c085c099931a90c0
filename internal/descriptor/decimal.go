// Package descriptor renders pool prices, fee tiers and position names as human-readable strings.
package descriptor

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/Uniswap/v3-periphery-sub000/internal/tickmath"
)

const (
	sigfigs = 5
	// belowOneScale is the number of decimal places carried for prices below 1 before rounding.
	belowOneScale = 44
)

var ErrPriceUnderflow = errors.New("price underflows descriptor precision")

var (
	// sqrt10X128 is sqrt(10) in Q128.128.
	sqrt10X128, _ = new(big.Int).SetString("1076067327063303206878105757264492625226", 10)
	bigQ96        = new(big.Int).Lsh(big.NewInt(1), 96)
	bigQ192       = new(big.Int).Lsh(big.NewInt(1), 192)
	bigTen        = big.NewInt(10)
)

// TickToDecimalString renders the price at tick with five significant figures. The usable tick
// bounds for tickSpacing are rendered as MIN and MAX, swapped when flipRatio is set.
func TickToDecimalString(tick, tickSpacing int32, baseDecimals, quoteDecimals uint8, flipRatio bool) (string, error) {
	if tickSpacing <= 0 {
		return "", fmt.Errorf("%w: %d", tickmath.ErrInvalidTickSpacing, tickSpacing)
	}
	switch tick {
	case tickmath.MinUsableTick(tickSpacing):
		if flipRatio {
			return "MAX", nil
		}
		return "MIN", nil
	case tickmath.MaxUsableTick(tickSpacing):
		if flipRatio {
			return "MIN", nil
		}
		return "MAX", nil
	}

	sqrtRatioX96, err := tickmath.GetSqrtRatioAtTick(tick)
	if err != nil {
		return "", err
	}
	ratio := sqrtRatioX96.ToBig()
	if flipRatio {
		ratio.Quo(bigQ192, ratio)
	}
	return formatSqrtRatio(ratio, baseDecimals, quoteDecimals)
}

// FixedPointToDecimalString renders the price encoded by a Q64.96 sqrt ratio, adjusted for the
// decimals of both tokens.
func FixedPointToDecimalString(sqrtRatioX96 *uint256.Int, baseDecimals, quoteDecimals uint8) (string, error) {
	if sqrtRatioX96 == nil {
		return "", errors.New("sqrt ratio is nil")
	}
	return formatSqrtRatio(sqrtRatioX96.ToBig(), baseDecimals, quoteDecimals)
}

func formatSqrtRatio(sqrtRatioX96 *big.Int, baseDecimals, quoteDecimals uint8) (string, error) {
	adjusted := adjustForDecimalPrecision(sqrtRatioX96, baseDecimals, quoteDecimals)

	value := new(big.Int).Mul(adjusted, adjusted)
	value.Rsh(value, 64)
	priceBelowOne := adjusted.Cmp(bigQ96) < 0
	if priceBelowOne {
		value.Mul(value, pow10(belowOneScale))
	} else {
		value.Mul(value, pow10(sigfigs))
	}
	value.Rsh(value, 128)
	if value.Sign() == 0 {
		return "", ErrPriceUnderflow
	}

	digits := len(value.String()) - 1
	figures, extraDigit := roundSigfigs(value, digits)
	if extraDigit {
		digits++
	}
	s := figures.String()

	if priceBelowOne {
		if digits >= belowOneScale {
			return "1." + strings.Repeat("0", sigfigs-1), nil
		}
		return "0." + strings.Repeat("0", belowOneScale-1-digits) + s, nil
	}
	if digits >= 2*sigfigs-1 {
		return s + strings.Repeat("0", digits-(2*sigfigs-1)), nil
	}
	point := digits - (sigfigs - 1)
	return s[:point] + "." + s[point:], nil
}

// roundSigfigs keeps the leading five digits of value, rounding half up on the sixth.
// extraDigit reports that rounding carried into a new leading digit.
func roundSigfigs(value *big.Int, digits int) (*big.Int, bool) {
	v := new(big.Int).Set(value)
	if digits > sigfigs {
		v.Quo(v, pow10(digits-sigfigs))
	}
	last := new(big.Int)
	v.QuoRem(v, bigTen, last)
	if last.Int64() > 4 {
		v.Add(v, big.NewInt(1))
	}
	if v.Cmp(pow10(sigfigs)) == 0 {
		v.Quo(v, bigTen)
		return v, true
	}
	return v, false
}

// adjustForDecimalPrecision scales the sqrt ratio by sqrt(10^diff). Differences above 18 are
// left uncompensated.
func adjustForDecimalPrecision(sqrtRatioX96 *big.Int, baseDecimals, quoteDecimals uint8) *big.Int {
	diff := int(baseDecimals) - int(quoteDecimals)
	if diff < 0 {
		diff = -diff
	}
	adjusted := new(big.Int).Set(sqrtRatioX96)
	if diff == 0 || diff > 18 {
		return adjusted
	}
	if baseDecimals > quoteDecimals {
		adjusted.Mul(adjusted, pow10(diff/2))
		if diff%2 == 1 {
			adjusted.Mul(adjusted, sqrt10X128)
			adjusted.Rsh(adjusted, 128)
		}
		return adjusted
	}
	adjusted.Quo(adjusted, pow10(diff/2))
	if diff%2 == 1 {
		adjusted.Lsh(adjusted, 128)
		adjusted.Quo(adjusted, sqrt10X128)
	}
	return adjusted
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(bigTen, big.NewInt(int64(n)), nil)
}

// FeeToPercentString renders a fee in hundredths of a bip as a percentage, e.g. 3000 -> "0.3%".
func FeeToPercentString(fee uint32) string {
	return decimal.New(int64(fee), -4).String() + "%"
}
