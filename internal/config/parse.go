package config

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ParseAddress converts a hex address, naming the setting in the error.
func ParseAddress(name, input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid %s address: %q", name, input)
	}
	return common.HexToAddress(input), nil
}

// ParseAddresses converts string addresses into common.Address, skipping blanks.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}

// ParseFees converts fee tiers in hundredths of a bip.
func ParseFees(inputs []string) ([]uint32, error) {
	fees := make([]uint32, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		fee, err := strconv.ParseUint(input, 10, 24)
		if err != nil {
			return nil, fmt.Errorf("invalid fee %q: %w", input, err)
		}
		fees = append(fees, uint32(fee))
	}
	return fees, nil
}

// ParseTokenAmount converts a human amount such as "1.5" into raw units of a token with the
// given decimals. Amounts with more fractional digits than decimals are rejected.
func ParseTokenAmount(input string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", input, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", input)
	}
	raw := d.Shift(int32(decimals))
	if !raw.Equal(raw.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has more than %d decimals", input, decimals)
	}
	return raw.BigInt(), nil
}

// PairSpec is a parsed sample pair.
type PairSpec struct {
	Base   common.Address
	Quote  common.Address
	Amount string
	Fees   []uint32
}

// ParsePair parses "base:quote:amount:fee/fee/...". Amount is human readable in base units and
// may be empty for one whole token; fees default to the three standard tiers.
func ParsePair(input string) (PairSpec, error) {
	parts := strings.Split(strings.TrimSpace(input), ":")
	if len(parts) < 2 || len(parts) > 4 {
		return PairSpec{}, fmt.Errorf("invalid pair %q: want base:quote[:amount[:fees]]", input)
	}
	base, err := ParseAddress("base", parts[0])
	if err != nil {
		return PairSpec{}, err
	}
	quote, err := ParseAddress("quote", parts[1])
	if err != nil {
		return PairSpec{}, err
	}
	if base == quote {
		return PairSpec{}, fmt.Errorf("invalid pair %q: base equals quote", input)
	}

	spec := PairSpec{Base: base, Quote: quote, Amount: "1", Fees: []uint32{500, 3000, 10000}}
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		spec.Amount = strings.TrimSpace(parts[2])
	}
	if len(parts) > 3 && strings.TrimSpace(parts[3]) != "" {
		if spec.Fees, err = ParseFees(strings.Split(parts[3], "/")); err != nil {
			return PairSpec{}, err
		}
	}
	return spec, nil
}
