package descriptor

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Token ratio priorities. Higher priorities are preferred as the quote (numerator) token.
const (
	DenominatorMost = -300
	DenominatorMore = -200
	Denominator     = -100
	Numerator       = 100
	NumeratorMore   = 200
	NumeratorMost   = 300
)

const mainnetChainID = 1

var mainnetPriorities = map[common.Address]int{
	common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"): NumeratorMost,   // USDC
	common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"): NumeratorMore,   // USDT
	common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"): Numerator,       // DAI
	common.HexToAddress("0x8dAEBADE922dF735c38C80C7eBD708Af50815fAa"): DenominatorMore, // TBTC
	common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"): DenominatorMost, // WBTC
}

// TokenRatioPriority ranks a token for choosing which side of a pair is shown as the quote.
// The wrapped native token is always a denominator; stablecoin and BTC rankings apply on mainnet only.
func TokenRatioPriority(token common.Address, chainID uint64, weth common.Address) int {
	if token == weth {
		return Denominator
	}
	if chainID == mainnetChainID {
		return mainnetPriorities[token]
	}
	return 0
}

// FlipRatio reports whether token0 should be shown as the quote token instead of token1.
func FlipRatio(token0, token1 common.Address, chainID uint64, weth common.Address) bool {
	return TokenRatioPriority(token0, chainID, weth) > TokenRatioPriority(token1, chainID, weth)
}

// EscapeQuotes backslash-escapes double quotes so a symbol can be embedded in JSON text.
func EscapeQuotes(symbol string) string {
	return strings.ReplaceAll(symbol, `"`, `\"`)
}

// NameParams describes a liquidity position for GenerateName.
type NameParams struct {
	Token0         common.Address
	Token1         common.Address
	Token0Symbol   string
	Token1Symbol   string
	Token0Decimals uint8
	Token1Decimals uint8
	Fee            uint32
	TickLower      int32
	TickUpper      int32
	TickSpacing    int32
	ChainID        uint64
	WETH           common.Address
}

// GenerateName builds the position title "Uniswap - <fee> - <quote>/<base> - <lower><><upper>".
func GenerateName(p NameParams) (string, error) {
	flip := FlipRatio(p.Token0, p.Token1, p.ChainID, p.WETH)

	quoteSymbol, baseSymbol := p.Token1Symbol, p.Token0Symbol
	quoteDecimals, baseDecimals := p.Token1Decimals, p.Token0Decimals
	lowerTick, upperTick := p.TickLower, p.TickUpper
	if flip {
		quoteSymbol, baseSymbol = p.Token0Symbol, p.Token1Symbol
		quoteDecimals, baseDecimals = p.Token0Decimals, p.Token1Decimals
		lowerTick, upperTick = p.TickUpper, p.TickLower
	}

	lower, err := TickToDecimalString(lowerTick, p.TickSpacing, baseDecimals, quoteDecimals, flip)
	if err != nil {
		return "", fmt.Errorf("format lower tick: %w", err)
	}
	upper, err := TickToDecimalString(upperTick, p.TickSpacing, baseDecimals, quoteDecimals, flip)
	if err != nil {
		return "", fmt.Errorf("format upper tick: %w", err)
	}

	return fmt.Sprintf("Uniswap - %s - %s/%s - %s<>%s",
		FeeToPercentString(p.Fee),
		EscapeQuotes(quoteSymbol),
		EscapeQuotes(baseSymbol),
		lower,
		upper,
	), nil
}
