package descriptor

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	dai  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	wbtc = common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")
	weth = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	tokA = common.HexToAddress("0x1000000000000000000000000000000000000001")
)

func TestTokenRatioPriority(t *testing.T) {
	assert.Equal(t, NumeratorMost, TokenRatioPriority(usdc, 1, weth))
	assert.Equal(t, Numerator, TokenRatioPriority(dai, 1, weth))
	assert.Equal(t, DenominatorMost, TokenRatioPriority(wbtc, 1, weth))
	assert.Equal(t, Denominator, TokenRatioPriority(weth, 1, weth))
	assert.Equal(t, 0, TokenRatioPriority(tokA, 1, weth))

	// Mainnet rankings do not leak onto other chains, the wrapped native token does.
	assert.Equal(t, 0, TokenRatioPriority(usdc, 10, weth))
	assert.Equal(t, Denominator, TokenRatioPriority(weth, 10, weth))
}

func TestFlipRatio(t *testing.T) {
	assert.True(t, FlipRatio(usdc, weth, 1, weth))
	assert.False(t, FlipRatio(dai, usdc, 1, weth))
	assert.True(t, FlipRatio(tokA, wbtc, 1, weth))
	assert.True(t, FlipRatio(usdc, weth, 10, weth))
	assert.True(t, FlipRatio(tokA, weth, 10, weth))
	assert.False(t, FlipRatio(weth, tokA, 10, weth))
}

func TestEscapeQuotes(t *testing.T) {
	assert.Equal(t, "abc", EscapeQuotes("abc"))
	assert.Equal(t, `a\"b\"`, EscapeQuotes(`a"b"`))
	assert.Equal(t, "", EscapeQuotes(""))
}

func TestGenerateName(t *testing.T) {
	base := NameParams{
		Token0:         usdc,
		Token1:         weth,
		Token0Symbol:   "USDC",
		Token1Symbol:   "WETH",
		Token0Decimals: 6,
		Token1Decimals: 18,
		Fee:            3000,
		TickLower:      192000,
		TickUpper:      198000,
		TickSpacing:    60,
		WETH:           weth,
	}

	t.Run("mainnet flips to stablecoin quote", func(t *testing.T) {
		p := base
		p.ChainID = 1
		name, err := GenerateName(p)
		require.NoError(t, err)
		assert.Equal(t, "Uniswap - 0.3% - USDC/WETH - 2520.0<>4591.6", name)
	})

	t.Run("other chain keeps token1 as quote", func(t *testing.T) {
		p := base
		p.ChainID = 10
		p.WETH = common.Address{}
		name, err := GenerateName(p)
		require.NoError(t, err)
		assert.Equal(t, "Uniswap - 0.3% - WETH/USDC - 0.00021779<>0.00039683", name)
	})

	t.Run("full range", func(t *testing.T) {
		p := base
		p.ChainID = 1
		p.TickLower, p.TickUpper = -887220, 887220
		name, err := GenerateName(p)
		require.NoError(t, err)
		assert.Equal(t, "Uniswap - 0.3% - USDC/WETH - MIN<>MAX", name)
	})

	t.Run("escapes symbols", func(t *testing.T) {
		p := base
		p.ChainID = 10
		p.WETH = common.Address{}
		p.Token0Symbol = `US"DC`
		p.TickLower, p.TickUpper = -887220, 887220
		name, err := GenerateName(p)
		require.NoError(t, err)
		assert.Equal(t, `Uniswap - 0.3% - WETH/US\"DC - MIN<>MAX`, name)
	})
}
