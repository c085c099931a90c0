package model

import "time"

// PositionValuation is the principal and uncollected fees of one position at one price.
type PositionValuation struct {
	ChainID      uint64    `json:"chain_id"`
	TokenID      string    `json:"token_id"`
	Name         string    `json:"name,omitempty"`
	Pool         string    `json:"pool"`
	Token0       string    `json:"token0"`
	Token1       string    `json:"token1"`
	Fee          uint32    `json:"fee"`
	TickLower    int32     `json:"tick_lower"`
	TickUpper    int32     `json:"tick_upper"`
	Liquidity    string    `json:"liquidity"`
	SqrtPriceX96 string    `json:"sqrt_price_x96"`
	Principal0   string    `json:"principal0"`
	Principal1   string    `json:"principal1"`
	Fees0        string    `json:"fees0"`
	Fees1        string    `json:"fees1"`
	Total0       string    `json:"total0"`
	Total1       string    `json:"total1"`
	ValuedAt     time.Time `json:"valued_at"`
}
