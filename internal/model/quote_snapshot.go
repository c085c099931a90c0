package model

import "time"

// PoolObservation is one pool's contribution to a quote snapshot.
type PoolObservation struct {
	Pool                  string `json:"pool"`
	ArithmeticMeanTick    int32  `json:"arithmetic_mean_tick"`
	HarmonicMeanLiquidity string `json:"harmonic_mean_liquidity"`
}

// QuoteSnapshot is a time-weighted quote of BaseAmount of BaseToken in QuoteToken, aggregated
// over Pools. Amounts are raw integer strings; Price is human readable.
type QuoteSnapshot struct {
	ChainID      uint64            `json:"chain_id"`
	BaseToken    string            `json:"base_token"`
	QuoteToken   string            `json:"quote_token"`
	PeriodSecs   uint32            `json:"period_secs"`
	MeanTick     int32             `json:"mean_tick"`
	BaseAmount   string            `json:"base_amount"`
	QuoteAmount  string            `json:"quote_amount"`
	Price        string            `json:"price,omitempty"`
	Observations []PoolObservation `json:"observations"`
	SampledAt    time.Time         `json:"sampled_at"`
}
