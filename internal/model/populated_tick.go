package model

// PopulatedTick is an initialized tick as printed by the lens.
type PopulatedTick struct {
	Tick           int32  `json:"tick"`
	LiquidityNet   string `json:"liquidity_net"`
	LiquidityGross string `json:"liquidity_gross"`
}
