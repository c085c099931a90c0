package storage

import (
	"context"

	"github.com/Uniswap/v3-periphery-sub000/internal/model"
)

// Storage is a sink for sampled quotes and position valuations.
type Storage interface {
	PutQuoteSnapshots(ctx context.Context, snapshots []model.QuoteSnapshot) error
	PutPositionValuations(ctx context.Context, valuations []model.PositionValuation) error
}
