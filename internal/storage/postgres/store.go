package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Uniswap/v3-periphery-sub000/internal/model"
	"github.com/Uniswap/v3-periphery-sub000/internal/storage"
)

// Schema creates the tables the store writes to. Amounts are NUMERIC(78,0) so any uint256 fits.
const Schema = `
CREATE TABLE IF NOT EXISTS pools (
	chain_id     BIGINT  NOT NULL,
	pool_address TEXT    NOT NULL,
	token0       TEXT    NOT NULL,
	token1       TEXT    NOT NULL,
	fee          INTEGER NOT NULL,
	tick_spacing INTEGER NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, pool_address)
);

CREATE TABLE IF NOT EXISTS quote_snapshots (
	chain_id     BIGINT        NOT NULL,
	base_token   TEXT          NOT NULL,
	quote_token  TEXT          NOT NULL,
	period_secs  INTEGER       NOT NULL,
	sampled_at   TIMESTAMPTZ   NOT NULL,
	mean_tick    INTEGER       NOT NULL,
	base_amount  NUMERIC(78,0) NOT NULL,
	quote_amount NUMERIC(78,0) NOT NULL,
	price        TEXT,
	observations JSONB         NOT NULL,
	PRIMARY KEY (chain_id, base_token, quote_token, period_secs, sampled_at)
);

CREATE TABLE IF NOT EXISTS position_valuations (
	chain_id       BIGINT        NOT NULL,
	token_id       NUMERIC(78,0) NOT NULL,
	valued_at      TIMESTAMPTZ   NOT NULL,
	name           TEXT,
	pool_address   TEXT          NOT NULL,
	tick_lower     INTEGER       NOT NULL,
	tick_upper     INTEGER       NOT NULL,
	liquidity      NUMERIC(78,0) NOT NULL,
	sqrt_price_x96 NUMERIC(78,0) NOT NULL,
	principal0     NUMERIC(78,0) NOT NULL,
	principal1     NUMERIC(78,0) NOT NULL,
	fees0          NUMERIC(78,0) NOT NULL,
	fees1          NUMERIC(78,0) NOT NULL,
	PRIMARY KEY (chain_id, token_id, valued_at)
);
`

// Store provides Postgres persistence for quotes and valuations.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Storage = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertPools inserts or updates pool metadata.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (chain_id, pool_address, token0, token1, fee, tick_spacing, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT (chain_id, pool_address)
			DO UPDATE SET
				token0 = EXCLUDED.token0,
				token1 = EXCLUDED.token1,
				fee = EXCLUDED.fee,
				tick_spacing = EXCLUDED.tick_spacing,
				updated_at = now()
		`,
			int64(pool.ChainID),
			pool.Address,
			pool.Token0,
			pool.Token1,
			int64(pool.Fee),
			pool.TickSpacing,
		)
	}
	return s.send(ctx, batch, len(pools))
}

// PutQuoteSnapshots upserts snapshots keyed by pair, period and sample time.
func (s *Store) PutQuoteSnapshots(ctx context.Context, snapshots []model.QuoteSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		observations, err := json.Marshal(snap.Observations)
		if err != nil {
			return fmt.Errorf("marshal observations: %w", err)
		}
		amounts, err := numerics(snap.BaseAmount, snap.QuoteAmount)
		if err != nil {
			return fmt.Errorf("snapshot %s/%s: %w", snap.BaseToken, snap.QuoteToken, err)
		}
		batch.Queue(`
			INSERT INTO quote_snapshots (
				chain_id, base_token, quote_token, period_secs, sampled_at,
				mean_tick, base_amount, quote_amount, price, observations
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (chain_id, base_token, quote_token, period_secs, sampled_at)
			DO UPDATE SET
				mean_tick = EXCLUDED.mean_tick,
				base_amount = EXCLUDED.base_amount,
				quote_amount = EXCLUDED.quote_amount,
				price = EXCLUDED.price,
				observations = EXCLUDED.observations
		`,
			int64(snap.ChainID),
			snap.BaseToken,
			snap.QuoteToken,
			int64(snap.PeriodSecs),
			snap.SampledAt,
			snap.MeanTick,
			amounts[0],
			amounts[1],
			snap.Price,
			observations,
		)
	}
	return s.send(ctx, batch, len(snapshots))
}

// PutPositionValuations upserts valuations keyed by token id and valuation time.
func (s *Store) PutPositionValuations(ctx context.Context, valuations []model.PositionValuation) error {
	if len(valuations) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, v := range valuations {
		nums, err := numerics(v.TokenID, v.Liquidity, v.SqrtPriceX96, v.Principal0, v.Principal1, v.Fees0, v.Fees1)
		if err != nil {
			return fmt.Errorf("valuation %s: %w", v.TokenID, err)
		}
		batch.Queue(`
			INSERT INTO position_valuations (
				chain_id, token_id, valued_at, name, pool_address, tick_lower, tick_upper,
				liquidity, sqrt_price_x96, principal0, principal1, fees0, fees1
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			ON CONFLICT (chain_id, token_id, valued_at)
			DO UPDATE SET
				name = EXCLUDED.name,
				liquidity = EXCLUDED.liquidity,
				sqrt_price_x96 = EXCLUDED.sqrt_price_x96,
				principal0 = EXCLUDED.principal0,
				principal1 = EXCLUDED.principal1,
				fees0 = EXCLUDED.fees0,
				fees1 = EXCLUDED.fees1
		`,
			int64(v.ChainID),
			nums[0],
			v.ValuedAt,
			v.Name,
			v.Pool,
			v.TickLower,
			v.TickUpper,
			nums[1],
			nums[2],
			nums[3],
			nums[4],
			nums[5],
			nums[6],
		)
	}
	return s.send(ctx, batch, len(valuations))
}

func (s *Store) send(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// numerics parses decimal integer strings into NUMERIC parameters.
func numerics(values ...string) ([]pgtype.Numeric, error) {
	out := make([]pgtype.Numeric, len(values))
	for i, v := range values {
		if err := out[i].Scan(v); err != nil {
			return nil, fmt.Errorf("parse numeric %q: %w", v, err)
		}
	}
	return out, nil
}
