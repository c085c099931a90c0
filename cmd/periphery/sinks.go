package main

import (
	"context"
	"fmt"

	"github.com/Uniswap/v3-periphery-sub000/internal/model"
	"github.com/Uniswap/v3-periphery-sub000/internal/storage"
	"github.com/Uniswap/v3-periphery-sub000/internal/storage/postgres"
)

// sinkSet fans records out to every configured sink.
type sinkSet struct {
	all []storage.Storage
	pg  *postgres.Store
}

var _ storage.Storage = (*sinkSet)(nil)

func openSinks(ctx context.Context, out, dsn string) (*sinkSet, error) {
	s := &sinkSet{}
	if out != "" {
		s.all = append(s.all, storage.NewJsonlStorage(out))
	}
	if dsn != "" {
		store, err := postgres.NewStore(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		s.pg = store
		s.all = append(s.all, store)
	}
	return s, nil
}

func (s *sinkSet) Close() {
	if s.pg != nil {
		s.pg.Close()
	}
}

func (s *sinkSet) PutQuoteSnapshots(ctx context.Context, snapshots []model.QuoteSnapshot) error {
	for _, sink := range s.all {
		if err := sink.PutQuoteSnapshots(ctx, snapshots); err != nil {
			return err
		}
	}
	return nil
}

func (s *sinkSet) PutPositionValuations(ctx context.Context, valuations []model.PositionValuation) error {
	for _, sink := range s.all {
		if err := sink.PutPositionValuations(ctx, valuations); err != nil {
			return err
		}
	}
	return nil
}

// upsertPools records pool metadata when Postgres is configured.
func (s *sinkSet) upsertPools(ctx context.Context, pools []model.Pool) error {
	if s.pg == nil {
		return nil
	}
	return s.pg.UpsertPools(ctx, pools)
}
