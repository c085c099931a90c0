package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Uniswap/v3-periphery-sub000/internal/model"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.jsonl")
	store := NewJsonlStorage(path)
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.PutQuoteSnapshots(ctx, nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty batch must not create the file")

	require.NoError(t, store.PutQuoteSnapshots(ctx, []model.QuoteSnapshot{{
		ChainID:     1,
		BaseToken:   "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		QuoteToken:  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		PeriodSecs:  1800,
		MeanTick:    200000,
		BaseAmount:  "1000000000000000000",
		QuoteAmount: "2059350000",
		Observations: []model.PoolObservation{
			{Pool: "0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8", ArithmeticMeanTick: 200000, HarmonicMeanLiquidity: "42"},
		},
		SampledAt: at,
	}}))
	require.NoError(t, store.PutPositionValuations(ctx, []model.PositionValuation{
		{TokenID: "1", Principal0: "10", ValuedAt: at},
		{TokenID: "2", Principal0: "20", ValuedAt: at},
	}))

	lines := readLines(t, path)
	require.Len(t, lines, 3)

	var snap model.QuoteSnapshot
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &snap))
	assert.Equal(t, int32(200000), snap.MeanTick)
	assert.Equal(t, "2059350000", snap.QuoteAmount)
	require.Len(t, snap.Observations, 1)
	assert.True(t, snap.SampledAt.Equal(at))

	var val model.PositionValuation
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &val))
	assert.Equal(t, "2", val.TokenID)
	assert.Equal(t, "20", val.Principal0)
}
