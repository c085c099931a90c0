package config

import (
	"time"

	"github.com/spf13/pflag"
)

// QuoteConfig configures the quote command. Route, when set, prices the first token in the last
// through the listed intermediate pools instead of the Base/Quote pair.
type QuoteConfig struct {
	Chain
	Base      string
	Quote     string
	Amount    string
	Fees      []string
	Period    uint32
	Route     []string
	RouteFees []string
}

func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"amount": "1",
		"fees":   []string{"500", "3000", "10000"},
		"period": uint32(1800),
	})
	if err != nil {
		return QuoteConfig{}, err
	}
	return QuoteConfig{
		Chain:     chainFrom(v),
		Base:      v.GetString("base"),
		Quote:     v.GetString("quote"),
		Amount:    v.GetString("amount"),
		Fees:      getStringSlice(v, "fees"),
		Period:    v.GetUint32("period"),
		Route:     getStringSlice(v, "route"),
		RouteFees: getStringSlice(v, "route-fees"),
	}, nil
}

// LensConfig configures the ticks and lens commands.
type LensConfig struct {
	Chain
	Pool string
	// Word is nil unless set by flag, env or file; lens then uses the current tick's word.
	Word       *int16
	TickBefore int32
	TickAfter  int32
	Inclusive  bool
}

func LoadLens(cfgFile string, flags *pflag.FlagSet) (LensConfig, error) {
	v, err := load(cfgFile, flags, nil)
	if err != nil {
		return LensConfig{}, err
	}
	cfg := LensConfig{
		Chain:      chainFrom(v),
		Pool:       v.GetString("pool"),
		TickBefore: v.GetInt32("from-tick"),
		TickAfter:  v.GetInt32("to-tick"),
		Inclusive:  v.GetBool("inclusive"),
	}
	if v.IsSet("word") {
		word := int16(v.GetInt("word"))
		cfg.Word = &word
	}
	return cfg, nil
}

// PositionConfig configures the position and describe commands.
type PositionConfig struct {
	Chain
	PositionManager string
	TokenIDs        []string
	SqrtPriceX96    string
	Out             string
	PGDSN           string
}

func LoadPosition(cfgFile string, flags *pflag.FlagSet) (PositionConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"position-manager": DefaultPositionManager,
	})
	if err != nil {
		return PositionConfig{}, err
	}
	return PositionConfig{
		Chain:           chainFrom(v),
		PositionManager: v.GetString("position-manager"),
		TokenIDs:        getStringSlice(v, "token-id"),
		SqrtPriceX96:    v.GetString("sqrt-price"),
		Out:             v.GetString("out"),
		PGDSN:           v.GetString("pg-dsn"),
	}, nil
}

// SampleConfig configures the sample command. Pairs use the ParsePair syntax; a zero Interval
// samples once.
type SampleConfig struct {
	Chain
	Pairs       []string
	Period      uint32
	Concurrency int
	Interval    time.Duration
	Out         string
	PGDSN       string
}

func LoadSample(cfgFile string, flags *pflag.FlagSet) (SampleConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"period":      uint32(1800),
		"concurrency": 4,
		"out":         "./data/quotes.jsonl",
	})
	if err != nil {
		return SampleConfig{}, err
	}
	return SampleConfig{
		Chain:       chainFrom(v),
		Pairs:       getStringSlice(v, "pair"),
		Period:      v.GetUint32("period"),
		Concurrency: v.GetInt("concurrency"),
		Interval:    v.GetDuration("interval"),
		Out:         v.GetString("out"),
		PGDSN:       v.GetString("pg-dsn"),
	}, nil
}
