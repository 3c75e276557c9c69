// Package cliconfig binds the dhhdemo command's flags and environment
// variables into a single validated Config, following the
// viper-bound-to-mapstructure pattern used throughout Sumatoshi-tech's
// server configuration.
package cliconfig

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultSketch         = "hll"
	DefaultNumRegisters   = 1024
	DefaultDepth          = 1024
	DefaultWidth          = 1000
	DefaultNumRows        = 4
	DefaultNumCols        = 256
	DefaultMaxNumCounters = 1000
	DefaultTopK           = 10
)

// Config holds every dhhdemo flag, bound through Viper so CLI flags,
// environment variables (DHH_* prefix), and an optional config file all
// resolve to the same struct.
type Config struct {
	// Sketch selects which algorithm to run: hll, counthll-set,
	// counthll-array, spread, sss, or ssss.
	Sketch string `mapstructure:"sketch"`

	// Dataset points at a (gzip-optional) two-column CSV file of
	// (label, item) rows. When empty, a synthetic generator is used
	// instead.
	Dataset string `mapstructure:"dataset"`

	// Synthetic selects a generator (uniform, poisson, zipf) when Dataset
	// is empty.
	Synthetic     string  `mapstructure:"synthetic"`
	SyntheticN    int     `mapstructure:"synthetic-n"`
	SyntheticSeed int64   `mapstructure:"synthetic-seed"`
	NumLabels     int     `mapstructure:"num-labels"`
	ZipfS         float64 `mapstructure:"zipf-s"`
	ZipfV         float64 `mapstructure:"zipf-v"`
	PoissonMean   float64 `mapstructure:"poisson-mean"`

	// NumRegisters sizes the HLL sub-sketch used by spread, sss and ssss.
	NumRegisters int `mapstructure:"num-registers"`
	// Depth and Width size Count-HLL's register matrix.
	Depth int `mapstructure:"depth"`
	Width int `mapstructure:"width"`
	// NumRows and NumCols size SpreadSketch's bucket table.
	NumRows int `mapstructure:"num-rows"`
	NumCols int `mapstructure:"num-cols"`
	// MaxNumCounters bounds SSS and SSSS.
	MaxNumCounters int `mapstructure:"max-num-counters"`

	// TopK is how many labels to print.
	TopK int `mapstructure:"top-k"`
	// Verify computes exact ground truth alongside the sketch and reports
	// relative error, at the cost of unbounded memory for the run.
	Verify bool `mapstructure:"verify"`
	// MetricsAddr, if non-empty, serves Prometheus metrics on this address
	// for the duration of the run.
	MetricsAddr string `mapstructure:"metrics-addr"`
}

// BindFlags registers every Config field as a pflag on flags and binds it
// into v, so Load can later populate a Config from flags, environment
// variables, and (optionally) a config file in one call.
func BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	flags.String("sketch", DefaultSketch, "sketch to run: hll, counthll-set, counthll-array, spread, sss, ssss")
	flags.String("dataset", "", "path to a two-column (optionally gzip-compressed) CSV dataset")
	flags.String("synthetic", "uniform", "synthetic generator when --dataset is empty: uniform, poisson, zipf")
	flags.Int("synthetic-n", 100000, "number of synthetic pairs to generate")
	flags.Int64("synthetic-seed", 1, "seed for the synthetic generator's RNG")
	flags.Int("num-labels", 1000, "number of distinct labels for synthetic generators")
	flags.Float64("zipf-s", 1.5, "Zipf distribution skew parameter")
	flags.Float64("zipf-v", 1.0, "Zipf distribution shift parameter")
	flags.Float64("poisson-mean", 5.0, "Poisson distribution mean label index")
	flags.Int("num-registers", DefaultNumRegisters, "HLL register count")
	flags.Int("depth", DefaultDepth, "Count-HLL row count")
	flags.Int("width", DefaultWidth, "Count-HLL column count")
	flags.Int("num-rows", DefaultNumRows, "SpreadSketch row count")
	flags.Int("num-cols", DefaultNumCols, "SpreadSketch column count")
	flags.Int("max-num-counters", DefaultMaxNumCounters, "SSS / SSSS counter capacity")
	flags.Int("top-k", DefaultTopK, "number of top labels to print")
	flags.Bool("verify", false, "compute exact ground truth and report relative error")
	flags.String("metrics-addr", "", "address to serve Prometheus metrics on, e.g. :9090 (disabled if empty)")

	return errors.Wrap(v.BindPFlags(flags), "cliconfig: binding flags")
}

// Load builds a Config from v, which must already have flags bound via
// BindFlags and, optionally, a config file read and environment prefix set
// by the caller.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "cliconfig: unmarshalling configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields that feed directly into sketch Config
// constructors, so a misconfiguration is reported before any sketch is
// built rather than surfacing as an opaque NewConfig error.
func (c *Config) Validate() error {
	switch c.Sketch {
	case "hll", "counthll-set", "counthll-array", "spread", "sss", "ssss":
	default:
		return errors.Errorf("cliconfig: unknown sketch %q", c.Sketch)
	}

	if c.Dataset == "" {
		switch c.Synthetic {
		case "uniform", "poisson", "zipf":
		default:
			return errors.Errorf("cliconfig: unknown synthetic generator %q", c.Synthetic)
		}
	}

	if c.TopK <= 0 {
		return errors.New("cliconfig: top-k must be positive")
	}

	return nil
}
