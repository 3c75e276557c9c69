// Command dhhdemo exercises the sketches in this module against a dataset
// file or a synthetic generator, printing the top-k heaviest labels and,
// with --verify, their relative error against an exact ground truth.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fernwood-labs/dhh/counthll"
	"github.com/fernwood-labs/dhh/hll"
	"github.com/fernwood-labs/dhh/internal/cliconfig"
	"github.com/fernwood-labs/dhh/internal/groundtruth"
	"github.com/fernwood-labs/dhh/internal/loader"
	"github.com/fernwood-labs/dhh/internal/memsize"
	"github.com/fernwood-labs/dhh/internal/telemetry"
	"github.com/fernwood-labs/dhh/sketchtraits"
	"github.com/fernwood-labs/dhh/spread"
	"github.com/fernwood-labs/dhh/sss"
	"github.com/fernwood-labs/dhh/ssss"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("dhh")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "dhhdemo",
		Short: "Stream a dataset through a distinct heavy-hitter sketch and print its top labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cliconfig.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	if err := cliconfig.BindFlags(cmd.Flags(), v); err != nil {
		panic(err)
	}

	return cmd
}

func run(ctx context.Context, cfg *cliconfig.Config) error {
	log := telemetry.For("dhhdemo")

	var stopMetrics func()
	if cfg.MetricsAddr != "" {
		stopMetrics = serveMetrics(cfg.MetricsAddr, log)
		defer stopMetrics()
	}

	sketch, estimatedBytes, err := buildSketch(cfg)
	if err != nil {
		return err
	}
	log.Info("sketch configured", "sketch", cfg.Sketch, "estimated_bytes", estimatedBytes)

	recorder := telemetry.NewRecorder(prometheus.DefaultRegisterer)
	recorder.ObserveMemory(cfg.Sketch, estimatedBytes)

	source, closeSource, err := buildSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	var truth *groundtruth.GroundTruth[string, string]
	if cfg.Verify {
		truth = groundtruth.New[string, string]()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = loader.Drain(ctx, source, func(label, item string) {
		sketch.Insert(label, item)
		recorder.RecordInsert(cfg.Sketch)
		if truth != nil {
			truth.Insert(label, item)
		}
	})
	if err != nil {
		return errors.Wrap(err, "dhhdemo: streaming dataset")
	}

	top := sketch.Top(cfg.TopK)
	for _, entry := range top {
		recorder.ObserveCardinality(cfg.Sketch, entry.Label, entry.Count)
	}

	printTop(cfg.Sketch, top, truth)
	return nil
}

func buildSketch(cfg *cliconfig.Config) (sketchtraits.HeavyDistinctHitterSketch[string, string], uint64, error) {
	hllCfg, err := hll.NewConfig(cfg.NumRegisters, nil)
	if err != nil {
		return nil, 0, err
	}

	switch cfg.Sketch {
	case "hll":
		return nil, 0, errors.New("dhhdemo: hll is a CardinalitySketch, not a heavy-hitter sketch; choose another --sketch")

	case "counthll-set":
		chCfg, err := counthll.NewConfig(cfg.Depth, cfg.Width, counthll.MaximumLikelihood, nil)
		if err != nil {
			return nil, 0, err
		}
		return counthll.NewLabelSet[string, string](chCfg), memsize.CountHLLSet(chCfg, cfg.NumLabels), nil

	case "counthll-array":
		chCfg, err := counthll.NewConfig(cfg.Depth, cfg.Width, counthll.MaximumLikelihood, nil)
		if err != nil {
			return nil, 0, err
		}
		return counthll.NewLabelArray[string, string](chCfg), memsize.CountHLLArray(chCfg), nil

	case "spread":
		spreadCfg, err := spread.NewConfig(cfg.NumRows, cfg.NumCols, hllCfg, nil)
		if err != nil {
			return nil, 0, err
		}
		return spread.New[string, string](spreadCfg), memsize.Spread(spreadCfg), nil

	case "sss":
		sssCfg, err := sss.NewConfig(cfg.MaxNumCounters, sss.Offset, hllCfg)
		if err != nil {
			return nil, 0, err
		}
		return sss.New[string, string](sssCfg), memsize.SSS(sssCfg), nil

	case "ssss":
		ssssCfg, err := ssss.NewConfig(cfg.MaxNumCounters, hllCfg, nil)
		if err != nil {
			return nil, 0, err
		}
		return ssss.New[string, string](ssssCfg), memsize.SSSS(ssssCfg), nil

	default:
		return nil, 0, errors.Errorf("dhhdemo: unknown sketch %q", cfg.Sketch)
	}
}

func buildSource(cfg *cliconfig.Config) (loader.Source, func(), error) {
	if cfg.Dataset != "" {
		src, err := loader.OpenGzipCSV(cfg.Dataset)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	}

	rng := rand.New(rand.NewSource(cfg.SyntheticSeed))
	noop := func() {}

	switch cfg.Synthetic {
	case "poisson":
		return loader.Poisson(cfg.SyntheticN, cfg.NumLabels, cfg.PoissonMean, uint64(cfg.SyntheticSeed)), noop, nil
	case "zipf":
		return loader.Zipf(cfg.SyntheticN, cfg.NumLabels, cfg.ZipfS, cfg.ZipfV, rng), noop, nil
	default:
		return loader.Uniform(cfg.SyntheticN, cfg.NumLabels, rng), noop, nil
	}
}

func printTop(sketchName string, top []sketchtraits.LabelCount[string], truth *groundtruth.GroundTruth[string, string]) {
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })

	fmt.Printf("Top %d labels (%s):\n", len(top), sketchName)
	for i, entry := range top {
		if truth == nil {
			fmt.Printf("%2d. %-20s %d\n", i+1, entry.Label, entry.Count)
			continue
		}

		actual := truth.Cardinality(entry.Label)
		relErr := 0.0
		if actual > 0 {
			diff := float64(entry.Count) - float64(actual)
			if diff < 0 {
				diff = -diff
			}
			relErr = diff / float64(actual)
		}
		fmt.Printf("%2d. %-20s estimate=%d actual=%d rel_err=%.3f\n", i+1, entry.Label, entry.Count, actual, relErr)
	}
}

func serveMetrics(addr string, log interface{ Info(string, ...any) }) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintln(os.Stderr, "dhhdemo: metrics server:", err)
		}
	}()
	log.Info("serving metrics", "addr", addr)

	return func() { _ = srv.Close() }
}
