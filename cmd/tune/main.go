// Package main searches betaj and fill rate with CMA-ES for the
// parameters that order the lattice in the fewest timesteps.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/hexgas/config"
	"github.com/pthm-cable/hexgas/sim"
	"github.com/pthm-cable/hexgas/telemetry"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// ctxRecorder stops the optimizer once the context is done.
type ctxRecorder struct {
	ctx context.Context
}

func (r ctxRecorder) Init() error { return nil }

func (r ctxRecorder) Record(*optimize.Location, optimize.Operation, *optimize.Stats) error {
	return r.ctx.Err()
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxEvals := flag.Int("max-evals", 0, "Maximum number of evaluations (0 = use config)")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	searchSeed := flag.Uint64("seed", 1, "Seed for CMA-ES sampling")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	// Per-run logging from the driver is too chatty for a search.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if *outputDir == "" {
		logger.Error("--output is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *outputDir, *maxEvals, *population, *searchSeed); err != nil {
		logger.Error("tune failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, outputDir string, maxEvals, population int, searchSeed uint64) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := config.Init(configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	baseCfg := config.Cfg()
	tc := baseCfg.Tune
	if maxEvals <= 0 {
		maxEvals = tc.Evaluations
	}

	params := NewParamVector(baseCfg)
	seeds := sim.DeriveSeeds(baseCfg.SweepSeed, tc.Seeds)
	evaluator := NewFitnessEvaluator(tc.Size, tc.MaxSteps, baseCfg.Run.OrderThreshold, seeds)

	evalLog, err := telemetry.CreateCSVLog(outputDir, "tune_log.csv")
	if err != nil {
		return err
	}
	defer evalLog.Close()

	dim := params.Dim()
	popSize := population
	if popSize == 0 {
		// Auto-size: 4 + floor(3*ln(n))
		popSize = 4 + int(3*math.Log(float64(dim)))
	}

	evalCount := 0
	var evalErr error
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if evalErr != nil {
				return math.Inf(1)
			}
			// Values outside the box are clamped, so the search sees a flat
			// extension of the boundary.
			raw := params.Clamp(params.Denormalize(x))
			ev, err := evaluator.Evaluate(ctx, raw[0], raw[1])
			if err != nil {
				evalErr = err
				return math.Inf(1)
			}
			evalCount++
			ev.Eval = evalCount

			if err := evalLog.Write([]Evaluation{ev}); err != nil {
				evalErr = err
				return math.Inf(1)
			}

			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(maxEvals-evalCount) * avgPerEval
			logger.Info("evaluation",
				"eval", evalCount,
				"of", maxEvals,
				"betaj", ev.Betaj,
				"fill_rate", ev.FillRate,
				"mean_steps", ev.MeanSteps,
				"ordered", ev.Ordered,
				"best", evaluator.Best().Fitness,
				"elapsed", formatDuration(elapsed),
				"eta", formatDuration(remaining),
			)
			return ev.Fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0, // Sequential; each evaluation already runs its seeds in parallel
		Recorder:        ctxRecorder{ctx: ctx},
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
		Src:          rand.NewPCG(searchSeed, 0),
	}

	logger.Info("starting CMA-ES search",
		"params", dim,
		"population", popSize,
		"max_evals", maxEvals,
		"seeds", len(seeds),
		"size", tc.Size,
		"max_steps", tc.MaxSteps,
	)

	if _, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method); err != nil {
		logger.Warn("optimization ended", "error", err)
	}
	if evalErr != nil {
		return evalErr
	}

	best := evaluator.Best()
	if math.IsInf(best.Fitness, 1) {
		return fmt.Errorf("no evaluation completed")
	}
	logger.Info("search complete",
		"evals", evalCount,
		"duration", formatDuration(time.Since(startTime)),
		"betaj", best.Betaj,
		"fill_rate", best.FillRate,
		"mean_steps", best.MeanSteps,
		"ordered", best.Ordered,
	)

	bestCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	params.ApplyToConfig(bestCfg, []float64{best.Betaj, best.FillRate})

	configOutPath := filepath.Join(outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		return err
	}
	logger.Info("best config saved", "path", configOutPath, "log", evalLog.Path())
	return nil
}
