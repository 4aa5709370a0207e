package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/hexgas/config"
	"github.com/pthm-cable/hexgas/render"
	"github.com/pthm-cable/hexgas/sim"
	"github.com/pthm-cable/hexgas/store"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep [name...]",
		Short: "Run configured parameter sweeps",
		Long: `Run the named sweeps, or every configured sweep when no name is
given. Each sweep runs fixed-length simulations over a linearly spaced
parameter and writes one chart of the unified order parameter per run,
saved as "<name>.svg".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(e *env) error {
				if err := e.writeConfig(); err != nil {
					return err
				}
				return runSweeps(cmd.Context(), e, args)
			})
		},
	}
}

// selectSweeps returns the named sweeps in argument order, or all of them
// in config order when names is empty.
func selectSweeps(cfg *config.Config, names []string) ([]config.SweepConfig, error) {
	if len(names) == 0 {
		return cfg.Sweeps, nil
	}
	out := make([]config.SweepConfig, 0, len(names))
	for _, name := range names {
		sc, ok := cfg.Sweep(name)
		if !ok {
			return nil, fmt.Errorf("unknown sweep %q", name)
		}
		out = append(out, sc)
	}
	return out, nil
}

// sweepChartFile names the chart of a sweep; the chart itself is titled
// by the bare name.
func sweepChartFile(name string) string { return name + ".svg" }

func runSweeps(ctx context.Context, e *env, names []string) error {
	sweeps, err := selectSweeps(e.cfg, names)
	if err != nil {
		return err
	}
	for _, sc := range sweeps {
		if err := runSweep(ctx, e, sc); err != nil {
			return err
		}
	}
	return nil
}

func runSweep(ctx context.Context, e *env, sc config.SweepConfig) error {
	spec := sim.SpecFromConfig(sc, e.cfg.SweepSeed)
	res, err := sim.RunSweep(ctx, spec, e.workers)
	if err != nil {
		return err
	}

	chartPath := e.out.Path(sweepChartFile(spec.Name))
	c := render.New(e.cfg.Chart, render.Range{Min: 0, Max: float64(spec.Steps)}, render.Range{Min: 0, Max: 3})
	if err := c.MultipleTimeseries(chartPath, spec.Name, res.Series(), e.palette.Start, e.palette.End); err != nil {
		return err
	}

	path, err := e.out.WriteSweep(spec.Name, res.Series())
	if err != nil {
		return err
	}
	slog.Info("sweep written", "name", spec.Name, "chart", chartPath, "csv", path)

	if e.db != nil {
		id, err := e.db.SaveSweep(ctx, spec.Name, string(spec.Kind), sweepRecords(res))
		if err != nil {
			return fmt.Errorf("archiving sweep %q: %w", spec.Name, err)
		}
		slog.Info("sweep archived", "name", spec.Name, "id", id)
	}
	return nil
}

func sweepRecords(res *sim.SweepResult) []store.SweepPoint {
	out := make([]store.SweepPoint, len(res.Points))
	for i, p := range res.Points {
		out[i] = store.SweepPoint{
			Index:      p.Index,
			Value:      p.Value,
			Label:      p.Label,
			Seed:       p.Seed,
			Size:       p.Size,
			Betaj:      p.Disorder,
			FillRate:   p.FillRate,
			Steps:      res.Spec.Steps,
			FinalOrder: p.Final.Order,
			OrderMean:  p.Summary.Mean,
			OrderStd:   p.Summary.Std,
			AcceptRate: p.Moves.AcceptRate(),
		}
	}
	return out
}
