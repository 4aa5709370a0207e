package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/hexgas/render"
	"github.com/pthm-cable/hexgas/sim"
	"github.com/pthm-cable/hexgas/store"
	"github.com/pthm-cable/hexgas/telemetry"
)

// Files written by the ordering run.
const (
	snapshotFile    = "data.csv"
	orderMergedFile = "Order Merged.svg"
	energyFile      = "Energy.svg"
	orderFile       = "Order.svg"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation until a sublattice orders",
		Long: `Run one simulation until the fraction of particles on a single
sublattice exceeds the order threshold.

Writes the final lattice to data.csv and charts of the unified order
parameter, the total energy and the three sublattice fractions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(e *env) error {
				if err := applyRunFlags(cmd, e); err != nil {
					return err
				}
				if err := e.writeConfig(); err != nil {
					return err
				}
				return runOrdering(cmd.Context(), e)
			})
		},
	}

	cmd.Flags().Uint64("seed", 0, "RNG seed (default from config)")
	cmd.Flags().Int("size", 0, "Lattice side length (default from config)")
	cmd.Flags().Float64("betaj", 0, "Disorder parameter, coupling over temperature (default from config)")
	cmd.Flags().Float64("fill", 0, "Fill rate in [0,1) (default from config)")
	cmd.Flags().Int("max-steps", 0, "Stop after N timesteps (0 = stop on order only)")
	return cmd
}

// applyRunFlags overrides the run section with explicitly set flags.
func applyRunFlags(cmd *cobra.Command, e *env) error {
	run := &e.cfg.Run
	flags := cmd.Flags()
	if flags.Changed("seed") {
		run.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("size") {
		run.Size, _ = flags.GetInt("size")
	}
	if flags.Changed("betaj") {
		run.Betaj, _ = flags.GetFloat64("betaj")
	}
	if flags.Changed("fill") {
		run.FillRate, _ = flags.GetFloat64("fill")
	}
	if flags.Changed("max-steps") {
		run.MaxSteps, _ = flags.GetInt("max-steps")
	}
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// runOrdering runs the configured simulation and writes its snapshot,
// charts and archive record. A cancelled run still writes what it has.
func runOrdering(ctx context.Context, e *env) error {
	opts := sim.OptionsFromConfig(e.cfg)
	opts.LogStats = e.logStats
	opts.Output = e.out
	opts.SnapshotDir = e.out.Dir()

	res, runErr := sim.Run(ctx, opts)
	if res == nil {
		return runErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if err := writeRunOutputs(e, res); err != nil {
		return err
	}
	if e.db != nil {
		id, err := e.db.SaveRun(context.WithoutCancel(ctx), runRecord(opts, res), res.Samples())
		if err != nil {
			return fmt.Errorf("archiving run: %w", err)
		}
		slog.Info("run archived", "id", id)
	}
	return runErr
}

func writeRunOutputs(e *env, res *sim.Result) error {
	path, err := telemetry.SaveSnapshot(res.Board, e.out.Dir(), snapshotFile)
	if err != nil {
		return err
	}
	slog.Info("snapshot written", "path", path)

	if res.Steps == 0 {
		return nil
	}
	xr := render.Range{Min: 0, Max: float64(res.Steps)}

	merged := render.New(e.cfg.Chart, xr, render.Range{Min: 0, Max: 3})
	if err := merged.Timeseries(e.out.Path(orderMergedFile), "Unified order parameter", res.OrderSingle, e.palette.Line); err != nil {
		return err
	}

	// The energy axis tops out at the starting energy.
	energy := render.New(e.cfg.Chart, xr, render.Range{Min: 0, Max: energyCeiling(res)})
	if err := energy.Timeseries(e.out.Path(energyFile), "Total system energy", res.Energy, e.palette.Line); err != nil {
		return err
	}

	order := render.New(e.cfg.Chart, xr, render.Range{Min: 0, Max: 1})
	if err := order.MultipleTimeseries(e.out.Path(orderFile), "Total system order", res.Orders[:], e.palette.Start, e.palette.End); err != nil {
		return err
	}

	slog.Info("charts written", "dir", e.out.Dir(), "steps", res.Steps)
	return nil
}

// energyCeiling is the first sampled energy, or 1 when that is zero so the
// axis keeps a positive extent.
func energyCeiling(res *sim.Result) float64 {
	if res.Energy.Len() == 0 || res.Energy.Points[0].Value <= 0 {
		return 1
	}
	return res.Energy.Points[0].Value
}

func runRecord(opts sim.Options, res *sim.Result) store.RunRecord {
	return store.RunRecord{
		Seed:           opts.Seed,
		Size:           opts.Size,
		Betaj:          opts.Disorder,
		FillRate:       opts.FillRate,
		OrderThreshold: opts.OrderThreshold,
		Steps:          res.Steps,
		Reason:         string(res.Reason),
		FinalEnergy:    res.Final.Energy,
		FinalOrder:     res.Final.Order,
		AcceptRate:     res.Moves.AcceptRate(),
	}
}
