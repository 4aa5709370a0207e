// Package sim drives lattice runs: single runs that stop once the lattice
// orders, and sweeps of fixed-length runs over one parameter.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/hexgas/config"
	"github.com/pthm-cable/hexgas/lattice"
	"github.com/pthm-cable/hexgas/telemetry"
)

// StopReason records why a run ended.
type StopReason string

const (
	StopOrdered   StopReason = "ordered"
	StopMaxSteps  StopReason = "max_steps"
	StopCancelled StopReason = "cancelled"
)

// Options configures a single run.
type Options struct {
	Size           int
	Disorder       float64 // betaj
	FillRate       float64
	Seed           uint64
	OrderThreshold float64 // Stop once a sublattice fraction exceeds this (0 = never)
	MaxSteps       int     // Stop after N timesteps (0 = unlimited)

	// Telemetry
	Window         int // Steps per stats window (0 = no windows)
	PlateauWindows int
	PlateauEpsilon float64
	PerfWindow     int
	LogStats       bool
	SnapshotDir    string // Snapshot written on every milestone (empty = none)

	Output            *telemetry.OutputManager
	StatsCallback     func(telemetry.WindowStats)
	MilestoneCallback func(telemetry.Milestone)
}

// OptionsFromConfig builds run options from the run and telemetry sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Size:           cfg.Run.Size,
		Disorder:       cfg.Run.Betaj,
		FillRate:       cfg.Run.FillRate,
		Seed:           cfg.Run.Seed,
		OrderThreshold: cfg.Run.OrderThreshold,
		MaxSteps:       cfg.Run.MaxSteps,
		Window:         cfg.Telemetry.Window,
		PlateauWindows: cfg.Telemetry.PlateauWindows,
		PlateauEpsilon: cfg.Telemetry.PlateauEpsilon,
		PerfWindow:     cfg.Telemetry.PerfWindow,
	}
}

// ErrUnbounded is returned for options that would never stop.
var ErrUnbounded = errors.New("run has neither an order threshold nor a step limit")

// Result holds the series and final state of a run.
type Result struct {
	Steps  int
	Reason StopReason

	Energy      telemetry.Series
	Orders      [3]telemetry.Series
	OrderSingle telemetry.Series

	Final      telemetry.Sample
	Milestones []telemetry.Milestone
	Moves      lattice.Moves
	Summary    telemetry.Summary // Distribution of the single order parameter

	Board *lattice.Board
}

// Samples rebuilds the per-timestep samples from the recorded series.
func (r *Result) Samples() []telemetry.Sample {
	out := make([]telemetry.Sample, r.Energy.Len())
	for i, p := range r.Energy.Points {
		out[i] = telemetry.Sample{
			Step:   p.Step,
			Energy: int(p.Value),
			OrderA: r.Orders[0].Points[i].Value,
			OrderB: r.Orders[1].Points[i].Value,
			OrderC: r.Orders[2].Points[i].Value,
			Order:  r.OrderSingle.Points[i].Value,
		}
	}
	return out
}

// runner holds the per-run telemetry state.
type runner struct {
	opts   Options
	board  *lattice.Board
	result *Result

	collector  *telemetry.Collector
	milestones *telemetry.MilestoneDetector
	perf       *telemetry.PerfCollector
	pending    []telemetry.Sample
}

// Run initializes a board and advances it one timestep at a time, sampling
// energy and order after every step, until a sublattice fraction exceeds
// the order threshold or MaxSteps is reached. The context is checked
// between timesteps; on cancellation the partial result is returned along
// with the context error.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if err := config.ValidateLattice(opts.Size, opts.FillRate); err != nil {
		return nil, err
	}
	if opts.OrderThreshold <= 0 && opts.MaxSteps <= 0 {
		return nil, ErrUnbounded
	}

	board := lattice.New(opts.Size, lattice.NewRNG(opts.Seed), opts.Disorder, opts.FillRate)
	board.Initialize()

	r := newRunner(opts, board)
	slog.Info("run started",
		"seed", opts.Seed,
		"size", opts.Size,
		"betaj", opts.Disorder,
		"fill_rate", opts.FillRate,
		"particles", board.Occupied(),
	)

	err := r.loop(ctx)
	if flushErr := r.finish(); flushErr != nil && err == nil {
		err = flushErr
	}

	res := r.result
	slog.Info("run finished",
		"reason", string(res.Reason),
		"steps", res.Steps,
		"energy", res.Final.Energy,
		"order", res.Final.Order,
		"accept_rate", res.Moves.AcceptRate(),
	)
	return res, err
}

func newRunner(opts Options, board *lattice.Board) *runner {
	capHint := opts.MaxSteps
	if capHint <= 0 {
		capHint = 1024
	}
	r := &runner{
		opts:  opts,
		board: board,
		result: &Result{
			Energy:      telemetry.NewSeries("energy", capHint),
			OrderSingle: telemetry.NewSeries("order", capHint),
			Board:       board,
		},
		milestones: telemetry.NewMilestoneDetector(opts.OrderThreshold, opts.PlateauWindows, opts.PlateauEpsilon),
		perf:       telemetry.NewPerfCollector(opts.PerfWindow),
	}
	for i := range r.result.Orders {
		r.result.Orders[i] = telemetry.NewSeries(fmt.Sprint(i+1), capHint)
	}
	if opts.Window > 0 {
		r.collector = telemetry.NewCollector(opts.Window)
	}
	return r
}

func (r *runner) loop(ctx context.Context) error {
	for step := 0; ; step++ {
		if err := ctx.Err(); err != nil {
			r.result.Reason = StopCancelled
			return err
		}

		r.perf.StartStep()
		r.perf.StartPhase(telemetry.PhaseAdvance)
		r.board.AdvanceRepulsive()

		r.perf.StartPhase(telemetry.PhaseObserve)
		s := telemetry.SampleBoard(step, r.board)
		r.record(s)

		r.perf.StartPhase(telemetry.PhaseOutput)
		if err := r.observe(s); err != nil {
			r.perf.EndStep()
			return err
		}
		r.perf.EndStep()

		if r.opts.OrderThreshold > 0 && s.MaxFraction() > r.opts.OrderThreshold {
			r.result.Reason = StopOrdered
			return nil
		}
		if r.opts.MaxSteps > 0 && r.result.Steps >= r.opts.MaxSteps {
			r.result.Reason = StopMaxSteps
			return nil
		}
	}
}

func (r *runner) record(s telemetry.Sample) {
	res := r.result
	res.Energy.Add(s.Step, float64(s.Energy))
	res.Orders[0].Add(s.Step, s.OrderA)
	res.Orders[1].Add(s.Step, s.OrderB)
	res.Orders[2].Add(s.Step, s.OrderC)
	res.OrderSingle.Add(s.Step, s.Order)
	res.Final = s
	res.Steps++
}

// observe feeds a sample to windows, milestones and the output files.
func (r *runner) observe(s telemetry.Sample) error {
	for _, m := range r.milestones.CheckSample(s) {
		if err := r.handleMilestone(m); err != nil {
			return err
		}
	}

	if r.opts.Output != nil {
		r.pending = append(r.pending, s)
	}

	if r.collector == nil {
		return nil
	}
	r.collector.Record(s)
	// Steps are 0-based, so a window closes after Window samples.
	if !r.collector.ShouldFlush(s.Step + 1) {
		return nil
	}
	return r.flushWindow(s.Step + 1)
}

func (r *runner) flushWindow(end int) error {
	stats := r.collector.Flush(end, r.board.Moves())
	perfStats := r.perf.Stats()

	if r.opts.StatsCallback != nil {
		r.opts.StatsCallback(stats)
	}
	if r.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if out := r.opts.Output; out != nil {
		if err := out.WriteSamples(r.pending); err != nil {
			return err
		}
		r.pending = r.pending[:0]
		if err := out.WriteWindow(stats); err != nil {
			return err
		}
		if err := out.WritePerf(perfStats, stats.WindowEnd); err != nil {
			return err
		}
	}

	for _, m := range r.milestones.CheckWindow(stats) {
		if err := r.handleMilestone(m); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) handleMilestone(m telemetry.Milestone) error {
	r.result.Milestones = append(r.result.Milestones, m)
	if r.opts.LogStats {
		m.LogMilestone()
	}
	if r.opts.MilestoneCallback != nil {
		r.opts.MilestoneCallback(m)
	}
	if err := r.opts.Output.WriteMilestone(m); err != nil {
		return err
	}
	if r.opts.SnapshotDir != "" {
		name := fmt.Sprintf("snapshot_%d_%s.csv", m.Step, m.Type)
		if _, err := telemetry.SaveSnapshot(r.board, r.opts.SnapshotDir, name); err != nil {
			return err
		}
	}
	return nil
}

// finish writes samples left over from a partial window and fills in the
// run summary.
func (r *runner) finish() error {
	res := r.result
	res.Moves = r.board.Moves()
	res.Summary = telemetry.Summarize(res.OrderSingle.Values())

	if r.collector != nil && r.collector.Pending() > 0 {
		end := res.Final.Step + 1
		if err := r.flushWindow(end); err != nil {
			return err
		}
	}
	if err := r.opts.Output.WriteSamples(r.pending); err != nil {
		return err
	}
	r.pending = nil
	return nil
}
