package sim

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/hexgas/config"
	"github.com/pthm-cable/hexgas/lattice"
	"github.com/pthm-cable/hexgas/telemetry"
)

// Kind names the parameter a sweep varies.
type Kind string

const (
	KindFill  Kind = config.SweepFill
	KindBetaj Kind = config.SweepBetaj
	KindSize  Kind = config.SweepSize
)

// SweepSpec describes a batch of fixed-length runs over one parameter.
// Parameters not swept are held at Size, Disorder and FillRate.
type SweepSpec struct {
	Name     string
	Kind     Kind
	Runs     int
	Min      float64
	Max      float64 // excluded
	Steps    int
	Size     int
	Disorder float64
	FillRate float64
	Seed     uint64 // master seed for per-run seeds
}

// SpecFromConfig builds a sweep spec from a configured sweep.
func SpecFromConfig(sc config.SweepConfig, seed uint64) SweepSpec {
	return SweepSpec{
		Name:     sc.Name,
		Kind:     Kind(sc.Kind),
		Runs:     sc.Runs,
		Min:      sc.Min,
		Max:      sc.Max,
		Steps:    sc.Steps,
		Size:     sc.Size,
		Disorder: sc.Betaj,
		FillRate: sc.FillRate,
		Seed:     seed,
	}
}

// SweepPoint is one run of a sweep.
type SweepPoint struct {
	Index    int
	Value    float64 // swept parameter
	Label    string
	Seed     uint64
	Size     int
	Disorder float64
	FillRate float64

	Order   telemetry.Series // single order parameter per timestep
	Final   telemetry.Sample
	Moves   lattice.Moves
	Summary telemetry.Summary
}

// SweepResult holds the points of a sweep in parameter order.
type SweepResult struct {
	Spec   SweepSpec
	Points []SweepPoint
}

// Series returns the order series of every point, labelled by value.
func (r *SweepResult) Series() []telemetry.Series {
	out := make([]telemetry.Series, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Order
	}
	return out
}

// GenRange returns n values spaced evenly from lo towards hi, with hi
// itself excluded: lo + i*(hi-lo)/n for i in [0,n).
func GenRange(n int, lo, hi float64) []float64 {
	if n <= 0 {
		return nil
	}
	return floats.Span(make([]float64, n+1), lo, hi)[:n]
}

// DeriveSeeds draws n per-run seeds from a generator seeded with master.
func DeriveSeeds(master uint64, n int) []uint64 {
	rng := lattice.NewRNG(master)
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = rng.Uint64()
	}
	return seeds
}

// Label formats a swept value for legends. Sizes are truncated to integers.
func (k Kind) Label(v float64) string {
	if k == KindSize {
		return strconv.Itoa(int(v))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// points lays out the parameters of every run before any run starts.
func (s SweepSpec) points() ([]SweepPoint, error) {
	values := GenRange(s.Runs, s.Min, s.Max)
	seeds := DeriveSeeds(s.Seed, s.Runs)

	points := make([]SweepPoint, len(values))
	for i, v := range values {
		p := SweepPoint{
			Index:    i,
			Value:    v,
			Label:    s.Kind.Label(v),
			Seed:     seeds[i],
			Size:     s.Size,
			Disorder: s.Disorder,
			FillRate: s.FillRate,
		}
		switch s.Kind {
		case KindFill:
			p.FillRate = v
		case KindBetaj:
			p.Disorder = v
		case KindSize:
			p.Size = int(v)
		default:
			return nil, fmt.Errorf("sweep %q: unknown kind %q", s.Name, s.Kind)
		}
		if err := config.ValidateLattice(p.Size, p.FillRate); err != nil {
			return nil, fmt.Errorf("sweep %q point %s: %w", s.Name, p.Label, err)
		}
		points[i] = p
	}
	return points, nil
}

// RunSweep runs every point of the sweep for Steps timesteps on at most
// workers goroutines (0 = GOMAXPROCS). Each run owns its board and
// generator, and results are stored by index, so the output does not
// depend on scheduling. The context is checked before each run starts.
func RunSweep(ctx context.Context, spec SweepSpec, workers int) (*SweepResult, error) {
	if spec.Steps < 1 {
		return nil, fmt.Errorf("sweep %q: steps must be at least 1", spec.Name)
	}
	points, err := spec.points()
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	slog.Info("sweep started", "name", spec.Name, "kind", string(spec.Kind), "runs", len(points), "workers", workers)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range points {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			runPoint(&points[i], spec.Steps)
			slog.Info("sweep run finished",
				"name", spec.Name,
				"value", points[i].Label,
				"order", points[i].Final.Order,
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sweep %q: %w", spec.Name, err)
	}

	return &SweepResult{Spec: spec, Points: points}, nil
}

// runPoint advances a fresh board for steps timesteps, sampling the single
// order parameter after each.
func runPoint(p *SweepPoint, steps int) {
	board := lattice.New(p.Size, lattice.NewRNG(p.Seed), p.Disorder, p.FillRate)
	board.Initialize()

	p.Order = telemetry.NewSeries(p.Label, steps)
	for step := 0; step < steps; step++ {
		board.AdvanceRepulsive()
		p.Order.Add(step, board.OrderSingle())
	}
	p.Final = telemetry.SampleBoard(steps-1, board)
	p.Moves = board.Moves()
	p.Summary = telemetry.Summarize(p.Order.Values())
}
