package main

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hexgas/sim"
)

// unorderedPenalty scales max_steps for runs that never order, so a run
// that hits the cap scores worse than one ordering on its last step.
const unorderedPenalty = 2.0

// Evaluation is the outcome of one parameter vector across all seeds.
type Evaluation struct {
	Eval      int     `csv:"eval"`
	Fitness   float64 `csv:"fitness"`
	MeanSteps float64 `csv:"mean_steps"`
	StdSteps  float64 `csv:"std_steps"`
	Ordered   int     `csv:"ordered"`
	Betaj     float64 `csv:"betaj"`
	FillRate  float64 `csv:"fill_rate"`
}

// FitnessEvaluator runs seeded simulations and scores steps to order.
type FitnessEvaluator struct {
	size      int
	maxSteps  int
	threshold float64
	seeds     []uint64

	mu   sync.Mutex
	best Evaluation
}

// NewFitnessEvaluator creates an evaluator. Every evaluation reuses the
// same seeds so candidates are compared on identical random streams.
func NewFitnessEvaluator(size, maxSteps int, threshold float64, seeds []uint64) *FitnessEvaluator {
	return &FitnessEvaluator{
		size:      size,
		maxSteps:  maxSteps,
		threshold: threshold,
		seeds:     seeds,
		best:      Evaluation{Fitness: math.Inf(1)},
	}
}

// Best returns the lowest-fitness evaluation seen so far.
func (fe *FitnessEvaluator) Best() Evaluation {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.best
}

// Evaluate runs one simulation per seed in parallel and returns the mean
// steps to order (lower = better). Runs that reach max_steps without
// ordering count as unorderedPenalty × max_steps.
func (fe *FitnessEvaluator) Evaluate(ctx context.Context, betaj, fillRate float64) (Evaluation, error) {
	steps := make([]float64, len(fe.seeds))
	ordered := make([]bool, len(fe.seeds))

	g, ctx := errgroup.WithContext(ctx)
	for i, seed := range fe.seeds {
		g.Go(func() error {
			res, err := sim.Run(ctx, sim.Options{
				Size:           fe.size,
				Disorder:       betaj,
				FillRate:       fillRate,
				Seed:           seed,
				OrderThreshold: fe.threshold,
				MaxSteps:       fe.maxSteps,
			})
			if err != nil {
				return err
			}
			steps[i], ordered[i] = fe.score(res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Evaluation{}, err
	}

	ev := Evaluation{Betaj: betaj, FillRate: fillRate}
	ev.MeanSteps, ev.StdSteps = stat.MeanStdDev(steps, nil)
	if len(steps) < 2 {
		ev.StdSteps = 0
	}
	for _, ok := range ordered {
		if ok {
			ev.Ordered++
		}
	}
	ev.Fitness = ev.MeanSteps

	fe.mu.Lock()
	if ev.Fitness < fe.best.Fitness {
		fe.best = ev
	}
	fe.mu.Unlock()

	return ev, nil
}

// score converts a run into its step cost and whether it ordered.
func (fe *FitnessEvaluator) score(res *sim.Result) (float64, bool) {
	if res.Reason == sim.StopOrdered {
		return float64(res.Steps), true
	}
	return unorderedPenalty * float64(fe.maxSteps), false
}
