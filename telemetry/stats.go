package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of timesteps.
type WindowStats struct {
	WindowStart int `csv:"-"`
	WindowEnd   int `csv:"window_end"`
	Steps       int `csv:"steps"`

	// Energy over the window
	EnergyMean float64 `csv:"energy_mean"`
	EnergyMin  int     `csv:"energy_min"`
	EnergyMax  int     `csv:"energy_max"`

	// Single order parameter over the window
	OrderMean float64 `csv:"order_mean"`
	OrderStd  float64 `csv:"order_std"`

	// Largest sublattice fraction at window end
	MaxFraction float64 `csv:"max_fraction"`

	// Hops during the window
	Attempted  int     `csv:"attempted"`
	Accepted   int     `csv:"accepted"`
	AcceptRate float64 `csv:"accept_rate"`
}

// Summary describes the distribution of a set of values.
type Summary struct {
	N    int
	Mean float64
	Std  float64
	Min  float64
	Max  float64
	P10  float64
	P50  float64
	P90  float64
}

// Summarize computes mean, sample standard deviation, extremes and
// empirical quantiles. Returns the zero Summary for no values; Std is 0
// for a single value.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	s := Summary{
		N:   n,
		Min: floats.Min(sorted),
		Max: floats.Max(sorted),
		P10: stat.Quantile(0.10, stat.Empirical, sorted, nil),
		P50: stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90: stat.Quantile(0.90, stat.Empirical, sorted, nil),
	}
	if n == 1 {
		s.Mean = sorted[0]
		return s
	}
	s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("n", s.N),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("min", s.Min),
		slog.Float64("max", s.Max),
		slog.Float64("p10", s.P10),
		slog.Float64("p50", s.P50),
		slog.Float64("p90", s.P90),
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStart),
		slog.Int("window_end", s.WindowEnd),
		slog.Int("steps", s.Steps),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Int("energy_min", s.EnergyMin),
		slog.Int("energy_max", s.EnergyMax),
		slog.Float64("order_mean", s.OrderMean),
		slog.Float64("order_std", s.OrderStd),
		slog.Float64("max_fraction", s.MaxFraction),
		slog.Int("attempted", s.Attempted),
		slog.Int("accepted", s.Accepted),
		slog.Float64("accept_rate", s.AcceptRate),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEnd,
		"energy_mean", s.EnergyMean,
		"energy_min", s.EnergyMin,
		"energy_max", s.EnergyMax,
		"order_mean", s.OrderMean,
		"order_std", s.OrderStd,
		"max_fraction", s.MaxFraction,
		"accept_rate", s.AcceptRate,
	)
}
