// Package telemetry samples lattice observables and writes them out as
// series, window statistics, milestones and snapshots.
package telemetry

import "github.com/pthm-cable/hexgas/lattice"

// Sample holds the observables of a board after one timestep.
type Sample struct {
	Step   int     `csv:"step"`
	Energy int     `csv:"energy"`
	OrderA float64 `csv:"order_a"`
	OrderB float64 `csv:"order_b"`
	OrderC float64 `csv:"order_c"`
	Order  float64 `csv:"order"`
}

// SampleBoard reads the current observables of b.
func SampleBoard(step int, b *lattice.Board) Sample {
	fractions := b.Order()
	return Sample{
		Step:   step,
		Energy: b.TotalEnergy(),
		OrderA: fractions[0],
		OrderB: fractions[1],
		OrderC: fractions[2],
		Order:  b.OrderSingle(),
	}
}

// Fractions returns the three sublattice fractions in class order.
func (s Sample) Fractions() [3]float64 {
	return [3]float64{s.OrderA, s.OrderB, s.OrderC}
}

// MaxFraction returns the largest sublattice fraction.
func (s Sample) MaxFraction() float64 {
	return max(s.OrderA, s.OrderB, s.OrderC)
}

// Point is one (timestep, value) pair.
type Point struct {
	Step  int
	Value float64
}

// Series is an ordered list of points with a display label.
type Series struct {
	Label  string
	Points []Point
}

// NewSeries returns an empty series with room for n points.
func NewSeries(label string, n int) Series {
	return Series{Label: label, Points: make([]Point, 0, n)}
}

// Add appends a point.
func (s *Series) Add(step int, value float64) {
	s.Points = append(s.Points, Point{Step: step, Value: value})
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Points) }

// Steps returns the x values as float64 for charting.
func (s Series) Steps() []float64 {
	xs := make([]float64, len(s.Points))
	for i, p := range s.Points {
		xs[i] = float64(p.Step)
	}
	return xs
}

// Values returns the y values.
func (s Series) Values() []float64 {
	ys := make([]float64, len(s.Points))
	for i, p := range s.Points {
		ys[i] = p.Value
	}
	return ys
}

// Last returns the final point, or the zero Point for an empty series.
func (s Series) Last() Point {
	if len(s.Points) == 0 {
		return Point{}
	}
	return s.Points[len(s.Points)-1]
}

// SeriesRecord is the long-format CSV row used to export several series
// into one file.
type SeriesRecord struct {
	Label string  `csv:"label"`
	Step  int     `csv:"step"`
	Value float64 `csv:"value"`
}

// Records flattens series into CSV rows, series by series.
func Records(series []Series) []SeriesRecord {
	var n int
	for _, s := range series {
		n += len(s.Points)
	}
	out := make([]SeriesRecord, 0, n)
	for _, s := range series {
		for _, p := range s.Points {
			out = append(out, SeriesRecord{Label: s.Label, Step: p.Step, Value: p.Value})
		}
	}
	return out
}
