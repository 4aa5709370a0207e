package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/hexgas/lattice"
)

func TestSampleBoard(t *testing.T) {
	// Budget of 18 particles.
	b := lattice.New(6, lattice.NewRNG(1), 0, 0.5)
	b.SetCell(1, 0, true) // class 1
	b.SetCell(2, 0, true) // class 2, bonded to (1,0)
	b.SetCell(1, 1, true) // class 0, bonded to both

	s := SampleBoard(7, b)
	if s.Step != 7 {
		t.Errorf("Step = %d, want 7", s.Step)
	}
	if s.Energy != b.TotalEnergy() || s.Energy != 6 {
		t.Errorf("Energy = %d, want 6", s.Energy)
	}
	want := [3]float64{1.0 / 18, 1.0 / 18, 1.0 / 18}
	if got := s.Fractions(); got != want {
		t.Errorf("Fractions() = %v, want %v", got, want)
	}
	if math.Abs(s.Order-b.OrderSingle()) > 1e-12 {
		t.Errorf("Order = %v, want %v", s.Order, b.OrderSingle())
	}
}

func TestSampleMaxFraction(t *testing.T) {
	tests := []struct {
		s    Sample
		want float64
	}{
		{Sample{OrderA: 0.2, OrderB: 0.5, OrderC: 0.3}, 0.5},
		{Sample{OrderA: 0.96, OrderB: 0.02, OrderC: 0.02}, 0.96},
		{Sample{OrderC: 0.4}, 0.4},
		{Sample{}, 0},
	}
	for _, tt := range tests {
		if got := tt.s.MaxFraction(); got != tt.want {
			t.Errorf("MaxFraction(%+v) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestSeries(t *testing.T) {
	s := NewSeries("energy", 3)
	if s.Len() != 0 || s.Last() != (Point{}) {
		t.Fatalf("new series not empty: %+v", s)
	}
	s.Add(0, 12)
	s.Add(1, 10)
	s.Add(2, 9)

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if got := s.Last(); got != (Point{Step: 2, Value: 9}) {
		t.Errorf("Last() = %+v", got)
	}
	xs, ys := s.Steps(), s.Values()
	for i, want := range []float64{0, 1, 2} {
		if xs[i] != want {
			t.Errorf("Steps()[%d] = %v, want %v", i, xs[i], want)
		}
	}
	for i, want := range []float64{12, 10, 9} {
		if ys[i] != want {
			t.Errorf("Values()[%d] = %v, want %v", i, ys[i], want)
		}
	}
}

func TestRecords(t *testing.T) {
	a := NewSeries("0.3", 2)
	a.Add(0, 1.5)
	a.Add(1, 1.6)
	b := NewSeries("0.4", 1)
	b.Add(0, 2.0)

	got := Records([]Series{a, b})
	want := []SeriesRecord{
		{Label: "0.3", Step: 0, Value: 1.5},
		{Label: "0.3", Step: 1, Value: 1.6},
		{Label: "0.4", Step: 0, Value: 2.0},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
