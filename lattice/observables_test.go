package lattice

import (
	"math"
	"testing"
)

func TestEnergyAndTotalEnergy(t *testing.T) {
	b := New(6, NewRNG(1), 0, 0.5)
	b.SetCell(2, 2, true)
	b.SetCell(3, 2, true)
	b.SetCell(2, 3, true) // odd row, neighbours both (2,2) and (3,2)

	for _, c := range [][2]int{{2, 2}, {3, 2}, {2, 3}} {
		if got := b.Energy(b.Cell(c[0], c[1])); got != 2 {
			t.Errorf("Energy(%d,%d) = %d, want 2", c[0], c[1], got)
		}
	}
	if got := b.Energy(b.Cell(0, 0)); got != 0 {
		t.Errorf("Energy of a distant empty cell = %d, want 0", got)
	}
	if got := b.TotalEnergy(); got != 6 {
		t.Errorf("TotalEnergy = %d, want 6 (three bonds counted twice)", got)
	}
}

func TestTotalEnergyEmpty(t *testing.T) {
	b := New(5, NewRNG(1), 0, 0.2)
	if got := b.TotalEnergy(); got != 0 {
		t.Errorf("TotalEnergy of empty board = %d", got)
	}
}

func TestSublattice(t *testing.T) {
	tests := []struct {
		x, y, want int
	}{
		{0, 0, 0}, {1, 0, 1}, {2, 0, 2}, {3, 0, 0},
		{0, 1, 2}, {1, 1, 0}, {2, 1, 1}, {3, 1, 2},
		{4, 2, 1}, {4, 3, 0},
	}
	for _, tt := range tests {
		if got := Sublattice(tt.x, tt.y); got != tt.want {
			t.Errorf("Sublattice(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestSublatticeIsProperColouringInside(t *testing.T) {
	b := New(12, NewRNG(1), 0, 0)
	for x := 1; x < 10; x++ {
		for y := 1; y < 10; y++ {
			c := Sublattice(x, y)
			for _, n := range b.Neighbours(x, y) {
				if Sublattice(n.X, n.Y) == c {
					t.Fatalf("(%d,%d) and neighbour (%d,%d) share sublattice %d", x, y, n.X, n.Y, c)
				}
			}
		}
	}
}

func TestOrderHandSet(t *testing.T) {
	// Budget of 18 particles.
	b := New(6, NewRNG(1), 0, 0.5)
	b.SetCell(1, 0, true) // class 1
	b.SetCell(4, 0, true) // class 1
	b.SetCell(2, 1, true) // class 1
	b.SetCell(0, 1, true) // class 2

	order := b.Order()
	want := [3]float64{0, 3.0 / 18, 1.0 / 18}
	for i := range order {
		if math.Abs(order[i]-want[i]) > 1e-12 {
			t.Errorf("Order()[%d] = %v, want %v", i, order[i], want[i])
		}
	}
	single := b.OrderSingle()
	if math.Abs(single-(2*3.0/18+3*1.0/18)) > 1e-12 {
		t.Errorf("OrderSingle() = %v", single)
	}
}

func TestOrderAfterInitialize(t *testing.T) {
	for _, seed := range []uint64{1, 2, 3, 4} {
		b := New(18, NewRNG(seed), 4, 0.3)
		b.Initialize()
		for step := 0; step < 10; step++ {
			b.AdvanceRepulsive()
		}

		order := b.Order()
		var sum float64
		for i, f := range order {
			if f < 0 || f > 1 {
				t.Fatalf("seed %d: fraction %d = %v outside [0,1]", seed, i, f)
			}
			sum += f
		}
		// Every cell belongs to exactly one class and the budget is conserved.
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("seed %d: fractions sum to %v, want 1", seed, sum)
		}

		weighted := order[0] + 2*order[1] + 3*order[2]
		if math.Abs(weighted-b.OrderSingle()) > 1e-12 {
			t.Fatalf("seed %d: weighted sum %v != OrderSingle %v", seed, weighted, b.OrderSingle())
		}
		if s := b.OrderSingle(); s < 1 || s > 3 {
			t.Fatalf("seed %d: OrderSingle %v outside [1,3]", seed, s)
		}
	}
}

func TestOrderFullyOrdered(t *testing.T) {
	b := New(6, NewRNG(1), 0, 1.0/3.0) // budget 12
	placed := 0
	for x := 0; x < 6; x++ {
		for y := 0; y < 6; y++ {
			if Sublattice(x, y) == 2 {
				b.SetCell(x, y, true)
				placed++
			}
		}
	}
	if placed != b.Target() {
		t.Fatalf("placed %d on sublattice 2, budget %d", placed, b.Target())
	}
	if got := b.Order(); got[2] != 1 || got[0] != 0 || got[1] != 0 {
		t.Errorf("Order() = %v, want [0 0 1]", got)
	}
	if got := b.OrderSingle(); got != 3 {
		t.Errorf("OrderSingle() = %v, want 3", got)
	}
}

func TestOrderEmptyBudget(t *testing.T) {
	b := New(5, NewRNG(1), 0, 0)
	if got := b.Order(); got != [3]float64{} {
		t.Errorf("Order() with empty budget = %v, want zeros", got)
	}
	if got := b.OrderSingle(); got != 0 {
		t.Errorf("OrderSingle() with empty budget = %v, want 0", got)
	}
}

func TestOccupiedCellsOrder(t *testing.T) {
	b := New(5, NewRNG(1), 0, 0.2)
	b.SetCell(3, 1, true)
	b.SetCell(0, 4, true)
	b.SetCell(3, 0, true)

	var got [][2]int
	b.OccupiedCells(func(h Hex) {
		got = append(got, [2]int{h.X, h.Y})
	})
	want := [][2]int{{0, 4}, {3, 0}, {3, 1}}
	if len(got) != len(want) {
		t.Fatalf("visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("visited %v, want %v", got, want)
		}
	}
}
