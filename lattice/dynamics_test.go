package lattice

import (
	"math"
	"testing"
)

func TestNewBoard(t *testing.T) {
	b := New(7, NewRNG(3), 2.5, 0.3)
	if b.Size() != 7 || b.Disorder() != 2.5 || b.FillRate() != 0.3 {
		t.Fatalf("parameters not stored verbatim: size=%d disorder=%v fill=%v", b.Size(), b.Disorder(), b.FillRate())
	}
	for x := 0; x < 7; x++ {
		for y := 0; y < 7; y++ {
			c := b.Cell(x, y)
			if c.X != x || c.Y != y {
				t.Fatalf("cell [%d][%d] has coordinates (%d,%d)", x, y, c.X, c.Y)
			}
			if c.Occupied {
				t.Fatalf("cell (%d,%d) occupied on a fresh board", x, y)
			}
		}
	}
}

func TestSetCell(t *testing.T) {
	b := New(4, NewRNG(1), 0, 0.25)
	b.SetCell(1, 2, true)
	if !b.Cell(1, 2).Occupied {
		t.Fatal("SetCell(1,2,true) did not occupy the cell")
	}
	b.SetCell(1, 2, false)
	if b.Cell(1, 2).Occupied {
		t.Fatal("SetCell(1,2,false) did not clear the cell")
	}
}

func TestTarget(t *testing.T) {
	tests := []struct {
		size int
		fill float64
		want int
	}{
		{4, 0.25, 4},
		{10, 0.3, 30},
		{30, 1.0 / 3.0, 300},
		{30, 0.5, 450},
		{7, 0.1, 4},
		{5, 0, 0},
	}
	for _, tt := range tests {
		b := New(tt.size, NewRNG(1), 0, tt.fill)
		if got := b.Target(); got != tt.want {
			t.Errorf("Target(size=%d, fill=%v) = %d, want %d", tt.size, tt.fill, got, tt.want)
		}
	}
}

func TestInitializePlacesTarget(t *testing.T) {
	for size := 2; size <= 14; size++ {
		for _, fill := range []float64{0.1, 0.25, 0.4} {
			b := New(size, NewRNG(uint64(size)*31), 1, fill)
			b.Initialize()

			want := int(math.Floor(float64(size*size) * fill))
			if got := b.Occupied(); got != want {
				t.Fatalf("size %d fill %v: %d occupied, want %d", size, fill, got, want)
			}
			for x := 0; x < size; x++ {
				if b.Cell(x, size-1).Occupied {
					t.Fatalf("size %d fill %v: last row cell (%d,%d) occupied by Initialize", size, fill, x, size-1)
				}
			}
		}
	}
}

func TestAdvanceConservesOccupancy(t *testing.T) {
	for _, disorder := range []float64{0, 0.5, 4, 1000} {
		b := New(12, NewRNG(99), disorder, 0.3)
		b.Initialize()
		want := b.Occupied()
		for step := 0; step < 50; step++ {
			b.AdvanceRepulsive()
			if got := b.Occupied(); got != want {
				t.Fatalf("disorder %v step %d: %d occupied, want %d", disorder, step, got, want)
			}
		}
	}
}

func TestSmallBoardScenario(t *testing.T) {
	b := New(4, NewRNG(2024), 0, 0.25)
	b.Initialize()
	if got := b.Occupied(); got != 4 {
		t.Fatalf("Initialize placed %d particles, want 4", got)
	}
	b.AdvanceRepulsive()
	if got := b.Occupied(); got != 4 {
		t.Fatalf("after one timestep %d particles, want 4", got)
	}
}

func TestDeterminism(t *testing.T) {
	a := New(16, NewRNG(123067890), 3, 1.0/3.0)
	b := New(16, NewRNG(123067890), 3, 1.0/3.0)
	a.Initialize()
	b.Initialize()

	for step := 0; step < 200; step++ {
		a.AdvanceRepulsive()
		b.AdvanceRepulsive()
		if ea, eb := a.TotalEnergy(), b.TotalEnergy(); ea != eb {
			t.Fatalf("step %d: energy diverged %d != %d", step, ea, eb)
		}
		if oa, ob := a.OrderSingle(), b.OrderSingle(); oa != ob {
			t.Fatalf("step %d: order diverged %v != %v", step, oa, ob)
		}
	}
	if a.Moves() != b.Moves() {
		t.Fatalf("move counters diverged: %+v != %+v", a.Moves(), b.Moves())
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(16, NewRNG(1), 3, 0.3)
	b := New(16, NewRNG(2), 3, 0.3)
	a.Initialize()
	b.Initialize()

	same := true
	for x := 0; x < 16 && same; x++ {
		for y := 0; y < 16; y++ {
			if a.Cell(x, y).Occupied != b.Cell(x, y).Occupied {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("different seeds produced identical initial placement")
	}
}

func TestAcceptChange(t *testing.T) {
	const trials = 10000

	t.Run("high disorder rejects uphill moves", func(t *testing.T) {
		b := New(4, NewRNG(5), 1000, 0.25)
		for _, delta := range []float64{-1, -2, -6} {
			for i := 0; i < trials; i++ {
				if b.AcceptChange(delta) {
					t.Fatalf("AcceptChange(%v) accepted with disorder 1000", delta)
				}
			}
		}
	})

	t.Run("neutral moves always accepted", func(t *testing.T) {
		b := New(4, NewRNG(5), 1000, 0.25)
		for i := 0; i < trials; i++ {
			if !b.AcceptChange(0) {
				t.Fatal("AcceptChange(0) rejected")
			}
		}
	})

	t.Run("zero disorder accepts everything", func(t *testing.T) {
		b := New(4, NewRNG(5), 0, 0.25)
		for i := 0; i < trials; i++ {
			if !b.AcceptChange(-3) {
				t.Fatal("AcceptChange(-3) rejected with disorder 0")
			}
		}
	})

	t.Run("acceptance frequency follows exp", func(t *testing.T) {
		b := New(4, NewRNG(5), math.Ln2, 0.25)
		accepted := 0
		for i := 0; i < trials; i++ {
			if b.AcceptChange(-1) {
				accepted++
			}
		}
		rate := float64(accepted) / trials
		if math.Abs(rate-0.5) > 0.03 {
			t.Errorf("acceptance rate %.3f, want about 0.5", rate)
		}
	})
}

func TestMoveCounters(t *testing.T) {
	b := New(10, NewRNG(8), 2, 0.3)
	b.Initialize()
	if b.Moves() != (Moves{}) {
		t.Fatalf("fresh board has move counters %+v", b.Moves())
	}
	for i := 0; i < 20; i++ {
		b.AdvanceRepulsive()
	}
	m := b.Moves()
	if m.Attempted == 0 {
		t.Fatal("no hop attempts after 20 sweeps")
	}
	if m.Accepted > m.Attempted {
		t.Fatalf("accepted %d > attempted %d", m.Accepted, m.Attempted)
	}
	if r := m.AcceptRate(); r < 0 || r > 1 {
		t.Fatalf("accept rate %v outside [0,1]", r)
	}
}

func TestLoneParticleHopsFreely(t *testing.T) {
	// Every hop of an isolated particle is energy neutral, so even a huge
	// disorder accepts it.
	b := New(8, NewRNG(11), 1000, 0.1)
	b.SetCell(3, 3, true)
	b.AdvanceRepulsive()
	if b.Occupied() != 1 {
		t.Fatalf("occupancy changed to %d", b.Occupied())
	}
	m := b.Moves()
	if m.Attempted == 0 {
		t.Fatal("lone particle never attempted a hop")
	}
	if m.Accepted != m.Attempted {
		t.Errorf("neutral hops rejected: %+v", m)
	}
}

func TestAdvanceUpdatesInPlace(t *testing.T) {
	// (0,0) is the first cell of the sweep, so every neighbour it can hop to
	// is visited later in the same sweep and sees the particle there.
	for seed := uint64(1); seed <= 50; seed++ {
		b := New(6, NewRNG(seed), 0, 0.1)
		b.SetCell(0, 0, true)
		b.AdvanceRepulsive()
		if m := b.Moves(); m.Attempted < 2 {
			t.Fatalf("seed %d: %d hop attempts in one sweep, want at least 2", seed, m.Attempted)
		}
		if b.Occupied() != 1 {
			t.Fatalf("seed %d: occupancy changed to %d", seed, b.Occupied())
		}
	}
}
