// Package lattice implements a kinetic lattice gas on a flat-top hexagonal
// grid stored in offset coordinates.
//
// A Board owns its grid and its random generator. None of its methods are
// safe for concurrent use; run independent boards for parallel work.
package lattice

import "math/rand/v2"

// Hex is a single lattice site. Coordinates are fixed at construction.
type Hex struct {
	X        int
	Y        int
	Occupied bool
}

// Moves counts hop attempts made by AdvanceRepulsive.
// Attempted covers every occupied source whose drawn neighbour was empty.
type Moves struct {
	Attempted int
	Accepted  int
}

// AcceptRate returns Accepted/Attempted, or 0 before any attempt.
func (m Moves) AcceptRate() float64 {
	if m.Attempted == 0 {
		return 0
	}
	return float64(m.Accepted) / float64(m.Attempted)
}

// Board is a size×size hexagonal lattice indexed as grid[x][y].
type Board struct {
	size     int
	disorder float64
	fillRate float64
	grid     [][]Hex
	rng      *rand.Rand

	moves Moves
}

// New allocates an empty board. The generator is owned by the board from
// here on and must not be shared with another board.
func New(size int, rng *rand.Rand, disorder, fillRate float64) *Board {
	grid := make([][]Hex, size)
	for x := range grid {
		col := make([]Hex, size)
		for y := range col {
			col[y] = Hex{X: x, Y: y}
		}
		grid[x] = col
	}
	return &Board{
		size:     size,
		disorder: disorder,
		fillRate: fillRate,
		grid:     grid,
		rng:      rng,
	}
}

// NewRNG returns a deterministic generator for seed.
func NewRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

// Size returns the edge length of the board.
func (b *Board) Size() int { return b.size }

// Disorder returns the betaj coupling.
func (b *Board) Disorder() float64 { return b.disorder }

// FillRate returns the target fraction of occupied cells.
func (b *Board) FillRate() float64 { return b.fillRate }

// Target returns the number of particles Initialize places.
// The product is taken in single precision so that fractions such as 1/3
// round the same way as the reference model.
func (b *Board) Target() int {
	return int(float32(b.size*b.size) * float32(b.fillRate))
}

// Cell returns a copy of the cell at (x, y).
func (b *Board) Cell(x, y int) Hex {
	return b.grid[x][y]
}

// SetCell sets the occupancy of the cell at (x, y).
func (b *Board) SetCell(x, y int, occupied bool) {
	b.grid[x][y].Occupied = occupied
}

// Moves returns the cumulative hop counters.
func (b *Board) Moves() Moves { return b.moves }

// Occupied counts occupied cells.
func (b *Board) Occupied() int {
	n := 0
	for x := range b.grid {
		for y := range b.grid[x] {
			if b.grid[x][y].Occupied {
				n++
			}
		}
	}
	return n
}

// OccupiedCells calls fn for every occupied cell in (x, y) row-major order.
func (b *Board) OccupiedCells(fn func(Hex)) {
	for x := range b.grid {
		for y := range b.grid[x] {
			if b.grid[x][y].Occupied {
				fn(b.grid[x][y])
			}
		}
	}
}
