package lattice

import "math"

// Initialize scatters Target() particles by rejection sampling.
//
// Rows are drawn from [0, size-1), so the last row starts empty. The loop
// has no retry bound: call it once, on a fresh board, with a fill rate the
// sampled rows can hold.
func (b *Board) Initialize() {
	for placed := b.Target(); placed > 0; placed-- {
		for {
			x := b.rng.IntN(b.size)
			y := b.rng.IntN(b.size - 1)
			if !b.grid[x][y].Occupied {
				b.grid[x][y].Occupied = true
				break
			}
		}
	}
}

// Energy returns the number of occupied neighbours of h.
func (b *Board) Energy(h Hex) int {
	count := 0
	for _, n := range b.Neighbours(h.X, h.Y) {
		if n.Occupied {
			count++
		}
	}
	return count
}

// AdvanceRepulsive performs one sweep: every cell, in (x, y) row-major
// order, attempts to hop to a random neighbour.
//
// The grid is updated in place, so cells later in the sweep see moves made
// earlier in the same sweep. A neighbour is drawn for every cell, occupied
// or not; the acceptance draw only happens for unfavourable moves.
func (b *Board) AdvanceRepulsive() {
	for x := 0; x < b.size; x++ {
		for y := 0; y < b.size; y++ {
			src := b.grid[x][y]
			srcEnergy := b.Energy(src)
			ne := b.Neighbours(x, y)
			dst := ne[b.rng.IntN(len(ne))]

			if !src.Occupied || dst.Occupied {
				continue
			}
			b.moves.Attempted++

			// dst still counts src as a neighbour; drop it.
			dstEnergy := b.Energy(dst) - 1
			if srcEnergy <= dstEnergy && !b.AcceptChange(float64(srcEnergy-dstEnergy)) {
				continue
			}
			b.grid[x][y].Occupied = false
			b.grid[dst.X][dst.Y].Occupied = true
			b.moves.Accepted++
		}
	}
}

// AcceptChange draws once from the board's generator and reports success
// with probability exp(delta × disorder). delta is expected to be <= 0.
func (b *Board) AcceptChange(delta float64) bool {
	return b.rng.Float64() < math.Exp(delta*b.disorder)
}
