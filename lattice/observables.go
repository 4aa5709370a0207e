package lattice

// TotalEnergy sums, over occupied cells, the number of occupied neighbours.
// Every occupied pair is counted from both sides.
func (b *Board) TotalEnergy() int {
	total := 0
	for x := range b.grid {
		for y := range b.grid[x] {
			if b.grid[x][y].Occupied {
				total += b.Energy(b.grid[x][y])
			}
		}
	}
	return total
}

// Sublattice returns the colour class (0, 1 or 2) of site (x, y).
// Odd rows are shifted by one column against even rows.
func Sublattice(x, y int) int {
	c := x % 3
	if y%2 == 0 {
		return c
	}
	return (c + 2) % 3
}

// sublatticeCounts tallies occupied cells per colour class.
func (b *Board) sublatticeCounts() [3]int {
	var counts [3]int
	for x := range b.grid {
		for y := range b.grid[x] {
			if b.grid[x][y].Occupied {
				counts[Sublattice(x, y)]++
			}
		}
	}
	return counts
}

// Order returns the fraction of the particle budget sitting on each
// sublattice. A board with an empty budget reports zeros.
func (b *Board) Order() [3]float64 {
	var order [3]float64
	target := b.Target()
	if target == 0 {
		return order
	}
	counts := b.sublatticeCounts()
	for i, c := range counts {
		order[i] = float64(c) / float64(target)
	}
	return order
}

// OrderSingle folds Order into one scalar a + 2b + 3c. Full ordering onto a
// single sublattice gives 1, 2 or 3; an even spread gives 2.
func (b *Board) OrderSingle() float64 {
	o := b.Order()
	return o[0] + 2*o[1] + 3*o[2]
}
