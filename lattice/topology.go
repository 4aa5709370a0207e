package lattice

// Direction is a neighbour offset in offset coordinates.
type Direction struct {
	DX, DY int
}

// Neighbour offsets by row parity. Order matters: AdvanceRepulsive picks
// the destination by index.
var (
	evenRowDirections = [6]Direction{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {-1, 1}, {-1, -1}}
	oddRowDirections  = [6]Direction{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}}
)

// Directions returns the offset table used for row y.
func Directions(y int) [6]Direction {
	if y%2 == 0 {
		return evenRowDirections
	}
	return oddRowDirections
}

// WrapX maps i onto [0, size). Only single-step overflow is handled.
func (b *Board) WrapX(i int) int {
	if i < 0 {
		return b.size - 1
	}
	if i >= b.size {
		return 0
	}
	return i
}

// WrapY maps i onto the vertical period.
//
// The period is size-1, not size: stepping down from row size-2 lands on
// row 0, while stepping up from row 0 lands on row size-1.
func (b *Board) WrapY(i int) int {
	if i < 0 {
		return b.size - 1
	}
	if i >= b.size-1 {
		return 0
	}
	return i
}

// Neighbours returns copies of the six cells around (x, y).
func (b *Board) Neighbours(x, y int) [6]Hex {
	var n [6]Hex
	for i, d := range Directions(y) {
		n[i] = b.grid[b.WrapX(x+d.DX)][b.WrapY(y+d.DY)]
	}
	return n
}
