package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/hexgas/lattice"
)

// OddRowShift is added to x on odd rows so that plotted points sit on the
// hexagonal layout.
const OddRowShift = 0.5

// SnapshotRow is one plotted point of a board snapshot.
type SnapshotRow struct {
	X float64 `csv:"x"`
	Y int     `csv:"y"`
}

// SnapshotRows returns the rows of a snapshot of b: three marker rows
// (0,size), (size,0) and (0,0) that fix the plot extent, then one row per
// occupied cell in x-major order.
func SnapshotRows(b *lattice.Board) []SnapshotRow {
	size := b.Size()
	rows := make([]SnapshotRow, 0, b.Target()+3)
	rows = append(rows,
		SnapshotRow{X: 0, Y: size},
		SnapshotRow{X: float64(size), Y: 0},
		SnapshotRow{X: 0, Y: 0},
	)
	b.OccupiedCells(func(h lattice.Hex) {
		x := float64(h.X)
		if h.Y%2 == 1 {
			x += OddRowShift
		}
		rows = append(rows, SnapshotRow{X: x, Y: h.Y})
	})
	return rows
}

// WriteSnapshot writes the snapshot of b as CSV with an x,y header.
func WriteSnapshot(w io.Writer, b *lattice.Board) error {
	if err := gocsv.Marshal(SnapshotRows(b), w); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// SaveSnapshot writes the snapshot of b to dir/name and returns the path.
func SaveSnapshot(b *lattice.Board, dir, name string) (string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating snapshot directory: %w", err)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating snapshot file: %w", err)
	}

	if err := WriteSnapshot(f, b); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing snapshot file: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads snapshot rows back from a CSV file.
func LoadSnapshot(path string) ([]SnapshotRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()

	var rows []SnapshotRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return rows, nil
}
