package telemetry

import "github.com/pthm-cable/hexgas/lattice"

// Collector accumulates samples within windows of timesteps and produces
// WindowStats.
type Collector struct {
	windowSteps int

	// Current window tracking
	windowStart int
	energies    []float64
	orders      []float64
	last        Sample

	// Cumulative move counters at the start of the window
	movesAtStart lattice.Moves
}

// NewCollector creates a collector flushing every windowSteps timesteps.
func NewCollector(windowSteps int) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{
		windowSteps: windowSteps,
		energies:    make([]float64, 0, windowSteps),
		orders:      make([]float64, 0, windowSteps),
	}
}

// Record adds one sample to the current window.
func (c *Collector) Record(s Sample) {
	c.energies = append(c.energies, float64(s.Energy))
	c.orders = append(c.orders, s.Order)
	c.last = s
}

// ShouldFlush returns true if enough timesteps have passed to flush the window.
func (c *Collector) ShouldFlush(step int) bool {
	return step-c.windowStart >= c.windowSteps
}

// Pending returns the number of samples in the current window.
func (c *Collector) Pending() int { return len(c.energies) }

// Flush produces a WindowStats and resets for the next window.
// moves are the board's cumulative counters; the window reports the
// difference since the previous flush.
func (c *Collector) Flush(step int, moves lattice.Moves) WindowStats {
	window := lattice.Moves{
		Attempted: moves.Attempted - c.movesAtStart.Attempted,
		Accepted:  moves.Accepted - c.movesAtStart.Accepted,
	}

	energy := Summarize(c.energies)
	order := Summarize(c.orders)

	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   step,
		Steps:       len(c.energies),

		EnergyMean: energy.Mean,
		EnergyMin:  int(energy.Min),
		EnergyMax:  int(energy.Max),

		OrderMean: order.Mean,
		OrderStd:  order.Std,

		Attempted:  window.Attempted,
		Accepted:   window.Accepted,
		AcceptRate: window.AcceptRate(),
	}
	if len(c.energies) > 0 {
		stats.MaxFraction = c.last.MaxFraction()
	}

	// Reset for next window
	c.windowStart = step
	c.energies = c.energies[:0]
	c.orders = c.orders[:0]
	c.movesAtStart = moves

	return stats
}

// WindowSteps returns the number of timesteps per window.
func (c *Collector) WindowSteps() int {
	return c.windowSteps
}
