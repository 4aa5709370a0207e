package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// MilestoneType identifies the type of milestone.
type MilestoneType string

const (
	MilestoneHalfOrdered MilestoneType = "half_ordered"
	MilestoneOrdered     MilestoneType = "ordered"
	MilestonePlateau     MilestoneType = "plateau"
)

// HalfOrderedFraction is the sublattice fraction that marks half ordering.
const HalfOrderedFraction = 0.5

// Milestone is a point in a run worth looking at afterwards.
type Milestone struct {
	Type        MilestoneType `csv:"type"`
	Step        int           `csv:"step"`
	Description string        `csv:"description"`
}

// LogMilestone logs the milestone using slog.
func (m Milestone) LogMilestone() {
	slog.Info("milestone",
		"type", string(m.Type),
		"step", m.Step,
		"description", m.Description,
	)
}

// MilestoneDetector watches samples and window stats and reports each
// milestone type at most once per run.
type MilestoneDetector struct {
	threshold float64
	epsilon   float64

	// Rolling window order means (circular buffer)
	history     []float64
	historyIdx  int
	historyFull bool

	fired map[MilestoneType]bool
}

// NewMilestoneDetector creates a detector. threshold is the sublattice
// fraction counted as ordered; a plateau needs plateauWindows consecutive
// windows whose mean order varies by less than epsilon.
func NewMilestoneDetector(threshold float64, plateauWindows int, epsilon float64) *MilestoneDetector {
	if plateauWindows < 2 {
		plateauWindows = 2 // a standard deviation needs two windows
	}
	return &MilestoneDetector{
		threshold: threshold,
		epsilon:   epsilon,
		history:   make([]float64, plateauWindows),
		fired:     make(map[MilestoneType]bool),
	}
}

// CheckSample looks for ordering milestones after a timestep.
func (d *MilestoneDetector) CheckSample(s Sample) []Milestone {
	var out []Milestone
	frac := s.MaxFraction()

	if !d.fired[MilestoneHalfOrdered] && frac > HalfOrderedFraction {
		d.fired[MilestoneHalfOrdered] = true
		out = append(out, Milestone{
			Type:        MilestoneHalfOrdered,
			Step:        s.Step,
			Description: fmt.Sprintf("Sublattice fraction %.3f passed %.2f", frac, HalfOrderedFraction),
		})
	}
	if !d.fired[MilestoneOrdered] && frac > d.threshold {
		d.fired[MilestoneOrdered] = true
		out = append(out, Milestone{
			Type:        MilestoneOrdered,
			Step:        s.Step,
			Description: fmt.Sprintf("Sublattice fraction %.3f passed %.2f", frac, d.threshold),
		})
	}
	return out
}

// CheckWindow looks for a plateau in the order parameter after a window
// flush.
func (d *MilestoneDetector) CheckWindow(ws WindowStats) []Milestone {
	if ws.Steps == 0 {
		return nil
	}
	d.addToHistory(ws.OrderMean)

	if d.fired[MilestonePlateau] || !d.historyFull {
		return nil
	}
	std := stat.StdDev(d.history, nil)
	if std >= d.epsilon {
		return nil
	}
	d.fired[MilestonePlateau] = true
	return []Milestone{{
		Type:        MilestonePlateau,
		Step:        ws.WindowEnd,
		Description: fmt.Sprintf("Order mean %.3f held within %.4f over %d windows", ws.OrderMean, std, len(d.history)),
	}}
}

// Reached reports whether a milestone of type t has fired.
func (d *MilestoneDetector) Reached(t MilestoneType) bool {
	return d.fired[t]
}

func (d *MilestoneDetector) addToHistory(v float64) {
	d.history[d.historyIdx] = v
	d.historyIdx = (d.historyIdx + 1) % len(d.history)
	if d.historyIdx == 0 {
		d.historyFull = true
	}
}
