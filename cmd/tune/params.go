package main

import (
	"github.com/pthm-cable/hexgas/config"
)

// ParamSpec defines a single searchable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting value
}

// ParamVector holds the set of searchable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector builds the search space from the tune bounds. The search
// starts from the configured run, pulled inside the bounds.
func NewParamVector(cfg *config.Config) *ParamVector {
	tc := cfg.Tune
	pv := &ParamVector{
		Specs: []ParamSpec{
			{Name: "betaj", Path: "run.betaj", Min: tc.BetajMin, Max: tc.BetajMax},
			{Name: "fill_rate", Path: "run.fill_rate", Min: tc.FillMin, Max: tc.FillMax},
		},
	}
	start := pv.Clamp(pv.ExtractFromConfig(cfg))
	for i := range pv.Specs {
		pv.Specs[i].Default = start[i]
	}
	return pv
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the starting parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes parameter values, clamped, into the run section.
// The search runs on the tune lattice size, so that is applied too.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Run.Betaj = clamped[0]
	cfg.Run.FillRate = clamped[1]
	cfg.Run.Size = cfg.Tune.Size
}

// ExtractFromConfig extracts current parameter values from a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{cfg.Run.Betaj, cfg.Run.FillRate}
}
