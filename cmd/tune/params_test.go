package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/hexgas/config"
)

func testParams(t *testing.T) (*ParamVector, *config.Config) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	return NewParamVector(cfg), cfg
}

func TestParamVectorDefaultsClamped(t *testing.T) {
	pv, cfg := testParams(t)
	if pv.Dim() != 2 {
		t.Fatalf("Dim() = %d, want 2", pv.Dim())
	}
	def := pv.DefaultVector()
	// The configured run uses betaj 1000, far above the search box.
	if def[0] != cfg.Tune.BetajMax {
		t.Errorf("default betaj = %v, want clamped to %v", def[0], cfg.Tune.BetajMax)
	}
	if def[1] != cfg.Run.FillRate {
		t.Errorf("default fill = %v, want %v", def[1], cfg.Run.FillRate)
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	pv, _ := testParams(t)
	raw := []float64{3.25, 0.2}
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-12 {
			t.Errorf("param %s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}

	lo := pv.Normalize([]float64{pv.Specs[0].Min, pv.Specs[1].Min})
	hi := pv.Normalize([]float64{pv.Specs[0].Max, pv.Specs[1].Max})
	for i := range lo {
		if lo[i] != 0 || hi[i] != 1 {
			t.Errorf("param %d bounds normalize to %v..%v, want 0..1", i, lo[i], hi[i])
		}
	}
}

func TestClamp(t *testing.T) {
	pv, _ := testParams(t)
	got := pv.Clamp([]float64{-5, 0.99})
	if got[0] != pv.Specs[0].Min || got[1] != pv.Specs[1].Max {
		t.Errorf("Clamp() = %v", got)
	}
}

func TestApplyToConfig(t *testing.T) {
	pv, cfg := testParams(t)
	pv.ApplyToConfig(cfg, []float64{7, 1})

	if cfg.Run.Betaj != 7 {
		t.Errorf("Betaj = %v, want 7", cfg.Run.Betaj)
	}
	if cfg.Run.FillRate != cfg.Tune.FillMax {
		t.Errorf("FillRate = %v, want clamped %v", cfg.Run.FillRate, cfg.Tune.FillMax)
	}
	if cfg.Run.Size != cfg.Tune.Size {
		t.Errorf("Size = %d, want tune size %d", cfg.Run.Size, cfg.Tune.Size)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("applied config invalid: %v", err)
	}

	got := pv.ExtractFromConfig(cfg)
	if got[0] != 7 || got[1] != cfg.Tune.FillMax {
		t.Errorf("ExtractFromConfig() = %v", got)
	}
}
