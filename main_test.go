package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/hexgas/config"
	"github.com/pthm-cable/hexgas/store"
	"github.com/pthm-cable/hexgas/telemetry"
)

const testConfig = `
run:
  size: 8
  betaj: 2
  fill_rate: 0.25
  seed: 42
  max_steps: 25
sweeps:
  - name: tiny
    kind: betaj
    runs: 2
    min: 0.5
    max: 2.5
    steps: 10
    size: 6
    fill_rate: 0.25
telemetry:
  window: 10
`

func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func requireFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s not written: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	if cmd.Use != "hexgas" {
		t.Errorf("Use = %q, want %q", cmd.Use, "hexgas")
	}
	for _, name := range []string{"config", "output-dir", "log-stats", "db", "workers"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
	want := map[string]bool{"run": false, "sweep": false, "all": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestRunCommandWritesOutputs(t *testing.T) {
	tmp := t.TempDir()
	out := filepath.Join(tmp, "out")
	dbPath := filepath.Join(tmp, "hexgas.db")

	err := execute(t, "run",
		"--config", writeTestConfig(t, tmp),
		"--output-dir", out,
		"--db", dbPath,
		"--seed", "7",
	)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	requireFiles(t, out,
		snapshotFile, orderMergedFile, energyFile, orderFile,
		"config.yaml", "series.csv", "windows.csv", "perf.csv",
	)

	svg, err := os.ReadFile(filepath.Join(out, orderFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svg), "Total system order") {
		t.Error("Order.svg missing its caption")
	}

	rows, err := telemetry.LoadSnapshot(filepath.Join(out, snapshotFile))
	if err != nil {
		t.Fatal(err)
	}
	// Three marker rows plus the 16 particles of an 8x8 lattice at fill 0.25.
	if len(rows) != 3+16 {
		t.Errorf("snapshot has %d rows, want 19", len(rows))
	}

	// Flag overrides land in the process config and its snapshot.
	if got := config.Cfg().Run; got.Seed != 7 || got.Size != 8 {
		t.Errorf("process config run = %+v, want seed 7 size 8", got)
	}
	cfg, err := config.Load(filepath.Join(out, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Run.Seed != 7 {
		t.Errorf("config snapshot seed = %d, want 7", cfg.Run.Seed)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runs, err := s.Runs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Seed != 7 {
		t.Fatalf("archived runs = %+v, want one run with seed 7", runs)
	}
	samples, err := s.RunSamples(context.Background(), runs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != runs[0].Steps {
		t.Errorf("archived %d samples for %d steps", len(samples), runs[0].Steps)
	}
}

func TestRunCommandRejectsBadFlags(t *testing.T) {
	tmp := t.TempDir()
	err := execute(t, "run", "--config", writeTestConfig(t, tmp), "--size", "1")
	if err == nil {
		t.Fatal("size 1 accepted")
	}
}

func TestSweepCommand(t *testing.T) {
	tmp := t.TempDir()
	out := filepath.Join(tmp, "out")
	dbPath := filepath.Join(tmp, "hexgas.db")

	err := execute(t, "sweep", "tiny",
		"--config", writeTestConfig(t, tmp),
		"--output-dir", out,
		"--db", dbPath,
		"--workers", "2",
	)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	requireFiles(t, out, "tiny.svg", "sweep_tiny.csv")

	svg, err := os.ReadFile(filepath.Join(out, "tiny.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svg), ">tiny</text>") {
		t.Error("sweep chart not titled by the sweep name")
	}
	if strings.Contains(string(svg), "tiny.svg") {
		t.Error("sweep chart title carries the file extension")
	}

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	points, err := s.SweepPoints(context.Background(), "tiny")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("archived %d sweep points, want 2", len(points))
	}
	if points[0].Value != 0.5 || points[1].Value != 1.5 {
		t.Errorf("swept values = %v, %v, want 0.5, 1.5", points[0].Value, points[1].Value)
	}
}

func TestSweepCommandUnknownName(t *testing.T) {
	tmp := t.TempDir()
	err := execute(t, "sweep", "missing", "--config", writeTestConfig(t, tmp))
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("error = %v, want unknown sweep error", err)
	}
}

func TestSelectSweeps(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}

	all, err := selectSweeps(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(cfg.Sweeps) {
		t.Errorf("got %d sweeps, want all %d", len(all), len(cfg.Sweeps))
	}

	picked, err := selectSweeps(cfg, []string{"Odd size variation", "Fill variation"})
	if err != nil {
		t.Fatal(err)
	}
	if len(picked) != 2 || picked[0].Name != "Odd size variation" || picked[1].Name != "Fill variation" {
		t.Errorf("selectSweeps kept wrong sweeps: %+v", picked)
	}
}
