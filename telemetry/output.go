package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/hexgas/config"
)

// CSVLog is an append-only CSV file whose header is written with the
// first record.
type CSVLog struct {
	name          string
	file          *os.File
	headerWritten bool
}

// CreateCSVLog creates dir/name, truncating any existing file.
func CreateCSVLog(dir, name string) (*CSVLog, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &CSVLog{name: name, file: f}, nil
}

// Write marshals records, a slice of csv-tagged structs.
func (l *CSVLog) Write(records any) error {
	if !l.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, l.file); err != nil {
			return fmt.Errorf("writing %s: %w", l.name, err)
		}
		l.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, l.file); err != nil {
		return fmt.Errorf("writing %s: %w", l.name, err)
	}
	return nil
}

// Path returns the file path of the log.
func (l *CSVLog) Path() string { return l.file.Name() }

// Close closes the underlying file.
func (l *CSVLog) Close() error { return l.file.Close() }

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir        string
	series     *CSVLog
	windows    *CSVLog
	perf       *CSVLog
	milestones *CSVLog
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, target := range []struct {
		log  **CSVLog
		name string
	}{
		{&om.series, "series.csv"},
		{&om.windows, "windows.csv"},
		{&om.perf, "perf.csv"},
		{&om.milestones, "milestones.csv"},
	} {
		l, err := CreateCSVLog(dir, target.name)
		if err != nil {
			om.Close()
			return nil, err
		}
		*target.log = l
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteSamples appends per-timestep samples to series.csv.
func (om *OutputManager) WriteSamples(samples []Sample) error {
	if om == nil || len(samples) == 0 {
		return nil
	}
	return om.series.Write(samples)
}

// WriteWindow writes a window stats record to windows.csv.
func (om *OutputManager) WriteWindow(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.windows.Write([]WindowStats{stats})
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	return om.perf.Write([]PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteMilestone writes a milestone record to milestones.csv.
func (om *OutputManager) WriteMilestone(m Milestone) error {
	if om == nil {
		return nil
	}
	return om.milestones.Write([]Milestone{m})
}

// WriteSweep saves the series of a sweep to sweep_<name>.csv in long format.
func (om *OutputManager) WriteSweep(name string, series []Series) (string, error) {
	if om == nil {
		return "", nil
	}
	path := filepath.Join(om.dir, "sweep_"+fileSlug(name)+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating sweep file: %w", err)
	}

	if err := gocsv.Marshal(Records(series), f); err != nil {
		f.Close()
		return "", fmt.Errorf("writing sweep %q: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing sweep file: %w", err)
	}
	return path, nil
}

// Path returns name joined to the output directory.
func (om *OutputManager) Path(name string) string {
	if om == nil {
		return name
	}
	return filepath.Join(om.dir, name)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, l := range []*CSVLog{om.series, om.windows, om.perf, om.milestones} {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func fileSlug(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, name)
}
