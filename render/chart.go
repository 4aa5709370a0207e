// Package render draws run and sweep series as SVG line charts.
package render

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/pthm-cable/hexgas/config"
	"github.com/pthm-cable/hexgas/telemetry"
)

// Range is a fixed axis extent.
type Range struct {
	Min float64
	Max float64
}

// Chart holds the canvas size and fixed axis ranges shared by the plots of
// one figure.
type Chart struct {
	Width  int
	Height int
	XRange Range
	YRange Range
}

// New returns a chart sized from cfg with the given axis ranges.
func New(cfg config.ChartConfig, x, y Range) Chart {
	return Chart{Width: cfg.Width, Height: cfg.Height, XRange: x, YRange: y}
}

// Timeseries writes a single series chart to path.
func (c Chart) Timeseries(path, caption string, s telemetry.Series, color drawing.Color) error {
	return c.writeFile(path, func(w io.Writer) error {
		return c.WriteTimeseries(w, caption, s, color)
	})
}

// MultipleTimeseries writes a chart of several series to path, coloured
// along a gradient from start to end.
func (c Chart) MultipleTimeseries(path, caption string, series []telemetry.Series, start, end drawing.Color) error {
	return c.writeFile(path, func(w io.Writer) error {
		return c.WriteMultipleTimeseries(w, caption, series, start, end)
	})
}

// WriteTimeseries renders a single series chart as SVG to w.
func (c Chart) WriteTimeseries(w io.Writer, caption string, s telemetry.Series, color drawing.Color) error {
	return c.render(w, caption, []chart.Series{lineSeries(s, color)})
}

// WriteMultipleTimeseries renders several series as SVG to w.
func (c Chart) WriteMultipleTimeseries(w io.Writer, caption string, series []telemetry.Series, start, end drawing.Color) error {
	colors := Gradient(start, end, len(series))
	lines := make([]chart.Series, len(series))
	for i, s := range series {
		lines[i] = lineSeries(s, colors[i])
	}
	return c.render(w, caption, lines)
}

func lineSeries(s telemetry.Series, color drawing.Color) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name:    s.Label,
		XValues: s.Steps(),
		YValues: s.Values(),
		Style: chart.Style{
			StrokeColor: color,
			StrokeWidth: 1.5,
		},
	}
}

func (c Chart) render(w io.Writer, caption string, series []chart.Series) error {
	if len(series) == 0 {
		return fmt.Errorf("chart %q: no series", caption)
	}
	graph := chart.Chart{
		Title:  caption,
		Width:  c.Width,
		Height: c.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: c.XRange.Min, Max: c.XRange.Max},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: c.YRange.Min, Max: c.YRange.Max},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	if err := graph.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("rendering chart %q: %w", caption, err)
	}
	return nil
}

func (c Chart) writeFile(path string, draw func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	if err := draw(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing chart file: %w", err)
	}
	return nil
}

// ParseColor parses a css hex colour such as "#ff0000" or "f00".
func ParseColor(s string) (drawing.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 3 && len(hex) != 6 {
		return drawing.Color{}, fmt.Errorf("colour %q: want 3 or 6 hex digits", s)
	}
	if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
		return drawing.Color{}, fmt.Errorf("colour %q: %w", s, err)
	}
	return drawing.ColorFromHex(hex), nil
}

// Palette holds the parsed colours of a chart config.
type Palette struct {
	Start drawing.Color
	End   drawing.Color
	Line  drawing.Color
}

// PaletteFromConfig parses the configured chart colours.
func PaletteFromConfig(cfg config.ChartConfig) (Palette, error) {
	var p Palette
	var err error
	if p.Start, err = ParseColor(cfg.StartColor); err != nil {
		return p, fmt.Errorf("start_color: %w", err)
	}
	if p.End, err = ParseColor(cfg.EndColor); err != nil {
		return p, fmt.Errorf("end_color: %w", err)
	}
	if p.Line, err = ParseColor(cfg.LineColor); err != nil {
		return p, fmt.Errorf("line_color: %w", err)
	}
	return p, nil
}
