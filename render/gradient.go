package render

import "github.com/wcharczuk/go-chart/v2/drawing"

// Gradient returns steps colours from start towards end in RGB space.
//
// Each channel moves by a fixed integer step, (end-start)/(steps-1)
// truncated toward zero, so the last colour can fall short of end. A
// single step yields start.
func Gradient(start, end drawing.Color, steps int) []drawing.Color {
	if steps <= 0 {
		return nil
	}
	if steps == 1 {
		return []drawing.Color{start}
	}

	channelStep := func(from, to uint8) int {
		return int((float64(to) - float64(from)) / float64(steps-1))
	}
	dr := channelStep(start.R, end.R)
	dg := channelStep(start.G, end.G)
	db := channelStep(start.B, end.B)

	out := make([]drawing.Color, steps)
	for i := range out {
		out[i] = drawing.Color{
			R: uint8(int(start.R) + i*dr),
			G: uint8(int(start.G) + i*dg),
			B: uint8(int(start.B) + i*db),
			A: 255,
		}
	}
	return out
}
