package export

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrNoData = errors.New("export: no data to chart")

// SaveChart renders series against the iteration index to path. The format
// follows the extension (png, svg, pdf and the others plot supports).
func SaveChart(path, title string, series []Series) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Value"

	added := 0
	for i, s := range series {
		if len(s.Values) < 2 {
			continue
		}
		pts := make(plotter.XYs, len(s.Values))
		for j, v := range s.Values {
			pts[j] = plotter.XY{X: float64(j), Y: v}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("export: series %s: %w", s.Name, err)
		}
		stroke := s.Stroke
		if stroke == "" {
			stroke = palette[i%len(palette)]
		}
		line.Color = hexColor(stroke)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.Name, line)
		added++
	}
	if added == 0 {
		return ErrNoData
	}

	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("export: save chart: %w", err)
	}
	return nil
}

// hexColor parses #rrggbb, falling back to black.
func hexColor(s string) color.Color {
	if len(s) != 7 || s[0] != '#' {
		return color.Black
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
