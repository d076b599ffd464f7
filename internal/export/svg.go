// Package export renders recorded traces as charts.
package export

import (
	"fmt"
	"math"
	"strings"
)

type Point struct{ X, Y float64 }

// Series is one named line of a chart.
type Series struct {
	Name   string
	Values []float64
	Stroke string
}

var palette = []string{"#00ff88", "#00ccff", "#ffcc00", "#ff4444", "#ff00ff"}

type bounds struct{ minX, maxX, minY, maxY float64 }

func (b bounds) padded() bounds {
	rx, ry := b.maxX-b.minX, b.maxY-b.minY
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	return bounds{b.minX - rx*0.05, b.maxX + rx*0.05, b.minY - ry*0.1, b.maxY + ry*0.1}
}

func (b bounds) project(p Point, width, height int) (float64, float64) {
	x := (p.X - b.minX) / (b.maxX - b.minX) * float64(width)
	y := float64(height) - (p.Y-b.minY)/(b.maxY-b.minY)*float64(height)
	return x, y
}

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

func path(sb *strings.Builder, pts []Point, b bounds, width, height int, stroke string) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke)
	for i, p := range pts {
		x, y := b.project(p, width, height)
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>
`)
}

// TrajectoryToSVG draws an x/y path, for example the sensor track.
func TrajectoryToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	b := bounds{points[0].X, points[0].X, points[0].Y, points[0].Y}
	for _, p := range points {
		b.minX, b.maxX = math.Min(b.minX, p.X), math.Max(b.maxX, p.X)
		b.minY, b.maxY = math.Min(b.minY, p.Y), math.Max(b.maxY, p.Y)
	}
	b = b.padded()

	var sb strings.Builder
	header(&sb, width, height)
	path(&sb, points, b, width, height, strokeColor)
	sb.WriteString("</svg>")
	return sb.String()
}

// SeriesToSVG plots each series against its sample index on shared axes,
// with a dashed zero line when zero is in range. Series with fewer than two
// values are skipped.
func SeriesToSVG(series []Series, width, height int) string {
	var b bounds
	first := true
	for _, s := range series {
		if len(s.Values) < 2 {
			continue
		}
		for i, v := range s.Values {
			if first {
				b = bounds{0, float64(i), v, v}
				first = false
			}
			b.maxX = math.Max(b.maxX, float64(i))
			b.minY, b.maxY = math.Min(b.minY, v), math.Max(b.maxY, v)
		}
	}
	if first {
		return ""
	}
	b = b.padded()

	var sb strings.Builder
	header(&sb, width, height)

	if b.minY < 0 && b.maxY > 0 {
		_, zy := b.project(Point{0, 0}, width, height)
		fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#444466" stroke-dasharray="4 4"/>
`, zy, width, zy)
	}

	for i, s := range series {
		if len(s.Values) < 2 {
			continue
		}
		stroke := s.Stroke
		if stroke == "" {
			stroke = palette[i%len(palette)]
		}
		pts := make([]Point, len(s.Values))
		for j, v := range s.Values {
			pts[j] = Point{float64(j), v}
		}
		path(&sb, pts, b, width, height, stroke)
		fmt.Fprintf(&sb, `<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16*(i+1), stroke, s.Name)
	}

	sb.WriteString("</svg>")
	return sb.String()
}
