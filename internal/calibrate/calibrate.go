// Package calibrate derives white, black and marker references from live
// sensor samples. It only runs when the operator asks for it; the loop never
// calibrates on its own.
package calibrate

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/linebot/internal/color"
	"github.com/san-kum/linebot/internal/loop"
)

const (
	DefaultSamples = 50
	DefaultMargin  = 10
	// MinTolerance keeps a perfectly steady sample from producing a marker
	// nothing can match.
	MinTolerance = 5
)

// Measurement is the average of a batch of readings over one surface.
type Measurement struct {
	Mean    color.RawColor
	Spread  int // largest absolute deviation from Mean on any channel
	Samples int
}

type Sampler struct {
	Sensor   loop.Sensor
	Samples  int
	Interval time.Duration
}

// Measure reads Samples readings, Interval apart.
func (s Sampler) Measure(ctx context.Context) (Measurement, error) {
	n := s.Samples
	if n <= 0 {
		n = DefaultSamples
	}

	readings := make([]color.RawColor, 0, n)
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return Measurement{}, ctx.Err()
		default:
		}
		raw, err := s.Sensor.ReadRawColor()
		if err != nil {
			return Measurement{}, fmt.Errorf("calibrate: sample %d: %w", i, err)
		}
		readings = append(readings, raw)
		if s.Interval > 0 && i < n-1 {
			time.Sleep(s.Interval)
		}
	}
	return summarize(readings), nil
}

func summarize(readings []color.RawColor) Measurement {
	var sum [3]float64
	for _, r := range readings {
		c := r.Channels()
		for i := range c {
			sum[i] += float64(c[i])
		}
	}
	n := float64(len(readings))
	mean := [3]int{
		int(math.Round(sum[0] / n)),
		int(math.Round(sum[1] / n)),
		int(math.Round(sum[2] / n)),
	}

	spread := 0
	for _, r := range readings {
		c := r.Channels()
		for i := range c {
			d := c[i] - mean[i]
			if d < 0 {
				d = -d
			}
			if d > spread {
				spread = d
			}
		}
	}

	return Measurement{
		Mean:    color.RawColor{R: mean[0], G: mean[1], B: mean[2]},
		Spread:  spread,
		Samples: len(readings),
	}
}

// Marker turns a measurement into a marker whose tolerance covers the
// observed spread plus margin.
func Marker(label string, m Measurement, margin int) color.Marker {
	tol := m.Spread + margin + 1
	if tol < MinTolerance {
		tol = MinTolerance
	}
	return color.Marker{Label: label, Reference: m.Mean, Tolerance: tol}
}

// Surface is one thing to place the sensor over.
type Surface struct {
	Name  string
	Label string // marker label; empty for white and black
}

// Prompt asks the operator to position the sensor over a surface and returns
// once it is in place.
type Prompt func(s Surface) error

// Result is a complete set of references. Readings holds the marker
// measurements by label.
type Result struct {
	Calibration  color.Calibration
	Markers      []color.Marker
	White, Black Measurement
	Readings     map[string]Measurement
}

// Run measures white, black and then each marker label in order.
func Run(ctx context.Context, s Sampler, prompt Prompt, labels []string, margin int) (*Result, error) {
	surfaces := []Surface{{Name: "white"}, {Name: "black"}}
	for _, l := range labels {
		surfaces = append(surfaces, Surface{Name: l + " marker", Label: l})
	}

	res := &Result{Readings: make(map[string]Measurement, len(labels))}
	for _, surface := range surfaces {
		if err := prompt(surface); err != nil {
			return nil, err
		}
		m, err := s.Measure(ctx)
		if err != nil {
			return nil, err
		}
		switch {
		case surface.Label != "":
			res.Readings[surface.Label] = m
			res.Markers = append(res.Markers, Marker(surface.Label, m, margin))
		case surface.Name == "white":
			res.White = m
		default:
			res.Black = m
		}
	}

	cal, err := color.NewCalibration(res.White.Mean, res.Black.Mean)
	if err != nil {
		return nil, err
	}
	res.Calibration = cal

	if err := color.ValidateMarkers(res.Markers); err != nil {
		return nil, err
	}
	return res, nil
}
