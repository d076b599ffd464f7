package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one recorded series.
type Summary struct {
	Samples int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
}

// Summarize returns descriptive statistics for xs. An empty series yields a
// zero Summary.
func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) == 1 {
		std = 0
	}
	return Summary{
		Samples: len(xs),
		Mean:    mean,
		StdDev:  std,
		Min:     floats.Min(xs),
		Max:     floats.Max(xs),
	}
}
