package metrics

import "github.com/san-kum/linebot/internal/loop"

// Saturation is the fraction of steering iterations whose command hit a
// motor limit on either side.
type Saturation struct {
	name      string
	saturated int
	samples   int
}

func NewSaturation() *Saturation {
	return &Saturation{
		name: "saturation",
	}
}

func (s *Saturation) Name() string {
	return s.name
}

func (s *Saturation) Observe(step loop.Step) {
	if step.Marker != "" {
		return
	}
	s.samples++
	if step.Command.Saturated() {
		s.saturated++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.saturated) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.saturated = 0
	s.samples = 0
}

// Default returns the metrics attached to every CLI run.
func Default() []loop.Metric {
	return []loop.Metric{
		NewLineError(),
		NewControlEffort(),
		NewSaturation(),
	}
}
