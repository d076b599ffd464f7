package metrics

import (
	"math"

	"github.com/san-kum/linebot/internal/loop"
)

// LineError is the root mean square of the line error over steering
// iterations.
type LineError struct {
	name    string
	sumSq   float64
	samples int
}

func NewLineError() *LineError {
	return &LineError{
		name: "line_error_rms",
	}
}

func (l *LineError) Name() string {
	return l.name
}

func (l *LineError) Observe(s loop.Step) {
	if s.Marker != "" {
		return
	}
	l.sumSq += s.Error * s.Error
	l.samples++
}

func (l *LineError) Value() float64 {
	if l.samples == 0 {
		return 0
	}
	return math.Sqrt(l.sumSq / float64(l.samples))
}

func (l *LineError) Reset() {
	l.sumSq = 0
	l.samples = 0
}
