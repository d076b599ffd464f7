package control

import "math"

// Gains are the proportional, integral and derivative coefficients.
type Gains struct {
	Kp float64
	Ki float64
	Kd float64
}

// State is the error history carried between PID steps.
type State struct {
	LastError float64
	Integral  float64
}

// Step computes the steering bias for err and returns the next state. The
// integral accumulates without bound.
func Step(err float64, s State, g Gains) (float64, State) {
	integral := s.Integral + err
	derivative := err - s.LastError

	bias := g.Kp*err + g.Ki*integral + g.Kd*derivative

	return bias, State{LastError: err, Integral: integral}
}

// Finite reports whether every gain is a finite number.
func (g Gains) Finite() bool {
	for _, v := range []float64{g.Kp, g.Ki, g.Kd} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// PID carries State between calls to Step. The zero state at construction
// is the start of a run.
type PID struct {
	Gains Gains
	state State
}

func NewPID(g Gains) *PID {
	return &PID{Gains: g}
}

// Update advances the controller by one error sample.
func (p *PID) Update(err float64) float64 {
	bias, next := Step(err, p.state, p.Gains)
	p.state = next
	return bias
}
