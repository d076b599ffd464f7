package control

import "math"

// Motor command limits in percent.
const (
	MinSpeed = -100
	MaxSpeed = 100
)

// Command is a pair of wheel speeds in percent.
type Command struct {
	Left, Right int
}

// Saturated reports whether either side sits on a limit.
func (c Command) Saturated() bool {
	return c.Left <= MinSpeed || c.Left >= MaxSpeed || c.Right <= MinSpeed || c.Right >= MaxSpeed
}

// Mix splits bias symmetrically around base. Positive bias speeds up the
// left wheel and slows the right one, turning the robot right. A NaN bias
// yields a stopped pair.
func Mix(base int, bias float64) Command {
	b := float64(base)
	return Command{
		Left:  clampSpeed(b + bias*b),
		Right: clampSpeed(b - bias*b),
	}
}

// clampSpeed rounds and clamps in float64 so infinities and huge values
// saturate instead of overflowing the int conversion.
func clampSpeed(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(MinSpeed, math.Min(MaxSpeed, math.Round(v))))
}
