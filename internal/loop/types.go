package loop

import (
	"fmt"
	"time"

	"github.com/san-kum/linebot/internal/color"
	"github.com/san-kum/linebot/internal/control"
)

// Sensor yields raw color readings. The raw RGB mode must be configured
// before the loop starts. ReadRawColor may block.
type Sensor interface {
	ReadRawColor() (color.RawColor, error)
}

// Actuator drives one side of the robot. Stop must be idempotent, safe to
// call concurrently with SetSpeed and must not block indefinitely.
type Actuator interface {
	SetSpeed(pct int) error
	Stop() error
}

// Stopper is the part of an actuator the watcher needs.
type Stopper interface {
	Stop() error
}

// Side names a drive motor.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Step is the record of one loop iteration handed to observers and metrics.
type Step struct {
	Iteration  int
	Raw        color.RawColor
	Normalized color.Normalized
	Brightness float64
	Error      float64
	Bias       float64
	Command    control.Command
	// Marker is set on the iteration that ends the run with a match; the
	// steering fields are zero on that iteration.
	Marker string
}

type Observer interface {
	OnStep(s Step)
}

type Metric interface {
	Name() string
	Observe(s Step)
	Value() float64
	Reset()
}

// Config is the immutable description of one run.
type Config struct {
	Calibration   color.Calibration
	Markers       []color.Marker
	Gains         control.Gains
	BaseSpeed     int
	MaxIterations int
}

// Validate checks everything the per-iteration path relies on.
func (c Config) Validate() error {
	if err := c.Calibration.Validate(); err != nil {
		return err
	}
	if err := color.ValidateMarkers(c.Markers); err != nil {
		return err
	}
	if !c.Gains.Finite() {
		return fmt.Errorf("%w: gains must be finite, got kp=%v ki=%v kd=%v", ErrConfig, c.Gains.Kp, c.Gains.Ki, c.Gains.Kd)
	}
	if c.BaseSpeed < control.MinSpeed || c.BaseSpeed > control.MaxSpeed {
		return fmt.Errorf("%w: base speed must be in [%d,%d], got %d", ErrConfig, control.MinSpeed, control.MaxSpeed, c.BaseSpeed)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrConfig, c.MaxIterations)
	}
	return nil
}

// Outcome is the loop state.
type Outcome int

const (
	Running Outcome = iota
	StoppedMarker
	StoppedTimeout
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Running:
		return "running"
	case StoppedMarker:
		return "marker"
	case StoppedTimeout:
		return "timeout"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Terminal reports whether o ends a run.
func (o Outcome) Terminal() bool {
	return o != Running
}

type Result struct {
	Outcome    Outcome
	Marker     string
	Iterations int
	Err        error
	Elapsed    time.Duration
	Metrics    map[string]float64
}

func (r *Result) String() string {
	switch r.Outcome {
	case StoppedMarker:
		return fmt.Sprintf("stopped on marker %q after %d iterations", r.Marker, r.Iterations)
	case StoppedTimeout:
		return fmt.Sprintf("stopped after %d iterations without a marker", r.Iterations)
	case Aborted:
		return fmt.Sprintf("aborted after %d iterations: %v", r.Iterations, r.Err)
	default:
		return "running"
	}
}
