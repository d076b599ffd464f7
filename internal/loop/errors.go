package loop

import (
	"errors"
	"fmt"
)

// Domain errors for loop runs.
var (
	// ErrSensorRead indicates the sensor failed to produce a reading.
	ErrSensorRead = errors.New("loop: sensor read failed")

	// ErrActuatorWrite indicates a motor rejected a speed command.
	ErrActuatorWrite = errors.New("loop: actuator write failed")

	// ErrConfig indicates a run configuration that cannot be executed.
	ErrConfig = errors.New("loop: invalid config")

	// ErrStopTimeout indicates an actuator stop did not return in time.
	ErrStopTimeout = errors.New("loop: actuator stop timed out")
)

// SensorReadError wraps a sensor failure with the iteration it happened on.
type SensorReadError struct {
	Iteration int
	Wrapped   error
}

func (e *SensorReadError) Error() string {
	return fmt.Sprintf("loop: sensor read at iteration %d: %v", e.Iteration, e.Wrapped)
}

func (e *SensorReadError) Unwrap() error {
	return e.Wrapped
}

func (e *SensorReadError) Is(target error) bool {
	return target == ErrSensorRead
}

// ActuatorWriteError wraps a motor failure with the side and iteration.
type ActuatorWriteError struct {
	Side      Side
	Iteration int
	Wrapped   error
}

func (e *ActuatorWriteError) Error() string {
	return fmt.Sprintf("loop: %s motor write at iteration %d: %v", e.Side, e.Iteration, e.Wrapped)
}

func (e *ActuatorWriteError) Unwrap() error {
	return e.Wrapped
}

func (e *ActuatorWriteError) Is(target error) bool {
	return target == ErrActuatorWrite
}
