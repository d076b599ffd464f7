package loop

import (
	"errors"
	"fmt"

	"github.com/san-kum/linebot/internal/control"
)

// Drive is the differential pair the loop writes to.
type Drive struct {
	Left  Actuator
	Right Actuator
}

// Set writes the command left side first. The returned error names the side
// that failed; the iteration is filled in by the loop.
func (d Drive) Set(cmd control.Command) error {
	if err := d.Left.SetSpeed(cmd.Left); err != nil {
		return &ActuatorWriteError{Side: Left, Wrapped: err}
	}
	if err := d.Right.SetSpeed(cmd.Right); err != nil {
		return &ActuatorWriteError{Side: Right, Wrapped: err}
	}
	return nil
}

// Stop attempts to stop both motors, even if the first one fails.
func (d Drive) Stop() error {
	var errs []error
	if err := d.Left.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop %s motor: %w", Left, err))
	}
	if err := d.Right.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop %s motor: %w", Right, err))
	}
	return errors.Join(errs...)
}

// Stoppers returns both actuators for a watcher.
func (d Drive) Stoppers() []Stopper {
	return []Stopper{d.Left, d.Right}
}
