package color

import (
	"errors"
	"fmt"
)

var (
	// ErrCalibration indicates white and black reference points coincide on a channel.
	ErrCalibration = errors.New("color: invalid calibration")

	// ErrMarker indicates an unusable marker definition.
	ErrMarker = errors.New("color: invalid marker")
)

// CalibrationError names the channel whose white and black points are equal.
type CalibrationError struct {
	Channel string
	Value   int
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("color: calibration %s channel has white == black (%d)", e.Channel, e.Value)
}

func (e *CalibrationError) Is(target error) bool {
	return target == ErrCalibration
}

type MarkerError struct {
	Index  int
	Label  string
	Reason string
}

func (e *MarkerError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("color: marker #%d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("color: marker #%d (%s): %s", e.Index, e.Label, e.Reason)
}

func (e *MarkerError) Is(target error) bool {
	return target == ErrMarker
}
