package color

import "fmt"

// RawColor is one sensor reading in raw units. The range is sensor dependent
// (0-1020 on an EV3 color sensor in RGB-RAW mode).
type RawColor struct {
	R, G, B int
}

func (c RawColor) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.R, c.G, c.B)
}

// Channels returns the reading as an indexable array.
func (c RawColor) Channels() [3]int {
	return [3]int{c.R, c.G, c.B}
}

// Normalized is a color with every channel in [0,1].
type Normalized struct {
	R, G, B float64
}

// Channel names in index order.
var channelNames = [3]string{"red", "green", "blue"}

// Calibration holds the white and black reference points. Construct it with
// NewCalibration so every channel is checked.
type Calibration struct {
	White RawColor
	Black RawColor
}

// NewCalibration returns a calibration or a *CalibrationError when white and
// black coincide on any channel.
func NewCalibration(white, black RawColor) (Calibration, error) {
	cal := Calibration{White: white, Black: black}
	if err := cal.Validate(); err != nil {
		return Calibration{}, err
	}
	return cal, nil
}

// Validate reports the first channel on which white equals black.
func (c Calibration) Validate() error {
	w, b := c.White.Channels(), c.Black.Channels()
	for i := range w {
		if w[i] == b[i] {
			return &CalibrationError{Channel: channelNames[i], Value: w[i]}
		}
	}
	return nil
}

// Marker is a labelled reference color. A reading matches when every channel
// is strictly within Tolerance raw units of Reference.
type Marker struct {
	Label     string
	Reference RawColor
	Tolerance int
}

// ValidateMarkers checks labels are present and unique and tolerances are
// positive.
func ValidateMarkers(markers []Marker) error {
	seen := make(map[string]bool, len(markers))
	for i, m := range markers {
		if m.Label == "" {
			return &MarkerError{Index: i, Reason: "empty label"}
		}
		if seen[m.Label] {
			return &MarkerError{Index: i, Label: m.Label, Reason: "duplicate label"}
		}
		seen[m.Label] = true
		if m.Tolerance <= 0 {
			return &MarkerError{Index: i, Label: m.Label, Reason: fmt.Sprintf("tolerance must be positive, got %d", m.Tolerance)}
		}
	}
	return nil
}
