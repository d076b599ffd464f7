package ev3

import (
	"errors"

	"github.com/san-kum/linebot/internal/color"
)

const (
	colorSensorDriver = "lego-ev3-color"
	modeRGBRaw        = "RGB-RAW"
)

var ErrNotFound = errors.New("ev3: device not found")

type ColorSensor struct {
	dir string
}

// FindColorSensor returns the first EV3 color sensor under root.
func FindColorSensor(root string) (*ColorSensor, error) {
	dir, ok := findDevice(root, "lego-sensor", func(dir string) bool {
		name, err := readAttr(dir, "driver_name")
		return err == nil && name == colorSensorDriver
	})
	if !ok {
		return nil, ErrNotFound
	}
	return &ColorSensor{dir: dir}, nil
}

// SetModeRGBRaw switches the sensor to raw red, green and blue reflectance.
func (s *ColorSensor) SetModeRGBRaw() error {
	return writeAttr(s.dir, "mode", modeRGBRaw)
}

// Mode returns the active sensor mode.
func (s *ColorSensor) Mode() (string, error) {
	return readAttr(s.dir, "mode")
}

func (s *ColorSensor) ReadRawColor() (color.RawColor, error) {
	r, err := readIntAttr(s.dir, "value0")
	if err != nil {
		return color.RawColor{}, err
	}
	g, err := readIntAttr(s.dir, "value1")
	if err != nil {
		return color.RawColor{}, err
	}
	b, err := readIntAttr(s.dir, "value2")
	if err != nil {
		return color.RawColor{}, err
	}
	return color.RawColor{R: r, G: g, B: b}, nil
}
