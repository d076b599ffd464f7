package track

import (
	"math"

	"github.com/san-kum/linebot/internal/color"
)

// Course describes the printed surface under the robot.
type Course struct {
	Amplitude  float64 // edge amplitude, metres
	Wavelength float64 // edge wavelength, metres
	FinishX    float64 // finish patch starts here, metres
	Footprint  float64 // half-width of the sensor spot, metres
	White      color.RawColor
	Black      color.RawColor
	Finish     color.RawColor
}

// EdgeY returns the y coordinate of the line edge at x.
func (c Course) EdgeY(x float64) float64 {
	if c.Amplitude == 0 || c.Wavelength <= 0 {
		return 0
	}
	return c.Amplitude * math.Sin(2*math.Pi*x/c.Wavelength)
}

// WhiteFraction is the share of the sensor spot at (x, y) lying on white.
func (c Course) WhiteFraction(x, y float64) float64 {
	d := y - c.EdgeY(x)
	if c.Footprint <= 0 {
		if d >= 0 {
			return 1
		}
		return 0
	}
	f := (d + c.Footprint) / (2 * c.Footprint)
	return math.Max(0, math.Min(1, f))
}

// Sample returns the noiseless reading at (x, y).
func (c Course) Sample(x, y float64) color.RawColor {
	if c.FinishX > 0 && x >= c.FinishX {
		return c.Finish
	}
	f := c.WhiteFraction(x, y)
	return color.RawColor{
		R: blend(c.Black.R, c.White.R, f),
		G: blend(c.Black.G, c.White.G, f),
		B: blend(c.Black.B, c.White.B, f),
	}
}

func blend(black, white int, f float64) int {
	return int(math.Round(float64(black) + f*float64(white-black)))
}
