// Package color turns raw tristimulus sensor readings into the values the
// steering loop works with.
//
//   - [RawColor]: a reading in sensor units
//   - [Calibration]: white and black reference points used by [Normalize]
//   - [Normalized]: a color rescaled into [0,1] per channel
//   - [Marker]: a labelled reference color matched by [Classify]
//
// # Usage
//
//	cal, err := color.NewCalibration(white, black)
//	n := color.Normalize(raw, cal)
//	b := color.Brightness(n)
//
// Calibration is validated once by [NewCalibration]; [Normalize] never fails.
package color
