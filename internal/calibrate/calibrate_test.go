package calibrate

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/linebot/internal/color"
)

// surfaceSensor cycles through readings for whichever surface is current.
type surfaceSensor struct {
	surfaces map[string][]color.RawColor
	current  string
	i        int
}

func (s *surfaceSensor) ReadRawColor() (color.RawColor, error) {
	rs, ok := s.surfaces[s.current]
	if !ok {
		return color.RawColor{}, errors.New("nothing under the sensor")
	}
	r := rs[s.i%len(rs)]
	s.i++
	return r, nil
}

// surfaceKey maps a prompted surface to its entry in surfaceSensor.
func surfaceKey(s Surface) string {
	if s.Label != "" {
		return "marker:" + s.Label
	}
	return s.Name
}

func TestMeasure(t *testing.T) {
	sensor := &surfaceSensor{
		surfaces: map[string][]color.RawColor{
			"white": {{R: 198, G: 201, B: 200}, {R: 202, G: 199, B: 204}},
		},
		current: "white",
	}

	m, err := Sampler{Sensor: sensor, Samples: 4}.Measure(context.Background())
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if m.Mean != (color.RawColor{R: 200, G: 200, B: 202}) {
		t.Errorf("unexpected mean %v", m.Mean)
	}
	if m.Spread != 2 {
		t.Errorf("expected spread 2, got %d", m.Spread)
	}
	if m.Samples != 4 {
		t.Errorf("expected 4 samples, got %d", m.Samples)
	}
}

func TestMeasureCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sensor := &surfaceSensor{surfaces: map[string][]color.RawColor{"x": {{}}}, current: "x"}
	if _, err := (Sampler{Sensor: sensor}).Measure(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMarkerTolerance(t *testing.T) {
	m := Marker("red", Measurement{Mean: color.RawColor{R: 124, G: 27, B: 17}, Spread: 6}, 10)
	if m.Tolerance != 17 {
		t.Errorf("expected tolerance 17, got %d", m.Tolerance)
	}
	if !m.Matches(color.RawColor{R: 140, G: 27, B: 17}) {
		t.Error("a reading at spread + margin should still match")
	}

	steady := Marker("green", Measurement{Mean: color.RawColor{R: 30, G: 90, B: 40}}, 0)
	if steady.Tolerance != MinTolerance {
		t.Errorf("expected minimum tolerance, got %d", steady.Tolerance)
	}
}

func TestRun(t *testing.T) {
	sensor := &surfaceSensor{
		surfaces: map[string][]color.RawColor{
			"white": {{R: 200, G: 200, B: 200}},
			"black": {{R: 20, G: 21, B: 19}, {R: 20, G: 19, B: 21}},
			"marker:red": {{R: 124, G: 27, B: 17}},
		},
	}
	var prompted []string
	prompt := func(s Surface) error {
		prompted = append(prompted, s.Name)
		sensor.current = surfaceKey(s)
		return nil
	}

	res, err := Run(context.Background(), Sampler{Sensor: sensor, Samples: 10}, prompt, []string{"red"}, DefaultMargin)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(prompted) != 3 || prompted[0] != "white" || prompted[1] != "black" || prompted[2] != "red marker" {
		t.Errorf("unexpected prompt order %v", prompted)
	}
	if res.Calibration.White != (color.RawColor{R: 200, G: 200, B: 200}) || res.Calibration.Black != (color.RawColor{R: 20, G: 20, B: 20}) {
		t.Errorf("unexpected calibration %+v", res.Calibration)
	}
	if len(res.Markers) != 1 || res.Markers[0].Label != "red" {
		t.Fatalf("unexpected markers %+v", res.Markers)
	}
	if label, ok := color.Classify(color.RawColor{R: 124, G: 27, B: 17}, res.Markers); !ok || label != "red" {
		t.Error("calibrated marker should match its own reference")
	}
}

func TestRunKeepsMarkerNamedLikeReference(t *testing.T) {
	sensor := &surfaceSensor{surfaces: map[string][]color.RawColor{
		"white":        {{R: 200, G: 200, B: 200}},
		"black":        {{R: 20, G: 20, B: 20}},
		"marker:white": {{R: 240, G: 240, B: 240}},
		"marker:black": {{R: 5, G: 5, B: 60}},
	}}
	prompt := func(s Surface) error {
		sensor.current = surfaceKey(s)
		return nil
	}

	res, err := Run(context.Background(), Sampler{Sensor: sensor, Samples: 3}, prompt, []string{"white", "black"}, DefaultMargin)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := color.Calibration{White: color.RawColor{R: 200, G: 200, B: 200}, Black: color.RawColor{R: 20, G: 20, B: 20}}
	if res.Calibration != want {
		t.Errorf("expected calibration %+v, got %+v", want, res.Calibration)
	}
	if got := res.Readings["white"].Mean; got != (color.RawColor{R: 240, G: 240, B: 240}) {
		t.Errorf("unexpected white marker reading %s", got)
	}
	if len(res.Markers) != 2 || res.Markers[1].Reference != (color.RawColor{R: 5, G: 5, B: 60}) {
		t.Errorf("unexpected markers %+v", res.Markers)
	}
}

func TestRunRejectsIndistinctSurfaces(t *testing.T) {
	sensor := &surfaceSensor{surfaces: map[string][]color.RawColor{
		"white": {{R: 50, G: 50, B: 50}},
		"black": {{R: 50, G: 50, B: 50}},
	}}
	prompt := func(s Surface) error {
		sensor.current = s.Name
		return nil
	}

	_, err := Run(context.Background(), Sampler{Sensor: sensor, Samples: 3}, prompt, nil, DefaultMargin)
	if !errors.Is(err, color.ErrCalibration) {
		t.Errorf("expected ErrCalibration, got %v", err)
	}
}

func TestRunStopsOnPromptError(t *testing.T) {
	sensor := &surfaceSensor{}
	aborted := errors.New("operator quit")

	_, err := Run(context.Background(), Sampler{Sensor: sensor}, func(Surface) error { return aborted }, nil, 0)
	if !errors.Is(err, aborted) {
		t.Errorf("expected prompt error, got %v", err)
	}
}
