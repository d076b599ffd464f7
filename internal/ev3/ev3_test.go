package ev3

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/linebot/internal/color"
)

func writeFile(t *testing.T, dir, name, value string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(value+"\n"), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func fakeSysfs(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	touch := filepath.Join(root, "lego-sensor", "sensor0")
	writeFile(t, touch, "driver_name", "lego-ev3-touch")

	sensor := filepath.Join(root, "lego-sensor", "sensor1")
	writeFile(t, sensor, "driver_name", "lego-ev3-color")
	writeFile(t, sensor, "mode", "COL-REFLECT")
	writeFile(t, sensor, "value0", "124")
	writeFile(t, sensor, "value1", "27")
	writeFile(t, sensor, "value2", "17")

	for name, port := range map[string]string{"motor0": "ev3-ports:outA", "motor1": "ev3-ports:outD"} {
		dir := filepath.Join(root, "tacho-motor", name)
		writeFile(t, dir, "driver_name", "lego-ev3-l-motor")
		writeFile(t, dir, "address", port)
		writeFile(t, dir, "command", "")
		writeFile(t, dir, "duty_cycle_sp", "0")
	}
	medium := filepath.Join(root, "tacho-motor", "motor2")
	writeFile(t, medium, "driver_name", "lego-ev3-m-motor")
	writeFile(t, medium, "address", "ev3-ports:outB")

	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestOpenConfiguresDevices(t *testing.T) {
	root := fakeSysfs(t)

	robot, err := Open(root, "outD", "outA")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	mode, err := robot.Sensor.Mode()
	if err != nil || mode != "RGB-RAW" {
		t.Errorf("expected RGB-RAW mode, got %q (%v)", mode, err)
	}
	for _, m := range []*Motor{robot.Left, robot.Right} {
		if got := readFile(t, filepath.Join(m.dir, "command")); got != "run-direct" {
			t.Errorf("%s: expected run-direct, got %q", m.Port(), got)
		}
	}
	if robot.Left.Port() != "outD" || robot.Right.Port() != "outA" {
		t.Errorf("unexpected ports %s/%s", robot.Left.Port(), robot.Right.Port())
	}
}

func TestColorSensorRead(t *testing.T) {
	root := fakeSysfs(t)

	s, err := FindColorSensor(root)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	raw, err := s.ReadRawColor()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if raw != (color.RawColor{R: 124, G: 27, B: 17}) {
		t.Errorf("unexpected reading %v", raw)
	}

	writeFile(t, s.dir, "value1", "garbage")
	if _, err := s.ReadRawColor(); err == nil {
		t.Error("expected parse error")
	}
}

func TestMotorSpeedAndStop(t *testing.T) {
	root := fakeSysfs(t)

	m, err := FindLargeMotor(root, "outA")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if err := m.SetSpeed(-35); err != nil {
		t.Fatalf("set speed: %v", err)
	}
	if got := readFile(t, filepath.Join(m.dir, "duty_cycle_sp")); got != "-35" {
		t.Errorf("expected duty cycle -35, got %q", got)
	}
	if err := m.SetSpeed(150); err == nil {
		t.Error("expected range error")
	}

	for i := 0; i < 2; i++ {
		if err := m.Stop(); err != nil {
			t.Fatalf("stop %d: %v", i, err)
		}
		if got := readFile(t, filepath.Join(m.dir, "command")); got != "stop" {
			t.Errorf("expected stop command, got %q", got)
		}
	}
}

func TestMissingDevices(t *testing.T) {
	root := fakeSysfs(t)

	if _, err := FindLargeMotor(root, "outB"); !errors.Is(err, ErrNotFound) {
		t.Errorf("medium motor should not match a large motor lookup, got %v", err)
	}
	if _, err := FindColorSensor(t.TempDir()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := Open(root, "outC", "outA"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing port, got %v", err)
	}
}
