package ev3

import (
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/san-kum/linebot/internal/loop"
)

const (
	largeMotorDriver = "lego-ev3-l-motor"
	commandRunDirect = "run-direct"
	commandStop      = "stop"
)

// Motor is a tacho motor in run-direct mode. SetSpeed writes the duty cycle;
// after Stop the motor ignores duty cycle changes until RunDirect is issued
// again.
type Motor struct {
	dir  string
	port string
}

// FindLargeMotor returns the large motor attached to port (e.g. "outA").
func FindLargeMotor(root, port string) (*Motor, error) {
	dir, ok := findDevice(root, "tacho-motor", func(dir string) bool {
		name, err := readAttr(dir, "driver_name")
		if err != nil || name != largeMotorDriver {
			return false
		}
		addr, err := readAttr(dir, "address")
		return err == nil && (addr == port || strings.HasSuffix(addr, ":"+port))
	})
	if !ok {
		return nil, pkgerrors.Wrapf(ErrNotFound, "large motor on %s", port)
	}
	return &Motor{dir: dir, port: port}, nil
}

func (m *Motor) Port() string {
	return m.port
}

// RunDirect makes the motor follow duty_cycle_sp immediately.
func (m *Motor) RunDirect() error {
	return writeAttr(m.dir, "command", commandRunDirect)
}

func (m *Motor) SetSpeed(pct int) error {
	if pct < -100 || pct > 100 {
		return fmt.Errorf("ev3: duty cycle %d out of range on %s", pct, m.port)
	}
	return writeAttr(m.dir, "duty_cycle_sp", strconv.Itoa(pct))
}

// Stop issues the stop command. Re-issuing it is harmless.
func (m *Motor) Stop() error {
	return writeAttr(m.dir, "command", commandStop)
}

// Robot is the usual line follower layout: one color sensor and two
// large motors.
type Robot struct {
	Sensor *ColorSensor
	Left   *Motor
	Right  *Motor
}

// Open finds the devices, switches the sensor to RGB-RAW and puts both
// motors in run-direct mode at zero duty cycle.
func Open(root, leftPort, rightPort string) (*Robot, error) {
	sensor, err := FindColorSensor(root)
	if err != nil {
		return nil, err
	}
	left, err := FindLargeMotor(root, leftPort)
	if err != nil {
		return nil, err
	}
	right, err := FindLargeMotor(root, rightPort)
	if err != nil {
		return nil, err
	}

	for _, m := range []*Motor{left, right} {
		if err := m.RunDirect(); err != nil {
			return nil, err
		}
		if err := m.SetSpeed(0); err != nil {
			return nil, err
		}
	}
	if err := sensor.SetModeRGBRaw(); err != nil {
		return nil, err
	}

	return &Robot{Sensor: sensor, Left: left, Right: right}, nil
}

func (r *Robot) Drive() loop.Drive {
	return loop.Drive{Left: r.Left, Right: r.Right}
}
