package track

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/san-kum/linebot/internal/color"
	"github.com/san-kum/linebot/internal/loop"
)

var ErrSpeedRange = errors.New("track: speed out of range")

const (
	DefaultDt            = 0.02
	DefaultWheelBase     = 0.12
	DefaultMaxWheelSpeed = 0.3
	DefaultSensorOffset  = 0.05
)

// Params configures a simulation.
type Params struct {
	Course        Course
	Dt            float64 // seconds advanced per sensor read
	WheelBase     float64 // metres between wheels
	MaxWheelSpeed float64 // ground speed at 100 %, m/s
	SensorOffset  float64 // sensor distance ahead of the axle, metres
	Noise         float64 // reading noise std dev, raw units
	Seed          int64
	Pace          time.Duration // wall-clock delay per read, for live viewing
}

func DefaultParams() Params {
	return Params{
		Course: Course{
			Amplitude:  0.05,
			Wavelength: 2.0,
			FinishX:    0.5,
			Footprint:  0.01,
			White:      color.RawColor{R: 200, G: 200, B: 200},
			Black:      color.RawColor{R: 20, G: 20, B: 20},
			Finish:     color.RawColor{R: 124, G: 27, B: 17},
		},
		Dt:            DefaultDt,
		WheelBase:     DefaultWheelBase,
		MaxWheelSpeed: DefaultMaxWheelSpeed,
		SensorOffset:  DefaultSensorOffset,
	}
}

func (p Params) Validate() error {
	if p.Dt <= 0 {
		return fmt.Errorf("track: dt must be positive, got %f", p.Dt)
	}
	if p.WheelBase <= 0 {
		return fmt.Errorf("track: wheel base must be positive, got %f", p.WheelBase)
	}
	if p.MaxWheelSpeed <= 0 {
		return fmt.Errorf("track: max wheel speed must be positive, got %f", p.MaxWheelSpeed)
	}
	if p.Noise < 0 {
		return fmt.Errorf("track: noise must not be negative, got %f", p.Noise)
	}
	return nil
}

// kinematics is the unicycle model of a differential drive.
type kinematics struct {
	wheelBase float64
}

func (k kinematics) Derive(x State, u Wheels) State {
	heading := x[2]
	v := (u.Left + u.Right) / 2
	omega := (u.Right - u.Left) / k.wheelBase
	return State{v * math.Cos(heading), v * math.Sin(heading), omega}
}

// Sim is a simulated robot. All methods are safe for concurrent use.
type Sim struct {
	mu     sync.Mutex
	params Params
	model  kinematics
	integ  *RK4
	rng    *rand.Rand
	pose   State
	t      float64
	speed  [2]int
	stops  [2]int
	reads  int
}

// New places the robot on the course edge at x = 0, heading along +x.
func New(p Params) (*Sim, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	start := State{0, p.Course.EdgeY(0), 0}
	return &Sim{
		params: p,
		model:  kinematics{wheelBase: p.WheelBase},
		integ:  NewRK4(),
		rng:    rand.New(rand.NewSource(p.Seed)),
		pose:   start,
	}, nil
}

// ReadRawColor advances the robot by one timestep at the current wheel
// speeds and samples the surface under the sensor.
func (s *Sim) ReadRawColor() (color.RawColor, error) {
	if s.params.Pace > 0 {
		time.Sleep(s.params.Pace)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pose = s.integ.Step(s.model, s.pose, s.wheels(), s.params.Dt)
	s.t += s.params.Dt
	s.reads++

	sx, sy := s.sensorPosition()
	raw := s.params.Course.Sample(sx, sy)
	if s.params.Noise > 0 {
		raw = color.RawColor{
			R: s.noisy(raw.R),
			G: s.noisy(raw.G),
			B: s.noisy(raw.B),
		}
	}
	return raw, nil
}

func (s *Sim) noisy(v int) int {
	n := v + int(math.Round(s.rng.NormFloat64()*s.params.Noise))
	if n < 0 {
		return 0
	}
	return n
}

func (s *Sim) wheels() Wheels {
	scale := s.params.MaxWheelSpeed / 100
	return Wheels{
		Left:  float64(s.speed[0]) * scale,
		Right: float64(s.speed[1]) * scale,
	}
}

func (s *Sim) sensorPosition() (float64, float64) {
	x, y, heading := s.pose[0], s.pose[1], s.pose[2]
	return x + s.params.SensorOffset*math.Cos(heading), y + s.params.SensorOffset*math.Sin(heading)
}

// Pose returns the axle position and heading.
func (s *Sim) Pose() (x, y, heading float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pose[0], s.pose[1], s.pose[2]
}

// SensorPosition returns where the sensor spot currently is.
func (s *Sim) SensorPosition() (x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sensorPosition()
}

// Time returns simulated seconds elapsed.
func (s *Sim) Time() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t
}

func (s *Sim) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Course returns the course the robot drives on.
func (s *Sim) Course() Course {
	return s.params.Course
}

// Speeds returns the commanded wheel percentages.
func (s *Sim) Speeds() (left, right int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed[0], s.speed[1]
}

func (s *Sim) Left() *Motor  { return &Motor{sim: s, side: 0, name: loop.Left} }
func (s *Sim) Right() *Motor { return &Motor{sim: s, side: 1, name: loop.Right} }

// Drive returns both simulated motors as a loop drive.
func (s *Sim) Drive() loop.Drive {
	return loop.Drive{Left: s.Left(), Right: s.Right()}
}

// Motor is one simulated wheel.
type Motor struct {
	sim  *Sim
	side int
	name loop.Side
}

func (m *Motor) SetSpeed(pct int) error {
	if pct < -100 || pct > 100 {
		return fmt.Errorf("%w: %s motor %d%%", ErrSpeedRange, m.name, pct)
	}
	m.sim.mu.Lock()
	defer m.sim.mu.Unlock()
	m.sim.speed[m.side] = pct
	return nil
}

// Stop zeroes the wheel speed. Repeated calls are harmless.
func (m *Motor) Stop() error {
	m.sim.mu.Lock()
	defer m.sim.mu.Unlock()
	m.sim.speed[m.side] = 0
	m.sim.stops[m.side]++
	return nil
}

// Stops returns how many times Stop was called on this side.
func (m *Motor) Stops() int {
	m.sim.mu.Lock()
	defer m.sim.mu.Unlock()
	return m.sim.stops[m.side]
}
