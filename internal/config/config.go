package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/linebot/internal/color"
	"github.com/san-kum/linebot/internal/control"
	"github.com/san-kum/linebot/internal/ev3"
	"github.com/san-kum/linebot/internal/loop"
	"github.com/san-kum/linebot/internal/serialbot"
	"github.com/san-kum/linebot/internal/track"
)

const (
	DefaultKp            = 0.9
	DefaultBaseSpeed     = 20
	DefaultMaxIterations = 500
	DefaultTolerance     = 20
	DefaultLeftPort      = "outD"
	DefaultRightPort     = "outA"
	DefaultSerialPort    = "/dev/ttyUSB0"
	DefaultLogLevel      = "info"
)

const (
	DeviceSim    = "sim"
	DeviceEV3    = "ev3"
	DeviceSerial = "serial"
)

// RGB is a raw reading written as a three-element list.
type RGB [3]int

func (c RGB) Raw() color.RawColor { return color.RawColor{R: c[0], G: c[1], B: c[2]} }

type Config struct {
	Device        DeviceConfig   `yaml:"device" toml:"device"`
	WhitePoint    RGB            `yaml:"white_point" toml:"white_point"`
	BlackPoint    RGB            `yaml:"black_point" toml:"black_point"`
	Markers       []MarkerConfig `yaml:"markers" toml:"markers"`
	Gains         GainsConfig    `yaml:"gains" toml:"gains"`
	BaseSpeed     int            `yaml:"base_speed" toml:"base_speed"`
	MaxIterations int            `yaml:"max_iterations" toml:"max_iterations"`
	Log           LogConfig      `yaml:"log" toml:"log"`
	Sim           SimConfig      `yaml:"sim" toml:"sim"`
}

type DeviceConfig struct {
	Kind       string `yaml:"kind" toml:"kind"`
	SysfsRoot  string `yaml:"sysfs_root" toml:"sysfs_root"`
	LeftPort   string `yaml:"left_port" toml:"left_port"`
	RightPort  string `yaml:"right_port" toml:"right_port"`
	SerialPort string `yaml:"serial_port" toml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate" toml:"baud_rate"`
}

type MarkerConfig struct {
	Label     string `yaml:"label" toml:"label"`
	Reference RGB    `yaml:"reference" toml:"reference"`
	Tolerance int    `yaml:"tolerance" toml:"tolerance"`
}

type GainsConfig struct {
	Kp float64 `yaml:"kp" toml:"kp"`
	Ki float64 `yaml:"ki" toml:"ki"`
	Kd float64 `yaml:"kd" toml:"kd"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// SimConfig describes the simulated course and robot.
type SimConfig struct {
	Amplitude     float64 `yaml:"amplitude" toml:"amplitude"`
	Wavelength    float64 `yaml:"wavelength" toml:"wavelength"`
	FinishX       float64 `yaml:"finish_x" toml:"finish_x"`
	Footprint     float64 `yaml:"footprint" toml:"footprint"`
	Dt            float64 `yaml:"dt" toml:"dt"`
	WheelBase     float64 `yaml:"wheel_base" toml:"wheel_base"`
	MaxWheelSpeed float64 `yaml:"max_wheel_speed" toml:"max_wheel_speed"`
	SensorOffset  float64 `yaml:"sensor_offset" toml:"sensor_offset"`
	Noise         float64 `yaml:"noise" toml:"noise"`
	Seed          int64   `yaml:"seed" toml:"seed"`
	PaceMs        int     `yaml:"pace_ms" toml:"pace_ms"`
}

func DefaultConfig() *Config {
	p := track.DefaultParams()
	return &Config{
		Device: DeviceConfig{
			Kind:       DeviceSim,
			SysfsRoot:  ev3.DefaultRoot,
			LeftPort:   DefaultLeftPort,
			RightPort:  DefaultRightPort,
			SerialPort: DefaultSerialPort,
			BaudRate:   serialbot.DefaultBaudRate,
		},
		WhitePoint: RGB{200, 200, 200},
		BlackPoint: RGB{20, 20, 20},
		Markers: []MarkerConfig{
			{Label: "red", Reference: RGB{124, 27, 17}, Tolerance: DefaultTolerance},
		},
		Gains:         GainsConfig{Kp: DefaultKp},
		BaseSpeed:     DefaultBaseSpeed,
		MaxIterations: DefaultMaxIterations,
		Log:           LogConfig{Level: DefaultLogLevel},
		Sim: SimConfig{
			Amplitude:     p.Course.Amplitude,
			Wavelength:    p.Course.Wavelength,
			FinishX:       p.Course.FinishX,
			Footprint:     p.Course.Footprint,
			Dt:            p.Dt,
			WheelBase:     p.WheelBase,
			MaxWheelSpeed: p.MaxWheelSpeed,
			SensorOffset:  p.SensorOffset,
		},
	}
}

type format int

const (
	formatYAML format = iota
	formatTOML
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".toml":
		return formatTOML, nil
	default:
		return 0, fmt.Errorf("config: unsupported file extension %q", filepath.Ext(path))
	}
}

// Load overlays the file at path onto the defaults.
func Load(path string) (*Config, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read config file %s", path)
	}

	cfg := DefaultConfig()
	switch f {
	case formatTOML:
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to parse config file %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}

	var data []byte
	switch f {
	case formatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return pkgerrors.Wrap(err, "failed to encode config")
		}
		data = buf.Bytes()
	default:
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return pkgerrors.Wrap(err, "failed to encode config")
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return pkgerrors.Wrapf(err, "failed to write config file %s", path)
	}
	return nil
}

// Build converts the file form into a validated loop configuration.
func (c *Config) Build() (loop.Config, error) {
	cal, err := color.NewCalibration(c.WhitePoint.Raw(), c.BlackPoint.Raw())
	if err != nil {
		return loop.Config{}, err
	}

	markers := make([]color.Marker, len(c.Markers))
	for i, m := range c.Markers {
		markers[i] = color.Marker{Label: m.Label, Reference: m.Reference.Raw(), Tolerance: m.Tolerance}
	}

	cfg := loop.Config{
		Calibration:   cal,
		Markers:       markers,
		Gains:         control.Gains{Kp: c.Gains.Kp, Ki: c.Gains.Ki, Kd: c.Gains.Kd},
		BaseSpeed:     c.BaseSpeed,
		MaxIterations: c.MaxIterations,
	}
	if err := cfg.Validate(); err != nil {
		return loop.Config{}, err
	}
	return cfg, nil
}

// Validate checks the parts of the file Build does not cover.
func (c *Config) Validate() error {
	switch c.Device.Kind {
	case DeviceSim, DeviceEV3, DeviceSerial:
	default:
		return fmt.Errorf("%w: unknown device kind %q", loop.ErrConfig, c.Device.Kind)
	}
	if c.Device.Kind == DeviceSerial && c.Device.BaudRate <= 0 {
		return fmt.Errorf("%w: baud rate must be positive, got %d", loop.ErrConfig, c.Device.BaudRate)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

func (c *Config) LogLevel() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("%w: %v", loop.ErrConfig, err)
	}
	return lvl, nil
}

// TrackParams returns simulation parameters. The course is printed with the
// configured white and black points and finishes on the first marker.
func (c *Config) TrackParams() track.Params {
	p := track.DefaultParams()
	p.Course.Amplitude = c.Sim.Amplitude
	p.Course.Wavelength = c.Sim.Wavelength
	p.Course.FinishX = c.Sim.FinishX
	p.Course.Footprint = c.Sim.Footprint
	p.Course.White = c.WhitePoint.Raw()
	p.Course.Black = c.BlackPoint.Raw()
	if len(c.Markers) > 0 {
		p.Course.Finish = c.Markers[0].Reference.Raw()
	}
	p.Dt = c.Sim.Dt
	p.WheelBase = c.Sim.WheelBase
	p.MaxWheelSpeed = c.Sim.MaxWheelSpeed
	p.SensorOffset = c.Sim.SensorOffset
	p.Noise = c.Sim.Noise
	p.Seed = c.Sim.Seed
	p.Pace = time.Duration(c.Sim.PaceMs) * time.Millisecond
	return p
}

// ApplyCalibration replaces the reference points and markers with measured
// ones.
func (c *Config) ApplyCalibration(cal color.Calibration, markers []color.Marker) {
	c.WhitePoint = RGB(cal.White.Channels())
	c.BlackPoint = RGB(cal.Black.Channels())
	c.Markers = make([]MarkerConfig, len(markers))
	for i, m := range markers {
		c.Markers[i] = MarkerConfig{Label: m.Label, Reference: RGB(m.Reference.Channels()), Tolerance: m.Tolerance}
	}
}

// MarkerLabels returns the configured marker labels in priority order.
func (c *Config) MarkerLabels() []string {
	labels := make([]string, len(c.Markers))
	for i, m := range c.Markers {
		labels[i] = m.Label
	}
	return labels
}
