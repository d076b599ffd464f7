package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/linebot/internal/config"
	"github.com/san-kum/linebot/internal/ev3"
	"github.com/san-kum/linebot/internal/loop"
	"github.com/san-kum/linebot/internal/serialbot"
	"github.com/san-kum/linebot/internal/track"
)

type device struct {
	sensor loop.Sensor
	drive  loop.Drive
	sim    *track.Sim
	close  func() error
}

func openDevice(cfg *config.Config, log logrus.FieldLogger) (*device, error) {
	d := cfg.Device
	switch d.Kind {
	case config.DeviceSim:
		sim, err := track.New(cfg.TrackParams())
		if err != nil {
			return nil, err
		}
		log.WithField("finish_x", cfg.Sim.FinishX).Info("simulated course ready")
		return &device{sensor: sim, drive: sim.Drive(), sim: sim, close: func() error { return nil }}, nil

	case config.DeviceEV3:
		robot, err := ev3.Open(d.SysfsRoot, d.LeftPort, d.RightPort)
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"left":  d.LeftPort,
			"right": d.RightPort,
		}).Info("ev3 devices ready")
		return &device{sensor: robot.Sensor, drive: robot.Drive(), close: func() error { return nil }}, nil

	case config.DeviceSerial:
		link, err := serialbot.Open(d.SerialPort, d.BaudRate)
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"port": d.SerialPort,
			"baud": d.BaudRate,
		}).Info("serial bridge open")
		return &device{sensor: link, drive: link.Drive(), close: link.Close}, nil

	default:
		return nil, fmt.Errorf("unknown device kind %q", d.Kind)
	}
}
