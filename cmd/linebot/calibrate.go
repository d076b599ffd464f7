package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/linebot/internal/calibrate"
	"github.com/san-kum/linebot/internal/config"
)

func runCalibrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	dev, err := openDevice(cfg, log)
	if err != nil {
		return err
	}
	defer dev.close()

	// Nothing moves during calibration.
	if err := dev.drive.Stop(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(labels) == 0 {
		labels = cfg.MarkerLabels()
	}

	in := bufio.NewReader(os.Stdin)
	prompt := func(s calibrate.Surface) error {
		fmt.Printf("place the sensor over %s and press enter ", s.Name)
		_, err := in.ReadString('\n')
		return err
	}

	sampler := calibrate.Sampler{Sensor: dev.sensor, Samples: samples, Interval: interval}
	res, err := calibrate.Run(ctx, sampler, prompt, labels, margin)
	if err != nil {
		return err
	}

	logMeasurement := func(name string, m calibrate.Measurement) {
		log.WithField("surface", name).WithField("spread", m.Spread).Infof("mean %s over %d samples", m.Mean, m.Samples)
	}
	logMeasurement("white", res.White)
	logMeasurement("black", res.Black)
	for _, label := range labels {
		logMeasurement(label+" marker", res.Readings[label])
	}

	cfg.ApplyCalibration(res.Calibration, res.Markers)

	if writePath != "" {
		if err := config.Save(writePath, cfg); err != nil {
			return err
		}
		fmt.Printf("config written to %s\n", writePath)
		return nil
	}

	snippet := struct {
		WhitePoint config.RGB            `yaml:"white_point"`
		BlackPoint config.RGB            `yaml:"black_point"`
		Markers    []config.MarkerConfig `yaml:"markers"`
	}{cfg.WhitePoint, cfg.BlackPoint, cfg.Markers}

	out, err := yaml.Marshal(snippet)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s", out)
	return nil
}
