package loop

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/linebot/internal/color"
	"github.com/san-kum/linebot/internal/control"
)

// Loop executes runs of one validated Config.
type Loop struct {
	cfg       Config
	metrics   []Metric
	observers []Observer
	log       logrus.FieldLogger
}

// New validates cfg and returns a loop for it. Calibration and marker
// problems surface here, never during a run.
func New(cfg Config) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Markers = append([]color.Marker(nil), cfg.Markers...)

	return &Loop{
		cfg:       cfg,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       logrus.StandardLogger(),
	}, nil
}

func (l *Loop) AddMetric(m Metric)     { l.metrics = append(l.metrics, m) }
func (l *Loop) AddObserver(o Observer) { l.observers = append(l.observers, o) }

func (l *Loop) SetLogger(log logrus.FieldLogger) { l.log = log }

// Config returns the configuration the loop was built with.
func (l *Loop) Config() Config {
	cfg := l.cfg
	cfg.Markers = append([]color.Marker(nil), l.cfg.Markers...)
	return cfg
}

// Run drives the robot until a marker matches, the iteration budget runs
// out, an I/O call fails or ctx is done. Failures are returned both as the
// error and in Result.Err. Run never stops the motors itself; use
// RunWithFailsafe or stop the drive afterwards.
func (l *Loop) Run(ctx context.Context, sensor Sensor, drive Drive) (*Result, error) {
	start := time.Now()
	result := &Result{
		Outcome: Running,
		Metrics: make(map[string]float64),
	}

	for _, m := range l.metrics {
		m.Reset()
	}

	pid := control.NewPID(l.cfg.Gains)

	for i := 0; i < l.cfg.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return l.abort(result, start, i, ctx.Err())
		default:
		}

		raw, err := sensor.ReadRawColor()
		if err != nil {
			return l.abort(result, start, i, &SensorReadError{Iteration: i, Wrapped: err})
		}

		if label, ok := color.Classify(raw, l.cfg.Markers); ok {
			l.publish(Step{Iteration: i, Raw: raw, Marker: label})
			result.Outcome = StoppedMarker
			result.Marker = label
			result.Iterations = i + 1
			l.finish(result, start)
			l.log.WithFields(logrus.Fields{
				"iterations": result.Iterations,
				"marker":     label,
				"raw":        raw.String(),
			}).Info("marker detected, stopping")
			return result, nil
		}

		n := color.Normalize(raw, l.cfg.Calibration)
		brightness := color.Brightness(n)
		lineErr := 2 * (brightness - 0.5)

		bias := pid.Update(lineErr)
		cmd := control.Mix(l.cfg.BaseSpeed, bias)

		// A read that returns after the watcher stopped the motors must not
		// restart them.
		if err := ctx.Err(); err != nil {
			return l.abort(result, start, i, err)
		}
		if err := drive.Set(cmd); err != nil {
			var werr *ActuatorWriteError
			if errors.As(err, &werr) {
				werr.Iteration = i
			}
			return l.abort(result, start, i, err)
		}

		l.publish(Step{
			Iteration:  i,
			Raw:        raw,
			Normalized: n,
			Brightness: brightness,
			Error:      lineErr,
			Bias:       bias,
			Command:    cmd,
		})
		l.log.WithFields(logrus.Fields{
			"iteration":  i,
			"brightness": brightness,
			"error":      lineErr,
			"bias":       bias,
			"left":       cmd.Left,
			"right":      cmd.Right,
		}).Debug("step")

		result.Iterations = i + 1
	}

	result.Outcome = StoppedTimeout
	l.finish(result, start)
	l.log.WithField("iterations", result.Iterations).Info("iteration budget exhausted")
	return result, nil
}

// RunWithFailsafe runs and then stops the drive whatever the outcome. A stop
// failure is joined onto the returned error.
func (l *Loop) RunWithFailsafe(ctx context.Context, sensor Sensor, drive Drive) (*Result, error) {
	result, err := l.Run(ctx, sensor, drive)
	if stopErr := drive.Stop(); stopErr != nil {
		l.log.WithError(stopErr).Warn("failsafe stop failed")
		err = errors.Join(err, stopErr)
	}
	return result, err
}

func (l *Loop) publish(s Step) {
	for _, m := range l.metrics {
		m.Observe(s)
	}
	for _, o := range l.observers {
		o.OnStep(s)
	}
}

func (l *Loop) abort(result *Result, start time.Time, completed int, err error) (*Result, error) {
	result.Outcome = Aborted
	result.Err = err
	result.Iterations = completed
	l.finish(result, start)
	l.log.WithError(err).WithField("iterations", completed).Error("control loop aborted")
	return result, err
}

func (l *Loop) finish(result *Result, start time.Time) {
	result.Elapsed = time.Since(start)
	for _, m := range l.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}
