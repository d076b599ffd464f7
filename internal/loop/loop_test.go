package loop_test

import (
	"context"
	"errors"
	"io"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/linebot/internal/color"
	"github.com/san-kum/linebot/internal/control"
	"github.com/san-kum/linebot/internal/loop"
)

type loopStep = loop.Step

var (
	white = color.RawColor{R: 200, G: 200, B: 200}
	black = color.RawColor{R: 20, G: 20, B: 20}
	edge  = color.RawColor{R: 110, G: 110, B: 110}
	red   = color.RawColor{R: 124, G: 27, B: 17}
)

func baseConfig() loop.Config {
	return loop.Config{
		Calibration:   color.Calibration{White: white, Black: black},
		Markers:       []color.Marker{{Label: "red", Reference: red, Tolerance: 20}},
		Gains:         control.Gains{Kp: 0.9},
		BaseSpeed:     20,
		MaxIterations: 5,
	}
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func mustLoop(cfg loop.Config) *loop.Loop {
	l, err := loop.New(cfg)
	Expect(err).NotTo(HaveOccurred())
	l.SetLogger(quietLogger())
	return l
}

type effortMetric struct {
	sum    float64
	resets int
}

func (m *effortMetric) Name() string        { return "effort" }
func (m *effortMetric) Observe(s loop.Step) { m.sum += s.Bias }
func (m *effortMetric) Value() float64      { return m.sum }
func (m *effortMetric) Reset()              { m.sum = 0; m.resets++ }

var _ = Describe("Loop", func() {
	var (
		ctx         context.Context
		left, right *fakeMotor
		drive       loop.Drive
	)

	BeforeEach(func() {
		ctx = context.Background()
		left, right = newFakeMotor(), newFakeMotor()
		drive = loop.Drive{Left: left, Right: right}
	})

	Describe("configuration", func() {
		It("rejects a calibration with equal white and black on a channel", func() {
			cfg := baseConfig()
			cfg.Calibration.White.G = cfg.Calibration.Black.G
			_, err := loop.New(cfg)
			Expect(errors.Is(err, color.ErrCalibration)).To(BeTrue())
		})

		It("rejects unusable markers", func() {
			cfg := baseConfig()
			cfg.Markers = append(cfg.Markers, color.Marker{Label: "red", Tolerance: 5})
			_, err := loop.New(cfg)
			Expect(errors.Is(err, color.ErrMarker)).To(BeTrue())
		})

		DescribeTable("rejects out of range run parameters",
			func(mutate func(*loop.Config)) {
				cfg := baseConfig()
				mutate(&cfg)
				_, err := loop.New(cfg)
				Expect(errors.Is(err, loop.ErrConfig)).To(BeTrue())
			},
			Entry("zero iterations", func(c *loop.Config) { c.MaxIterations = 0 }),
			Entry("negative iterations", func(c *loop.Config) { c.MaxIterations = -3 }),
			Entry("base speed too high", func(c *loop.Config) { c.BaseSpeed = 101 }),
			Entry("base speed too low", func(c *loop.Config) { c.BaseSpeed = -101 }),
			Entry("nan proportional gain", func(c *loop.Config) { c.Gains.Kp = math.NaN() }),
			Entry("infinite integral gain", func(c *loop.Config) { c.Gains.Ki = math.Inf(1) }),
			Entry("infinite derivative gain", func(c *loop.Config) { c.Gains.Kd = math.Inf(-1) }),
		)

		It("keeps its own copy of the marker list", func() {
			cfg := baseConfig()
			l := mustLoop(cfg)
			cfg.Markers[0].Label = "changed"
			Expect(l.Config().Markers[0].Label).To(Equal("red"))
		})
	})

	Describe("termination", func() {
		It("stops with a timeout after max iterations when no marker matches", func() {
			l := mustLoop(baseConfig())
			sensor := newScriptedSensor(edge)

			result, err := l.Run(ctx, sensor, drive)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(loop.StoppedTimeout))
			Expect(result.Iterations).To(Equal(5))
			Expect(sensor.reads).To(Equal(5))
			Expect(left.Speeds()).To(HaveLen(5))
			Expect(right.Speeds()).To(HaveLen(5))
		})

		It("stops with the label on the first matching iteration", func() {
			l := mustLoop(baseConfig())
			sensor := newScriptedSensor(edge, white, red, black)

			result, err := l.Run(ctx, sensor, drive)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Outcome).To(Equal(loop.StoppedMarker))
			Expect(result.Marker).To(Equal("red"))
			Expect(result.Iterations).To(Equal(3))
			Expect(sensor.reads).To(Equal(3))
			Expect(left.Speeds()).To(HaveLen(2))
		})

		It("reports the earlier marker when two overlap", func() {
			cfg := baseConfig()
			cfg.Markers = []color.Marker{
				{Label: "finish", Reference: color.RawColor{R: 120, G: 30, B: 20}, Tolerance: 40},
				{Label: "red", Reference: red, Tolerance: 20},
			}
			l := mustLoop(cfg)

			result, err := l.Run(ctx, newScriptedSensor(red), drive)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Marker).To(Equal("finish"))
		})

		It("does not treat the running state as terminal", func() {
			Expect(loop.Running.Terminal()).To(BeFalse())
			Expect(loop.StoppedMarker.Terminal()).To(BeTrue())
			Expect(loop.StoppedTimeout.Terminal()).To(BeTrue())
			Expect(loop.Aborted.Terminal()).To(BeTrue())
		})
	})

	Describe("steering", func() {
		It("mixes the proportional response into wheel commands", func() {
			cfg := baseConfig()
			cfg.MaxIterations = 3
			l := mustLoop(cfg)
			sensor := newScriptedSensor(white, black, edge)

			_, err := l.Run(ctx, sensor, drive)
			Expect(err).NotTo(HaveOccurred())
			Expect(left.Speeds()).To(Equal([]int{38, 2, 20}))
			Expect(right.Speeds()).To(Equal([]int{2, 38, 20}))
		})

		It("resets the PID state at the start of every run", func() {
			cfg := baseConfig()
			cfg.Gains = control.Gains{Kp: 0.5, Ki: 0.2, Kd: 0.1}
			cfg.MaxIterations = 4
			l := mustLoop(cfg)

			_, err := l.Run(ctx, newScriptedSensor(white, white, black, edge), drive)
			Expect(err).NotTo(HaveOccurred())
			first := left.Speeds()

			left2, right2 := newFakeMotor(), newFakeMotor()
			_, err = l.Run(ctx, newScriptedSensor(white, white, black, edge), loop.Drive{Left: left2, Right: right2})
			Expect(err).NotTo(HaveOccurred())
			Expect(left2.Speeds()).To(Equal(first))
		})

		It("feeds every iteration to observers and metrics", func() {
			l := mustLoop(baseConfig())
			rec := &recorder{}
			effort := &effortMetric{}
			l.AddObserver(rec)
			l.AddMetric(effort)

			result, err := l.Run(ctx, newScriptedSensor(white, edge, red), drive)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.steps).To(Equal([]int{0, 1, 2}))
			Expect(rec.last).To(Equal("red"))
			Expect(effort.resets).To(Equal(1))
			Expect(result.Metrics).To(HaveKeyWithValue("effort", BeNumerically("~", 0.9, 1e-9)))
		})
	})

	Describe("failures", func() {
		It("aborts on a sensor failure without retrying", func() {
			l := mustLoop(baseConfig())
			sensor := newScriptedSensor(edge)
			sensor.failAt = 2

			result, err := l.Run(ctx, sensor, drive)
			Expect(errors.Is(err, loop.ErrSensorRead)).To(BeTrue())
			Expect(errors.Is(err, errIO)).To(BeTrue())

			var readErr *loop.SensorReadError
			Expect(errors.As(err, &readErr)).To(BeTrue())
			Expect(readErr.Iteration).To(Equal(2))

			Expect(result.Outcome).To(Equal(loop.Aborted))
			Expect(result.Err).To(MatchError(err))
			Expect(result.Iterations).To(Equal(2))
			Expect(sensor.reads).To(Equal(3))
		})

		It("aborts on an actuator failure and names the side", func() {
			l := mustLoop(baseConfig())
			right.failAt = 1

			result, err := l.Run(ctx, newScriptedSensor(edge), drive)
			Expect(errors.Is(err, loop.ErrActuatorWrite)).To(BeTrue())

			var writeErr *loop.ActuatorWriteError
			Expect(errors.As(err, &writeErr)).To(BeTrue())
			Expect(writeErr.Side).To(Equal(loop.Right))
			Expect(writeErr.Iteration).To(Equal(1))
			Expect(result.Outcome).To(Equal(loop.Aborted))
			Expect(result.Iterations).To(Equal(1))
		})

		It("aborts before reading when the context is already done", func() {
			l := mustLoop(baseConfig())
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			sensor := newScriptedSensor(edge)

			result, err := l.Run(canceled, sensor, drive)
			Expect(err).To(MatchError(context.Canceled))
			Expect(result.Outcome).To(Equal(loop.Aborted))
			Expect(sensor.reads).To(BeZero())
		})
	})

	Describe("failsafe", func() {
		DescribeTable("stops both motors whatever the outcome",
			func(sensor *scriptedSensor) {
				l := mustLoop(baseConfig())
				_, _ = l.RunWithFailsafe(ctx, sensor, drive)
				Expect(left.Stops()).To(Equal(1))
				Expect(right.Stops()).To(Equal(1))
			},
			Entry("timeout", newScriptedSensor(edge)),
			Entry("marker", newScriptedSensor(red)),
			Entry("sensor failure", &scriptedSensor{readings: []color.RawColor{edge}, failAt: 0}),
		)

		It("joins a stop failure onto the run error", func() {
			l := mustLoop(baseConfig())
			left.stopErr = errors.New("stall")

			result, err := l.RunWithFailsafe(ctx, newScriptedSensor(red), drive)
			Expect(result.Outcome).To(Equal(loop.StoppedMarker))
			Expect(err).To(MatchError(ContainSubstring("stall")))
			Expect(right.Stops()).To(Equal(1))
		})

		It("allows stopping twice", func() {
			Expect(drive.Stop()).To(Succeed())
			Expect(drive.Stop()).To(Succeed())
		})
	})
})

var _ = Describe("Watcher", func() {
	It("stops the motors while the loop is blocked in a sensor read", func() {
		left, right := newFakeMotor(), newFakeMotor()
		drive := loop.Drive{Left: left, Right: right}
		sensor := newBlockingSensor()

		cfg := baseConfig()
		cfg.MaxIterations = 1000
		l := mustLoop(cfg)

		ctx, cancel := context.WithCancel(context.Background())
		w := loop.NewWatcher(time.Second, quietLogger(), drive.Stoppers()...)
		w.Start(ctx)

		type outcome struct {
			result *loop.Result
			err    error
		}
		done := make(chan outcome, 1)
		go func() {
			r, err := l.Run(ctx, sensor, drive)
			done <- outcome{r, err}
		}()

		<-sensor.waiting
		sensor.feed <- edge
		<-sensor.waiting
		sensor.feed <- edge
		<-sensor.waiting
		cancel()

		Eventually(w.Done()).Should(BeClosed())
		Expect(left.Stops()).To(Equal(1))
		Expect(right.Stops()).To(Equal(1))
		Consistently(done).ShouldNot(Receive())

		sensor.feed <- edge
		var got outcome
		Eventually(done).Should(Receive(&got))
		Expect(got.err).To(MatchError(context.Canceled))
		Expect(got.result.Outcome).To(Equal(loop.Aborted))
		Expect(got.result.Iterations).To(Equal(2))
		Expect(left.Speeds()).To(HaveLen(2))
		Expect(right.Speeds()).To(HaveLen(2))
	})

	It("does nothing until its context ends", func() {
		m := newFakeMotor()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		w := loop.NewWatcher(time.Second, quietLogger(), m)
		w.Start(ctx)

		Consistently(w.Done(), 50*time.Millisecond).ShouldNot(BeClosed())
		Expect(m.Stops()).To(BeZero())
	})

	It("gives up on an actuator that hangs in stop", func() {
		hung := &hangingMotor{release: make(chan struct{})}
		defer close(hung.release)

		err := loop.StopWithTimeout(hung, 20*time.Millisecond)
		Expect(err).To(MatchError(loop.ErrStopTimeout))
	})

	It("still stops the remaining actuators after one hangs", func() {
		hung := &hangingMotor{release: make(chan struct{})}
		defer close(hung.release)
		m := newFakeMotor()

		ctx, cancel := context.WithCancel(context.Background())
		w := loop.NewWatcher(20*time.Millisecond, quietLogger(), hung, m)
		w.Start(ctx)
		cancel()

		Eventually(w.Done()).Should(BeClosed())
		Expect(m.Stops()).To(Equal(1))
	})
})
