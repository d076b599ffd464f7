package loop_test

import (
	"errors"
	"sync"

	"github.com/san-kum/linebot/internal/color"
)

var errIO = errors.New("device gone")

// scriptedSensor replays readings, repeating the last one when exhausted.
type scriptedSensor struct {
	readings []color.RawColor
	failAt   int
	reads    int
}

func newScriptedSensor(readings ...color.RawColor) *scriptedSensor {
	return &scriptedSensor{readings: readings, failAt: -1}
}

func (s *scriptedSensor) ReadRawColor() (color.RawColor, error) {
	i := s.reads
	s.reads++
	if i == s.failAt {
		return color.RawColor{}, errIO
	}
	if i >= len(s.readings) {
		i = len(s.readings) - 1
	}
	return s.readings[i], nil
}

// blockingSensor announces each read on waiting and blocks until fed.
type blockingSensor struct {
	waiting chan struct{}
	feed    chan color.RawColor
}

func newBlockingSensor() *blockingSensor {
	return &blockingSensor{
		waiting: make(chan struct{}),
		feed:    make(chan color.RawColor),
	}
}

func (s *blockingSensor) ReadRawColor() (color.RawColor, error) {
	s.waiting <- struct{}{}
	return <-s.feed, nil
}

type fakeMotor struct {
	mu      sync.Mutex
	speeds  []int
	stops   int
	failAt  int
	stopErr error
}

func newFakeMotor() *fakeMotor {
	return &fakeMotor{failAt: -1}
}

func (m *fakeMotor) SetSpeed(pct int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.speeds) == m.failAt {
		return errIO
	}
	m.speeds = append(m.speeds, pct)
	return nil
}

func (m *fakeMotor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return m.stopErr
}

func (m *fakeMotor) Speeds() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.speeds...)
}

func (m *fakeMotor) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// hangingMotor never returns from Stop until released.
type hangingMotor struct {
	release chan struct{}
}

func (m *hangingMotor) Stop() error {
	<-m.release
	return nil
}

type recorder struct {
	steps []int
	last  string
}

func (r *recorder) OnStep(s loopStep) {
	r.steps = append(r.steps, s.Iteration)
	r.last = s.Marker
}
