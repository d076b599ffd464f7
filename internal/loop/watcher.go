package loop

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultStopTimeout bounds each stop attempt made by a watcher.
const DefaultStopTimeout = 500 * time.Millisecond

// Watcher stops actuators when its context ends. It runs on its own
// goroutine and shares nothing with the loop but the actuator handles.
type Watcher struct {
	stoppers []Stopper
	timeout  time.Duration
	log      logrus.FieldLogger
	done     chan struct{}
}

func NewWatcher(timeout time.Duration, log logrus.FieldLogger, stoppers ...Stopper) *Watcher {
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Watcher{
		stoppers: stoppers,
		timeout:  timeout,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start launches the watching goroutine. Call it once.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		<-ctx.Done()
		w.log.WithField("cause", context.Cause(ctx)).Info("stop requested, halting motors")
		for i, s := range w.stoppers {
			if err := StopWithTimeout(s, w.timeout); err != nil {
				w.log.WithError(err).WithField("actuator", i).Warn("actuator stop failed")
			}
		}
	}()
}

// Done is closed once the watcher has attempted every stop.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// StopWithTimeout calls s.Stop and gives up after d. A stop that outlives d
// keeps running in the background.
func StopWithTimeout(s Stopper, d time.Duration) error {
	errc := make(chan error, 1)
	go func() { errc <- s.Stop() }()

	select {
	case err := <-errc:
		return err
	case <-time.After(d):
		return ErrStopTimeout
	}
}
