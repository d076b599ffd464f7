// Package loop runs the line-following control loop.
//
// The package defines the collaborator interfaces and the loop itself:
//
//   - [Sensor]: source of raw color readings
//   - [Actuator]: one drive motor, with an idempotent Stop
//   - [Drive]: the left/right actuator pair
//   - [Loop]: sense, classify, steer and actuate until a marker or the
//     iteration budget ends the run
//   - [Watcher]: stops the drive from outside the loop when a context ends
//
// # Example
//
//	l, err := loop.New(cfg)
//	w := loop.NewWatcher(loop.DefaultStopTimeout, log, drive.Stoppers()...)
//	w.Start(ctx)
//	result, err := l.RunWithFailsafe(ctx, sensor, drive)
//
// # Thread Safety
//
// A Loop is NOT safe for concurrent runs: its PID state belongs to the run in
// progress. The only call that may cross goroutines is Actuator.Stop.
package loop
