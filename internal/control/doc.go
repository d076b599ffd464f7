// Package control provides the steering controller and the differential
// mixer that turns its output into wheel commands:
//
//   - [Step]: one pure PID update over an explicit [State]
//   - [PID]: a stateful wrapper around [Step], one per run
//   - [Mix]: base speed plus steering bias to clamped left/right percentages
//
// # Usage
//
//	pid := control.NewPID(control.Gains{Kp: 0.9})
//	bias := pid.Update(err)
//	cmd := control.Mix(20, bias)
//
// Neither the integral nor the bias is bounded; only [Mix] clamps.
package control
