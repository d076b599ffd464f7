// Package track simulates a differential-drive robot over a printed course
// so the control loop can run without hardware.
//
// The course edge follows y = A·sin(2π·x/λ). White lies above the edge (to
// the robot's left when it drives along +x), black below, and the sensor
// sees the finish color once it passes FinishX. [Sim] implements
// loop.Sensor and hands out loop.Actuator values through [Sim.Left] and
// [Sim.Right]; every sensor read advances the robot by one timestep.
package track
