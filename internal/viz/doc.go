// Package viz renders a running control loop in the terminal.
//
// [Model] is a Bubble Tea model fed by a [Feed] observer attached to the
// loop. It draws the course edge, the path of the sensor and a chart of the
// recent line error on a Braille [Canvas].
//
// # Key Bindings
//
//	Q, Ctrl+C - Cancel the run and quit
//	F         - Toggle follow mode
package viz
