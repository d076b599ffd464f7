// Package ev3 drives LEGO EV3 hardware through the ev3dev sysfs interface.
//
// Sensors live under <root>/lego-sensor/sensorN and motors under
// <root>/tacho-motor/motorN, where root is normally /sys/class. Every
// attribute is a small text file.
package ev3
