// Package feeder is the scheduling and actuation core of the device.
//
// It owns the single weekly trigger, the bounded feed history, the
// dispense adapter, and the matcher/debounce state machine. Transports,
// persistence, the clock, and the servo hardware are collaborators passed
// in at construction.
package feeder
