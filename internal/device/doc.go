// Package device implements the simulated fleet: device state, property
// propagation, battery and communication behaviour, and inbound event
// handling.
//
// Devices live in a Registry and are driven entirely by engine callbacks,
// so all device state is mutated from the single dispatch goroutine.
// Property snapshots may be read concurrently (API handlers, WebSocket
// broadcasts); a per-device lock guards those reads.
package device
