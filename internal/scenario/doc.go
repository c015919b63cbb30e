// Package scenario loads fleet definitions from YAML. A scenario file
// describes the devices to simulate: their initial properties and
// optional battery, communication and usage models. Entries without an
// ID get a generated one, and an entry with a count expands into that
// many devices.
package scenario
