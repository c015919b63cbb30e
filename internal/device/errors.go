package device

import "errors"

var (
	// ErrDuplicateDevice is returned when creating a device whose ID is
	// already registered. Duplicate IDs corrupt the fleet and are treated
	// as fatal by the caller.
	ErrDuplicateDevice = errors.New("duplicate device id")

	// ErrDeviceNotFound is returned when a lookup or inbound event names
	// an ID the registry does not hold.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrPropertyNotFound is returned when reading a property the device
	// does not expose.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrInvalidDefinition is returned when a device definition fails
	// validation (empty ID, malformed reliability curve).
	ErrInvalidDefinition = errors.New("invalid device definition")
)
