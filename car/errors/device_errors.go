package errors

import (
	"fmt"
	"time"
)

// InvalidParameterError is returned when a caller supplies a value outside
// the supported enumeration. It is raised before any pin is touched.
type InvalidParameterError struct {
	Op    string
	Param string
	Value interface{}
}

func (err InvalidParameterError) Error() string {
	return fmt.Sprintf("%s: invalid %s %v", err.Op, err.Param, err.Value)
}

// OutOfRangeError is returned when a numeric parameter lies outside its
// permitted range. It is raised before any pin is touched.
type OutOfRangeError struct {
	Param    string
	Value    int
	Min, Max int
}

func (err OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %d outside range [%d, %d]", err.Param, err.Value, err.Min, err.Max)
}

// TimeoutError is returned when a bounded hardware wait expires.
type TimeoutError struct {
	Op    string
	Bound time.Duration
}

func (err TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", err.Op, err.Bound)
}

// HardwareUnavailableError is returned when the GPIO capability could not be
// acquired, or when an operation is attempted after shutdown.
type HardwareUnavailableError struct {
	Cause error
}

func (err HardwareUnavailableError) Error() string {
	if err.Cause == nil {
		return "gpio unavailable"
	}
	return fmt.Sprintf("gpio unavailable: %v", err.Cause)
}

func (err HardwareUnavailableError) Unwrap() error {
	return err.Cause
}

// PinConflictError is returned when two device roles are assigned the same
// physical pin.
type PinConflictError struct {
	Pin   uint8
	Roles [2]string
}

func (err PinConflictError) Error() string {
	return fmt.Sprintf("pin %d assigned to both %s and %s", err.Pin, err.Roles[0], err.Roles[1])
}

// BadCommandError is returned for a command frame with invalid framing or a
// value that fails to parse.
type BadCommandError struct {
	Frame string
}

func (err BadCommandError) Error() string {
	return fmt.Sprintf("bad command frame %q", err.Frame)
}

// UnknownCommandError is returned for a well-framed command that names no
// known operation.
type UnknownCommandError struct {
	Command string
}

func (err UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", err.Command)
}

// UnsupportedModeError is returned when a mode switch selects an autonomous
// mode this library does not implement.
type UnsupportedModeError struct {
	Mode string
}

func (err UnsupportedModeError) Error() string {
	return fmt.Sprintf("mode %s is not supported", err.Mode)
}
