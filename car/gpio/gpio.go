// Package gpio provides the pin-level capability consumed by the device
// handles in car/hardware. The real implementation maps onto go-rpio; the
// MockChip implementation allows running and testing without a Raspberry Pi.
package gpio

import "time"

type Level bool

const (
	Low  Level = false
	High Level = true
)

type Mode int

const (
	Input Mode = iota
	Output
	InputPullUp
)

// PinInterface is one claimed GPIO pin. A pin is exclusively owned by the
// device handle that claimed it; nothing enforces serialization beyond that
// ownership.
type PinInterface interface {
	Number() uint8
	Configure(mode Mode)
	Write(level Level)
	Read() Level

	// SetPWM drives the pin with a software PWM signal of the given period
	// and pulse width. A zero pulse keeps the pin low. Calling it again
	// adjusts the running signal.
	SetPWM(period, pulse time.Duration)
	// StopPWM halts any running PWM signal and leaves the pin low.
	StopPWM()
}

// ChipInterface is the GPIO controller. Pin claims a single BCM pin for the
// named role; claiming a pin twice fails so two device handles can never
// alias the same piece of hardware.
type ChipInterface interface {
	Open() error
	Close() error
	Pin(bcm uint8, role string) (PinInterface, error)
}
