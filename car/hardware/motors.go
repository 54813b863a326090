// Package hardware contains the device handles for the actuators and sensors
// on the 4WD chassis. Each handle exclusively owns the pins it claims at
// construction and can always be driven to its inert state with SafeState.
package hardware

import (
	"time"

	"github.com/rr4c/gorr4c/car/errors"
	"github.com/rr4c/gorr4c/car/gpio"
)

const (
	// MOTOR_FREQUENCY is the PWM frequency the TB6612 style driver is fed
	// with, per the vendor reference code.
	MOTOR_FREQUENCY = 3000 // Hz
	MOTOR_MIN_SPEED = -100
	MOTOR_MAX_SPEED = 100

	motorPeriod = time.Second / MOTOR_FREQUENCY
)

// MotorPins is the pin assignment for the two motor channels. Channel A is
// the left side of the chassis, channel B the right.
type MotorPins struct {
	AIn1, AIn2, APwm uint8
	BIn1, BIn2, BPwm uint8
}

type MotorsInterface interface {
	Movement(left, right int8) error
	Brake() error
	Speeds() (left, right int8)
	Enable(on bool)
	SafeState() error
}

// Motors drives both motor channels of the chassis. Speeds are percentages
// in [-100, 100]; sign selects direction.
type Motors struct {
	aIn1, aIn2, aPwm gpio.PinInterface
	bIn1, bIn2, bPwm gpio.PinInterface

	enabled     bool
	left, right int8
}

func NewMotors(chip gpio.ChipInterface, pins MotorPins) (m *Motors, err error) {
	m = &Motors{enabled: true}

	claims := []struct {
		target *gpio.PinInterface
		bcm    uint8
		role   string
	}{
		{&m.aIn1, pins.AIn1, "motor_a_in1"},
		{&m.aIn2, pins.AIn2, "motor_a_in2"},
		{&m.aPwm, pins.APwm, "motor_a_pwm"},
		{&m.bIn1, pins.BIn1, "motor_b_in1"},
		{&m.bIn2, pins.BIn2, "motor_b_in2"},
		{&m.bPwm, pins.BPwm, "motor_b_pwm"},
	}

	for _, c := range claims {
		*c.target, err = chip.Pin(c.bcm, c.role)
		if err != nil {
			return nil, err
		}
		(*c.target).Configure(gpio.Output)
		(*c.target).Write(gpio.Low)
	}

	return m, nil
}

// Movement sets the speed of both channels. Direction pins are settled
// before any duty is applied, and the opposing IN pin of a channel is always
// dropped before its counterpart is raised, so the driver never sees both
// inputs of one channel energized.
func (m *Motors) Movement(left, right int8) (err error) {
	if left < MOTOR_MIN_SPEED || left > MOTOR_MAX_SPEED {
		return errors.OutOfRangeError{Param: "left speed", Value: int(left), Min: MOTOR_MIN_SPEED, Max: MOTOR_MAX_SPEED}
	}
	if right < MOTOR_MIN_SPEED || right > MOTOR_MAX_SPEED {
		return errors.OutOfRangeError{Param: "right speed", Value: int(right), Min: MOTOR_MIN_SPEED, Max: MOTOR_MAX_SPEED}
	}

	m.left, m.right = left, right

	m.setDirection(m.aIn1, m.aIn2, left)
	m.setDirection(m.bIn1, m.bIn2, right)

	m.aPwm.SetPWM(motorPeriod, m.duty(left))
	m.bPwm.SetPWM(motorPeriod, m.duty(right))

	return nil
}

// Brake performs an all-stop. It is idempotent and never fails.
func (m *Motors) Brake() error {
	m.left, m.right = 0, 0

	m.aIn1.Write(gpio.Low)
	m.aIn2.Write(gpio.Low)
	m.bIn1.Write(gpio.Low)
	m.bIn2.Write(gpio.Low)

	m.aPwm.StopPWM()
	m.bPwm.StopPWM()

	return nil
}

// Speeds reports the last commanded speeds.
func (m *Motors) Speeds() (left, right int8) {
	return m.left, m.right
}

// Enable gates the PWM outputs. Disabling keeps the channels inert until
// re-enabled; direction state is preserved.
func (m *Motors) Enable(on bool) {
	m.enabled = on
	if !on {
		m.aPwm.StopPWM()
		m.bPwm.StopPWM()
		return
	}
	m.aPwm.SetPWM(motorPeriod, m.duty(m.left))
	m.bPwm.SetPWM(motorPeriod, m.duty(m.right))
}

func (m *Motors) SafeState() error {
	return m.Brake()
}

func (m *Motors) setDirection(in1, in2 gpio.PinInterface, speed int8) {
	switch {
	case speed > 0:
		in2.Write(gpio.Low)
		in1.Write(gpio.High)
	case speed < 0:
		in1.Write(gpio.Low)
		in2.Write(gpio.High)
	default:
		in1.Write(gpio.Low)
		in2.Write(gpio.Low)
	}
}

func (m *Motors) duty(speed int8) time.Duration {
	if !m.enabled {
		return 0
	}
	if speed < 0 {
		speed = -speed
	}
	return motorPeriod * time.Duration(speed) / 100
}
