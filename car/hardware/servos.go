package hardware

import (
	"time"

	"github.com/rr4c/gorr4c/car/errors"
	"github.com/rr4c/gorr4c/car/gpio"
)

const (
	SERVO_FREQUENCY   = 50 // Hz
	SERVO_ANGLE_RANGE = 180
	SERVO_STEP        = 10 // degrees per nudge

	SERVO_MIN_PULSE = 500 * time.Microsecond
	SERVO_MAX_PULSE = 2500 * time.Microsecond

	// TILT_MAX_PULSE keeps the camera tilt servo off its mechanical end
	// stop; the mount fouls the chassis beyond this.
	TILT_MAX_PULSE = 2000 * time.Microsecond

	servoPeriod = time.Second / SERVO_FREQUENCY
)

// Servo positions one hobby servo over a reduced or full pulse range. The
// angle is an integer number of degrees; the cheap SG90s on this chassis do
// not resolve finer than that anyway.
type Servo struct {
	pin        gpio.PinInterface
	angleRange uint8
	limitMin   time.Duration
	limitMax   time.Duration
	position   uint8
}

func NewServo(chip gpio.ChipInterface, bcm uint8, role string) (*Servo, error) {
	return NewServoWithLimits(chip, bcm, role, SERVO_MIN_PULSE, SERVO_MAX_PULSE)
}

// NewServoWithLimits claims a servo whose usable pulse width is clamped to
// [limitMin, limitMax], restricting its mechanical travel.
func NewServoWithLimits(chip gpio.ChipInterface, bcm uint8, role string, limitMin, limitMax time.Duration) (s *Servo, err error) {
	s = &Servo{
		angleRange: SERVO_ANGLE_RANGE,
		limitMin:   limitMin,
		limitMax:   limitMax,
		position:   SERVO_ANGLE_RANGE / 2,
	}

	s.pin, err = chip.Pin(bcm, role)
	if err != nil {
		return nil, err
	}
	s.pin.Configure(gpio.Output)
	s.pin.Write(gpio.Low)

	return s, nil
}

// SetPosition moves the servo to the given angle in degrees.
func (s *Servo) SetPosition(angle uint8) error {
	if angle > s.angleRange {
		return errors.OutOfRangeError{Param: "angle", Value: int(angle), Min: 0, Max: int(s.angleRange)}
	}

	s.position = angle
	s.pin.SetPWM(servoPeriod, s.pulseFor(angle))
	return nil
}

// Center moves the servo to the middle of its angle range.
func (s *Servo) Center() error {
	return s.SetPosition(s.angleRange / 2)
}

// Position reports the last commanded angle in degrees.
func (s *Servo) Position() uint8 {
	return s.position
}

// Stop releases the PWM signal. Most hobby servos relax when the pulse train
// disappears, which is the inert state for this handle.
func (s *Servo) Stop() {
	s.pin.StopPWM()
}

func (s *Servo) pulseFor(angle uint8) time.Duration {
	pulse := SERVO_MIN_PULSE + (SERVO_MAX_PULSE-SERVO_MIN_PULSE)*time.Duration(angle)/time.Duration(s.angleRange)
	if pulse < s.limitMin {
		pulse = s.limitMin
	}
	if pulse > s.limitMax {
		pulse = s.limitMax
	}
	return pulse
}

// ServoPins is the pin assignment for the three chassis servos.
type ServoPins struct {
	Front, Pan, Tilt uint8
}

// Servos groups the front steering servo and the camera pan/tilt pair.
type Servos struct {
	Front *Servo
	Pan   *Servo
	Tilt  *Servo
}

func NewServos(chip gpio.ChipInterface, pins ServoPins) (s *Servos, err error) {
	s = new(Servos)

	if s.Front, err = NewServo(chip, pins.Front, "servo_front"); err != nil {
		return nil, err
	}
	if s.Pan, err = NewServo(chip, pins.Pan, "servo_pan"); err != nil {
		return nil, err
	}
	if s.Tilt, err = NewServoWithLimits(chip, pins.Tilt, "servo_tilt", SERVO_MIN_PULSE, TILT_MAX_PULSE); err != nil {
		return nil, err
	}

	return s, nil
}

// Init centers all three servos.
func (s *Servos) Init() error {
	if err := s.Front.Center(); err != nil {
		return err
	}
	if err := s.Pan.Center(); err != nil {
		return err
	}
	return s.Tilt.Center()
}

func (s *Servos) PanLeft() error {
	return s.Pan.SetPosition(stepUp(s.Pan.Position()))
}

func (s *Servos) PanRight() error {
	return s.Pan.SetPosition(stepDown(s.Pan.Position()))
}

func (s *Servos) TiltUp() error {
	return s.Tilt.SetPosition(stepUp(s.Tilt.Position()))
}

func (s *Servos) TiltDown() error {
	return s.Tilt.SetPosition(stepDown(s.Tilt.Position()))
}

func (s *Servos) FrontLeft() error {
	return s.Front.SetPosition(stepUp(s.Front.Position()))
}

func (s *Servos) FrontRight() error {
	return s.Front.SetPosition(stepDown(s.Front.Position()))
}

// Stop releases all three servos.
func (s *Servos) Stop() {
	s.Front.Stop()
	s.Pan.Stop()
	s.Tilt.Stop()
}

func (s *Servos) SafeState() error {
	s.Stop()
	return nil
}

func stepUp(position uint8) uint8 {
	if position > SERVO_ANGLE_RANGE-SERVO_STEP {
		return SERVO_ANGLE_RANGE
	}
	return position + SERVO_STEP
}

func stepDown(position uint8) uint8 {
	if position < SERVO_STEP {
		return 0
	}
	return position - SERVO_STEP
}
