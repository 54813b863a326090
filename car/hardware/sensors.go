package hardware

import (
	"time"

	"github.com/rr4c/gorr4c/car/errors"
	"github.com/rr4c/gorr4c/car/gpio"
)

const (
	// ULTRASONIC_TIMEOUT bounds the whole echo wait. The HC-SR04 answers
	// well inside this for anything in its rated range; the bound is what
	// keeps a wedged sensor from hanging the caller.
	ULTRASONIC_TIMEOUT = 33333 * time.Microsecond

	TRIGGER_PULSE   = 10 * time.Microsecond
	TRIGGER_SETTLE  = 2 * time.Microsecond
	ULTRASONIC_POLL = time.Microsecond

	// rated range of the HC-SR04 in centimeters
	MIN_RANGE_CM = 2
	MAX_RANGE_CM = 500

	DEFAULT_TEMPERATURE = 20.0 // °C
)

// Reading is one distance measurement. Valid is false when the echo fell
// outside the sensor's rated range.
type Reading struct {
	CM    float32
	Valid bool
}

// SensorPins is the pin assignment for the chassis sensors.
type SensorPins struct {
	UltrasonicTrigger uint8
	UltrasonicEcho    uint8
	IRLeft, IRRight   uint8
	TrackLeft1        uint8
	TrackLeft2        uint8
	TrackRight1       uint8
	TrackRight2       uint8
	LDRLeft, LDRRight uint8
}

type SensorsInterface interface {
	ReadDistance() (Reading, error)
	IRProximities() (left, right bool)
	Tracking() (left1, left2, right1, right2 bool)
	LDR() (left, right bool)
	SafeState() error
}

// Sensors owns the input side of the chassis: the ultrasonic ranger, the IR
// proximity pair, the four line-tracking photodiodes and the two LDRs.
type Sensors struct {
	trigger gpio.PinInterface
	echo    gpio.PinInterface

	irLeft, irRight   gpio.PinInterface
	trackL1, trackL2  gpio.PinInterface
	trackR1, trackR2  gpio.PinInterface
	ldrLeft, ldrRight gpio.PinInterface

	// halved speed of sound in cm/s, so a full out-and-back echo duration
	// multiplies straight into a one-way distance
	speedOfSound float32
}

// NewSensors claims all sensor pins. temperature is the ambient air
// temperature in °C used to compensate the speed of sound.
func NewSensors(chip gpio.ChipInterface, pins SensorPins, temperature float32) (s *Sensors, err error) {
	s = new(Sensors)

	// (331.3 m/s + 0.606 m/°C · T) · (100 cm/m ÷ 2 out-and-back)
	s.speedOfSound = (331.3 + 0.606*temperature) * 50.0

	if s.trigger, err = chip.Pin(pins.UltrasonicTrigger, "ultrasonic_trigger"); err != nil {
		return nil, err
	}
	s.trigger.Configure(gpio.Output)
	s.trigger.Write(gpio.Low)

	inputs := []struct {
		target *gpio.PinInterface
		bcm    uint8
		role   string
	}{
		{&s.echo, pins.UltrasonicEcho, "ultrasonic_echo"},
		{&s.irLeft, pins.IRLeft, "ir_left"},
		{&s.irRight, pins.IRRight, "ir_right"},
		{&s.trackL1, pins.TrackLeft1, "track_left_1"},
		{&s.trackL2, pins.TrackLeft2, "track_left_2"},
		{&s.trackR1, pins.TrackRight1, "track_right_1"},
		{&s.trackR2, pins.TrackRight2, "track_right_2"},
		{&s.ldrLeft, pins.LDRLeft, "ldr_left"},
		{&s.ldrRight, pins.LDRRight, "ldr_right"},
	}

	for _, c := range inputs {
		*c.target, err = chip.Pin(c.bcm, c.role)
		if err != nil {
			return nil, err
		}
		(*c.target).Configure(gpio.Input)
	}

	return s, nil
}

// ReadDistance fires the ultrasonic trigger and measures the echo pulse,
// returning the one-way distance in centimeters. The whole wait is bounded
// by ULTRASONIC_TIMEOUT; a sensor that never answers produces a Timeout
// error instead of a hang.
func (s *Sensors) ReadDistance() (r Reading, err error) {
	s.ping()

	deadline := time.Now().Add(ULTRASONIC_TIMEOUT)

	for s.echo.Read() == gpio.Low {
		if time.Now().After(deadline) {
			return r, errors.TimeoutError{Op: "read distance", Bound: ULTRASONIC_TIMEOUT}
		}
		time.Sleep(ULTRASONIC_POLL)
	}
	rise := time.Now()

	for s.echo.Read() == gpio.High {
		if time.Now().After(deadline) {
			return r, errors.TimeoutError{Op: "read distance", Bound: ULTRASONIC_TIMEOUT}
		}
		time.Sleep(ULTRASONIC_POLL)
	}
	fall := time.Now()

	r.CM = float32(fall.Sub(rise).Seconds()) * s.speedOfSound
	r.Valid = r.CM >= MIN_RANGE_CM && r.CM <= MAX_RANGE_CM

	return r, nil
}

// IRProximities reports the obstacle state of the two IR sensors. The
// modules pull their output low when an obstacle reflects.
func (s *Sensors) IRProximities() (left, right bool) {
	return s.irLeft.Read() == gpio.Low, s.irRight.Read() == gpio.Low
}

// Tracking reports the four line-tracking sensors, true meaning the sensor
// sees the (dark) line.
func (s *Sensors) Tracking() (left1, left2, right1, right2 bool) {
	return s.trackL1.Read() == gpio.Low,
		s.trackL2.Read() == gpio.Low,
		s.trackR1.Read() == gpio.Low,
		s.trackR2.Read() == gpio.Low
}

// LDR reports the two light-dependent resistors, true meaning bright.
func (s *Sensors) LDR() (left, right bool) {
	return s.ldrLeft.Read() == gpio.High, s.ldrRight.Read() == gpio.High
}

func (s *Sensors) SafeState() error {
	s.trigger.Write(gpio.Low)
	return nil
}

func (s *Sensors) ping() {
	s.trigger.Write(gpio.High)
	time.Sleep(TRIGGER_PULSE)
	s.trigger.Write(gpio.Low)
	time.Sleep(TRIGGER_SETTLE)
}
