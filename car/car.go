// Package car is the hardware control facade for the 4WD Raspberry Pi
// chassis. It translates logical commands into ordered pin operations
// against a gpio.ChipInterface and guarantees the hardware is never left in
// an unsafe state.
package car

import (
	"sync"
	"time"

	"github.com/rr4c/gorr4c/car/errors"
	"github.com/rr4c/gorr4c/car/gpio"
	"github.com/rr4c/gorr4c/car/hardware"
)

type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
	Left     Direction = "left"
	Right    Direction = "right"
	Halt     Direction = "stop"
)

type ServoChannel string

const (
	ServoFront ServoChannel = "front"
	ServoPan   ServoChannel = "pan"
	ServoTilt  ServoChannel = "tilt"
)

const (
	MIN_SPEED = 0
	MAX_SPEED = 100
)

type CarInterface interface {
	Drive(direction Direction, speed uint8) error
	Stop() error
	SetServoAngle(channel ServoChannel, angle uint8) error
	ReadDistance() (hardware.Reading, error)
	Shutdown() error
}

// Car owns every device handle on the chassis. All handles are created once
// at construction and live until Shutdown drives them to their inert state.
type Car struct {
	Motors  *hardware.Motors
	Servos  *hardware.Servos
	Sensors *hardware.Sensors
	Hids    *hardware.Hids

	chip     gpio.ChipInterface
	config   CarConfig
	lock     *sync.Mutex
	shutdown sync.Once
	down     bool
	downErr  error
}

// NewCar validates the config, opens the chip and claims every pin. On any
// construction failure the handles built so far are driven to their inert
// state and the chip is closed; nothing is half-owned afterwards.
func NewCar(config CarConfig, chip gpio.ChipInterface) (c *Car, err error) {
	if err = config.Validate(); err != nil {
		return nil, err
	}

	if err = chip.Open(); err != nil {
		return nil, err
	}

	c = &Car{
		chip:   chip,
		config: config,
		lock:   new(sync.Mutex),
	}

	defer func() {
		if err != nil {
			c.safeState()
			chip.Close()
		}
	}()

	if c.Motors, err = hardware.NewMotors(chip, config.motorPins()); err != nil {
		return nil, err
	}
	if c.Servos, err = hardware.NewServos(chip, config.servoPins()); err != nil {
		return nil, err
	}
	if c.Sensors, err = hardware.NewSensors(chip, config.sensorPins(), config.Temperature); err != nil {
		return nil, err
	}
	if c.Hids, err = hardware.NewHids(chip, config.hidPins()); err != nil {
		return nil, err
	}

	if err = c.Servos.Init(); err != nil {
		return nil, err
	}

	return c, nil
}

// Drive moves the chassis in the given direction at a speed percentage.
// Parameters are rejected before any pin is written.
func (c *Car) Drive(direction Direction, speed uint8) error {
	if err := c.operational(); err != nil {
		return err
	}
	if speed > MAX_SPEED {
		return errors.OutOfRangeError{Param: "speed", Value: int(speed), Min: MIN_SPEED, Max: MAX_SPEED}
	}

	s := int8(speed)
	switch direction {
	case Forward:
		return c.Motors.Movement(s, s)
	case Backward:
		return c.Motors.Movement(-s, -s)
	case Left:
		return c.Motors.Movement(0, s)
	case Right:
		return c.Motors.Movement(s, 0)
	case Halt:
		return c.Motors.Brake()
	default:
		return errors.InvalidParameterError{Op: "drive", Param: "direction", Value: direction}
	}
}

// Spin rotates the chassis in place, the two sides counter-running.
func (c *Car) Spin(direction Direction, speed uint8) error {
	if err := c.operational(); err != nil {
		return err
	}
	if speed > MAX_SPEED {
		return errors.OutOfRangeError{Param: "speed", Value: int(speed), Min: MIN_SPEED, Max: MAX_SPEED}
	}

	s := int8(speed)
	switch direction {
	case Left:
		return c.Motors.Movement(-s, s)
	case Right:
		return c.Motors.Movement(s, -s)
	default:
		return errors.InvalidParameterError{Op: "spin", Param: "direction", Value: direction}
	}
}

// Stop performs an all-stop of both motor channels. It is idempotent and
// always succeeds while the car is operational.
func (c *Car) Stop() error {
	if err := c.operational(); err != nil {
		return err
	}
	return c.Motors.Brake()
}

// SetServoAngle positions one of the three servos.
func (c *Car) SetServoAngle(channel ServoChannel, angle uint8) error {
	if err := c.operational(); err != nil {
		return err
	}

	switch channel {
	case ServoFront:
		return c.Servos.Front.SetPosition(angle)
	case ServoPan:
		return c.Servos.Pan.SetPosition(angle)
	case ServoTilt:
		return c.Servos.Tilt.SetPosition(angle)
	default:
		return errors.InvalidParameterError{Op: "set servo angle", Param: "channel", Value: channel}
	}
}

// ReadDistance polls the ultrasonic ranger once, within its bounded wait.
func (c *Car) ReadDistance() (hardware.Reading, error) {
	if err := c.operational(); err != nil {
		return hardware.Reading{}, err
	}
	return c.Sensors.ReadDistance()
}

// Lights sets the RGB LED brightness in percent per channel.
func (c *Car) Lights(red, green, blue uint8) error {
	if err := c.operational(); err != nil {
		return err
	}
	return c.Hids.Lights(red, green, blue)
}

// Whistle chirps the buzzer.
func (c *Car) Whistle() error {
	if err := c.operational(); err != nil {
		return err
	}
	c.Hids.Whistle()
	return nil
}

// Beep sounds the buzzer for the given duration.
func (c *Car) Beep(d time.Duration) error {
	if err := c.operational(); err != nil {
		return err
	}
	c.Hids.Beep(d)
	return nil
}

// Blow runs the fan for the given duration.
func (c *Car) Blow(d time.Duration) error {
	if err := c.operational(); err != nil {
		return err
	}
	c.Hids.Blow(d)
	return nil
}

// Shutdown drives every device handle to its inert state exactly once and
// releases the chip. Subsequent operations report the hardware as
// unavailable; calling Shutdown again has no further effect.
func (c *Car) Shutdown() error {
	c.shutdown.Do(func() {
		c.lock.Lock()
		c.down = true
		c.lock.Unlock()

		c.downErr = c.safeState()
		if err := c.chip.Close(); err != nil && c.downErr == nil {
			c.downErr = err
		}
	})
	return c.downErr
}

// Config returns a copy of the active configuration.
func (c *Car) Config() CarConfig {
	return c.config
}

func (c *Car) operational() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.down {
		return errors.HardwareUnavailableError{}
	}
	return nil
}

// safeState walks every constructed handle. It keeps going on error so a
// failing handle never leaves a later one energized, and reports the first
// failure.
func (c *Car) safeState() (err error) {
	handles := []interface{ SafeState() error }{}
	if c.Motors != nil {
		handles = append(handles, c.Motors)
	}
	if c.Servos != nil {
		handles = append(handles, c.Servos)
	}
	if c.Hids != nil {
		handles = append(handles, c.Hids)
	}
	if c.Sensors != nil {
		handles = append(handles, c.Sensors)
	}

	for _, h := range handles {
		if herr := h.SafeState(); herr != nil && err == nil {
			err = herr
		}
	}
	return err
}
