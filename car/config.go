package car

import (
	"fmt"

	"github.com/Masterminds/semver"
	"github.com/rr4c/gorr4c/car/errors"
	"github.com/rr4c/gorr4c/car/hardware"
)

// CONFIG_REVISION is the range of board revisions this library knows how to
// drive. A config written for a different board generation is rejected
// before any pin is claimed.
const CONFIG_REVISION = "~1.0"

// maximum usable BCM number on the 40 pin header
const maxBCM = 27

// PinConfig maps every logical device role to a BCM pin number. The zero
// values are not usable defaults; start from DefaultConfig and override.
type PinConfig struct {
	MotorAIn1 uint8 `yaml:"motor_a_in1"`
	MotorAIn2 uint8 `yaml:"motor_a_in2"`
	MotorAPwm uint8 `yaml:"motor_a_pwm"`
	MotorBIn1 uint8 `yaml:"motor_b_in1"`
	MotorBIn2 uint8 `yaml:"motor_b_in2"`
	MotorBPwm uint8 `yaml:"motor_b_pwm"`

	ServoFront uint8 `yaml:"servo_front"`
	ServoPan   uint8 `yaml:"servo_pan"`
	ServoTilt  uint8 `yaml:"servo_tilt"`

	UltrasonicTrigger uint8 `yaml:"ultrasonic_trigger"`
	UltrasonicEcho    uint8 `yaml:"ultrasonic_echo"`
	IRLeft            uint8 `yaml:"ir_left"`
	IRRight           uint8 `yaml:"ir_right"`
	TrackLeft1        uint8 `yaml:"track_left_1"`
	TrackLeft2        uint8 `yaml:"track_left_2"`
	TrackRight1       uint8 `yaml:"track_right_1"`
	TrackRight2       uint8 `yaml:"track_right_2"`
	LDRLeft           uint8 `yaml:"ldr_left"`
	LDRRight          uint8 `yaml:"ldr_right"`

	BuzzKey uint8 `yaml:"buzz_key"`
	Fan     uint8 `yaml:"fan"`
	LedR    uint8 `yaml:"led_r"`
	LedG    uint8 `yaml:"led_g"`
	LedB    uint8 `yaml:"led_b"`
}

// CarConfig is the top level configuration, normally loaded from YAML over
// the defaults.
type CarConfig struct {
	Revision    string    `yaml:"revision"`
	Temperature float32   `yaml:"temperature"`
	Pins        PinConfig `yaml:"pins"`
}

// DefaultConfig returns the pin assignment of the stock vendor chassis.
func DefaultConfig() CarConfig {
	return CarConfig{
		Revision:    "1.0.0",
		Temperature: hardware.DEFAULT_TEMPERATURE,
		Pins: PinConfig{
			MotorAIn1: 20,
			MotorAIn2: 21,
			MotorAPwm: 16,
			MotorBIn1: 19,
			MotorBIn2: 26,
			MotorBPwm: 13,

			ServoFront: 23,
			ServoPan:   11,
			ServoTilt:  9,

			UltrasonicTrigger: 1,
			UltrasonicEcho:    0,
			IRLeft:            12,
			IRRight:           17,
			TrackLeft1:        3,
			TrackLeft2:        5,
			TrackRight1:       4,
			TrackRight2:       18,
			LDRLeft:           7,
			LDRRight:          6,

			BuzzKey: 8,
			Fan:     2,
			LedR:    22,
			LedG:    27,
			LedB:    24,
		},
	}
}

type pinRole struct {
	role string
	bcm  uint8
}

func (p *PinConfig) roles() []pinRole {
	return []pinRole{
		{"motor_a_in1", p.MotorAIn1},
		{"motor_a_in2", p.MotorAIn2},
		{"motor_a_pwm", p.MotorAPwm},
		{"motor_b_in1", p.MotorBIn1},
		{"motor_b_in2", p.MotorBIn2},
		{"motor_b_pwm", p.MotorBPwm},
		{"servo_front", p.ServoFront},
		{"servo_pan", p.ServoPan},
		{"servo_tilt", p.ServoTilt},
		{"ultrasonic_trigger", p.UltrasonicTrigger},
		{"ultrasonic_echo", p.UltrasonicEcho},
		{"ir_left", p.IRLeft},
		{"ir_right", p.IRRight},
		{"track_left_1", p.TrackLeft1},
		{"track_left_2", p.TrackLeft2},
		{"track_right_1", p.TrackRight1},
		{"track_right_2", p.TrackRight2},
		{"ldr_left", p.LDRLeft},
		{"ldr_right", p.LDRRight},
		{"buzz_key", p.BuzzKey},
		{"fan", p.Fan},
		{"led_r", p.LedR},
		{"led_g", p.LedG},
		{"led_b", p.LedB},
	}
}

// Validate checks the revision constraint and rejects assignments where two
// roles share a pin or a pin falls off the header. It runs before any
// hardware is touched.
func (c *CarConfig) Validate() error {
	rev, err := semver.NewVersion(c.Revision)
	if err != nil {
		return fmt.Errorf("unable to parse board revision %q: %v", c.Revision, err)
	}

	constraint, err := semver.NewConstraint(CONFIG_REVISION)
	if err != nil {
		return err
	}
	if !constraint.Check(rev) {
		return fmt.Errorf("unsupported board revision %s - require %s", c.Revision, CONFIG_REVISION)
	}

	owners := make(map[uint8]string)
	for _, pr := range c.Pins.roles() {
		if pr.bcm > maxBCM {
			return errors.OutOfRangeError{Param: pr.role + " pin", Value: int(pr.bcm), Min: 0, Max: maxBCM}
		}
		if owner, taken := owners[pr.bcm]; taken {
			return errors.PinConflictError{Pin: pr.bcm, Roles: [2]string{owner, pr.role}}
		}
		owners[pr.bcm] = pr.role
	}

	return nil
}

func (c *CarConfig) motorPins() hardware.MotorPins {
	return hardware.MotorPins{
		AIn1: c.Pins.MotorAIn1,
		AIn2: c.Pins.MotorAIn2,
		APwm: c.Pins.MotorAPwm,
		BIn1: c.Pins.MotorBIn1,
		BIn2: c.Pins.MotorBIn2,
		BPwm: c.Pins.MotorBPwm,
	}
}

func (c *CarConfig) servoPins() hardware.ServoPins {
	return hardware.ServoPins{
		Front: c.Pins.ServoFront,
		Pan:   c.Pins.ServoPan,
		Tilt:  c.Pins.ServoTilt,
	}
}

func (c *CarConfig) sensorPins() hardware.SensorPins {
	return hardware.SensorPins{
		UltrasonicTrigger: c.Pins.UltrasonicTrigger,
		UltrasonicEcho:    c.Pins.UltrasonicEcho,
		IRLeft:            c.Pins.IRLeft,
		IRRight:           c.Pins.IRRight,
		TrackLeft1:        c.Pins.TrackLeft1,
		TrackLeft2:        c.Pins.TrackLeft2,
		TrackRight1:       c.Pins.TrackRight1,
		TrackRight2:       c.Pins.TrackRight2,
		LDRLeft:           c.Pins.LDRLeft,
		LDRRight:          c.Pins.LDRRight,
	}
}

func (c *CarConfig) hidPins() hardware.HidPins {
	return hardware.HidPins{
		BuzzKey: c.Pins.BuzzKey,
		Fan:     c.Pins.Fan,
		LedR:    c.Pins.LedR,
		LedG:    c.Pins.LedG,
		LedB:    c.Pins.LedB,
	}
}
