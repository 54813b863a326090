package car

import (
	"testing"

	"github.com/rr4c/gorr4c/car/errors"
	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v2"
)

const testYaml = `
revision: 1.0.2
temperature: 25.5
pins:
  motor_a_in1: 20
  motor_a_in2: 21
  motor_a_pwm: 16
  servo_front: 23
  ultrasonic_trigger: 1
  ultrasonic_echo: 0
`

func TestConfigParsing(t *testing.T) {
	Convey("yaml overrides land on top of the defaults", t, func() {
		config := DefaultConfig()
		err := yaml.Unmarshal([]byte(testYaml), &config)
		So(err, ShouldBeNil)

		So(config.Revision, ShouldEqual, "1.0.2")
		So(config.Temperature, ShouldEqual, 25.5)
		So(config.Pins.MotorAIn1, ShouldEqual, 20)

		Convey("untouched pins keep their defaults", func() {
			So(config.Pins.Fan, ShouldEqual, 2)
			So(config.Pins.LedB, ShouldEqual, 24)
		})

		Convey("and the merged config validates", func() {
			So(config.Validate(), ShouldBeNil)
		})
	})
}

func TestConfigValidation(t *testing.T) {
	Convey("the stock config is valid", t, func() {
		config := DefaultConfig()
		So(config.Validate(), ShouldBeNil)
	})

	Convey("a newer point revision is accepted", t, func() {
		config := DefaultConfig()
		config.Revision = "1.0.9"
		So(config.Validate(), ShouldBeNil)
	})

	Convey("a different board generation is rejected", t, func() {
		config := DefaultConfig()
		config.Revision = "2.0.0"
		So(config.Validate(), ShouldNotBeNil)
	})

	Convey("an unparsable revision is rejected", t, func() {
		config := DefaultConfig()
		config.Revision = "rev-a"
		So(config.Validate(), ShouldNotBeNil)
	})

	Convey("two roles on one pin are rejected", t, func() {
		config := DefaultConfig()
		config.Pins.LedR = config.Pins.Fan

		err := config.Validate()
		So(err, ShouldHaveSameTypeAs, errors.PinConflictError{})

		conflict := err.(errors.PinConflictError)
		So(conflict.Pin, ShouldEqual, config.Pins.Fan)
		So(conflict.Roles[0], ShouldEqual, "fan")
		So(conflict.Roles[1], ShouldEqual, "led_r")
	})

	Convey("a pin off the header is rejected", t, func() {
		config := DefaultConfig()
		config.Pins.LedG = 40

		So(config.Validate(), ShouldHaveSameTypeAs, errors.OutOfRangeError{})
	})
}
