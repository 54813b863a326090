package car

import (
	"testing"

	"github.com/rr4c/gorr4c/car/errors"
	"github.com/rr4c/gorr4c/car/gpio"
	. "github.com/smartystreets/goconvey/convey"
)

func createTestCar() (chip *gpio.MockChip, car *Car) {
	chip = gpio.NewMockChip()

	car, err := NewCar(DefaultConfig(), chip)
	if err != nil {
		panic(err)
	}
	chip.ResetWrites()
	return
}

func TestNewCar(t *testing.T) {
	Convey("an invalid config never touches the chip", t, func() {
		chip := gpio.NewMockChip()

		config := DefaultConfig()
		config.Pins.LedR = config.Pins.LedG

		_, err := NewCar(config, chip)
		So(err, ShouldHaveSameTypeAs, errors.PinConflictError{})
		So(chip.IsOpen(), ShouldBeFalse)
	})

	Convey("construction claims every configured pin", t, func() {
		chip, car := createTestCar()

		So(car.Motors, ShouldNotBeNil)
		So(car.Servos, ShouldNotBeNil)
		So(car.Sensors, ShouldNotBeNil)
		So(car.Hids, ShouldNotBeNil)

		Convey("and a second claim of any pin conflicts", func() {
			_, err := chip.Pin(DefaultConfig().Pins.Fan, "intruder")
			So(err, ShouldHaveSameTypeAs, errors.PinConflictError{})
		})

		Convey("and the servos start centered", func() {
			So(car.Servos.Front.Position(), ShouldEqual, 90)
			So(car.Servos.Pan.Position(), ShouldEqual, 90)
			So(car.Servos.Tilt.Position(), ShouldEqual, 90)
		})
	})
}

func TestDrive(t *testing.T) {
	chip, car := createTestCar()
	pins := car.Config().Pins

	Convey("forward drives both channels ahead", t, func() {
		So(car.Drive(Forward, 60), ShouldBeNil)

		left, right := car.Motors.Speeds()
		So(left, ShouldEqual, 60)
		So(right, ShouldEqual, 60)
		So(chip.LevelOf(pins.MotorAIn1), ShouldEqual, gpio.High)
		So(chip.LevelOf(pins.MotorBIn1), ShouldEqual, gpio.High)
	})

	Convey("backward reverses both channels", t, func() {
		So(car.Drive(Backward, 60), ShouldBeNil)

		left, right := car.Motors.Speeds()
		So(left, ShouldEqual, -60)
		So(right, ShouldEqual, -60)
	})

	Convey("turns halt the inner side", t, func() {
		So(car.Drive(Left, 40), ShouldBeNil)
		left, right := car.Motors.Speeds()
		So(left, ShouldEqual, 0)
		So(right, ShouldEqual, 40)

		So(car.Drive(Right, 40), ShouldBeNil)
		left, right = car.Motors.Speeds()
		So(left, ShouldEqual, 40)
		So(right, ShouldEqual, 0)
	})

	Convey("spin counter-runs the sides", t, func() {
		So(car.Spin(Left, 30), ShouldBeNil)
		left, right := car.Motors.Speeds()
		So(left, ShouldEqual, -30)
		So(right, ShouldEqual, 30)
	})

	Convey("an invalid speed is rejected before any pin is touched", t, func() {
		chip.ResetWrites()

		err := car.Drive(Forward, 101)
		So(err, ShouldHaveSameTypeAs, errors.OutOfRangeError{})
		So(chip.Writes(), ShouldBeEmpty)
	})

	Convey("an unknown direction is rejected before any pin is touched", t, func() {
		chip.ResetWrites()

		err := car.Drive("sideways", 10)
		So(err, ShouldHaveSameTypeAs, errors.InvalidParameterError{})
		So(chip.Writes(), ShouldBeEmpty)

		So(car.Spin(Forward, 10), ShouldHaveSameTypeAs, errors.InvalidParameterError{})
	})

	Convey("stop is idempotent", t, func() {
		So(car.Drive(Forward, 50), ShouldBeNil)

		So(car.Stop(), ShouldBeNil)
		So(car.Stop(), ShouldBeNil)

		left, right := car.Motors.Speeds()
		So(left, ShouldEqual, 0)
		So(right, ShouldEqual, 0)
	})
}

func TestServoFacade(t *testing.T) {
	_, car := createTestCar()

	Convey("each channel reaches its servo", t, func() {
		So(car.SetServoAngle(ServoFront, 45), ShouldBeNil)
		So(car.Servos.Front.Position(), ShouldEqual, 45)

		So(car.SetServoAngle(ServoPan, 120), ShouldBeNil)
		So(car.Servos.Pan.Position(), ShouldEqual, 120)

		So(car.SetServoAngle(ServoTilt, 60), ShouldBeNil)
		So(car.Servos.Tilt.Position(), ShouldEqual, 60)
	})

	Convey("an unknown channel is rejected", t, func() {
		err := car.SetServoAngle("rear", 90)
		So(err, ShouldHaveSameTypeAs, errors.InvalidParameterError{})
	})

	Convey("an out of range angle is rejected", t, func() {
		err := car.SetServoAngle(ServoPan, 200)
		So(err, ShouldHaveSameTypeAs, errors.OutOfRangeError{})
	})
}

func TestShutdown(t *testing.T) {
	chip, car := createTestCar()
	pins := car.Config().Pins

	Convey("shutdown leaves the chassis inert", t, func() {
		So(car.Drive(Forward, 80), ShouldBeNil)
		So(car.Lights(100, 100, 100), ShouldBeNil)

		So(car.Shutdown(), ShouldBeNil)

		So(chip.LevelOf(pins.MotorAIn1), ShouldEqual, gpio.Low)
		So(chip.LevelOf(pins.MotorBIn1), ShouldEqual, gpio.Low)
		So(chip.PWMOf(pins.MotorAPwm).Active, ShouldBeFalse)
		So(chip.PWMOf(pins.ServoPan).Active, ShouldBeFalse)
		So(chip.PWMOf(pins.LedR).Active, ShouldBeFalse)
		So(chip.LevelOf(pins.Fan), ShouldEqual, gpio.High)
		So(chip.IsOpen(), ShouldBeFalse)
	})

	Convey("a second shutdown has no further effect", t, func() {
		chip.ResetWrites()
		So(car.Shutdown(), ShouldBeNil)
		So(chip.Writes(), ShouldBeEmpty)
	})

	Convey("operations after shutdown report the hardware gone", t, func() {
		So(car.Drive(Forward, 10), ShouldHaveSameTypeAs, errors.HardwareUnavailableError{})
		So(car.Stop(), ShouldHaveSameTypeAs, errors.HardwareUnavailableError{})
		So(car.SetServoAngle(ServoPan, 90), ShouldHaveSameTypeAs, errors.HardwareUnavailableError{})

		_, err := car.ReadDistance()
		So(err, ShouldHaveSameTypeAs, errors.HardwareUnavailableError{})
	})
}
