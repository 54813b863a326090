package car

import (
	"testing"

	"github.com/rr4c/gorr4c/car/hardware"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSimulatedCar(t *testing.T) {
	car, chip, err := NewSimulatedCar(DefaultConfig())

	Convey("the simulated car constructs cleanly", t, func() {
		So(err, ShouldBeNil)
		So(car, ShouldNotBeNil)
		So(chip.IsOpen(), ShouldBeTrue)
	})

	Convey("the synthetic target answers pings", t, func() {
		r, err := car.ReadDistance()
		So(err, ShouldBeNil)
		So(r.Valid, ShouldBeTrue)
		So(r.CM, ShouldBeBetween, float32(hardware.MIN_RANGE_CM), float32(hardware.MAX_RANGE_CM))

		Convey("and repeated reads keep answering", func() {
			for i := 0; i < 3; i++ {
				r, err := car.ReadDistance()
				So(err, ShouldBeNil)
				So(r.Valid, ShouldBeTrue)
			}
		})
	})

	Convey("the whole decoder stack runs against the simulation", t, func() {
		dec := NewDecoder(car)

		So(dec.Decode("$RR4W,MTR:35:35,LED:0:50:0#"), ShouldBeNil)

		left, right := car.Motors.Speeds()
		So(left, ShouldEqual, 35)
		So(right, ShouldEqual, 35)
	})

	Convey("shutdown tears the simulation down", t, func() {
		So(car.Shutdown(), ShouldBeNil)
		So(chip.IsOpen(), ShouldBeFalse)
	})
}

func TestSimulatedTarget(t *testing.T) {
	Convey("the target wanders within its bounds", t, func() {
		target := newSimulatedTarget()

		for i := 0; i < 50; i++ {
			target.ping()
			So(target.Distance(), ShouldBeBetween, simMinDistance-0.001, simMaxDistance+0.001)
		}
	})

	Convey("a pinned target stays put until the next ping", t, func() {
		target := newSimulatedTarget()
		target.SetDistance(123)
		So(target.Distance(), ShouldEqual, 123)
	})
}
