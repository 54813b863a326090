package hardware

import (
	"testing"
	"time"

	"github.com/rr4c/gorr4c/car/errors"
	"github.com/rr4c/gorr4c/car/gpio"
	. "github.com/smartystreets/goconvey/convey"
)

var testHidPins = HidPins{BuzzKey: 8, Fan: 2, LedR: 22, LedG: 27, LedB: 24}

func createTestHids() (chip *gpio.MockChip, hids *Hids) {
	chip = gpio.NewMockChip()
	if err := chip.Open(); err != nil {
		panic(err)
	}

	hids, err := NewHids(chip, testHidPins)
	if err != nil {
		panic(err)
	}
	return
}

func TestLights(t *testing.T) {
	chip, hids := createTestHids()

	Convey("construction parks the fan off and the key readable", t, func() {
		So(chip.LevelOf(testHidPins.Fan), ShouldEqual, gpio.High)
		So(chip.ModeOf(testHidPins.BuzzKey), ShouldEqual, gpio.InputPullUp)
	})

	Convey("brightness above 100 is rejected", t, func() {
		So(hids.Lights(101, 0, 0), ShouldHaveSameTypeAs, errors.OutOfRangeError{})
		So(hids.Lights(0, 0, 200), ShouldHaveSameTypeAs, errors.OutOfRangeError{})
	})

	Convey("each channel gets its share of the period", t, func() {
		So(hids.Lights(100, 50, 0), ShouldBeNil)

		So(chip.PWMOf(testHidPins.LedR).Pulse, ShouldEqual, ledPeriod)
		So(chip.PWMOf(testHidPins.LedG).Pulse, ShouldEqual, ledPeriod/2)
		So(chip.PWMOf(testHidPins.LedB).Pulse, ShouldEqual, time.Duration(0))
	})

	Convey("single channel setters preserve the others", t, func() {
		So(hids.Lights(10, 20, 30), ShouldBeNil)
		So(hids.SetGreen(90), ShouldBeNil)

		So(hids.red, ShouldEqual, 10)
		So(hids.green, ShouldEqual, 90)
		So(hids.blue, ShouldEqual, 30)
	})

	Convey("color indices follow the rgb bitmask", t, func() {
		cases := []struct {
			index   uint8
			r, g, b uint8
		}{
			{0, 0, 0, 0},
			{1, 100, 0, 0},
			{2, 0, 100, 0},
			{3, 100, 100, 0},
			{4, 0, 0, 100},
			{7, 100, 100, 100},
		}
		for _, c := range cases {
			So(hids.SetColor(c.index), ShouldBeNil)
			So(hids.red, ShouldEqual, c.r)
			So(hids.green, ShouldEqual, c.g)
			So(hids.blue, ShouldEqual, c.b)
		}

		So(hids.SetColor(8), ShouldHaveSameTypeAs, errors.OutOfRangeError{})
	})
}

func TestBuzzerAndKey(t *testing.T) {
	chip, hids := createTestHids()

	Convey("a beep pulls the shared pin low then releases it", t, func() {
		chip.ResetWrites()
		hids.Beep(time.Millisecond)

		var levels []gpio.Level
		for _, w := range chip.Writes() {
			if w.Pin == testHidPins.BuzzKey {
				levels = append(levels, w.Level)
			}
		}
		So(levels, ShouldResemble, []gpio.Level{gpio.Low, gpio.High})
		So(chip.ModeOf(testHidPins.BuzzKey), ShouldEqual, gpio.InputPullUp)
	})

	Convey("a held key is reported", t, func() {
		chip.SetReadFunc(testHidPins.BuzzKey, func() gpio.Level { return gpio.Low })
		So(hids.KeyPress(time.Second), ShouldBeNil)
	})

	Convey("an idle key times out", t, func() {
		chip.SetReadFunc(testHidPins.BuzzKey, func() gpio.Level { return gpio.High })
		err := hids.KeyPress(50 * time.Millisecond)
		So(err, ShouldHaveSameTypeAs, errors.TimeoutError{})
	})
}

func TestFan(t *testing.T) {
	chip, hids := createTestHids()

	Convey("toggle flips the active low fan pin", t, func() {
		hids.ToggleFan()
		So(chip.LevelOf(testHidPins.Fan), ShouldEqual, gpio.Low)

		hids.ToggleFan()
		So(chip.LevelOf(testHidPins.Fan), ShouldEqual, gpio.High)
	})

	Convey("blow runs the fan then stops it", t, func() {
		chip.ResetWrites()
		hids.Blow(time.Millisecond)

		var levels []gpio.Level
		for _, w := range chip.Writes() {
			if w.Pin == testHidPins.Fan {
				levels = append(levels, w.Level)
			}
		}
		So(levels, ShouldResemble, []gpio.Level{gpio.Low, gpio.High})
	})

	Convey("safe state darkens and stops everything", t, func() {
		So(hids.Lights(50, 50, 50), ShouldBeNil)
		hids.ToggleFan()

		So(hids.SafeState(), ShouldBeNil)

		So(hids.red, ShouldEqual, 0)
		So(chip.PWMOf(testHidPins.LedR).Active, ShouldBeFalse)
		So(chip.LevelOf(testHidPins.Fan), ShouldEqual, gpio.High)
		So(chip.ModeOf(testHidPins.BuzzKey), ShouldEqual, gpio.InputPullUp)
	})
}
