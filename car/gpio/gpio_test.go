package gpio

import (
	"sync"
	"testing"
	"time"

	"github.com/rr4c/gorr4c/car/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMockChip(t *testing.T) {
	chip := NewMockChip()

	Convey("claiming on a closed chip fails", t, func() {
		_, err := chip.Pin(4, "test")
		So(err, ShouldHaveSameTypeAs, errors.HardwareUnavailableError{})
	})

	if err := chip.Open(); err != nil {
		t.Fatal(err)
	}
	pin, err := chip.Pin(4, "fan")
	if err != nil {
		t.Fatal(err)
	}

	Convey("a claimed pin knows its number", t, func() {
		So(chip.IsOpen(), ShouldBeTrue)
		So(pin.Number(), ShouldEqual, 4)
	})

	Convey("claiming the same pin again conflicts", t, func() {
		_, err := chip.Pin(4, "led_r")
		So(err, ShouldHaveSameTypeAs, errors.PinConflictError{})

		conflict := err.(errors.PinConflictError)
		So(conflict.Pin, ShouldEqual, 4)
		So(conflict.Roles[0], ShouldEqual, "fan")
		So(conflict.Roles[1], ShouldEqual, "led_r")
	})

	Convey("writes are recorded in order", t, func() {
		chip.ResetWrites()
		pin.Write(High)
		pin.Write(Low)
		pin.Write(High)

		So(chip.Writes(), ShouldResemble, []PinWrite{
			{4, High},
			{4, Low},
			{4, High},
		})
		So(chip.LevelOf(4), ShouldEqual, High)
	})

	Convey("configuration is visible", t, func() {
		pin.Configure(InputPullUp)
		So(chip.ModeOf(4), ShouldEqual, InputPullUp)
	})

	Convey("pwm state is tracked", t, func() {
		pin.SetPWM(20*time.Millisecond, 1500*time.Microsecond)

		state := chip.PWMOf(4)
		So(state.Active, ShouldBeTrue)
		So(state.Period, ShouldEqual, 20*time.Millisecond)
		So(state.Pulse, ShouldEqual, 1500*time.Microsecond)

		pin.StopPWM()
		So(chip.PWMOf(4).Active, ShouldBeFalse)
		So(chip.LevelOf(4), ShouldEqual, Low)
	})

	Convey("scripted reads take precedence", t, func() {
		pin, err := chip.Pin(17, "ir_left")
		So(err, ShouldBeNil)

		chip.SetReadFunc(17, func() Level { return High })
		So(pin.Read(), ShouldEqual, High)
	})

	Convey("the write hook sees every write", t, func() {
		pin, err := chip.Pin(22, "led_g")
		So(err, ShouldBeNil)

		var seen []Level
		chip.SetOnWrite(func(bcm uint8, level Level) {
			if bcm == 22 {
				seen = append(seen, level)
			}
		})
		pin.Write(High)
		pin.Write(Low)

		So(seen, ShouldResemble, []Level{High, Low})
	})
}

// countingWriter records level transitions for the soft PWM loop.
type countingWriter struct {
	lock   sync.Mutex
	levels []Level
}

func (w *countingWriter) Write(level Level) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.levels = append(w.levels, level)
}

func (w *countingWriter) snapshot() []Level {
	w.lock.Lock()
	defer w.lock.Unlock()
	return append([]Level(nil), w.levels...)
}

func TestSoftPWM(t *testing.T) {
	Convey("an unconfigured pwm idles low", t, func() {
		out := new(countingWriter)
		pwm := startSoftPWM(out)

		time.Sleep(5 * time.Millisecond)
		pwm.Stop()

		for _, level := range out.snapshot() {
			So(level, ShouldEqual, Low)
		}
	})

	Convey("a configured pwm toggles the pin", t, func() {
		out := new(countingWriter)
		pwm := startSoftPWM(out)

		pwm.Set(2*time.Millisecond, time.Millisecond)
		time.Sleep(10 * time.Millisecond)
		pwm.Stop()

		levels := out.snapshot()
		So(len(levels), ShouldBeGreaterThan, 2)

		var highs int
		for _, level := range levels {
			if level == High {
				highs++
			}
		}
		So(highs, ShouldBeGreaterThan, 0)

		Convey("and leaves it low after stop", func() {
			So(levels[len(levels)-1], ShouldEqual, Low)
		})
	})

	Convey("pulse is clamped to the period", t, func() {
		out := new(countingWriter)
		pwm := startSoftPWM(out)
		defer pwm.Stop()

		pwm.Set(time.Millisecond, 5*time.Millisecond)
		period, pulse := pwm.settings()

		So(period, ShouldEqual, time.Millisecond)
		So(pulse, ShouldEqual, time.Millisecond)
	})
}
