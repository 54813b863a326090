package hardware

import (
	"time"

	"github.com/rr4c/gorr4c/car/errors"
	"github.com/rr4c/gorr4c/car/gpio"
)

const (
	LED_FREQUENCY  = 300 // Hz
	LED_MAX_LEVEL  = 100 // percent
	ledPeriod      = time.Second / LED_FREQUENCY
	DEFAULT_BEEP   = 100 * time.Millisecond
	MAX_FAN_RUN    = 60 * time.Second
	keyDebounce    = 3 * time.Millisecond
	keySettleByte  = 0xFF
	whistleSilence = time.Millisecond
)

// HidPins is the pin assignment for the human interface devices.
type HidPins struct {
	BuzzKey uint8
	Fan     uint8
	LedR    uint8
	LedG    uint8
	LedB    uint8
}

// Hids drives the RGB LED, the fan and the shared buzzer/key pin. The board
// wires the buzzer and the push key to the same BCM pin: driven as an output
// it sounds the buzzer (active low), read as a pulled-up input it reports
// the key.
type Hids struct {
	buzzKey gpio.PinInterface
	fan     gpio.PinInterface
	ledR    gpio.PinInterface
	ledG    gpio.PinInterface
	ledB    gpio.PinInterface

	red, green, blue uint8
}

func NewHids(chip gpio.ChipInterface, pins HidPins) (h *Hids, err error) {
	h = new(Hids)

	if h.buzzKey, err = chip.Pin(pins.BuzzKey, "buzz_key"); err != nil {
		return nil, err
	}
	h.buzzKey.Configure(gpio.InputPullUp)

	if h.fan, err = chip.Pin(pins.Fan, "fan"); err != nil {
		return nil, err
	}
	h.fan.Configure(gpio.Output)
	h.fan.Write(gpio.High) // fan is active low

	leds := []struct {
		target *gpio.PinInterface
		bcm    uint8
		role   string
	}{
		{&h.ledR, pins.LedR, "led_r"},
		{&h.ledG, pins.LedG, "led_g"},
		{&h.ledB, pins.LedB, "led_b"},
	}
	for _, c := range leds {
		*c.target, err = chip.Pin(c.bcm, c.role)
		if err != nil {
			return nil, err
		}
		(*c.target).Configure(gpio.Output)
		(*c.target).Write(gpio.Low)
	}

	return h, nil
}

// Lights sets the brightness of the three LED channels in percent.
func (h *Hids) Lights(red, green, blue uint8) error {
	for _, c := range []struct {
		name  string
		value uint8
	}{{"red", red}, {"green", green}, {"blue", blue}} {
		if c.value > LED_MAX_LEVEL {
			return errors.OutOfRangeError{Param: c.name, Value: int(c.value), Min: 0, Max: LED_MAX_LEVEL}
		}
	}

	h.red, h.green, h.blue = red, green, blue
	h.ledR.SetPWM(ledPeriod, ledPeriod*time.Duration(red)/LED_MAX_LEVEL)
	h.ledG.SetPWM(ledPeriod, ledPeriod*time.Duration(green)/LED_MAX_LEVEL)
	h.ledB.SetPWM(ledPeriod, ledPeriod*time.Duration(blue)/LED_MAX_LEVEL)
	return nil
}

func (h *Hids) SetRed(brightness uint8) error {
	return h.Lights(brightness, h.green, h.blue)
}

func (h *Hids) SetGreen(brightness uint8) error {
	return h.Lights(h.red, brightness, h.blue)
}

func (h *Hids) SetBlue(brightness uint8) error {
	return h.Lights(h.red, h.green, brightness)
}

// SetColor selects one of the eight primary color mixes the vendor remote
// uses, index 0 (off) through 7 (white).
func (h *Hids) SetColor(index uint8) error {
	if index > 7 {
		return errors.OutOfRangeError{Param: "color index", Value: int(index), Min: 0, Max: 7}
	}

	var r, g, b uint8
	if index&0x1 != 0 {
		r = LED_MAX_LEVEL
	}
	if index&0x2 != 0 {
		g = LED_MAX_LEVEL
	}
	if index&0x4 != 0 {
		b = LED_MAX_LEVEL
	}
	return h.Lights(r, g, b)
}

// Whistle chirps the buzzer once.
func (h *Hids) Whistle() {
	h.Beep(DEFAULT_BEEP)
}

// Beep sounds the buzzer for the given duration, then returns the shared
// pin to its key input state.
func (h *Hids) Beep(d time.Duration) {
	h.buzzKey.Configure(gpio.Output)
	h.buzzKey.Write(gpio.Low)
	time.Sleep(d)
	h.buzzKey.Write(gpio.High)
	time.Sleep(whistleSilence)
	h.buzzKey.Configure(gpio.InputPullUp)
}

// KeyPress waits for a debounced press of the push key, up to timeout. The
// debouncer wants eight consistent samples in a row before it believes the
// contact.
func (h *Hids) KeyPress(timeout time.Duration) error {
	h.buzzKey.Configure(gpio.InputPullUp)

	deadline := time.Now().Add(timeout)
	history := uint8(0x55)

	for history != keySettleByte {
		if time.Now().After(deadline) {
			return errors.TimeoutError{Op: "key press", Bound: timeout}
		}

		if h.buzzKey.Read() == gpio.Low {
			history = history<<1 | 1
		} else {
			history = history << 1
		}
		time.Sleep(keyDebounce)
	}

	return nil
}

// Blow runs the fan for the given duration, capped at MAX_FAN_RUN.
func (h *Hids) Blow(d time.Duration) {
	if d < 0 {
		d = -d
	}
	if d > MAX_FAN_RUN {
		d = MAX_FAN_RUN
	}

	h.fan.Write(gpio.Low)
	time.Sleep(d)
	h.fan.Write(gpio.High)
	time.Sleep(100 * time.Millisecond)
}

// ToggleFan flips the fan state.
func (h *Hids) ToggleFan() {
	if h.fan.Read() == gpio.Low {
		h.fan.Write(gpio.High)
	} else {
		h.fan.Write(gpio.Low)
	}
}

// SafeState darkens the LED, stops the fan and releases the buzzer pin.
func (h *Hids) SafeState() error {
	h.red, h.green, h.blue = 0, 0, 0
	h.ledR.StopPWM()
	h.ledG.StopPWM()
	h.ledB.StopPWM()
	h.fan.Write(gpio.High)
	h.buzzKey.Configure(gpio.InputPullUp)
	return nil
}
