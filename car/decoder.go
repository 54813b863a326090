package car

import (
	"strconv"
	"strings"
	"time"

	"github.com/rr4c/gorr4c/car/errors"
)

// CarMode tracks which control scheme the decoder is in. Only remote mode is
// driven by this library; the autonomous modes are selected by the vendor
// remote protocol but not implemented here.
type CarMode int

const (
	ModeRemote CarMode = iota
	ModeTracking
	ModeUltrasonicAvoid
	ModeLedColors
	ModeLightSeeking
	ModeInfraredFollow
)

func (m CarMode) String() string {
	switch m {
	case ModeRemote:
		return "remote"
	case ModeTracking:
		return "tracking"
	case ModeUltrasonicAvoid:
		return "ultrasonic_avoid"
	case ModeLedColors:
		return "led_colors"
	case ModeLightSeeking:
		return "light_seeking"
	case ModeInfraredFollow:
		return "infrared_follow"
	}
	return "unknown"
}

const (
	SPEED_INCREMENT = 10
	DEFAULT_SPEED   = 25

	alertBeep = 200 * time.Millisecond
)

// Decoder turns single command frames into facade calls. Frames start with
// '$' and end with '#'; both the native `$RR4W,...#` scheme and the vendor
// remote's `$4WD,...#` and fixed-width compound frames are understood. A
// decoder is expected to sit behind a CLI or file based scripting surface.
type Decoder struct {
	car      *Car
	mode     CarMode
	speed    int8
	ledColor uint8
}

func NewDecoder(car *Car) *Decoder {
	return &Decoder{
		car:   car,
		mode:  ModeRemote,
		speed: DEFAULT_SPEED,
	}
}

// Mode reports the currently selected control mode.
func (d *Decoder) Mode() CarMode {
	return d.mode
}

// Speed reports the current default motor speed.
func (d *Decoder) Speed() int8 {
	return d.speed
}

// Decode processes one command frame.
func (d *Decoder) Decode(line string) error {
	if inner, ok := stripFrame(line, "$RR4W,"); ok {
		return d.rrDecode(inner)
	}
	if inner, ok := stripFrame(line, "$4WD,"); ok {
		return d.ybDecode(inner)
	}
	if inner, ok := stripFrame(line, "$"); ok {
		return d.ybCompound(inner)
	}

	d.mode = ModeRemote
	return errors.BadCommandError{Frame: line}
}

func stripFrame(line, prefix string) (inner string, ok bool) {
	if !strings.HasPrefix(line, prefix) || !strings.HasSuffix(line, "#") {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(line, prefix), "#"), true
}

// rrDecode handles the native comma separated scheme: each piece is a three
// letter device selector (CAM, FAN, FRT, LED, MTR) followed by its
// arguments.
func (d *Decoder) rrDecode(line string) error {
	for _, piece := range strings.Split(line, ",") {
		if len(piece) < 3 {
			return errors.UnknownCommandError{Command: piece}
		}

		var err error
		switch piece[:3] {
		case "CAM":
			err = d.camDecode(piece)
		case "FAN":
			err = d.fanDecode(piece)
		case "FRT":
			err = d.frtDecode(piece)
		case "LED":
			err = d.ledDecode(piece)
		case "MTR":
			err = d.mtrDecode(piece)
		default:
			err = errors.UnknownCommandError{Command: piece[:3]}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) camDecode(piece string) error {
	rest := piece[3:]
	switch {
	case rest == "" || rest == "I":
		if err := d.car.Servos.Pan.Center(); err != nil {
			return err
		}
		return d.car.Servos.Tilt.Center()

	case rest == "P":
		return d.car.Servos.Pan.Center()
	case rest == "PL":
		return d.car.Servos.PanLeft()
	case rest == "PR":
		return d.car.Servos.PanRight()
	case strings.HasPrefix(rest, "P:"):
		angle, err := parseAngle(piece, rest[2:])
		if err != nil {
			return err
		}
		return d.car.Servos.Pan.SetPosition(angle)

	case rest == "T":
		return d.car.Servos.Tilt.Center()
	case rest == "TD":
		return d.car.Servos.TiltDown()
	case rest == "TU":
		return d.car.Servos.TiltUp()
	case strings.HasPrefix(rest, "T:"):
		angle, err := parseAngle(piece, rest[2:])
		if err != nil {
			return err
		}
		return d.car.Servos.Tilt.SetPosition(angle)

	case strings.HasPrefix(rest, ":"):
		// CAM:<pan>[:<tilt>]
		angles := strings.Split(rest[1:], ":")
		switch len(angles) {
		case 1:
			pan, err := parseAngle(piece, angles[0])
			if err != nil {
				return err
			}
			if err := d.car.Servos.Pan.SetPosition(pan); err != nil {
				return err
			}
			return d.car.Servos.Tilt.SetPosition(pan)
		case 2:
			pan, err := parseAngle(piece, angles[0])
			if err != nil {
				return err
			}
			tilt, err := parseAngle(piece, angles[1])
			if err != nil {
				return err
			}
			if err := d.car.Servos.Pan.SetPosition(pan); err != nil {
				return err
			}
			return d.car.Servos.Tilt.SetPosition(tilt)
		}
		return errors.BadCommandError{Frame: piece}
	}
	return errors.BadCommandError{Frame: piece}
}

func (d *Decoder) fanDecode(piece string) error {
	switch piece[3:] {
	case "T":
		d.car.Hids.ToggleFan()
		return nil
	case "0":
		d.car.Hids.Blow(10 * time.Millisecond)
		return nil
	case "1":
		d.car.Hids.Blow(10 * time.Second)
		return nil
	}
	return errors.BadCommandError{Frame: piece}
}

func (d *Decoder) frtDecode(piece string) error {
	rest := piece[3:]
	switch {
	case rest == "" || rest == "I":
		return d.car.Servos.Front.Center()
	case rest == "L":
		return d.car.Servos.FrontLeft()
	case rest == "R":
		return d.car.Servos.FrontRight()
	case strings.HasPrefix(rest, ":"):
		angle, err := parseAngle(piece, rest[1:])
		if err != nil {
			return err
		}
		return d.car.Servos.Front.SetPosition(angle)
	}
	return errors.BadCommandError{Frame: piece}
}

func (d *Decoder) ledDecode(piece string) error {
	rest := piece[3:]

	single := func(set func(uint8) error, arg string) error {
		if arg == "" {
			return set(50)
		}
		level, err := parseLevel(piece, strings.TrimPrefix(arg, ":"))
		if err != nil {
			return err
		}
		return set(level)
	}

	switch {
	case rest == "":
		return d.car.Hids.Lights(0, 0, 0)
	case strings.HasPrefix(rest, "R"):
		return single(d.car.Hids.SetRed, rest[1:])
	case strings.HasPrefix(rest, "G"):
		return single(d.car.Hids.SetGreen, rest[1:])
	case strings.HasPrefix(rest, "B"):
		return single(d.car.Hids.SetBlue, rest[1:])
	case strings.HasPrefix(rest, "C:"):
		index, err := strconv.ParseUint(rest[2:], 10, 8)
		if err != nil {
			return errors.BadCommandError{Frame: piece}
		}
		return d.car.Hids.SetColor(uint8(index))
	case strings.HasPrefix(rest, ":"):
		levels := strings.Split(rest[1:], ":")
		switch len(levels) {
		case 1:
			white, err := parseLevel(piece, levels[0])
			if err != nil {
				return err
			}
			return d.car.Hids.Lights(white, white, white)
		case 3:
			var rgb [3]uint8
			for i, l := range levels {
				level, err := parseLevel(piece, l)
				if err != nil {
					return err
				}
				rgb[i] = level
			}
			return d.car.Hids.Lights(rgb[0], rgb[1], rgb[2])
		}
		return errors.BadCommandError{Frame: piece}
	}
	return errors.BadCommandError{Frame: piece}
}

func (d *Decoder) mtrDecode(piece string) error {
	rest := piece[3:]
	switch {
	case rest == "":
		return d.car.Motors.Movement(d.speed, d.speed)

	case rest == "A":
		d.speed = clampSpeed(int(d.speed) + SPEED_INCREMENT)
		left, right := d.car.Motors.Speeds()
		return d.car.Motors.Movement(accelerate(left), accelerate(right))

	case rest == "D":
		if d.speed = d.speed - SPEED_INCREMENT; d.speed < SPEED_INCREMENT {
			d.speed = SPEED_INCREMENT
		}
		left, right := d.car.Motors.Speeds()
		return d.car.Motors.Movement(decelerate(left), decelerate(right))

	case rest == "E0" || rest == "E1":
		d.car.Motors.Enable(rest == "E1")
		return nil

	case strings.HasPrefix(rest, "L"):
		speed, err := d.parseSpeed(piece, rest[1:])
		if err != nil {
			return err
		}
		return d.car.Motors.Movement(speed, 0)

	case strings.HasPrefix(rest, "R"):
		speed, err := d.parseSpeed(piece, rest[1:])
		if err != nil {
			return err
		}
		return d.car.Motors.Movement(0, speed)

	case strings.HasPrefix(rest, "SL") || strings.HasPrefix(rest, "SR"):
		speed, err := d.parseSpeed(piece, rest[2:])
		if err != nil {
			return err
		}
		if rest[1] == 'L' {
			return d.car.Motors.Movement(-speed, speed)
		}
		return d.car.Motors.Movement(speed, -speed)

	case strings.HasPrefix(rest, ":"):
		speeds := strings.Split(rest[1:], ":")
		switch len(speeds) {
		case 1:
			enable, err := strconv.Atoi(speeds[0])
			if err != nil || (enable != 0 && enable != 1) {
				return errors.BadCommandError{Frame: piece}
			}
			d.car.Motors.Enable(enable == 1)
			return nil
		case 2, 3:
			left, err := d.parseSpeed(piece, ":"+speeds[0])
			if err != nil {
				return err
			}
			right, err := d.parseSpeed(piece, ":"+speeds[1])
			if err != nil {
				return err
			}
			if err := d.car.Motors.Movement(left, right); err != nil {
				return err
			}
			if len(speeds) == 3 {
				enable, err := strconv.Atoi(speeds[2])
				if err != nil || (enable != 0 && enable != 1) {
					return errors.BadCommandError{Frame: piece}
				}
				d.car.Motors.Enable(enable == 1)
			}
			return nil
		}
		return errors.BadCommandError{Frame: piece}
	}
	return errors.BadCommandError{Frame: piece}
}

// ybDecode handles the vendor remote's keyword frames.
func (d *Decoder) ybDecode(line string) error {
	switch {
	case strings.HasPrefix(line, "PTZ"):
		angle, err := strconv.ParseUint(line[3:], 10, 8)
		if err != nil {
			return errors.BadCommandError{Frame: line}
		}
		return d.car.Servos.Front.SetPosition(uint8(angle))

	case strings.HasPrefix(line, "CLR"):
		return d.ybColorDecode(line)

	case strings.HasPrefix(line, "MODE"):
		return d.ybModeDecode(line[4:])
	}
	return errors.UnknownCommandError{Command: line}
}

// ybColorDecode parses `CLR<r>,CLG<g>,CLB<b>` with 0-255 channels.
func (d *Decoder) ybColorDecode(line string) error {
	idxG := strings.Index(line, ",CLG")
	idxB := strings.Index(line, ",CLB")
	if idxG < 0 || idxB < 0 || idxB < idxG {
		return errors.BadCommandError{Frame: line}
	}

	parse := func(s string) (uint8, error) {
		v, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return 0, errors.BadCommandError{Frame: line}
		}
		// scale 0-255 to percent
		return uint8(100 * v / 255), nil
	}

	red, err := parse(line[3:idxG])
	if err != nil {
		return err
	}
	green, err := parse(line[idxG+4 : idxB])
	if err != nil {
		return err
	}
	blue, err := parse(line[idxB+4:])
	if err != nil {
		return err
	}
	return d.car.Hids.Lights(red, green, blue)
}

func (d *Decoder) ybModeDecode(remains string) error {
	switch remains {
	case "00", "10", "20", "30", "40", "50", "60":
		// any mode cancel: stop, flash and fall back to remote
		if err := d.car.Motors.Brake(); err != nil {
			return err
		}
		d.mode = ModeRemote
		if err := d.car.Hids.Lights(100, 0, 0); err != nil {
			return err
		}
		d.car.Hids.Beep(alertBeep)
		return d.car.Hids.Lights(0, 0, 0)

	case "11":
		d.mode = ModeRemote
		return d.alertMode()

	case "21", "31", "41", "51", "61":
		modes := map[string]CarMode{
			"21": ModeTracking,
			"31": ModeUltrasonicAvoid,
			"41": ModeLedColors,
			"51": ModeLightSeeking,
			"61": ModeInfraredFollow,
		}
		mode := modes[remains]
		d.mode = ModeRemote
		if err := d.alertModeFor(mode); err != nil {
			return err
		}
		return errors.UnsupportedModeError{Mode: mode.String()}
	}

	if err := d.car.Motors.Brake(); err != nil {
		return err
	}
	d.mode = ModeRemote
	return errors.UnknownCommandError{Command: "MODE" + remains}
}

// ybCompound handles the fixed-width frame the vendor app streams while a
// control is held. Byte positions select motor direction, spin, whistle,
// speed trim, servo nudge, LED color and fan.
func (d *Decoder) ybCompound(line string) error {
	b := []byte(line)
	if len(b) < 17 {
		return errors.BadCommandError{Frame: line}
	}

	// speed trim first so direction commands use the fresh value
	switch b[6] {
	case '0':
	case '1':
		d.speed = clampSpeed(int(d.speed) + SPEED_INCREMENT)
	case '2':
		if d.speed = d.speed - SPEED_INCREMENT; d.speed < 0 {
			d.speed = 0
		}
	default:
		return errors.UnknownCommandError{Command: "speed " + string(b[6])}
	}

	var err error
	switch b[2] {
	case '0':
		switch b[1] {
		case '0':
			err = d.car.Motors.Brake()
		case '1':
			err = d.car.Motors.Movement(d.speed, d.speed)
		case '2':
			err = d.car.Motors.Movement(-d.speed, -d.speed)
		case '3':
			err = d.car.Motors.Movement(0, d.speed)
		case '4':
			err = d.car.Motors.Movement(d.speed, 0)
		case '5':
			err = d.car.Motors.Movement(0, -d.speed)
		case '6':
			err = d.car.Motors.Movement(-d.speed, 0)
		default:
			return errors.UnknownCommandError{Command: "motor " + string(b[1])}
		}
	case '1':
		err = d.car.Motors.Movement(-d.speed, d.speed)
	case '2':
		err = d.car.Motors.Movement(d.speed, -d.speed)
	default:
		return errors.UnknownCommandError{Command: "spin " + string(b[2])}
	}
	if err != nil {
		return err
	}

	if b[4] == '1' {
		d.car.Hids.Whistle()
	}

	switch b[8] {
	case '0':
	case '1':
		err = d.car.Servos.FrontLeft()
	case '2':
		err = d.car.Servos.FrontRight()
	case '3':
		err = d.car.Servos.TiltUp()
	case '4':
		err = d.car.Servos.TiltDown()
	case '5':
		err = d.car.Servos.Tilt.SetPosition(90)
	case '6':
		err = d.car.Servos.PanLeft()
	case '7':
		err = d.car.Servos.PanRight()
	case '8':
		err = d.car.Servos.Pan.SetPosition(90)
	case '9':
		err = d.car.Servos.Front.SetPosition(90)
	default:
		return errors.UnknownCommandError{Command: "servo " + string(b[8])}
	}
	if err != nil {
		return err
	}

	// the vendor app's front servo reset rides on its own byte
	if b[16] == '1' {
		if err = d.car.Servos.Front.SetPosition(90); err != nil {
			return err
		}
	}

	switch b[12] {
	case '0', '8':
		d.ledColor = 0
	case '1':
		d.ledColor = (d.ledColor + 1) & 0x7
	case '2', '3', '4', '5', '6', '7':
		d.ledColor = b[12] - '0'
	default:
		return errors.UnknownCommandError{Command: "led " + string(b[12])}
	}
	if err = d.car.Hids.SetColor(d.ledColor); err != nil {
		return err
	}

	if b[14] == '1' {
		d.car.Hids.ToggleFan()
	}

	return nil
}

// alertMode flashes and beeps out the current mode number.
func (d *Decoder) alertMode() error {
	return d.alertModeFor(d.mode)
}

func (d *Decoder) alertModeFor(mode CarMode) error {
	count := uint8(mode) + 1
	for i := uint8(0); i < count; i++ {
		if err := d.car.Hids.SetColor(i); err != nil {
			return err
		}
		d.car.Hids.Beep(alertBeep)
		if err := d.car.Hids.Lights(0, 0, 0); err != nil {
			return err
		}
		time.Sleep(alertBeep)
	}
	return nil
}

func (d *Decoder) parseSpeed(piece, arg string) (int8, error) {
	if arg == "" {
		return d.speed, nil
	}
	v, err := strconv.Atoi(strings.TrimPrefix(arg, ":"))
	if err != nil || v < -100 || v > 100 {
		return 0, errors.BadCommandError{Frame: piece}
	}
	return int8(v), nil
}

func parseAngle(piece, arg string) (uint8, error) {
	v, err := strconv.ParseUint(arg, 10, 8)
	if err != nil || v > 180 {
		return 0, errors.BadCommandError{Frame: piece}
	}
	return uint8(v), nil
}

func parseLevel(piece, arg string) (uint8, error) {
	v, err := strconv.ParseUint(arg, 10, 8)
	if err != nil || v > 100 {
		return 0, errors.BadCommandError{Frame: piece}
	}
	return uint8(v), nil
}

func clampSpeed(v int) int8 {
	if v > 100 {
		return 100
	}
	if v < -100 {
		return -100
	}
	return int8(v)
}

func accelerate(speed int8) int8 {
	switch {
	case speed > 0:
		return clampSpeed(int(speed) + SPEED_INCREMENT)
	case speed < 0:
		return clampSpeed(int(speed) - SPEED_INCREMENT)
	default:
		return SPEED_INCREMENT
	}
}

func decelerate(speed int8) int8 {
	switch {
	case speed > SPEED_INCREMENT:
		return speed - SPEED_INCREMENT
	case speed > 0:
		return SPEED_INCREMENT
	case speed < -SPEED_INCREMENT:
		return speed + SPEED_INCREMENT
	case speed < 0:
		return -SPEED_INCREMENT
	default:
		return 0
	}
}
