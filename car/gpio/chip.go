package gpio

import (
	"sync"
	"time"

	"github.com/rr4c/gorr4c/car/errors"
	"github.com/stianeikeland/go-rpio/v4"
)

// RPiChip drives the Raspberry Pi GPIO header through go-rpio. Open maps
// /dev/gpiomem so it fails without the right permissions.
type RPiChip struct {
	lock   *sync.Mutex
	open   bool
	claims map[uint8]string
}

func NewRPiChip() *RPiChip {
	return &RPiChip{
		lock:   new(sync.Mutex),
		claims: make(map[uint8]string),
	}
}

func (c *RPiChip) Open() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.open {
		return nil
	}
	if err := rpio.Open(); err != nil {
		return errors.HardwareUnavailableError{Cause: err}
	}
	c.open = true
	return nil
}

func (c *RPiChip) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.open {
		return nil
	}
	c.open = false
	return rpio.Close()
}

func (c *RPiChip) Pin(bcm uint8, role string) (PinInterface, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.open {
		return nil, errors.HardwareUnavailableError{}
	}
	if owner, taken := c.claims[bcm]; taken {
		return nil, errors.PinConflictError{Pin: bcm, Roles: [2]string{owner, role}}
	}
	c.claims[bcm] = role

	return &rpiPin{pin: rpio.Pin(bcm), bcm: bcm}, nil
}

type rpiPin struct {
	pin rpio.Pin
	bcm uint8
	pwm *softPWM
}

func (p *rpiPin) Number() uint8 {
	return p.bcm
}

func (p *rpiPin) Configure(mode Mode) {
	switch mode {
	case Output:
		p.pin.Output()
	case InputPullUp:
		p.pin.Input()
		p.pin.PullUp()
	default:
		p.pin.Input()
		p.pin.PullOff()
	}
}

func (p *rpiPin) Write(level Level) {
	if level == High {
		p.pin.High()
	} else {
		p.pin.Low()
	}
}

func (p *rpiPin) Read() Level {
	return p.pin.Read() == rpio.High
}

func (p *rpiPin) SetPWM(period, pulse time.Duration) {
	if p.pwm == nil {
		p.pwm = startSoftPWM(p)
	}
	p.pwm.Set(period, pulse)
}

func (p *rpiPin) StopPWM() {
	if p.pwm == nil {
		return
	}
	p.pwm.Stop()
	p.pwm = nil
}
