package gpio

import (
	"sync"
	"time"

	"github.com/rr4c/gorr4c/car/errors"
)

// PinWrite is one recorded level change, in the order it was issued.
type PinWrite struct {
	Pin   uint8
	Level Level
}

// PWMState is the last PWM configuration applied to a mock pin.
type PWMState struct {
	Period, Pulse time.Duration
	Active        bool
}

// MockChip implements ChipInterface entirely in memory. It records every
// write in order so tests can assert on pin sequencing, and reads can be
// scripted per pin to fake sensors.
type MockChip struct {
	lock      *sync.Mutex
	open      bool
	claims    map[uint8]string
	levels    map[uint8]Level
	modes     map[uint8]Mode
	pwm       map[uint8]PWMState
	writes    []PinWrite
	readFuncs map[uint8]func() Level
	onWrite   func(bcm uint8, level Level)
}

func NewMockChip() *MockChip {
	return &MockChip{
		lock:      new(sync.Mutex),
		claims:    make(map[uint8]string),
		levels:    make(map[uint8]Level),
		modes:     make(map[uint8]Mode),
		pwm:       make(map[uint8]PWMState),
		readFuncs: make(map[uint8]func() Level),
	}
}

func (c *MockChip) Open() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.open = true
	return nil
}

func (c *MockChip) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.open = false
	return nil
}

func (c *MockChip) IsOpen() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.open
}

func (c *MockChip) Pin(bcm uint8, role string) (PinInterface, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.open {
		return nil, errors.HardwareUnavailableError{}
	}
	if owner, taken := c.claims[bcm]; taken {
		return nil, errors.PinConflictError{Pin: bcm, Roles: [2]string{owner, role}}
	}
	c.claims[bcm] = role

	return &mockPin{chip: c, bcm: bcm}, nil
}

// SetReadFunc scripts the level returned by Read on the given pin.
func (c *MockChip) SetReadFunc(bcm uint8, f func() Level) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.readFuncs[bcm] = f
}

// SetOnWrite installs a hook invoked for every write, before it is recorded.
func (c *MockChip) SetOnWrite(f func(bcm uint8, level Level)) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.onWrite = f
}

// Writes returns a snapshot of every recorded write in order.
func (c *MockChip) Writes() []PinWrite {
	c.lock.Lock()
	defer c.lock.Unlock()
	out := make([]PinWrite, len(c.writes))
	copy(out, c.writes)
	return out
}

// ResetWrites clears the recorded write log.
func (c *MockChip) ResetWrites() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.writes = nil
}

// LevelOf returns the last written level of the given pin.
func (c *MockChip) LevelOf(bcm uint8) Level {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.levels[bcm]
}

// ModeOf returns the configured mode of the given pin.
func (c *MockChip) ModeOf(bcm uint8) Mode {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.modes[bcm]
}

// PWMOf returns the last PWM configuration of the given pin.
func (c *MockChip) PWMOf(bcm uint8) PWMState {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.pwm[bcm]
}

func (c *MockChip) recordWrite(bcm uint8, level Level) {
	c.lock.Lock()
	hook := c.onWrite
	c.lock.Unlock()

	// run the hook outside the lock so it can inspect the chip
	if hook != nil {
		hook(bcm, level)
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	c.levels[bcm] = level
	c.writes = append(c.writes, PinWrite{Pin: bcm, Level: level})
}

type mockPin struct {
	chip *MockChip
	bcm  uint8
}

func (p *mockPin) Number() uint8 {
	return p.bcm
}

func (p *mockPin) Configure(mode Mode) {
	p.chip.lock.Lock()
	defer p.chip.lock.Unlock()
	p.chip.modes[p.bcm] = mode
}

func (p *mockPin) Write(level Level) {
	p.chip.recordWrite(p.bcm, level)
}

func (p *mockPin) Read() Level {
	p.chip.lock.Lock()
	f := p.chip.readFuncs[p.bcm]
	level := p.chip.levels[p.bcm]
	p.chip.lock.Unlock()

	if f != nil {
		return f()
	}
	return level
}

func (p *mockPin) SetPWM(period, pulse time.Duration) {
	p.chip.lock.Lock()
	defer p.chip.lock.Unlock()
	p.chip.pwm[p.bcm] = PWMState{Period: period, Pulse: pulse, Active: true}
}

func (p *mockPin) StopPWM() {
	p.chip.lock.Lock()
	state := p.chip.pwm[p.bcm]
	state.Active = false
	p.chip.pwm[p.bcm] = state
	p.chip.lock.Unlock()

	// soft PWM parks the pin low when released
	p.Write(Low)
}
