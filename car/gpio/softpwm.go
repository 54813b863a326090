package gpio

import (
	"sync"
	"time"
)

type levelWriter interface {
	Write(level Level)
}

// softPWM bit-bangs a PWM signal on an output pin from its own goroutine.
// The cheap hobby servos and motor drivers this library targets tolerate the
// jitter of a sleeping goroutine; rppal does the same thing for the original
// board. Stop joins the goroutine so the pin is guaranteed low afterwards.
type softPWM struct {
	out      levelWriter
	lock     *sync.Mutex
	period   time.Duration
	pulse    time.Duration
	update   chan struct{}
	quit     chan struct{}
	finished chan struct{}
}

func startSoftPWM(out levelWriter) (p *softPWM) {
	p = &softPWM{
		out:      out,
		lock:     new(sync.Mutex),
		update:   make(chan struct{}, 1),
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	go p.run()
	return
}

func (p *softPWM) Set(period, pulse time.Duration) {
	if pulse > period {
		pulse = period
	}

	p.lock.Lock()
	p.period = period
	p.pulse = pulse
	p.lock.Unlock()

	select {
	case p.update <- struct{}{}:
	default: // an update is already pending
	}
}

func (p *softPWM) Stop() {
	close(p.quit)
	<-p.finished
}

func (p *softPWM) settings() (period, pulse time.Duration) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.period, p.pulse
}

func (p *softPWM) run() {
	defer close(p.finished)
	defer p.out.Write(Low)

	for {
		period, pulse := p.settings()

		if period <= 0 || pulse <= 0 {
			// idle low until reconfigured
			p.out.Write(Low)
			select {
			case <-p.update:
				continue
			case <-p.quit:
				return
			}
		}

		p.out.Write(High)
		select {
		case <-p.quit:
			return
		case <-time.After(pulse):
		}

		p.out.Write(Low)
		select {
		case <-p.quit:
			return
		case <-time.After(period - pulse):
		}
	}
}
