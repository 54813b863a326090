package car

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rr4c/gorr4c/car/gpio"
)

const (
	simMinDistance  = 5.0
	simMaxDistance  = 400.0
	simMaxMovement  = 2.0
	simEchoSettle   = 50 * time.Microsecond
	simDistanceUnit = 17171.5 // cm per second of echo width, at 20C
)

// simulatedTarget stands in for whatever the ultrasonic sensor is pointed at.
// It wanders a little on every ping so repeated reads look alive.
type simulatedTarget struct {
	lock     sync.Mutex
	distance float64
	pingAt   time.Time
}

func newSimulatedTarget() (t *simulatedTarget) {
	t = new(simulatedTarget)
	t.distance = simMinDistance + rand.Float64()*(simMaxDistance-simMinDistance)
	return
}

// Distance reports the current simulated distance in cm.
func (t *simulatedTarget) Distance() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.distance
}

// SetDistance pins the target at a fixed distance, for tests.
func (t *simulatedTarget) SetDistance(cm float64) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.distance = cm
}

func (t *simulatedTarget) ping() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.pingAt = time.Now()
	t.distance += (rand.Float64() - 0.5) * 2 * simMaxMovement
	if t.distance < simMinDistance {
		t.distance = simMinDistance
	}
	if t.distance > simMaxDistance {
		t.distance = simMaxDistance
	}
}

// echo synthesizes the sensor's echo line: it rises a short settle time after
// the last trigger and stays high for the round trip matching the target
// distance.
func (t *simulatedTarget) echo() gpio.Level {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.pingAt.IsZero() {
		return gpio.Low
	}

	width := time.Duration(t.distance / simDistanceUnit * float64(time.Second))
	elapsed := time.Since(t.pingAt)
	if elapsed >= simEchoSettle && elapsed < simEchoSettle+width {
		return gpio.High
	}
	return gpio.Low
}

// NewSimulatedCar builds a fully wired Car over a mock chip, with a synthetic
// ultrasonic target answering pings. It lets the shell and the decoder run on
// a machine with no GPIO header.
func NewSimulatedCar(config CarConfig) (car *Car, chip *gpio.MockChip, err error) {
	chip = gpio.NewMockChip()
	target := newSimulatedTarget()

	trigger := config.Pins.UltrasonicTrigger
	chip.SetOnWrite(func(bcm uint8, level gpio.Level) {
		if bcm == trigger && level == gpio.High {
			target.ping()
		}
	})
	chip.SetReadFunc(config.Pins.UltrasonicEcho, target.echo)

	car, err = NewCar(config, chip)
	if err != nil {
		return nil, nil, err
	}
	return car, chip, nil
}
