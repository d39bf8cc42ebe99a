package led

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

var ErrNoSuchPin = errors.New("no such GPIO pin")

type Interface interface {
	Toggle()
	Set(on bool)
}

type pin interface {
	Out(l gpio.Level) error
}

// LED is a single GPIO-driven light.
type LED struct {
	lock sync.Mutex
	pin  pin
	name string
	on   bool
}

func New(pinName string) (*LED, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialise periph")
	}
	p := gpioreg.ByName(pinName)
	if p == nil {
		return nil, errors.Wrap(ErrNoSuchPin, pinName)
	}
	l := &LED{pin: p, name: pinName}
	if err := p.Out(gpio.Low); err != nil {
		return nil, errors.Wrapf(err, "failed to drive %s", pinName)
	}
	return l, nil
}

func (l *LED) Toggle() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.setLocked(!l.on)
}

func (l *LED) Set(on bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.setLocked(on)
}

func (l *LED) setLocked(on bool) {
	if err := l.pin.Out(gpio.Level(on)); err != nil {
		fmt.Println("LED: failed to drive", l.name, err)
		return
	}
	l.on = on
}

type dummyLED struct {
	on bool
}

func Dummy() Interface {
	return &dummyLED{}
}

func (d *dummyLED) Toggle() {
	d.Set(!d.on)
}

func (d *dummyLED) Set(on bool) {
	d.on = on
	fmt.Println("Dummy LED:", on)
}
