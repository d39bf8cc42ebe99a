package mcp3008

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

const (
	NumChannels = 8

	startBit    = 0x01
	singleEnded = 0x08
)

var ErrBadChannel = errors.New("channel out of range")

type Interface interface {
	ReadChannel(id int) (uint16, error)
	Close() error
}

type conn interface {
	Tx(w, r []byte) error
}

// ADC is an MCP3008 8-channel 10-bit converter on an SPI bus.
type ADC struct {
	lock   sync.Mutex
	c      conn
	closer interface{ Close() error }
}

func New(deviceFile string) (*ADC, error) {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialise periph")
	}

	p, err := spireg.Open(deviceFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open SPI port %s", deviceFile)
	}

	// The MCP3008 is good for 1.35MHz at 2.7V; stay well under.
	c, err := p.Connect(physic.KiloHertz*1000, spi.Mode0, 8)
	if err != nil {
		_ = p.Close()
		return nil, errors.Wrapf(err, "failed to connect to %s", deviceFile)
	}

	return &ADC{c: c, closer: p}, nil
}

// ReadChannel does a single-ended conversion on the given channel and
// returns the raw 10-bit code.
func (a *ADC) ReadChannel(id int) (uint16, error) {
	if id < 0 || id >= NumChannels {
		return 0, errors.Wrapf(ErrBadChannel, "channel %d", id)
	}

	write := []byte{startBit, byte(singleEnded|id) << 4, 0x00}
	read := make([]byte, len(write))

	a.lock.Lock()
	err := a.c.Tx(write, read)
	a.lock.Unlock()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read channel %d", id)
	}

	return uint16(read[1]&0x03)<<8 | uint16(read[2]), nil
}

func (a *ADC) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

type dummyADC struct {
	values map[int]uint16
}

// Dummy returns an ADC that reads back fixed codes, printing each read.
func Dummy(values map[int]uint16) Interface {
	return &dummyADC{values: values}
}

func (d *dummyADC) ReadChannel(id int) (uint16, error) {
	v := d.values[id]
	fmt.Printf("Dummy ADC read: ch=%v value=%v\n", id, v)
	return v, nil
}

func (d *dummyADC) Close() error {
	return nil
}
