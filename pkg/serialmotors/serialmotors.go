package serialmotors

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

const DefaultBaudRate = 115200

var ErrNotReady = errors.New("motor controller did not announce itself")

// Controller talks to a microcontroller driving the two steppers over a
// serial line.  Commands are single text lines:
//
//	A <accelL> <accelR>
//	S <speedL> <speedR>
//
// and the controller acknowledges nothing.  Repeated values are not resent.
type Controller struct {
	lock sync.Mutex
	port io.ReadWriteCloser
	out  *bufio.Writer

	haveAccel      bool
	accelL, accelR uint16
	haveSpeed      bool
	speedL, speedR int16
}

func Open(portName string, baudRate int) (*Controller, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", portName)
	}
	c, err := newController(port)
	if err != nil {
		_ = port.Close()
		return nil, errors.Wrap(err, portName)
	}
	return c, nil
}

// newController waits for the "ready" banner the firmware prints on reset.
func newController(port io.ReadWriteCloser) (*Controller, error) {
	line, err := bufio.NewReader(port).ReadString('\n')
	if err != nil {
		return nil, errors.Wrap(err, "failed to read banner")
	}
	if strings.TrimSpace(line) != "ready" {
		return nil, errors.Wrapf(ErrNotReady, "got %q", line)
	}
	return &Controller{
		port: port,
		out:  bufio.NewWriter(port),
	}, nil
}

func (c *Controller) WriteAcceleration(left, right uint16) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.haveAccel && c.accelL == left && c.accelR == right {
		return nil
	}
	if err := c.send("A %d %d", left, right); err != nil {
		c.haveAccel = false
		return err
	}
	c.haveAccel, c.accelL, c.accelR = true, left, right
	return nil
}

func (c *Controller) WriteSpeeds(left, right int16) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.haveSpeed && c.speedL == left && c.speedR == right {
		return nil
	}
	if err := c.send("S %d %d", left, right); err != nil {
		c.haveSpeed = false
		return err
	}
	c.haveSpeed, c.speedL, c.speedR = true, left, right
	return nil
}

func (c *Controller) SetAcceleration(left, right uint16) {
	if err := c.WriteAcceleration(left, right); err != nil {
		fmt.Println("Serial motors: failed to set acceleration:", err)
	}
}

func (c *Controller) Run(left, right int16) {
	if err := c.WriteSpeeds(left, right); err != nil {
		fmt.Println("Serial motors: failed to set speeds:", err)
	}
}

func (c *Controller) Stop() error {
	return c.WriteSpeeds(0, 0)
}

func (c *Controller) Close() error {
	_ = c.Stop()
	return c.port.Close()
}

func (c *Controller) send(format string, args ...interface{}) error {
	_, err := fmt.Fprintf(c.out, format+"\n", args...)
	if err == nil {
		err = c.out.Flush()
	}
	if err != nil {
		// A bufio.Writer stays broken after an error.
		c.out.Reset(c.port)
		return errors.Wrap(err, "failed to send command")
	}
	return nil
}
