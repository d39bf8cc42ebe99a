package stepperboard

import (
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
)

const (
	DefaultAddr = 0x44

	maxWriteTries = 20
)

type Register byte

const (
	RegCtrl Register = iota
	RegStatus
	RegWatchdogTimeout

	RegAccelL
	RegAccelR
	RegSpeedL
	RegSpeedR

	RegBattV // LSB=4mV
)

const BattVLSB = 0.004

const (
	RegCtrlRun uint16 = 1 << iota
	RegCtrlWatchdogEnable
)

type StatusFlag uint16

const (
	StatusFault StatusFlag = 1 << iota
	StatusWatchdogExpired
	StatusRamping
)

func (f StatusFlag) String() string {
	if f == 0 {
		return "ok"
	}
	var parts []string
	for _, n := range []struct {
		flag StatusFlag
		name string
	}{
		{StatusFault, "fault"},
		{StatusWatchdogExpired, "watchdog-expired"},
		{StatusRamping, "ramping"},
	} {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
			f &^= n.flag
		}
	}
	if f != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint16(f)))
	}
	return strings.Join(parts, ",")
}

var (
	ErrWriteFailed = errors.New("stepper board write failed after retries")
	ErrNotOpen     = errors.New("stepper board not open")
)

type Interface interface {
	SetAcceleration(left, right uint16)
	Run(left, right int16)
	Close() error
}

type port interface {
	Write(buf []byte) error
	ReadReg(reg byte, buf []byte) error
	Close() error
}

// Board is the two-wheel stepper controller hat.  Each wheel has an
// acceleration register (steps/s², unsigned) and a speed register (steps/s,
// signed); writing a speed starts the wheel ramping towards it.
//
// A Board is shared by the control loop and the screen's battery readout, so
// every bus access holds lock.  dev is nil after a failed write until a
// reopen succeeds.
type Board struct {
	lock sync.Mutex
	dev  port
	open func() (port, error)

	running bool
}

func New(deviceFile string, addr int) (*Board, error) {
	open := func() (port, error) {
		return i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	}
	dev, err := open()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open stepper board on %s", deviceFile)
	}
	return newBoard(dev, open), nil
}

func newBoard(dev port, open func() (port, error)) *Board {
	return &Board{
		dev:  dev,
		open: open,
	}
}

// WriteAcceleration sets the acceleration used for the next speed change.
func (b *Board) WriteAcceleration(left, right uint16) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if err := b.writeReg(RegAccelL, left); err != nil {
		return err
	}
	return b.writeReg(RegAccelR, right)
}

// WriteSpeeds sets both wheel speeds, enabling the motors first if needed.
func (b *Board) WriteSpeeds(left, right int16) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.writeSpeeds(left, right)
}

func (b *Board) writeSpeeds(left, right int16) error {
	if !b.running {
		if err := b.writeReg(RegCtrl, RegCtrlRun); err != nil {
			return err
		}
		b.running = true
	}
	if err := b.writeReg(RegSpeedL, uint16(left)); err != nil {
		return err
	}
	return b.writeReg(RegSpeedR, uint16(right))
}

// SetAcceleration and Run are the fire-and-forget forms used by the control
// loop; failures are logged.  A failing bus can hold them up for the retry
// budget (about maxWriteTries ms).
func (b *Board) SetAcceleration(left, right uint16) {
	if err := b.WriteAcceleration(left, right); err != nil {
		fmt.Println("Stepper board: failed to set acceleration:", err)
	}
}

func (b *Board) Run(left, right int16) {
	if err := b.WriteSpeeds(left, right); err != nil {
		fmt.Println("Stepper board: failed to set speeds:", err)
	}
}

// Stop zeroes both speeds and disables the drivers.
func (b *Board) Stop() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.stop()
}

func (b *Board) stop() error {
	if err := b.writeSpeeds(0, 0); err != nil {
		return err
	}
	b.running = false
	return b.writeReg(RegCtrl, 0)
}

// SetWatchdog makes the board stop the wheels if it hears nothing for the
// given time.  Zero disables it.
func (b *Board) SetWatchdog(timeout time.Duration) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	ms := timeout.Milliseconds()
	if ms > 0xffff {
		ms = 0xffff
	}
	if err := b.writeReg(RegWatchdogTimeout, uint16(ms)); err != nil {
		return err
	}
	ctrl := uint16(0)
	if b.running {
		ctrl |= RegCtrlRun
	}
	if timeout > 0 {
		ctrl |= RegCtrlWatchdogEnable
	}
	return b.writeReg(RegCtrl, ctrl)
}

func (b *Board) BattVolts() (float32, error) {
	raw, err := b.readReg(RegBattV)
	if err != nil {
		return 0, err
	}
	return float32(raw) * BattVLSB, nil
}

func (b *Board) Status() (StatusFlag, error) {
	raw, err := b.readReg(RegStatus)
	if err != nil {
		return 0, err
	}
	return StatusFlag(raw), nil
}

func (b *Board) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	_ = b.stop()
	if b.dev == nil {
		return nil
	}
	err := b.dev.Close()
	b.dev = nil
	return err
}

// Callers of writeReg and writeWithRetries hold lock.
func (b *Board) writeReg(reg Register, value uint16) error {
	return b.writeWithRetries([]byte{byte(reg), byte(value >> 8), byte(value)})
}

func (b *Board) readReg(reg Register) (uint16, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.dev == nil {
		return 0, ErrNotOpen
	}
	var buf [2]byte
	if err := b.dev.ReadReg(byte(reg), buf[:]); err != nil {
		return 0, errors.Wrapf(err, "failed to read register %d", reg)
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func (b *Board) writeWithRetries(data []byte) error {
	var err error
	for tries := 0; tries < maxWriteTries; tries++ {
		if tries > 0 {
			time.Sleep(1 * time.Millisecond)
		}
		if b.dev == nil {
			var dev port
			if dev, err = b.open(); err != nil {
				fmt.Println("Failed to reopen stepper board:", err)
				continue
			}
			b.dev = dev
		}
		err = b.dev.Write(data)
		if err == nil {
			if tries > 0 {
				fmt.Println("Successfully programmed stepper board after retries")
			}
			return nil
		}
		fmt.Println("Failed to write to stepper board:", err)
		_ = b.dev.Close()
		b.dev = nil
	}
	return errors.Wrap(ErrWriteFailed, err.Error())
}

type dummyBoard struct{}

// Dummy returns a driver that just prints what it would have done.
func Dummy() Interface {
	return dummyBoard{}
}

func (dummyBoard) SetAcceleration(left, right uint16) {
	fmt.Printf("Dummy stepper board setting acceleration: l=%v r=%v\n", left, right)
}

func (dummyBoard) Run(left, right int16) {
	fmt.Printf("Dummy stepper board setting speeds: l=%v r=%v\n", left, right)
}

func (dummyBoard) Close() error {
	fmt.Println("Dummy stepper board closed")
	return nil
}
