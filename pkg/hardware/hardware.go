package hardware

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/tigerbot-team/linebot/pkg/clock"
	"github.com/tigerbot-team/linebot/pkg/control"
	"github.com/tigerbot-team/linebot/pkg/led"
	"github.com/tigerbot-team/linebot/pkg/mcp3008"
	"github.com/tigerbot-team/linebot/pkg/screen"
	"github.com/tigerbot-team/linebot/pkg/serialmotors"
	"github.com/tigerbot-team/linebot/pkg/sensing"
	"github.com/tigerbot-team/linebot/pkg/sound"
	"github.com/tigerbot-team/linebot/pkg/stepperboard"
)

var ErrUnknownDriver = errors.New("unknown motor driver")

// Motors is what every motor driver provides.
type Motors interface {
	SetAcceleration(left, right uint16)
	Run(left, right int16)
	Close() error
}

type Hardware struct {
	cfg Config

	adc    mcp3008.Interface
	led    led.Interface
	motors Motors
	screen *screen.Screen
	sound  sound.Interface
}

var _ Interface = (*Hardware)(nil)

// New opens the real devices.  Anything already opened is closed again if a
// later device fails.
func New(cfg Config, sensorsCfg sensing.Config) (*Hardware, error) {
	h := &Hardware{
		cfg:    cfg,
		screen: screen.New(),
	}
	if err := h.open(sensorsCfg); err != nil {
		h.close()
		return nil, err
	}
	return h, nil
}

func (h *Hardware) open(sensorsCfg sensing.Config) error {
	adc, err := mcp3008.New(sensorsCfg.SPIDevice)
	if err != nil {
		return err
	}
	h.adc = adc

	l, err := led.New(h.cfg.LEDPin)
	if err != nil {
		return err
	}
	h.led = l

	motors, err := OpenMotors(h.cfg.Motors)
	if err != nil {
		return err
	}
	h.motors = motors
	if board, ok := Board(motors); ok {
		reportBoardStatus(board)
		h.screen.BattVolts = board.BattVolts
	}

	h.sound = sound.NewPlayer()
	return nil
}

// OpenMotors opens the configured motor driver, wrapped so that commands
// without an acceleration use the configured ramp.
func OpenMotors(cfg MotorsConfig) (Motors, error) {
	var m Motors
	switch cfg.Driver {
	case DriverI2C:
		board, err := stepperboard.New(cfg.I2CDevice, cfg.I2CAddr)
		if err != nil {
			return nil, err
		}
		m = board
	case DriverSerial:
		c, err := serialmotors.Open(cfg.SerialPort, cfg.BaudRate)
		if err != nil {
			return nil, err
		}
		m = c
	case DriverDummy:
		m = stepperboard.Dummy()
	default:
		return nil, errors.Wrap(ErrUnknownDriver, cfg.Driver)
	}
	return &defaultAccel{Motors: m, left: cfg.AccelLeft, right: cfg.AccelRight}, nil
}

// Board returns the I2C stepper board behind m, if that's what it is.
func Board(m Motors) (*stepperboard.Board, bool) {
	if d, ok := m.(*defaultAccel); ok {
		m = d.Motors
	}
	board, ok := m.(*stepperboard.Board)
	return board, ok
}

type statusReader interface {
	Status() (stepperboard.StatusFlag, error)
}

// reportBoardStatus logs the board's latched status.  A fault or an expired
// watchdog left over from the last run is worth a warning but doesn't stop
// the robot starting.
func reportBoardStatus(board statusReader) (stepperboard.StatusFlag, error) {
	status, err := board.Status()
	if err != nil {
		fmt.Println("HW: Failed to read stepper board status:", err)
		return 0, err
	}
	if status&(stepperboard.StatusFault|stepperboard.StatusWatchdogExpired) != 0 {
		fmt.Println("===== !!! WARNING !!! STEPPER BOARD STATUS:", status, "=====")
	} else {
		fmt.Println("HW: Stepper board status:", status)
	}
	return status, nil
}

func (h *Hardware) Start(ctx context.Context) {
	go h.screen.LoopUpdatingScreen(ctx, h.cfg.ScreenDevice)
}

func (h *Hardware) Collaborators(clk clock.Clock) control.Collaborators {
	return control.Collaborators{
		Clock:     clk,
		Sensors:   h.adc,
		Indicator: h.led,
		Motors:    h.motors,
		Display:   h.screen,
	}
}

func (h *Hardware) PlaySound(path string) {
	h.sound.Play(path)
}

func (h *Hardware) Shutdown() {
	fmt.Println("HW: Shutting down")
	if h.motors != nil {
		h.motors.Run(0, 0)
	}
	if h.led != nil {
		h.led.Set(false)
	}
	h.close()
}

func (h *Hardware) close() {
	if h.motors != nil {
		if err := h.motors.Close(); err != nil {
			fmt.Println("HW: Failed to close motors:", err)
		}
	}
	if h.adc != nil {
		if err := h.adc.Close(); err != nil {
			fmt.Println("HW: Failed to close ADC:", err)
		}
	}
	if h.sound != nil {
		h.sound.Close()
	}
}

// defaultAccel substitutes the configured ramp for a zero acceleration.
type defaultAccel struct {
	Motors
	left, right uint16
}

func (d *defaultAccel) SetAcceleration(left, right uint16) {
	if left == 0 {
		left = d.left
	}
	if right == 0 {
		right = d.right
	}
	d.Motors.SetAcceleration(left, right)
}
