package hardware

import (
	"context"

	"github.com/tigerbot-team/linebot/pkg/clock"
	"github.com/tigerbot-team/linebot/pkg/control"
	"github.com/tigerbot-team/linebot/pkg/serialmotors"
	"github.com/tigerbot-team/linebot/pkg/stepperboard"
)

type Interface interface {
	// Start kicks off any background device loops (screen refresh).
	Start(ctx context.Context)

	// Collaborators returns the peripherals the control loop drives.
	Collaborators(clk clock.Clock) control.Collaborators

	PlaySound(path string)

	// Shutdown stops the motors and releases the devices.
	Shutdown()
}

const (
	DriverI2C    = "i2c"
	DriverSerial = "serial"
	DriverDummy  = "dummy"
)

type MotorsConfig struct {
	Driver     string `yaml:"driver"`
	I2CDevice  string `yaml:"i2c_device"`
	I2CAddr    int    `yaml:"i2c_addr"`
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`

	// Ramp used whenever a command carries zero acceleration.
	AccelLeft  uint16 `yaml:"accel_left"`
	AccelRight uint16 `yaml:"accel_right"`
}

type Config struct {
	Motors       MotorsConfig `yaml:"motors"`
	LEDPin       string       `yaml:"led_pin"`
	ScreenDevice string       `yaml:"screen_device"`
	StartupSound string       `yaml:"startup_sound"`
}

func DefaultConfig() Config {
	return Config{
		Motors: MotorsConfig{
			Driver:     DriverI2C,
			I2CDevice:  "/dev/i2c-1",
			I2CAddr:    stepperboard.DefaultAddr,
			SerialPort: "/dev/ttyACM0",
			BaudRate:   serialmotors.DefaultBaudRate,
			AccelLeft:  800,
			AccelRight: 800,
		},
		LEDPin:       "GPIO17",
		ScreenDevice: "/dev/fb1",
		StartupSound: "/sounds/startup.wav",
	}
}
