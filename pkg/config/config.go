package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/tigerbot-team/linebot/pkg/control"
	"github.com/tigerbot-team/linebot/pkg/hardware"
	"github.com/tigerbot-team/linebot/pkg/mcp3008"
)

const (
	DefaultPath = "/cfg/linebot.yaml"
	InUsePath   = "/cfg/linebot-in-use.yaml"
)

var ErrInvalid = errors.New("invalid config")

// Config is the whole robot configuration.  Both halves are inlined so the
// file has flat top-level sections: loop, sensors, pid, line, motors, ...
type Config struct {
	control.Settings `yaml:",inline"`
	Hardware         hardware.Config `yaml:",inline"`
}

func Default() Config {
	return Config{
		Settings: control.DefaultSettings(),
		Hardware: hardware.DefaultConfig(),
	}
}

// Load reads the file at path over the defaults.  A missing file just means
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		fmt.Println("CONFIG: no config at", path, "using defaults")
		return cfg, nil
	} else if err != nil {
		return cfg, errors.Wrapf(err, "failed to read %s", path)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, path)
	}
	fmt.Println("CONFIG: loaded", path)
	return cfg, nil
}

// WriteInUse dumps the effective config so it's easy to see what the robot
// actually ran with.
func (c Config) WriteInUse(path string) error {
	data, err := yaml.Marshal(&c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0666); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

func (c Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return errors.Wrapf(ErrInvalid, format, args...)
	}

	if c.Loop.SenseInterval <= 0 {
		return invalid("loop.sense_interval must be positive, got %v", c.Loop.SenseInterval)
	}
	if c.Loop.StartupDelay < 0 {
		return invalid("loop.startup_delay must not be negative, got %v", c.Loop.StartupDelay)
	}

	s := c.Sensors
	if s.MaxCode <= 0 || s.FullScale <= 0 {
		return invalid("sensors.max_code and sensors.full_scale must be positive")
	}
	for _, ch := range []int{s.LeftChannel, s.RightChannel} {
		if ch < 0 || ch >= mcp3008.NumChannels {
			return invalid("sensor channel %d out of range", ch)
		}
	}
	if s.LeftChannel == s.RightChannel {
		return invalid("left and right sensors share channel %d", s.LeftChannel)
	}

	if c.Line.Low >= c.Line.High {
		return invalid("line.low (%v) must be below line.high (%v)", c.Line.Low, c.Line.High)
	}
	if c.PID.IntegralLimit < 0 || c.PID.OutputLimit < 0 {
		return invalid("pid limits must not be negative")
	}

	switch c.Hardware.Motors.Driver {
	case hardware.DriverI2C, hardware.DriverSerial, hardware.DriverDummy:
	default:
		return invalid("unknown motors.driver %q", c.Hardware.Motors.Driver)
	}
	return nil
}
