package sensing

import (
	"fmt"
	"time"

	"github.com/tigerbot-team/linebot/pkg/clock"
)

// Sensors yields raw samples from the analogue line sensors.
type Sensors interface {
	ReadChannel(id int) (uint16, error)
}

// Indicator is the heartbeat light toggled each time a reading is taken.
type Indicator interface {
	Toggle()
}

// Reading is a snapshot of both line sensors in physical units (volts for the
// reference calibration).
type Reading struct {
	LeftLine  float64
	RightLine float64
}

func (r Reading) String() string {
	return fmt.Sprintf("L=%.2f R=%.2f", r.LeftLine, r.RightLine)
}

// Config describes where the line sensors are and how to scale them.
type Config struct {
	SPIDevice    string  `yaml:"spi_device"`
	LeftChannel  int     `yaml:"left_channel"`
	RightChannel int     `yaml:"right_channel"`
	FullScale    float64 `yaml:"full_scale"`
	MaxCode      float64 `yaml:"max_code"`
}

// DefaultConfig scales the ADC's 10-bit codes by 1024, so the top code 1023
// reads just under FullScale.
func DefaultConfig() Config {
	return Config{
		SPIDevice:    "/dev/spidev0.0",
		LeftChannel:  3,
		RightChannel: 4,
		FullScale:    5.0,
		MaxCode:      1024,
	}
}

// Stage rate-limits sensor sampling.  The first call to Sense arms the timer;
// after that a new Reading is produced at most once per interval and the
// timer re-arms itself.
//
// The timer fields are only written by Sense.
type Stage struct {
	cfg       Config
	clock     clock.Clock
	sensors   Sensors
	indicator Indicator

	started bool
	lastMS  uint32

	// Verbose enables a log line for every sample.
	Verbose bool
}

func New(cfg Config, clk clock.Clock, sensors Sensors, indicator Indicator) *Stage {
	return &Stage{
		cfg:       cfg,
		clock:     clk,
		sensors:   sensors,
		indicator: indicator,
	}
}

// Sense returns a new Reading and true if the interval has elapsed since the
// last one.  Otherwise it touches no hardware and returns false; the caller
// should keep using its previous Reading.  Sense never blocks.
func (s *Stage) Sense(interval time.Duration) (Reading, bool) {
	now := s.clock.ElapsedMS()
	if !s.started {
		s.started = true
		s.lastMS = now
		return Reading{}, false
	}
	if clock.Since(now, s.lastMS) < uint32(interval/time.Millisecond) {
		return Reading{}, false
	}

	if s.Verbose {
		fmt.Println("SENSE: read line sensor...")
	}
	s.indicator.Toggle()

	r := Reading{
		LeftLine:  s.sample(s.cfg.LeftChannel),
		RightLine: s.sample(s.cfg.RightChannel),
	}

	s.lastMS = now
	return r, true
}

func (s *Stage) sample(channel int) float64 {
	raw, err := s.sensors.ReadChannel(channel)
	if err != nil {
		fmt.Printf("SENSE: failed to read channel %d: %v\n", channel, err)
		raw = 0
	}
	return Scale(raw, s.cfg.FullScale, s.cfg.MaxCode)
}

// Scale converts a raw ADC code to physical units.
func Scale(raw uint16, fullScale, maxCode float64) float64 {
	return float64(raw) * fullScale / maxCode
}
