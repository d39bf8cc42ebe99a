package linefollow

import (
	"fmt"
	"math"

	"github.com/tigerbot-team/linebot/pkg/action"
	"github.com/tigerbot-team/linebot/pkg/pid"
	"github.com/tigerbot-team/linebot/pkg/sensing"
)

// Annotator receives a short note describing which correction fired.
type Annotator interface {
	PrintAt(row, col int, text string)
}

const (
	AnnotationRow = 3
	annotationLen = 16

	// Floors applied when a correction drives a wheel to zero or backwards.
	rightPathFloor = 3
	leftPathFloor  = 5
)

type Config struct {
	Setpoint    float64 `yaml:"setpoint"`
	Low         float64 `yaml:"low"`
	High        float64 `yaml:"high"`
	BaseSpeed   float64 `yaml:"base_speed"`
	CruiseSpeed int16   `yaml:"cruise_speed"`
}

func DefaultConfig() Config {
	return Config{
		Setpoint:    4.5,
		Low:         4.3,
		High:        4.7,
		BaseSpeed:   100,
		CruiseSpeed: 30,
	}
}

// Behavior keeps the robot over the line by steering with a PID correction
// derived from whichever sensor has drifted off the line.
type Behavior struct {
	cfg       Config
	pid       *pid.Controller
	annotator Annotator
}

func New(cfg Config, controller *pid.Controller, annotator Annotator) *Behavior {
	return &Behavior{
		cfg:       cfg,
		pid:       controller,
		annotator: annotator,
	}
}

func (b *Behavior) Name() string {
	return "line follow"
}

// offTarget is true outside the open dead-band (Low, High).
func (b *Behavior) offTarget(v float64) bool {
	return v <= b.cfg.Low || v >= b.cfg.High
}

// Evaluate returns the candidate command for the given reading.  Acceleration
// values are carried over from cmd unchanged.
//
// The right sensor has priority: it is used whenever it is off target.  The
// left sensor is only consulted while the right one is centred, and its
// corrections are applied with the opposite polarity and a higher floor.
// When both sensors report the same value both paths run, in that order, and
// each calls the PID controller.
func (b *Behavior) Evaluate(cmd action.MotorCommand, r sensing.Reading) (action.MotorCommand, bool) {
	left, right := r.LeftLine, r.RightLine

	position := left
	if b.offTarget(right) {
		position = right
	}

	if position != right && position != left {
		// Only reachable with NaN readings.
		panic(fmt.Sprintf("linefollow: position %v matches neither sensor (%v)", position, r))
	}

	cmd.State = action.LineFollow

	if position == right {
		adjustment := b.pid.Update(b.cfg.Setpoint, position)
		if position <= b.cfg.Low {
			cmd.SpeedL = toSpeed(b.cfg.BaseSpeed - adjustment)
			cmd.SpeedR = toSpeed(b.cfg.BaseSpeed + adjustment)
			if cmd.SpeedL <= 0 {
				cmd.SpeedL = rightPathFloor
			}
			b.annotate("shift left R")
		} else if position >= b.cfg.High {
			cmd.SpeedL = toSpeed(b.cfg.BaseSpeed + adjustment)
			cmd.SpeedR = toSpeed(b.cfg.BaseSpeed - adjustment)
			if cmd.SpeedR <= 0 {
				cmd.SpeedR = rightPathFloor
			}
			b.annotate("shift right")
		}
	}

	if position == left {
		if b.offTarget(position) {
			adjustment := b.pid.Update(b.cfg.Setpoint, position)
			if position <= b.cfg.Low {
				cmd.SpeedL = toSpeed(b.cfg.BaseSpeed + adjustment)
				cmd.SpeedR = toSpeed(b.cfg.BaseSpeed - adjustment)
				if cmd.SpeedR <= 0 {
					cmd.SpeedR = leftPathFloor
				}
				b.annotate("shift right AL")
			} else {
				cmd.SpeedL = toSpeed(b.cfg.BaseSpeed - adjustment)
				cmd.SpeedR = toSpeed(b.cfg.BaseSpeed + adjustment)
				if cmd.SpeedL <= 0 {
					cmd.SpeedL = leftPathFloor
				}
				b.annotate("shift left AL")
			}
		} else {
			b.annotate("straight")
			cmd.SpeedL = b.cfg.CruiseSpeed
			cmd.SpeedR = b.cfg.CruiseSpeed
		}
	}

	return cmd, true
}

func (b *Behavior) annotate(text string) {
	if b.annotator == nil {
		return
	}
	b.annotator.PrintAt(AnnotationRow, 0, fmt.Sprintf("%-*s", annotationLen, text))
}

// toSpeed truncates towards zero, saturating at the int16 limits.
func toSpeed(v float64) int16 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt16:
		return math.MaxInt16
	case v <= math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}
