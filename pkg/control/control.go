package control

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/tigerbot-team/linebot/pkg/action"
	"github.com/tigerbot-team/linebot/pkg/arbitration"
	"github.com/tigerbot-team/linebot/pkg/clock"
	"github.com/tigerbot-team/linebot/pkg/linefollow"
	"github.com/tigerbot-team/linebot/pkg/pid"
	"github.com/tigerbot-team/linebot/pkg/sensing"
	"github.com/tigerbot-team/linebot/pkg/status"
)

type Config struct {
	StartupDelay  time.Duration `yaml:"startup_delay"`
	SenseInterval time.Duration `yaml:"sense_interval"`

	// OnlyOnNewReading skips the behaviours on passes where the sensing stage
	// had nothing new.  Off by default: every pass runs every behaviour, so the
	// PID controller integrates once per pass, not once per reading.
	OnlyOnNewReading bool `yaml:"only_on_new_reading"`
}

func DefaultConfig() Config {
	return Config{
		StartupDelay:  3 * time.Second,
		SenseInterval: 125 * time.Millisecond,
	}
}

// Settings is everything needed to build the line-following loop.
type Settings struct {
	Loop    Config            `yaml:"loop"`
	Sensors sensing.Config    `yaml:"sensors"`
	PID     pid.Config        `yaml:"pid"`
	Line    linefollow.Config `yaml:"line"`
}

func DefaultSettings() Settings {
	return Settings{
		Loop:    DefaultConfig(),
		Sensors: sensing.DefaultConfig(),
		PID:     pid.DefaultConfig(),
		Line:    linefollow.DefaultConfig(),
	}
}

// Collaborators are the peripherals the loop drives.
type Collaborators struct {
	Clock     clock.Clock
	Sensors   sensing.Sensors
	Indicator sensing.Indicator
	Motors    arbitration.Motors
	Display   status.Display
}

// Loop is the arbitration loop.  Each pass senses, runs the behaviours in
// ascending priority, acts on the winning command and reports status, in that
// order.  Nothing in a pass blocks.
//
// A Loop is owned by a single goroutine; none of its state is locked.
type Loop struct {
	cfg   Config
	clock clock.Clock

	display   status.Display
	sensing   *sensing.Stage
	behaviors []arbitration.Behavior
	actuation *arbitration.Stage
	reporter  *status.Reporter

	cmd        action.MotorCommand
	reading    sensing.Reading
	hasReading bool
	passes     uint64
}

func New(
	cfg Config,
	clk clock.Clock,
	display status.Display,
	sensingStage *sensing.Stage,
	actuation *arbitration.Stage,
	reporter *status.Reporter,
	behaviors ...arbitration.Behavior,
) *Loop {
	return &Loop{
		cfg:       cfg,
		clock:     clk,
		display:   display,
		sensing:   sensingStage,
		behaviors: behaviors,
		actuation: actuation,
		reporter:  reporter,
		cmd:       action.StartupCommand(),
	}
}

// NewLineFollower wires up the line-following behaviour and its stages.
func NewLineFollower(s Settings, c Collaborators) *Loop {
	controller := pid.New(s.PID)
	return New(
		s.Loop,
		c.Clock,
		c.Display,
		sensing.New(s.Sensors, c.Clock, c.Sensors, c.Indicator),
		arbitration.NewStage(arbitration.MotorActuator{Motors: c.Motors}),
		status.NewReporter(c.Display),
		linefollow.New(s.Line, controller, c.Display),
	)
}

// Start resets the current action, waits out the startup delay and clears the
// screen.  It is the only place the loop blocks.
func (l *Loop) Start() {
	l.cmd = action.StartupCommand()
	l.clock.Delay(l.cfg.StartupDelay)
	l.display.Clear()
}

// Step runs one pass.
func (l *Loop) Step() {
	l.passes++

	reading, fresh := l.sensing.Sense(l.cfg.SenseInterval)
	if fresh {
		l.reading = reading
		l.hasReading = true
	}

	if l.hasReading && (fresh || !l.cfg.OnlyOnNewReading) {
		l.cmd = arbitration.Resolve(l.cmd, l.reading, l.behaviors...)
	}

	l.actuation.Act(l.cmd)
	l.reporter.Report(l.cmd)
}

// Run starts the loop and runs passes until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	fmt.Println("LOOP: starting in", l.cfg.StartupDelay)
	l.Start()
	fmt.Println("LOOP: running")
	for ctx.Err() == nil {
		l.Step()
		runtime.Gosched()
	}
	fmt.Println("LOOP: exited after", l.passes, "passes,", l.actuation.Issued(), "commands issued")
	return ctx.Err()
}

// Command returns the current action.
func (l *Loop) Command() action.MotorCommand {
	return l.cmd
}

// Reading returns the latest sensor reading and whether there has been one.
func (l *Loop) Reading() (sensing.Reading, bool) {
	return l.reading, l.hasReading
}

func (l *Loop) Passes() uint64 {
	return l.passes
}

// SetVerbose turns on a log line for every sensor sample.
func (l *Loop) SetVerbose(v bool) {
	l.sensing.Verbose = v
}
