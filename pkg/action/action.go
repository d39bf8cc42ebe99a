package action

import "fmt"

// State is the behaviour currently in control of the robot.  New states can be
// added without changing how commands are arbitrated.
type State int

const (
	// Startup is the state on reset, before any behaviour has taken control.
	Startup State = iota
	// Exploring means the robot is roaming around.
	Exploring
	// LineFollow means the robot is following a dark line.
	LineFollow
)

func (s State) String() string {
	switch s {
	case Startup:
		return "STARTUP"
	case Exploring:
		return "EXPLORING"
	case LineFollow:
		return "LINE_FOLLOW"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MotorCommand is the full actuation intent for both wheels plus the state of
// the behaviour that produced it.
type MotorCommand struct {
	State  State
	SpeedL int16
	SpeedR int16
	AccelL uint16
	AccelR uint16
}

// StartupCommand returns the reset command: everything zero, state Startup.
func StartupCommand() MotorCommand {
	return MotorCommand{State: Startup}
}

// Equal compares every field exactly.
func (c MotorCommand) Equal(other MotorCommand) bool {
	return c == other
}

func (c MotorCommand) String() string {
	return fmt.Sprintf("%v L=%d/%d R=%d/%d", c.State, c.SpeedL, c.AccelL, c.SpeedR, c.AccelR)
}
