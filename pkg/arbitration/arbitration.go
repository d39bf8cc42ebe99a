package arbitration

import (
	"fmt"

	"github.com/tigerbot-team/linebot/pkg/action"
	"github.com/tigerbot-team/linebot/pkg/sensing"
)

// Behavior proposes a command from the latest reading.  It returns false if it
// has nothing to say this iteration.  Behaviours must not drive the motors
// themselves.
type Behavior interface {
	Name() string
	Evaluate(cmd action.MotorCommand, r sensing.Reading) (action.MotorCommand, bool)
}

// Resolve runs the behaviours in ascending order of priority; the last one to
// produce a command wins.  If none does, cmd is returned unchanged.
//
// Each behaviour sees the command as it was before arbitration, so a lower
// priority behaviour cannot leak fields into a higher priority one.
func Resolve(cmd action.MotorCommand, r sensing.Reading, behaviors ...Behavior) action.MotorCommand {
	result := cmd
	for _, b := range behaviors {
		if candidate, ok := b.Evaluate(cmd, r); ok {
			result = candidate
		}
	}
	return result
}

// Actuator applies a command to the wheels.
type Actuator interface {
	Apply(cmd action.MotorCommand)
}

// Motors is the stepper driver capability: acceleration and speed for both
// wheels.
type Motors interface {
	SetAcceleration(left, right uint16)
	Run(left, right int16)
}

// MotorActuator applies commands to a Motors driver, acceleration first.
type MotorActuator struct {
	Motors Motors
}

func (m MotorActuator) Apply(cmd action.MotorCommand) {
	m.Motors.SetAcceleration(cmd.AccelL, cmd.AccelR)
	m.Motors.Run(cmd.SpeedL, cmd.SpeedR)
}

// Stage only passes a command on to the actuator when it differs from the
// last one issued.  Re-issuing an identical command would restart the
// driver's acceleration ramp and make the wheels jitter.
//
// previous is only written by Act.
type Stage struct {
	actuator Actuator
	previous action.MotorCommand

	issued int
}

func NewStage(actuator Actuator) *Stage {
	return &Stage{
		actuator: actuator,
		previous: action.StartupCommand(),
	}
}

// Act issues the candidate if it has changed and reports whether it did.
func (s *Stage) Act(candidate action.MotorCommand) bool {
	if candidate.Equal(s.previous) {
		return false
	}
	fmt.Println("ACT:", candidate)
	s.actuator.Apply(candidate)
	s.previous = candidate
	s.issued++
	return true
}

// Previous returns the last command issued.
func (s *Stage) Previous() action.MotorCommand {
	return s.previous
}

// Issued returns the number of commands passed to the actuator.
func (s *Stage) Issued() int {
	return s.issued
}
