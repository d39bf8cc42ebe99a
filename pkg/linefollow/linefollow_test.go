package linefollow

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tigerbot-team/linebot/pkg/action"
	"github.com/tigerbot-team/linebot/pkg/pid"
	"github.com/tigerbot-team/linebot/pkg/sensing"
)

type recordingAnnotator struct {
	notes []string
}

func (r *recordingAnnotator) PrintAt(row, col int, text string) {
	if row != AnnotationRow || col != 0 {
		panic("annotation written to the wrong place")
	}
	r.notes = append(r.notes, strings.TrimSpace(text))
}

func (r *recordingAnnotator) last() string {
	if len(r.notes) == 0 {
		return ""
	}
	return r.notes[len(r.notes)-1]
}

func newTestBehavior() (*Behavior, *pid.Controller, *recordingAnnotator) {
	ctrl := pid.New(pid.DefaultConfig())
	notes := &recordingAnnotator{}
	return New(DefaultConfig(), ctrl, notes), ctrl, notes
}

func expectCommand(t *testing.T, actual, expected action.MotorCommand) {
	t.Helper()
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("Unexpected command (-want +got):\n%s", diff)
	}
}

func evaluate(b *Behavior, cmd action.MotorCommand, left, right float64) action.MotorCommand {
	out, ok := b.Evaluate(cmd, sensing.Reading{LeftLine: left, RightLine: right})
	if !ok {
		panic("line follow should always produce a command")
	}
	return out
}

func TestRightOffTargetLowShiftsLeft(t *testing.T) {
	b, _, notes := newTestBehavior()
	in := action.MotorCommand{AccelL: 200, AccelR: 300}

	// PID(4.5, 2.0) on a fresh controller = 0.3*2.5 + 0.7*2.5 + 0.03*2.5 = 2.575.
	out := evaluate(b, in, 5.0, 2.0)

	expectCommand(t, out, action.MotorCommand{
		State:  action.LineFollow,
		SpeedL: 97,
		SpeedR: 102,
		AccelL: 200,
		AccelR: 300,
	})
	if notes.last() != "shift left R" {
		t.Errorf("Expected 'shift left R', got %q", notes.last())
	}
}

func TestRightPriorityRegardlessOfLeft(t *testing.T) {
	for _, left := range []float64{0, 4.0, 4.5, 4.9, 5.0} {
		b, ctrl, notes := newTestBehavior()
		out := evaluate(b, action.StartupCommand(), left, 2.0)
		if notes.last() != "shift left R" {
			t.Errorf("left=%v: expected 'shift left R', got %q", left, notes.last())
		}
		if out.SpeedL != 97 || out.SpeedR != 102 {
			t.Errorf("left=%v: unexpected speeds %v", left, out)
		}
		if integral, _ := ctrl.State(); integral != 2.5 {
			t.Errorf("left=%v: expected a single PID update, integral=%v", left, integral)
		}
	}
}

func TestRightOffTargetHighShiftsRight(t *testing.T) {
	b, _, notes := newTestBehavior()
	// adjustment = -0.5 * 1.03 = -0.515
	out := evaluate(b, action.StartupCommand(), 2.0, 5.0)
	expectCommand(t, out, action.MotorCommand{State: action.LineFollow, SpeedL: 99, SpeedR: 100})
	if notes.last() != "shift right" {
		t.Errorf("Expected 'shift right', got %q", notes.last())
	}
}

func TestLeftOffTargetLowWhileRightCentred(t *testing.T) {
	b, _, notes := newTestBehavior()
	// adjustment = 0.5 * 1.03 = 0.515, applied with inverted polarity.
	out := evaluate(b, action.StartupCommand(), 4.0, 4.5)
	expectCommand(t, out, action.MotorCommand{State: action.LineFollow, SpeedL: 100, SpeedR: 99})
	if notes.last() != "shift right AL" {
		t.Errorf("Expected 'shift right AL', got %q", notes.last())
	}
}

func TestLeftOffTargetHighWhileRightCentred(t *testing.T) {
	b, _, notes := newTestBehavior()
	// adjustment = -0.4 * 1.03 = -0.412
	out := evaluate(b, action.StartupCommand(), 4.9, 4.5)
	expectCommand(t, out, action.MotorCommand{State: action.LineFollow, SpeedL: 100, SpeedR: 99})
	if notes.last() != "shift left AL" {
		t.Errorf("Expected 'shift left AL', got %q", notes.last())
	}
}

func TestDeadBandEdgesAreOffTarget(t *testing.T) {
	b, _, notes := newTestBehavior()
	evaluate(b, action.StartupCommand(), 4.5, 4.3)
	if notes.last() != "shift left R" {
		t.Errorf("4.3 should be off target, got %q", notes.last())
	}
	evaluate(b, action.StartupCommand(), 4.5, 4.7)
	if notes.last() != "shift right" {
		t.Errorf("4.7 should be off target, got %q", notes.last())
	}
	evaluate(b, action.StartupCommand(), 4.31, 4.69)
	if notes.last() != "straight" {
		t.Errorf("Values inside the band should be centred, got %q", notes.last())
	}
}

func TestBothCentredCruises(t *testing.T) {
	b, ctrl, notes := newTestBehavior()

	// Wind the controller up first; cruise must not depend on it.
	for i := 0; i < 20; i++ {
		evaluate(b, action.StartupCommand(), 5.0, 0.0)
	}
	integralBefore, _ := ctrl.State()

	in := action.MotorCommand{State: action.Startup, SpeedL: 7, SpeedR: -7, AccelL: 50, AccelR: 60}
	out := evaluate(b, in, 4.5, 4.4)
	expectCommand(t, out, action.MotorCommand{State: action.LineFollow, SpeedL: 30, SpeedR: 30, AccelL: 50, AccelR: 60})
	if notes.last() != "straight" {
		t.Errorf("Expected 'straight', got %q", notes.last())
	}
	if integralAfter, _ := ctrl.State(); integralAfter != integralBefore {
		t.Errorf("Cruise with distinct readings should not touch the PID: %v -> %v", integralBefore, integralAfter)
	}

	out = evaluate(b, in, 4.5, 4.5)
	expectCommand(t, out, action.MotorCommand{State: action.LineFollow, SpeedL: 30, SpeedR: 30, AccelL: 50, AccelR: 60})
}

func TestEqualOffTargetReadingsRunBothPaths(t *testing.T) {
	b, ctrl, notes := newTestBehavior()
	out := evaluate(b, action.StartupCommand(), 2.0, 2.0)

	// Second update: error 2.5, integral 5.0, derivative 0 -> 4.25.
	expectCommand(t, out, action.MotorCommand{State: action.LineFollow, SpeedL: 104, SpeedR: 95})
	if diff := cmp.Diff([]string{"shift left R", "shift right AL"}, notes.notes); diff != "" {
		t.Errorf("Unexpected annotations (-want +got):\n%s", diff)
	}
	if integral, _ := ctrl.State(); integral != 5.0 {
		t.Errorf("Expected two PID updates, integral=%v", integral)
	}
}

// windUp drives a large positive integral into the controller.
func windUp(b *Behavior) {
	for i := 0; i < 40; i++ {
		evaluate(b, action.StartupCommand(), 5.0, 0.0)
	}
}

func TestRightPathFloors(t *testing.T) {
	b, _, _ := newTestBehavior()
	windUp(b)
	out := evaluate(b, action.StartupCommand(), 5.0, 0.0)
	if out.SpeedL != 3 {
		t.Errorf("Expected left speed floored to 3, got %v", out)
	}

	b, _, _ = newTestBehavior()
	windUp(b)
	out = evaluate(b, action.StartupCommand(), 2.0, 5.0)
	if out.SpeedR != 3 {
		t.Errorf("Expected right speed floored to 3, got %v", out)
	}
}

func TestLeftPathFloors(t *testing.T) {
	b, _, notes := newTestBehavior()
	windUp(b)
	out := evaluate(b, action.StartupCommand(), 4.0, 4.5)
	if out.SpeedR != 5 || notes.last() != "shift right AL" {
		t.Errorf("Expected right speed floored to 5, got %v (%q)", out, notes.last())
	}

	b, _, notes = newTestBehavior()
	windUp(b)
	out = evaluate(b, action.StartupCommand(), 4.9, 4.5)
	if out.SpeedL != 5 || notes.last() != "shift left AL" {
		t.Errorf("Expected left speed floored to 5, got %v (%q)", out, notes.last())
	}
}

func TestAnnotationPadded(t *testing.T) {
	var raw []string
	b := New(DefaultConfig(), pid.New(pid.DefaultConfig()), annotatorFunc(func(row, col int, text string) {
		raw = append(raw, text)
	}))
	evaluate(b, action.StartupCommand(), 4.5, 4.5)
	if len(raw) != 1 || len(raw[0]) != annotationLen {
		t.Errorf("Expected one padded annotation, got %q", raw)
	}
}

func TestNoAnnotator(t *testing.T) {
	b := New(DefaultConfig(), pid.New(pid.DefaultConfig()), nil)
	evaluate(b, action.StartupCommand(), 5.0, 2.0)
}

func TestNaNPositionPanics(t *testing.T) {
	b, _, _ := newTestBehavior()
	defer func() {
		if recover() == nil {
			t.Error("Expected a panic when the position matches neither sensor")
		}
	}()
	evaluate(b, action.StartupCommand(), math.NaN(), 4.5)
}

func TestToSpeed(t *testing.T) {
	for _, c := range []struct {
		in       float64
		expected int16
	}{
		{97.425, 97},
		{-0.9, 0},
		{-25.35, -25},
		{40000, math.MaxInt16},
		{-40000, math.MinInt16},
		{math.Inf(1), math.MaxInt16},
		{math.NaN(), 0},
	} {
		if s := toSpeed(c.in); s != c.expected {
			t.Errorf("toSpeed(%v) = %d, expected %d", c.in, s, c.expected)
		}
	}
}

type annotatorFunc func(row, col int, text string)

func (f annotatorFunc) PrintAt(row, col int, text string) {
	f(row, col, text)
}
