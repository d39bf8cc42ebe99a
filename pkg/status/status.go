package status

import "github.com/tigerbot-team/linebot/pkg/action"

// Display is the status screen.
type Display interface {
	Clear()
	Print(text string)
	PrintAt(row, col int, text string)
}

const unknownStateLine = "Unknown state!"

var stateLines = map[action.State]string{
	action.Startup:    "Starting...",
	action.Exploring:  "Exploring...",
	action.LineFollow: "Following line...",
}

// Line returns the status text for a state.  States without their own text
// get a generic message rather than garbage.
func Line(s action.State) string {
	if line, ok := stateLines[s]; ok {
		return line
	}
	return unknownStateLine
}

// Reporter redraws the status screen when the robot's state changes.  Startup
// is always announced.  Redrawing on every pass would make the screen flicker.
type Reporter struct {
	display Display
	shown   action.State
}

func NewReporter(display Display) *Reporter {
	return &Reporter{
		display: display,
		shown:   action.Startup,
	}
}

// Report redraws if needed and returns whether it did.
func (r *Reporter) Report(cmd action.MotorCommand) bool {
	if cmd.State == r.shown && cmd.State != action.Startup {
		return false
	}
	r.display.Clear()
	r.display.Print(Line(cmd.State) + "\n")
	r.shown = cmd.State
	return true
}
