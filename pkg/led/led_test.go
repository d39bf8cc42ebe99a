package led

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/periph/conn/gpio"
)

type fakePin struct {
	levels []gpio.Level
	err    error
}

func (f *fakePin) Out(l gpio.Level) error {
	if f.err != nil {
		return f.err
	}
	f.levels = append(f.levels, l)
	return nil
}

func TestToggleAlternates(t *testing.T) {
	p := &fakePin{}
	l := &LED{pin: p, name: "GPIO17"}
	l.Toggle()
	l.Toggle()
	l.Toggle()
	if diff := cmp.Diff([]gpio.Level{gpio.High, gpio.Low, gpio.High}, p.levels); diff != "" {
		t.Errorf("Unexpected pin levels (-want +got):\n%s", diff)
	}
}

func TestFailedWriteKeepsState(t *testing.T) {
	p := &fakePin{err: errors.New("pin busy")}
	l := &LED{pin: p, name: "GPIO17"}
	l.Toggle()
	if l.on {
		t.Error("LED should still be off after a failed write")
	}
}
