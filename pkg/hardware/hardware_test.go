package hardware

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tigerbot-team/linebot/pkg/clock"
	"github.com/tigerbot-team/linebot/pkg/sensing"
	"github.com/tigerbot-team/linebot/pkg/stepperboard"
)

type recordingMotors struct {
	accels [][2]uint16
	speeds [][2]int16
}

func (r *recordingMotors) SetAcceleration(left, right uint16) {
	r.accels = append(r.accels, [2]uint16{left, right})
}

func (r *recordingMotors) Run(left, right int16) {
	r.speeds = append(r.speeds, [2]int16{left, right})
}

func (r *recordingMotors) Close() error {
	return nil
}

func TestDefaultAccelFillsZeros(t *testing.T) {
	m := &recordingMotors{}
	d := &defaultAccel{Motors: m, left: 800, right: 600}
	d.SetAcceleration(0, 0)
	d.SetAcceleration(100, 0)
	d.SetAcceleration(5, 7)
	d.Run(97, 102)

	if diff := cmp.Diff([][2]uint16{{800, 600}, {100, 600}, {5, 7}}, m.accels); diff != "" {
		t.Errorf("Unexpected accelerations (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][2]int16{{97, 102}}, m.speeds); diff != "" {
		t.Errorf("Speeds should pass through (-want +got):\n%s", diff)
	}
}

func TestOpenMotorsRejectsUnknownDriver(t *testing.T) {
	cfg := DefaultConfig().Motors
	cfg.Driver = "can"
	if _, err := OpenMotors(cfg); err == nil {
		t.Error("Expected an error for an unknown driver")
	}
}

func TestOpenDummyMotors(t *testing.T) {
	cfg := DefaultConfig().Motors
	cfg.Driver = DriverDummy
	m, err := OpenMotors(cfg)
	if err != nil {
		t.Fatal(err)
	}
	m.SetAcceleration(0, 0)
	m.Run(30, 30)
}

func TestDummySensorsReadSetpoint(t *testing.T) {
	sensorsCfg := sensing.DefaultConfig()
	d := NewDummy(sensorsCfg, 4.5)
	c := d.Collaborators(&clock.Manual{})

	for _, ch := range []int{sensorsCfg.LeftChannel, sensorsCfg.RightChannel} {
		raw, err := c.Sensors.ReadChannel(ch)
		if err != nil {
			t.Fatal(err)
		}
		v := sensing.Scale(raw, sensorsCfg.FullScale, sensorsCfg.MaxCode)
		if v < 4.49 || v > 4.51 {
			t.Errorf("Channel %d reads %.3fV, expected ~4.5V", ch, v)
		}
	}
}

type fakeStatus struct {
	status stepperboard.StatusFlag
	err    error
}

func (f fakeStatus) Status() (stepperboard.StatusFlag, error) {
	return f.status, f.err
}

func TestReportBoardStatus(t *testing.T) {
	for _, expected := range []stepperboard.StatusFlag{
		0,
		stepperboard.StatusFault,
		stepperboard.StatusWatchdogExpired | stepperboard.StatusRamping,
	} {
		status, err := reportBoardStatus(fakeStatus{status: expected})
		if err != nil || status != expected {
			t.Errorf("Expected %v, got %v (%v)", expected, status, err)
		}
	}
	if _, err := reportBoardStatus(fakeStatus{err: errors.New("nack")}); err == nil {
		t.Error("Expected the read error to be returned")
	}
}

func TestBoardUnwrapsOnlyStepperBoard(t *testing.T) {
	cfg := DefaultConfig().Motors
	cfg.Driver = DriverDummy
	m, err := OpenMotors(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := Board(m); ok {
		t.Error("The dummy driver is not a stepper board")
	}
	if _, ok := Board(&defaultAccel{Motors: &recordingMotors{}}); ok {
		t.Error("A recording driver is not a stepper board")
	}
}
