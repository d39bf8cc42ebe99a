package hardware

import (
	"context"
	"fmt"

	"github.com/tigerbot-team/linebot/pkg/clock"
	"github.com/tigerbot-team/linebot/pkg/control"
	"github.com/tigerbot-team/linebot/pkg/led"
	"github.com/tigerbot-team/linebot/pkg/mcp3008"
	"github.com/tigerbot-team/linebot/pkg/screen"
	"github.com/tigerbot-team/linebot/pkg/sensing"
	"github.com/tigerbot-team/linebot/pkg/stepperboard"
)

// Dummy stands in for the robot on a bench machine: both line sensors read
// a fixed voltage and everything else is printed.
type Dummy struct {
	adc    mcp3008.Interface
	motors Motors
}

func NewDummy(sensorsCfg sensing.Config, volts float64) *Dummy {
	code := uint16(volts / sensorsCfg.FullScale * sensorsCfg.MaxCode)
	return &Dummy{
		adc: mcp3008.Dummy(map[int]uint16{
			sensorsCfg.LeftChannel:  code,
			sensorsCfg.RightChannel: code,
		}),
		motors: stepperboard.Dummy(),
	}
}

var _ Interface = (*Dummy)(nil)

func (d *Dummy) Start(ctx context.Context) {
	fmt.Println("DHW: Start")
}

func (d *Dummy) Collaborators(clk clock.Clock) control.Collaborators {
	fmt.Println("DHW: Collaborators")
	return control.Collaborators{
		Clock:     clk,
		Sensors:   d.adc,
		Indicator: led.Dummy(),
		Motors:    d.motors,
		Display:   screen.Dummy(),
	}
}

func (d *Dummy) PlaySound(path string) {
	fmt.Printf("DHW: PlaySound path=%v\n", path)
}

func (d *Dummy) Shutdown() {
	fmt.Println("DHW: Shutdown")
	d.motors.Run(0, 0)
}
