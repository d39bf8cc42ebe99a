package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/tigerbot-team/linebot/pkg/clock"
	"github.com/tigerbot-team/linebot/pkg/config"
	"github.com/tigerbot-team/linebot/pkg/control"
	"github.com/tigerbot-team/linebot/pkg/hardware"
)

var CLI struct {
	Config      string `help:"Config file to load over the defaults." default:"/cfg/linebot.yaml" type:"path"`
	WriteConfig string `help:"Where to dump the effective config; empty to skip." default:"/cfg/linebot-in-use.yaml"`
	Dummy       bool   `help:"Use dummy hardware that prints instead of driving anything."`
	Verbose     bool   `help:"Log every sensor sample."`

	IgnoreMissingHardware bool `help:"Fall back to dummy hardware if a device fails to open." env:"IGNORE_MISSING_HARDWARE"`
}

func main() {
	fmt.Println("---- linebot ----")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	kong.Parse(&CLI,
		kong.Name("linebot"),
		kong.Description("Line-following controller."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Println("Failed to load config:", err)
		os.Exit(1)
	}
	if CLI.WriteConfig != "" {
		if err := cfg.WriteInUse(CLI.WriteConfig); err != nil {
			fmt.Println("Failed to write in-use config, ignoring:", err)
		}
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	hw, err := openHardware(cfg)
	if err != nil {
		fmt.Println("Failed to open hardware:", err)
		os.Exit(1)
	}
	defer func() {
		fmt.Println("Zeroing motors for shut down")
		hw.Shutdown()
		time.Sleep(100 * time.Millisecond)
	}()
	hw.Start(ctx)
	hw.PlaySound(cfg.Hardware.StartupSound)

	loop := control.NewLineFollower(cfg.Settings, hw.Collaborators(clock.NewSystem()))
	loop.SetVerbose(CLI.Verbose)
	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		fmt.Println("Control loop failed:", err)
	}
}

func openHardware(cfg config.Config) (hardware.Interface, error) {
	dummy := func() hardware.Interface {
		return hardware.NewDummy(cfg.Sensors, cfg.Line.Setpoint)
	}
	if CLI.Dummy {
		fmt.Println("Using dummy hardware")
		return dummy(), nil
	}
	hw, err := hardware.New(cfg.Hardware, cfg.Sensors)
	if err != nil {
		if CLI.IgnoreMissingHardware {
			fmt.Println("Failed to open hardware, using dummy:", err)
			return dummy(), nil
		}
		return nil, err
	}
	return hw, nil
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancelFunc()
		// Give the loop a chance to stop the motors before forcing an exit.
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
