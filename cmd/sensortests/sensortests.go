package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/tigerbot-team/linebot/pkg/config"
	"github.com/tigerbot-team/linebot/pkg/mcp3008"
	"github.com/tigerbot-team/linebot/pkg/sensing"
)

var CLI struct {
	Config   string        `help:"Config file to load over the defaults." default:"/cfg/linebot.yaml" type:"path"`
	Interval time.Duration `help:"Time between samples." default:"250ms"`
	All      bool          `help:"Print every ADC channel, not just the line sensors."`
}

func main() {
	kong.Parse(&CLI, kong.Name("sensortests"), kong.UsageOnError())

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Println("Failed to load config", err)
		os.Exit(1)
	}
	s := cfg.Sensors

	adc, err := mcp3008.New(s.SPIDevice)
	if err != nil {
		fmt.Println("Failed to open ADC", err)
		os.Exit(1)
	}
	defer adc.Close()

	read := func(ch int) string {
		raw, err := adc.ReadChannel(ch)
		if err != nil {
			return fmt.Sprintf("ch%d: %v", ch, err)
		}
		return fmt.Sprintf("ch%d: %4d %.2fV", ch, raw, sensing.Scale(raw, s.FullScale, s.MaxCode))
	}

	for range time.NewTicker(CLI.Interval).C {
		if CLI.All {
			for ch := 0; ch < mcp3008.NumChannels; ch++ {
				fmt.Print(read(ch), "  ")
			}
			fmt.Println()
			continue
		}
		fmt.Printf("L %s  R %s\n", read(s.LeftChannel), read(s.RightChannel))
	}
}
