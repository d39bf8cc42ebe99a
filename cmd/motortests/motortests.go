package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/tigerbot-team/linebot/pkg/config"
	"github.com/tigerbot-team/linebot/pkg/hardware"
)

var CLI struct {
	Config string `help:"Config file to load over the defaults." default:"/cfg/linebot.yaml" type:"path"`
	Driver string `help:"Override the configured motor driver (i2c, serial or dummy)."`
}

func main() {
	fmt.Println("---- Motor tests ----")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	kong.Parse(&CLI, kong.Name("motortests"), kong.UsageOnError())

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Println("Failed to load config", err)
		os.Exit(1)
	}
	if CLI.Driver != "" {
		cfg.Hardware.Motors.Driver = CLI.Driver
	}

	motors, err := hardware.OpenMotors(cfg.Hardware.Motors)
	if err != nil {
		fmt.Println("Failed to open motors", err)
		os.Exit(1)
	}
	defer func() {
		fmt.Println("Zeroing motors for shut down")
		motors.Run(0, 0)
		_ = motors.Close()
		time.Sleep(100 * time.Millisecond)
	}()

	fmt.Println(
		`Commands:
    r <left> <right>   run at speeds (steps/s)
    a <left> <right>   set acceleration (steps/s²)
    s                  stop
    w <ms>             set the board watchdog (0 disables; i2c only)
    st                 show board status and battery (i2c only)
    q                  quit`)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "r":
			if len(parts) < 3 {
				fmt.Println("Not enough parameters")
				continue
			}
			l, err := strconv.ParseInt(parts[1], 10, 16)
			if err != nil {
				fmt.Printf("Failed to parse int: %v\n", err)
				continue
			}
			r, err := strconv.ParseInt(parts[2], 10, 16)
			if err != nil {
				fmt.Printf("Failed to parse int: %v\n", err)
				continue
			}
			motors.Run(int16(l), int16(r))
		case "a":
			if len(parts) < 3 {
				fmt.Println("Not enough parameters")
				continue
			}
			l, err := strconv.ParseUint(parts[1], 10, 16)
			if err != nil {
				fmt.Printf("Failed to parse uint: %v\n", err)
				continue
			}
			r, err := strconv.ParseUint(parts[2], 10, 16)
			if err != nil {
				fmt.Printf("Failed to parse uint: %v\n", err)
				continue
			}
			motors.SetAcceleration(uint16(l), uint16(r))
		case "s":
			motors.Run(0, 0)
		case "w":
			board, ok := hardware.Board(motors)
			if !ok {
				fmt.Println("Watchdog needs the i2c driver")
				continue
			}
			if len(parts) < 2 {
				fmt.Println("Not enough parameters")
				continue
			}
			ms, err := strconv.ParseUint(parts[1], 10, 16)
			if err != nil {
				fmt.Printf("Failed to parse uint: %v\n", err)
				continue
			}
			if err := board.SetWatchdog(time.Duration(ms) * time.Millisecond); err != nil {
				fmt.Println("Failed to set watchdog:", err)
			}
		case "st":
			board, ok := hardware.Board(motors)
			if !ok {
				fmt.Println("Status needs the i2c driver")
				continue
			}
			status, err := board.Status()
			if err != nil {
				fmt.Println("Failed to read status:", err)
				continue
			}
			volts, err := board.BattVolts()
			if err != nil {
				fmt.Println("Failed to read battery:", err)
				continue
			}
			fmt.Printf("Status: %v  Battery: %.2fV\n", status, volts)
		case "q":
			return
		default:
			fmt.Println("Unknown command")
		}
	}
}
