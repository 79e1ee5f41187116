/*
vr-battery-monitor - Notifies when VR devices start discharging
Copyright (C) 2024, The Cacophony Project

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package ctl controls a running battery monitor over D-Bus.
package ctl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/TheCacophonyProject/vr-battery-monitor/internal/battery"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/logging"
	"github.com/alexflint/go-arg"
	"github.com/godbus/dbus/v5"
)

const (
	dbusName = "org.cacophony.VRBatteryMonitor"
	dbusPath = "/org/cacophony/VRBatteryMonitor"
)

type Args struct {
	List   *subcommand `arg:"subcommand:list" help:"List the tracked devices."`
	Menu   *subcommand `arg:"subcommand:menu" help:"Show the control menu."`
	Mute   *serialArgs `arg:"subcommand:mute" help:"Stop notifications for a device."`
	Unmute *serialArgs `arg:"subcommand:unmute" help:"Resume notifications for a device."`
	Toggle *serialArgs `arg:"subcommand:toggle" help:"Toggle muting of a device."`
	Set    *setArgs    `arg:"subcommand:set" help:"Change a setting, e.g. 'set desktop false' or 'set update_interval 30'."`
	Quit   *subcommand `arg:"subcommand:quit" help:"Stop the monitor."`
	logging.LogArgs
}

type subcommand struct{}

type serialArgs struct {
	Serial string `arg:"positional,required"`
}

type setArgs struct {
	Name  string `arg:"positional,required"`
	Value string `arg:"positional,required"`
}

var (
	log     = logging.NewLogger("info")
	version = "<not set>"
)

var defaultArgs = Args{}

func (Args) Version() string {
	return version
}

func procArgs(input []string) (Args, error) {
	args := defaultArgs

	parser, err := arg.NewParser(arg.Config{}, &args)
	if err != nil {
		return Args{}, err
	}
	err = parser.Parse(input)
	if errors.Is(err, arg.ErrHelp) {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if errors.Is(err, arg.ErrVersion) {
		fmt.Println(version)
		os.Exit(0)
	}
	if err == nil && parser.Subcommand() == nil {
		err = errors.New("no command given")
	}
	return args, err
}

func Run(inputArgs []string, ver string) error {
	version = ver
	args, err := procArgs(inputArgs)
	if err != nil {
		return fmt.Errorf("failed to parse args: %v", err)
	}
	log = logging.NewLogger(args.LogLevel)

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	return run(args, conn.Object(dbusName, dbusPath), os.Stdout)
}

func run(args Args, obj dbus.BusObject, out io.Writer) error {
	c := client{obj: obj}
	switch {
	case args.List != nil:
		devices, err := c.listDevices()
		if err != nil {
			return err
		}
		printDevices(out, devices)
	case args.Menu != nil:
		menu, err := c.menu()
		if err != nil {
			return err
		}
		printMenu(out, menu)
	case args.Mute != nil:
		return c.setMuted(args.Mute.Serial, true)
	case args.Unmute != nil:
		return c.setMuted(args.Unmute.Serial, false)
	case args.Toggle != nil:
		muted, err := c.toggleMute(args.Toggle.Serial)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s muted: %t\n", args.Toggle.Serial, muted)
	case args.Set != nil:
		return c.set(args.Set.Name, args.Set.Value)
	case args.Quit != nil:
		return c.call("Quit")
	}
	return nil
}

func printDevices(out io.Writer, devices []device) {
	if len(devices) == 0 {
		fmt.Fprintln(out, "No devices connected")
		return
	}
	for _, d := range devices {
		status := "discharging"
		if d.Charging {
			status = "charging"
		}
		muted := ""
		if d.Muted {
			muted = ", muted"
		}
		fmt.Fprintf(out, "%d\t%s\t%d%%\t%s (%s%s)\n",
			d.Index, d.Name, int(d.Level*100+0.5), status, d.Direction, muted)
	}
}

func printMenu(out io.Writer, menu battery.Menu) {
	for _, item := range menu.Items {
		switch item.Kind {
		case battery.MenuAction:
			fmt.Fprintf(out, "    %s\n", item.Label)
		default:
			check := " "
			if item.Checked {
				check = "x"
			}
			fmt.Fprintf(out, "[%s] %s\n", check, item.Label)
		}
	}
}

// parseSetting checks the value given for a setting.
func parseSetting(name, value string) (interface{}, error) {
	if name == "update_interval" {
		seconds, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("update_interval must be a whole number of seconds: %w", err)
		}
		return int32(seconds), nil
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false: %w", name, err)
	}
	return enabled, nil
}
