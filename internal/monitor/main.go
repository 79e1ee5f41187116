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
// Package monitor runs the battery monitor: it polls the VR runtime, tracks
// device charge trends and sends notifications when a device starts
// discharging.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TheCacophonyProject/vr-battery-monitor/internal/config"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/logging"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/metrics"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/notify"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/source"
	"github.com/alexflint/go-arg"
	"github.com/godbus/dbus/v5"
)

const appName = "VR Battery Monitor"

type Args struct {
	ConfigDir   string `arg:"-c,--config-dir" help:"Directory holding config.json."`
	Source      string `arg:"--source" help:"Where to read devices from: openvr or replay."`
	Scenario    string `arg:"--scenario" help:"Scenario file to play when using the replay source."`
	MetricsAddr string `arg:"--metrics-addr" help:"Address to serve prometheus metrics on, e.g. :9110. Disabled when empty."`
	Icon        string `arg:"--icon" help:"Icon used for desktop notifications."`
	NoService   bool   `arg:"--no-service" help:"Don't register the D-Bus control service."`
	logging.LogArgs
}

var (
	log     = logging.NewLogger("info")
	version = "<not set>"
)

var defaultArgs = Args{
	ConfigDir: config.DefaultDir(),
	Source:    source.KindOpenVR,
	Icon:      "battery-caution",
}

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
	return args, err
}

func setLogger(l *logging.Logger) {
	log = l
	config.SetLogger(l)
	source.SetLogger(l)
	notify.SetLogger(l)
	metrics.SetLogger(l)
}

// transports builds every transport that can be built. Which ones are used
// is decided per notification from the current settings.
func transports(settings config.Settings, icon string) []notify.Transport {
	ts := []notify.Transport{
		notify.NewDesktop(appName, icon),
		notify.NewOVRT(settings.OVRT.URL),
		notify.NewEvents(),
	}
	mqttConfig := notify.MQTTConfig{
		Broker:   settings.MQTT.Broker,
		Topic:    settings.MQTT.Topic,
		ClientID: settings.MQTT.ClientID,
	}
	if err := mqttConfig.Validate(); err != nil {
		log.Warnf("MQTT notifications unavailable: %v", err)
	} else {
		ts = append(ts, notify.NewMQTT(mqttConfig))
	}
	return ts
}

func Run(inputArgs []string, ver string) error {
	version = ver
	args, err := procArgs(inputArgs)
	if err != nil {
		return fmt.Errorf("failed to parse args: %v", err)
	}

	setLogger(logging.NewLogger(args.LogLevel))
	log.Infof("Running version: %s", version)

	src, err := source.New(args.Source, args.Scenario)
	if err != nil {
		return err
	}
	defer src.Close()

	store := config.Load(args.ConfigDir)
	log.Infof("Using config file %s", store.Path())
	if err := store.Watch(); err != nil {
		log.Warnf("Not watching config file for changes: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if args.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, args.MetricsAddr); err != nil {
				log.Errorf("Metrics server stopped: %v", err)
			}
		}()
	}

	dispatcher := notify.NewDispatcher(transports(store.Settings(), args.Icon)...)
	defer dispatcher.Close()

	m := New(src, store, dispatcher)

	if !args.NoService {
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			log.Warnf("No session bus, control service disabled: %v", err)
		} else {
			defer conn.Close()
			if err := startService(conn, &service{monitor: m, store: store, quit: stop}); err != nil {
				return err
			}
			log.Debug("Started D-Bus control service")
		}
	}

	log.Info("Monitoring device batteries")
	if err := m.Run(ctx); err != nil {
		return err
	}
	log.Info("Stopping")
	return nil
}
