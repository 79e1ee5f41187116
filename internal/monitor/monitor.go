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

package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/TheCacophonyProject/vr-battery-monitor/internal/battery"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/config"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/metrics"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/notify"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/source"
)

// Dispatcher is where the monitor sends its notification events.
type Dispatcher interface {
	Dispatch(event battery.NotificationEvent, enabled notify.TransportSet, playSound bool)
}

// Monitor polls the source once per update interval. It owns the device
// registry; nothing else touches it.
type Monitor struct {
	source     source.Source
	store      *config.Store
	dispatcher Dispatcher
	registry   *battery.Registry

	// step is the longest the monitor goes without checking for runtime
	// events or cancellation while waiting for the next tick.
	step time.Duration
	// intervalUnit scales the configured update interval.
	intervalUnit time.Duration

	devices atomic.Pointer[[]battery.DeviceState]
}

func New(src source.Source, store *config.Store, dispatcher Dispatcher) *Monitor {
	m := &Monitor{
		source:       src,
		store:        store,
		dispatcher:   dispatcher,
		registry:     battery.NewRegistry(),
		step:         time.Second,
		intervalUnit: time.Second,
	}
	m.publishDevices()
	return m
}

func enabledTransports(n config.Notifications) notify.TransportSet {
	enabled := notify.TransportSet{}
	enabled[notify.KindDesktop] = n.Desktop
	enabled[notify.KindOVRT] = n.OVRT
	enabled[notify.KindMQTT] = n.MQTT
	enabled[notify.KindEvents] = n.Events
	return enabled
}

// Tick runs one poll of the source.
func (m *Monitor) Tick() {
	defer m.publishDevices()

	settings := m.store.Settings()
	enabled := enabledTransports(settings.Notifications)
	playSound := settings.Notifications.PlaySound

	if m.source.Initialize() {
		metrics.RuntimeConnects.Inc()
		log.Info("Connected to VR runtime")
		m.dispatcher.Dispatch(battery.NewMonitorStartedEvent(), enabled, playSound)
	}

	samples, err := m.source.Poll()
	if err != nil {
		if !errors.Is(err, source.ErrUnavailable) {
			log.Errorf("Failed to read devices: %v", err)
		}
		if m.registry.Len() > 0 {
			log.Info("VR runtime unavailable, forgetting devices")
		}
		m.registry.Clear()
		metrics.Ticks.WithLabelValues("unavailable").Inc()
		metrics.TrackedDevices.Set(0)
		return
	}
	metrics.Ticks.WithLabelValues("ok").Inc()
	metrics.SamplesReceived.Add(float64(len(samples)))

	mutes := m.store.MuteSet()
	for _, result := range m.registry.Update(samples) {
		if !result.DischargeStarted {
			continue
		}
		sample := result.State.LastSample
		if mutes.IsMuted(sample.Serial) {
			metrics.DischargeStarts.WithLabelValues("true").Inc()
			log.Infof("Device %s started discharging but is muted", sample.Name())
			continue
		}
		metrics.DischargeStarts.WithLabelValues("false").Inc()
		log.Infof("Device %s started discharging at %d%%", sample.Name(), sample.Percent())
		m.dispatcher.Dispatch(battery.NewDischargeEvent(sample), enabled, playSound)
	}
	metrics.TrackedDevices.Set(float64(m.registry.Len()))
}

// Run ticks until ctx is cancelled, or until a finite source runs out.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		m.Tick()
		if f, ok := m.source.(interface{ Done() bool }); ok && f.Done() {
			m.drainEvents()
			log.Info("Source has no more samples")
			return nil
		}
		interval := time.Duration(m.store.Settings().UpdateInterval) * m.intervalUnit
		if err := m.wait(ctx, interval); err != nil {
			return nil
		}
	}
}

// wait sleeps for d, handling runtime events at least every step.
func (m *Monitor) wait(ctx context.Context, d time.Duration) error {
	deadline := time.Now().Add(d)
	for {
		m.drainEvents()
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		timer := time.NewTimer(min(m.step, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// drainEvents handles pending runtime events, forgetting every device if
// the runtime is going away.
func (m *Monitor) drainEvents() {
	if err := m.source.DrainEvents(); errors.Is(err, source.ErrUnavailable) {
		log.Info("VR runtime is shutting down, forgetting devices")
		m.registry.Clear()
		metrics.TrackedDevices.Set(0)
		m.publishDevices()
	}
}

func (m *Monitor) publishDevices() {
	devices := m.registry.Devices()
	m.devices.Store(&devices)
}

// Devices returns the devices as of the end of the last tick. Safe to call
// from any goroutine.
func (m *Monitor) Devices() []battery.DeviceState {
	return *m.devices.Load()
}

func menuSettings(s config.Settings) battery.MenuSettings {
	return battery.MenuSettings{
		UpdateInterval: s.UpdateInterval,
		PlaySound:      s.Notifications.PlaySound,
		Desktop:        s.Notifications.Desktop,
		OVRT:           s.Notifications.OVRT,
		MQTT:           s.Notifications.MQTT,
		Events:         s.Notifications.Events,
	}
}

// Menu is the current control menu.
func (m *Monitor) Menu() battery.Menu {
	return battery.BuildMenu(m.Devices(), m.store.MuteSet(), menuSettings(m.store.Settings()))
}
