package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/TheCacophonyProject/vr-battery-monitor/internal/battery"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/config"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/notify"
	"github.com/TheCacophonyProject/vr-battery-monitor/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatched struct {
	event     battery.NotificationEvent
	enabled   notify.TransportSet
	playSound bool
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []dispatched
}

func (d *recordingDispatcher) Dispatch(event battery.NotificationEvent, enabled notify.TransportSet, playSound bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, dispatched{event, enabled, playSound})
}

func (d *recordingDispatcher) kinds() []battery.EventKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	kinds := []battery.EventKind{}
	for _, s := range d.sent {
		kinds = append(kinds, s.event.Kind)
	}
	return kinds
}

func (d *recordingDispatcher) last() dispatched {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sent[len(d.sent)-1]
}

func newTestMonitor(t *testing.T, src source.Source) (*Monitor, *recordingDispatcher) {
	d := &recordingDispatcher{}
	m := New(src, config.Load(t.TempDir()), d)
	m.step = time.Millisecond
	m.intervalUnit = time.Millisecond
	return m, d
}

func replay(ticks ...source.Tick) *source.Replay {
	return source.NewReplay(&source.Scenario{Ticks: ticks})
}

func devices(samples ...battery.DeviceSample) source.Tick {
	return source.Tick{Devices: samples}
}

func controller(serial string, charging bool, level float64) battery.DeviceSample {
	return battery.DeviceSample{Index: 1, Serial: serial, Class: "Controller", Charging: charging, Level: level}
}

func TestMonitorStartedOnce(t *testing.T) {
	m, d := newTestMonitor(t, replay(
		devices(controller("A", false, 0.5)),
		devices(controller("A", false, 0.5)),
		devices(controller("A", false, 0.5)),
	))
	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, []battery.EventKind{battery.MonitorStarted}, d.kinds())
}

func TestUnplugNotifies(t *testing.T) {
	m, d := newTestMonitor(t, replay(
		devices(controller("A", true, 0.5)),
		devices(controller("A", false, 0.5)),
	))
	require.NoError(t, m.Run(context.Background()))
	require.Equal(t, []battery.EventKind{battery.MonitorStarted, battery.DischargeStarted}, d.kinds())

	event := d.last().event
	assert.Equal(t, "A", event.DeviceSerial)
	assert.Equal(t, "Device A (Controller) just started discharging!", event.Body())
	assert.NotEmpty(t, event.ID)
}

func TestLevelTurnsDown(t *testing.T) {
	m, d := newTestMonitor(t, replay(
		devices(controller("A", false, 0.5)),
		devices(controller("A", false, 0.6)),
		devices(controller("A", false, 0.55)),
	))
	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, []battery.EventKind{battery.MonitorStarted, battery.DischargeStarted}, d.kinds())
}

func TestQuitForgetsDevicesAndAnnouncesAgain(t *testing.T) {
	m, d := newTestMonitor(t, replay(
		devices(controller("A", true, 0.5)),
		source.Tick{Quit: true, Devices: []battery.DeviceSample{controller("A", true, 0.5)}},
		devices(controller("A", false, 0.5)),
	))
	require.NoError(t, m.Run(context.Background()))
	// The device is new after reconnecting so unplugging isn't noticed.
	assert.Equal(t, []battery.EventKind{battery.MonitorStarted, battery.MonitorStarted}, d.kinds())
	assert.Len(t, m.Devices(), 1)
}

func TestQuitOnLastTickIsHandled(t *testing.T) {
	m, d := newTestMonitor(t, replay(
		devices(controller("A", true, 0.5)),
		source.Tick{Quit: true, Devices: []battery.DeviceSample{controller("A", true, 0.5)}},
	))
	require.NoError(t, m.Run(context.Background()))
	assert.Empty(t, m.Devices())
	assert.Equal(t, []battery.EventKind{battery.MonitorStarted}, d.kinds())
}

func TestUnavailableClearsRegistry(t *testing.T) {
	m, d := newTestMonitor(t, replay(
		devices(controller("A", true, 0.5)),
		source.Tick{Unavailable: true},
	))
	m.Tick()
	assert.Len(t, m.Devices(), 1)
	m.Tick()
	assert.Empty(t, m.Devices())
	assert.Equal(t, []battery.EventKind{battery.MonitorStarted}, d.kinds())
}

func TestMutedDeviceIsNotNotified(t *testing.T) {
	m, d := newTestMonitor(t, replay(
		devices(controller("A", true, 0.5)),
		devices(controller("A", false, 0.5)),
		devices(controller("A", true, 0.5)),
		devices(controller("A", false, 0.5)),
	))
	require.NoError(t, m.store.SetMuted("A", true))

	m.Tick()
	m.Tick()
	assert.Equal(t, []battery.EventKind{battery.MonitorStarted}, d.kinds())

	require.NoError(t, m.store.SetMuted("A", false))
	m.Tick()
	m.Tick()
	assert.Equal(t, []battery.EventKind{battery.MonitorStarted, battery.DischargeStarted}, d.kinds())
}

func TestSettingsSelectTransports(t *testing.T) {
	m, d := newTestMonitor(t, replay(devices()))
	require.NoError(t, m.store.SetNotification("desktop", false))
	require.NoError(t, m.store.SetNotification("mqtt", true))
	require.NoError(t, m.store.SetNotification("play_sound", false))

	m.Tick()
	sent := d.last()
	assert.False(t, sent.enabled.Has(notify.KindDesktop))
	assert.True(t, sent.enabled.Has(notify.KindMQTT))
	assert.False(t, sent.enabled.Has(notify.KindOVRT))
	assert.False(t, sent.playSound)
}

func TestMenuShowsDevices(t *testing.T) {
	m, _ := newTestMonitor(t, replay(devices(controller("A", true, 0.42))))
	assert.Equal(t, "No devices connected", m.Menu().Items[0].Label)

	m.Tick()
	require.NoError(t, m.store.SetMuted("A", true))
	item := m.Menu().Items[0]
	assert.Equal(t, "Mute A (Controller): 42% (charging)", item.Label)
	assert.True(t, item.Checked)
}

// endless is a source that always has one device and counts event drains.
type endless struct {
	mu     sync.Mutex
	drains int
}

func (e *endless) Initialize() bool { return false }

func (e *endless) Poll() ([]battery.DeviceSample, error) {
	return []battery.DeviceSample{controller("A", true, 1)}, nil
}

func (e *endless) DrainEvents() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drains++
	return nil
}

func (e *endless) Close() error { return nil }

func (e *endless) drained() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drains
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &endless{}
	m, _ := newTestMonitor(t, src)
	m.intervalUnit = time.Second
	m.step = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- m.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
	assert.Greater(t, src.drained(), 1, "events should be handled while waiting")
}

func TestEnabledTransports(t *testing.T) {
	enabled := enabledTransports(config.Notifications{Desktop: true, Events: true})
	assert.True(t, enabled.Has(notify.KindDesktop))
	assert.True(t, enabled.Has(notify.KindEvents))
	assert.False(t, enabled.Has(notify.KindOVRT))
	assert.False(t, enabled.Has(notify.KindMQTT))
}
