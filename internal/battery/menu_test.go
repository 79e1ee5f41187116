package battery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMenu(t *testing.T) {
	devices := []DeviceState{
		{LastSample: DeviceSample{Index: 0, Serial: "LHR-1", Class: "Controller", Charging: true, Level: 0.8}},
		{LastSample: DeviceSample{Index: 1, Serial: "LHR-2", Class: "Tracker", Level: 0.456}},
	}
	menu := BuildMenu(devices, NewMuteSet("LHR-2"), MenuSettings{UpdateInterval: 10, PlaySound: true, Desktop: true})

	require.Len(t, menu.Items, 9)
	assert.Equal(t, MenuItem{Kind: MenuDevice, Key: "LHR-1", Label: "Mute LHR-1 (Controller): 80% (charging)"}, menu.Items[0])
	assert.Equal(t, MenuItem{Kind: MenuDevice, Key: "LHR-2", Label: "Mute LHR-2 (Tracker): 46% (discharging)", Checked: true}, menu.Items[1])
	assert.Equal(t, "play_sound", menu.Items[2].Key)
	assert.True(t, menu.Items[2].Checked)
	assert.False(t, menu.Items[4].Checked)
	assert.Equal(t, "Update every 10s", menu.Items[7].Label)
	assert.Equal(t, "exit", menu.Items[8].Key)
}

func TestBuildMenuNoDevices(t *testing.T) {
	menu := BuildMenu(nil, NewMuteSet(), MenuSettings{UpdateInterval: 1})
	assert.Equal(t, "No devices connected", menu.Items[0].Label)
}

func TestEventText(t *testing.T) {
	e := NewDischargeEvent(DeviceSample{Serial: "LHR-1", Class: "HMD", Level: 0.5})
	assert.Equal(t, DischargeStarted, e.Kind)
	assert.Equal(t, "LHR-1", e.DeviceSerial)
	assert.Equal(t, "Device LHR-1 (HMD) just started discharging!", e.Body())
	assert.NotEmpty(t, e.ID)

	s := NewMonitorStartedEvent()
	assert.Equal(t, "Monitor started", s.Title())
	assert.Equal(t, "Battery monitor has started.", s.Body())
	assert.NotEqual(t, e.ID, s.ID)
}
