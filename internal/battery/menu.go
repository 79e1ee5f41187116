package battery

import "fmt"

type MenuItemKind string

const (
	MenuDevice  MenuItemKind = "device"
	MenuSetting MenuItemKind = "setting"
	MenuAction  MenuItemKind = "action"
)

// MenuItem describes one entry of the control menu. Key identifies what a
// click should change: a device serial, a setting name or an action.
type MenuItem struct {
	Kind    MenuItemKind `json:"kind"`
	Key     string       `json:"key"`
	Label   string       `json:"label"`
	Checked bool         `json:"checked"`
}

type Menu struct {
	Items []MenuItem `json:"items"`
}

// MenuSettings are the user settings shown in the menu.
type MenuSettings struct {
	UpdateInterval int
	PlaySound      bool
	Desktop        bool
	OVRT           bool
	MQTT           bool
	Events         bool
}

// BuildMenu projects the tracked devices and settings into a menu. Device
// entries are checked when the device is muted.
func BuildMenu(devices []DeviceState, mutes MuteSet, settings MenuSettings) Menu {
	menu := Menu{}
	for _, d := range devices {
		s := d.LastSample
		status := "discharging"
		if s.Charging {
			status = "charging"
		}
		menu.Items = append(menu.Items, MenuItem{
			Kind:    MenuDevice,
			Key:     s.Serial,
			Label:   fmt.Sprintf("Mute %s: %d%% (%s)", s.Name(), s.Percent(), status),
			Checked: mutes.IsMuted(s.Serial),
		})
	}
	if len(devices) == 0 {
		menu.Items = append(menu.Items, MenuItem{Kind: MenuAction, Key: "none", Label: "No devices connected"})
	}
	menu.Items = append(menu.Items,
		MenuItem{Kind: MenuSetting, Key: "play_sound", Label: "Play sound", Checked: settings.PlaySound},
		MenuItem{Kind: MenuSetting, Key: "desktop", Label: "Desktop notifications", Checked: settings.Desktop},
		MenuItem{Kind: MenuSetting, Key: "ovrt", Label: "OVR Toolkit notifications", Checked: settings.OVRT},
		MenuItem{Kind: MenuSetting, Key: "mqtt", Label: "MQTT notifications", Checked: settings.MQTT},
		MenuItem{Kind: MenuSetting, Key: "events", Label: "Event log", Checked: settings.Events},
		MenuItem{Kind: MenuSetting, Key: "update_interval", Label: fmt.Sprintf("Update every %ds", settings.UpdateInterval)},
		MenuItem{Kind: MenuAction, Key: "exit", Label: "Exit"},
	)
	return menu
}
