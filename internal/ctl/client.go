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

package ctl

import (
	"encoding/json"
	"fmt"

	"github.com/TheCacophonyProject/vr-battery-monitor/internal/battery"
	"github.com/godbus/dbus/v5"
)

type device struct {
	Index     int     `json:"index"`
	Serial    string  `json:"serial"`
	Name      string  `json:"name"`
	Charging  bool    `json:"charging"`
	Level     float64 `json:"level"`
	Direction string  `json:"direction"`
	Muted     bool    `json:"muted"`
}

type client struct {
	obj dbus.BusObject
}

func (c client) call(method string, args ...interface{}) error {
	return c.obj.Call(dbusName+"."+method, 0, args...).Err
}

func (c client) callJSON(method string, v interface{}) error {
	var data string
	if err := c.obj.Call(dbusName+"."+method, 0).Store(&data); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("bad response from %s: %w", method, err)
	}
	return nil
}

func (c client) listDevices() ([]device, error) {
	devices := []device{}
	err := c.callJSON("ListDevices", &devices)
	return devices, err
}

func (c client) menu() (battery.Menu, error) {
	menu := battery.Menu{}
	err := c.callJSON("Menu", &menu)
	return menu, err
}

func (c client) setMuted(serial string, muted bool) error {
	return c.call("SetMuted", serial, muted)
}

func (c client) toggleMute(serial string) (bool, error) {
	muted := false
	err := c.obj.Call(dbusName+".ToggleMute", 0, serial).Store(&muted)
	return muted, err
}

func (c client) set(name, value string) error {
	v, err := parseSetting(name, value)
	if err != nil {
		return err
	}
	log.Debugf("Setting %s to %v", name, v)
	if name == "update_interval" {
		return c.call("SetUpdateInterval", v)
	}
	return c.call("SetNotification", name, v)
}
