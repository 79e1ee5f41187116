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
	"encoding/json"
	"errors"
	"runtime"
	"strings"

	"github.com/TheCacophonyProject/vr-battery-monitor/internal/config"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	dbusName = "org.cacophony.VRBatteryMonitor"
	dbusPath = "/org/cacophony/VRBatteryMonitor"
)

type service struct {
	monitor *Monitor
	store   *config.Store
	quit    func()
}

type deviceInfo struct {
	Index     int     `json:"index"`
	Serial    string  `json:"serial"`
	Name      string  `json:"name"`
	Charging  bool    `json:"charging"`
	Level     float64 `json:"level"`
	Direction string  `json:"direction"`
	Muted     bool    `json:"muted"`
}

func startService(conn *dbus.Conn, s *service) error {
	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return errors.New("name already taken")
	}

	if err := conn.Export(s, dbusPath, dbusName); err != nil {
		return err
	}
	return conn.Export(genIntrospectable(s), dbusPath, "org.freedesktop.DBus.Introspectable")
}

// Menu returns the control menu as JSON.
func (s *service) Menu() (string, *dbus.Error) {
	data, err := json.Marshal(s.monitor.Menu())
	if err != nil {
		return "", dbusErr(err)
	}
	return string(data), nil
}

// ListDevices returns the tracked devices as JSON.
func (s *service) ListDevices() (string, *dbus.Error) {
	mutes := s.store.MuteSet()
	devices := []deviceInfo{}
	for _, d := range s.monitor.Devices() {
		devices = append(devices, deviceInfo{
			Index:     d.LastSample.Index,
			Serial:    d.LastSample.Serial,
			Name:      d.LastSample.Name(),
			Charging:  d.LastSample.Charging,
			Level:     d.LastSample.Level,
			Direction: d.Direction.String(),
			Muted:     mutes.IsMuted(d.LastSample.Serial),
		})
	}
	data, err := json.Marshal(devices)
	if err != nil {
		return "", dbusErr(err)
	}
	return string(data), nil
}

func (s *service) SetMuted(serial string, muted bool) *dbus.Error {
	return dbusErr(s.store.SetMuted(serial, muted))
}

func (s *service) ToggleMute(serial string) (bool, *dbus.Error) {
	muted, err := s.store.ToggleMute(serial)
	if err != nil {
		return muted, dbusErr(err)
	}
	return muted, nil
}

func (s *service) SetNotification(name string, enabled bool) *dbus.Error {
	return dbusErr(s.store.SetNotification(name, enabled))
}

func (s *service) SetUpdateInterval(seconds int32) *dbus.Error {
	return dbusErr(s.store.SetUpdateInterval(int(seconds)))
}

func (s *service) Quit() *dbus.Error {
	log.Info("Quit requested over D-Bus")
	s.quit()
	return nil
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    dbusName,
			Methods: introspect.Methods(v),
		}},
	}
	return introspect.NewIntrospectable(node)
}

func dbusErr(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	return &dbus.Error{
		Name: dbusName + "." + getCallerName(),
		Body: []interface{}{err.Error()},
	}
}

func getCallerName() string {
	fpcs := make([]uintptr, 1)
	n := runtime.Callers(3, fpcs)
	if n == 0 {
		return ""
	}
	caller := runtime.FuncForPC(fpcs[0] - 1)
	if caller == nil {
		return ""
	}
	funcNames := strings.Split(caller.Name(), ".")
	return funcNames[len(funcNames)-1]
}
