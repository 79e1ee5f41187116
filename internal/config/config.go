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

// Package config loads and saves the user settings of the monitor.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/TheCacophonyProject/vr-battery-monitor/internal/logging"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	ConfigFileName = "config.json"
	appDirName     = "vr-battery-monitor"
)

var log = logging.NewLogger("info")

func SetLogger(l *logging.Logger) {
	log = l
}

// Keys of the settings in the config file.
const (
	MutedDevicesKey   = "muted_devices"
	UpdateIntervalKey = "update_interval"
	PlaySoundKey      = "notifications.play_sound"
	DesktopKey        = "notifications.desktop"
	OVRTKey           = "notifications.ovrt"
	MQTTKey           = "notifications.mqtt"
	EventsKey         = "notifications.events"
	MQTTBrokerKey     = "mqtt.broker"
	MQTTTopicKey      = "mqtt.topic"
	MQTTClientIDKey   = "mqtt.client_id"
	OVRTURLKey        = "ovrt.url"
)

var ErrUnknownSetting = errors.New("unknown setting")

type Notifications struct {
	PlaySound bool `json:"play_sound"`
	Desktop   bool `json:"desktop"`
	OVRT      bool `json:"ovrt"`
	MQTT      bool `json:"mqtt"`
	Events    bool `json:"events"`
}

type MQTT struct {
	Broker   string `json:"broker"`
	Topic    string `json:"topic"`
	ClientID string `json:"client_id"`
}

type OVRT struct {
	URL string `json:"url"`
}

type Settings struct {
	MutedDevices   []string      `json:"muted_devices"`
	UpdateInterval int           `json:"update_interval"` // Seconds, at least 1.
	Notifications  Notifications `json:"notifications"`
	MQTT           MQTT          `json:"mqtt"`
	OVRT           OVRT          `json:"ovrt"`
}

func Defaults() Settings {
	return Settings{
		MutedDevices:   []string{},
		UpdateInterval: 10,
		Notifications: Notifications{
			PlaySound: true,
			Desktop:   true,
		},
		MQTT: MQTT{
			Broker:   "tcp://localhost:1883",
			Topic:    "vr-battery-monitor",
			ClientID: "vr-battery-monitor",
		},
		OVRT: OVRT{
			URL: "ws://127.0.0.1:11450/api",
		},
	}
}

func (s Settings) values() map[string]interface{} {
	return map[string]interface{}{
		MutedDevicesKey:   s.MutedDevices,
		UpdateIntervalKey: s.UpdateInterval,
		PlaySoundKey:      s.Notifications.PlaySound,
		DesktopKey:        s.Notifications.Desktop,
		OVRTKey:           s.Notifications.OVRT,
		MQTTKey:           s.Notifications.MQTT,
		EventsKey:         s.Notifications.Events,
		MQTTBrokerKey:     s.MQTT.Broker,
		MQTTTopicKey:      s.MQTT.Topic,
		MQTTClientIDKey:   s.MQTT.ClientID,
		OVRTURLKey:        s.OVRT.URL,
	}
}

// DefaultDir is the per user config folder.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, appDirName)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	for key, val := range Defaults().values() {
		v.SetDefault(key, val)
	}
	return v
}

// readSettings merges the file at path over the defaults. A missing or
// unreadable file gives the defaults.
func readSettings(path string) Settings {
	s, err := readFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Debugf("Failed to read config '%s', using defaults: %v", path, err)
	}
	return s
}

// readFile is readSettings but reports when the file as a whole could not be
// read or parsed. A field that can't be parsed keeps its default while the
// rest of the file is still used.
func readFile(path string) (Settings, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return Defaults(), err
	}
	return decodeSettings(v), nil
}

func decodeSettings(v *viper.Viper) Settings {
	s := Defaults()
	fieldErr := func(key string, err error) {
		log.Debugf("Invalid value for '%s', using default: %v", key, err)
	}
	// A key shadowed by a non object parent reads back as nil.
	get := func(key string) (interface{}, error) {
		val := v.Get(key)
		if val == nil {
			return nil, errors.New("missing")
		}
		return val, nil
	}

	if val, err := get(MutedDevicesKey); err != nil {
		fieldErr(MutedDevicesKey, err)
	} else if muted, err := cast.ToStringSliceE(val); err != nil {
		fieldErr(MutedDevicesKey, err)
	} else {
		s.MutedDevices = dedupe(muted)
	}
	if val, err := get(UpdateIntervalKey); err != nil {
		fieldErr(UpdateIntervalKey, err)
	} else if interval, err := cast.ToIntE(val); err != nil {
		fieldErr(UpdateIntervalKey, err)
	} else {
		s.UpdateInterval = clampInterval(interval)
	}

	bools := map[string]*bool{
		PlaySoundKey: &s.Notifications.PlaySound,
		DesktopKey:   &s.Notifications.Desktop,
		OVRTKey:      &s.Notifications.OVRT,
		MQTTKey:      &s.Notifications.MQTT,
		EventsKey:    &s.Notifications.Events,
	}
	for key, dst := range bools {
		val, err := get(key)
		if err != nil {
			fieldErr(key, err)
			continue
		}
		b, err := cast.ToBoolE(val)
		if err != nil {
			fieldErr(key, err)
			continue
		}
		*dst = b
	}

	strs := map[string]*string{
		MQTTBrokerKey:   &s.MQTT.Broker,
		MQTTTopicKey:    &s.MQTT.Topic,
		MQTTClientIDKey: &s.MQTT.ClientID,
		OVRTURLKey:      &s.OVRT.URL,
	}
	for key, dst := range strs {
		str, err := cast.ToStringE(v.Get(key))
		if err != nil || str == "" {
			fieldErr(key, fmt.Errorf("'%v' is not a usable string", v.Get(key)))
			continue
		}
		*dst = str
	}
	return s
}

// writeSettings replaces the file at path in one rename so a reader never
// sees it half written.
func writeSettings(path string, s Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	v := viper.New()
	v.SetConfigType("json")
	for key, val := range s.values() {
		v.Set(key, val)
	}
	// viper picks the format from the extension.
	tmp := filepath.Join(dir, "."+filepath.Base(path)+".tmp.json")
	if err := v.WriteConfigAs(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func clampInterval(seconds int) int {
	if seconds < 1 {
		return 1
	}
	return seconds
}

func dedupe(serials []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, s := range serials {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
