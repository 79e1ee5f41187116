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

// Package battery tracks the charge trend of VR devices and decides when a
// device has just started discharging.
package battery

import "fmt"

// DeviceSample is a single battery reading for one device slot.
type DeviceSample struct {
	Index    int     `json:"index" yaml:"index"`
	Serial   string  `json:"serial" yaml:"serial"`
	Class    string  `json:"class,omitempty" yaml:"class"`
	Charging bool    `json:"charging" yaml:"charging"`
	Level    float64 `json:"level" yaml:"level"` // Fraction of full charge as reported by the runtime.
}

// Name is how the device is shown to the user.
func (s DeviceSample) Name() string {
	class := s.Class
	if class == "" {
		class = "Unknown"
	}
	return fmt.Sprintf("%s (%s)", s.Serial, class)
}

// Percent returns the level as a percentage, assuming the level is a fraction.
func (s DeviceSample) Percent() int {
	return int(s.Level*100 + 0.5)
}

// Direction is the sign of the last nonzero level change of a device.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionRising
	DirectionFalling
)

func (d Direction) String() string {
	switch d {
	case DirectionRising:
		return "rising"
	case DirectionFalling:
		return "falling"
	default:
		return "unknown"
	}
}

// DeviceState is what is remembered about a device between ticks.
type DeviceState struct {
	LastSample DeviceSample
	Direction  Direction
}
